package cart

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// Gesture kinds tracked by the location tracker cart.
const (
	GestureTap   = "tap"
	GestureSlide = "slide"
)

// Gesture is one tracked user gesture with its derived token value.
type Gesture struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
	User       string    `json:"user"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	EndX       float64   `json:"end_x,omitempty"`
	EndY       float64   `json:"end_y,omitempty"`
	Force      float64   `json:"force,omitempty"`
	Distance   float64   `json:"distance,omitempty"`
	Duration   float64   `json:"duration,omitempty"`
	Velocity   float64   `json:"velocity,omitempty"`
	TokenValue float64   `json:"token_value"`
}

// TrackTap records a tap. Force in [0,1] scales the value from $1 to $100.
func TrackTap(x, y, force float64, user string, now time.Time) Gesture {
	return Gesture{
		Timestamp:  now,
		Type:       GestureTap,
		User:       user,
		X:          x,
		Y:          y,
		Force:      force,
		TokenValue: 1.0 * (1 + force*99),
	}
}

// TrackSlide records a slide. Distance and velocity factors are each
// capped at 10x, scaling the value from $10 to $1000.
func TrackSlide(startX, startY, endX, endY, duration float64, user string, now time.Time) Gesture {
	distance := math.Hypot(endX-startX, endY-startY)
	velocity := distance / math.Max(duration, 0.01)

	distanceFactor := math.Min(distance/100, 10)
	velocityFactor := math.Min(velocity/100, 10)

	return Gesture{
		Timestamp:  now,
		Type:       GestureSlide,
		User:       user,
		X:          startX,
		Y:          startY,
		EndX:       endX,
		EndY:       endY,
		Distance:   distance,
		Duration:   duration,
		Velocity:   velocity,
		TokenValue: 10.0 * (1 + distanceFactor + velocityFactor),
	}
}

// MovementToken aggregates a series of gestures into one token.
type MovementToken struct {
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash"`
	EventCount int       `json:"event_count"`
	Taps       int       `json:"taps"`
	Slides     int       `json:"slides"`
	TotalValue float64   `json:"total_value"`
	Events     []Gesture `json:"events"`
}

// CalculateMovementToken folds gestures into a movement token. The hash
// is derived from the event timestamps, so identical series produce
// identical tokens.
func CalculateMovementToken(events []Gesture, now time.Time) (MovementToken, error) {
	if len(events) == 0 {
		return MovementToken{}, ErrNoEvents
	}

	token := MovementToken{
		Timestamp:  now,
		EventCount: len(events),
		Events:     events,
	}
	h := fnv.New64a()
	for _, e := range events {
		token.TotalValue += e.TokenValue
		switch e.Type {
		case GestureTap:
			token.Taps++
		case GestureSlide:
			token.Slides++
		}
		fmt.Fprint(h, e.Timestamp.UnixNano())
	}
	token.Hash = fmt.Sprintf("%016x", h.Sum64())
	return token, nil
}
