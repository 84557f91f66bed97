package cart

import (
	"hash/fnv"
	"math"
	"strconv"
	"time"
)

// Signal frequency bounds in Hz.
const (
	minFrequency = 40.0
	maxFrequency = 40000.0
)

// Harmonic is one overtone of a generated signal.
type Harmonic struct {
	Frequency float64 `json:"frequency"`
	Amplitude float64 `json:"amplitude"`
	Phase     uint8   `json:"phase"`
}

// Tuning carries the hash-derived tuning parameters of a signal.
type Tuning struct {
	Coherence     float64 `json:"coherence"`
	Entanglement  float64 `json:"entanglement_factor"`
	ResonanceMode uint8   `json:"resonance_mode"`
}

// Signal is the result payload of the signal generator cart.
type Signal struct {
	Timestamp     time.Time  `json:"timestamp"`
	TokenHash     string     `json:"token_hash"`
	TokenValue    float64    `json:"token_value"`
	BaseFrequency float64    `json:"base_frequency"`
	Harmonics     []Harmonic `json:"harmonics"`
	Tuning        Tuning     `json:"tuning"`
	Waveform      string     `json:"waveform"`
	Duration      float64    `json:"duration"`
}

// FrequencyFromValue maps a token value to a frequency using logarithmic
// scaling, clamped to the audible-to-ultrasonic band 40 Hz – 40 kHz.
func FrequencyFromValue(value float64) float64 {
	if value <= 0 {
		return minFrequency
	}
	logValue := math.Log10(math.Max(value, 1))
	freq := minFrequency * math.Pow(10, logValue/10)
	return math.Min(math.Max(freq, minFrequency), maxFrequency)
}

// GenerateSignal derives signal parameters from a token hash and value.
// The same inputs always produce the same signal.
func GenerateSignal(tokenHash string, value float64, now time.Time) Signal {
	hashInt := hashSeed(tokenHash)
	baseFreq := FrequencyFromValue(value)

	harmonics := make([]Harmonic, 0, 5)
	for i := 1; i <= 5; i++ {
		harmonics = append(harmonics, Harmonic{
			Frequency: baseFreq * float64(i),
			Amplitude: 1.0 / float64(i),
			Phase:     uint8(hashInt >> (uint(i) * 8)),
		})
	}

	return Signal{
		Timestamp:     now,
		TokenHash:     tokenHash,
		TokenValue:    value,
		BaseFrequency: baseFreq,
		Harmonics:     harmonics,
		Tuning: Tuning{
			Coherence:     float64(hashInt&0xFFFF) / 0xFFFF,
			Entanglement:  float64((hashInt>>16)&0xFFFF) / 0xFFFF,
			ResonanceMode: uint8(hashInt >> 32),
		},
		Waveform: "sine",
		Duration: 1.0,
	}
}

// SweepStep is one point of a frequency sweep.
type SweepStep struct {
	Step      int     `json:"step"`
	Value     float64 `json:"value"`
	Frequency float64 `json:"frequency"`
}

// Sweep generates frequencies across a value range. Fewer than two steps
// are rounded up to two.
func Sweep(startValue, endValue float64, steps int) []SweepStep {
	if steps <= 1 {
		steps = 2
	}
	out := make([]SweepStep, 0, steps)
	for i := 0; i < steps; i++ {
		value := startValue + (endValue-startValue)*float64(i)/float64(steps-1)
		out = append(out, SweepStep{
			Step:      i,
			Value:     value,
			Frequency: FrequencyFromValue(value),
		})
	}
	return out
}

// Composite combines several signals into one.
type Composite struct {
	Timestamp        time.Time `json:"timestamp"`
	ComponentCount   int       `json:"component_count"`
	AverageFrequency float64   `json:"average_frequency"`
	MinFrequency     float64   `json:"min_frequency"`
	MaxFrequency     float64   `json:"max_frequency"`
	Components       []Signal  `json:"components"`
}

// CombineSignals merges signals into a composite.
func CombineSignals(signals []Signal, now time.Time) (Composite, error) {
	if len(signals) == 0 {
		return Composite{}, ErrNoSignals
	}

	comp := Composite{
		Timestamp:      now,
		ComponentCount: len(signals),
		MinFrequency:   signals[0].BaseFrequency,
		MaxFrequency:   signals[0].BaseFrequency,
		Components:     signals,
	}
	var sum float64
	for _, s := range signals {
		sum += s.BaseFrequency
		comp.MinFrequency = math.Min(comp.MinFrequency, s.BaseFrequency)
		comp.MaxFrequency = math.Max(comp.MaxFrequency, s.BaseFrequency)
	}
	comp.AverageFrequency = sum / float64(len(signals))
	return comp, nil
}

// hashSeed extracts a deterministic 64-bit seed from a token hash. The
// first 16 hex digits are used directly; anything else is hashed.
func hashSeed(tokenHash string) uint64 {
	if len(tokenHash) >= 16 {
		if n, err := strconv.ParseUint(tokenHash[:16], 16, 64); err == nil {
			return n
		}
	}
	h := fnv.New64a()
	h.Write([]byte(tokenHash))
	return h.Sum64()
}
