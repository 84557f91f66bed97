package activity

import "time"

// Action tags the producer event that created a record. Tags are open:
// producers may introduce new ones without any pipeline changes.
type Action string

// Well-known actions emitted by the built-in producers.
const (
	ActionTokenGenerated  Action = "token_generated"
	ActionRoleSelected    Action = "role_selected"
	ActionCartRun         Action = "cart_run"
	ActionGestureTracked  Action = "gesture_tracked"
	ActionTextCategorized Action = "text_categorized"
)

// Record is the canonical unit flowing through the pipeline. A record has
// no externally visible unique ID; its position in the log is its identity.
type Record struct {
	ID          int64          `json:"-"`
	Timestamp   time.Time      `json:"timestamp"`
	Action      Action         `json:"action"`
	Description string         `json:"description"`
	Value       float64        `json:"value,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// LogMeta is the log-level header: a format version tag and the creation
// instant, set once on first write.
type LogMeta struct {
	Version string    `json:"version"`
	Created time.Time `json:"created"`
}

// Version is the current durable log format version.
const Version = "1.0"
