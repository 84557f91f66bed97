package pipeline

import (
	"context"

	"github.com/ganot/mongoose/internal/domain/activity"
)

// Publisher records a batch against an external backend. Implementations
// are expected to be idempotent-hostile sequential logs (a commit
// history), which is why the pipeline guarantees at most one Publish call
// in flight at a time.
type Publisher interface {
	Publish(ctx context.Context, batch []activity.Record, message string, logJSON []byte) error
}
