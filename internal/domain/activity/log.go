package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Log is the append-only, ordered record of everything the producers did.
// The in-memory sequence is the source of truth for "what happened"; every
// append is also written through the repository for durability, best
// effort. A persistence failure is logged as a warning and never blocks
// the caller: publish is the higher-priority guarantee.
type Log struct {
	mu      sync.Mutex
	repo    Repository
	logger  *slog.Logger
	records []Record
	meta    LogMeta
	last    time.Time
	now     func() time.Time
}

// NewLog creates an activity log. repo may be nil, in which case records
// are held in memory only.
func NewLog(repo Repository, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Load reads previously persisted records and metadata into memory.
// Intended to be called once at startup, before any appends.
func (l *Log) Load(ctx context.Context) error {
	if l.repo == nil {
		return nil
	}
	records, err := l.repo.List(ctx, ListOptions{})
	if err != nil {
		return err
	}
	meta, err := l.repo.Meta(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	l.meta = meta
	if n := len(records); n > 0 {
		l.last = records[n-1].Timestamp
	}
	return nil
}

// Append stamps the record with a monotonically non-decreasing creation
// instant and adds it to the log. The returned record carries the stamp.
// Append never fails from the caller's point of view. The repository
// write happens under the same lock as the in-memory append, so the
// persisted order always matches the in-memory order.
func (l *Log) Append(ctx context.Context, rec Record) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if ts.Before(l.last) {
		ts = l.last
	}
	l.last = ts
	rec.Timestamp = ts
	if rec.Description == "" {
		rec.Description = string(rec.Action)
	}
	if l.meta.Created.IsZero() {
		l.meta = LogMeta{Version: Version, Created: ts}
		if l.repo != nil {
			if err := l.repo.SetMeta(ctx, l.meta); err != nil {
				l.logger.Warn("failed to persist log metadata", "error", err)
			}
		}
	}
	if l.repo != nil {
		if err := l.repo.Append(ctx, &rec); err != nil {
			l.logger.Warn("failed to persist activity record",
				"action", rec.Action, "error", err)
		}
	}
	l.records = append(l.records, rec)
	return rec
}

// All returns the full ordered sequence as a defensive copy.
func (l *Log) All() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records logged so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Meta returns the log header. The zero value is returned before the
// first write.
func (l *Log) Meta() LogMeta {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.meta
}
