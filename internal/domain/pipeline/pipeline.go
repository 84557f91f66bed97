package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/retry"
)

// Pipeline owns the activity log, the commit queue, and the single-flight
// guard. It is instantiated once per process and shared by all producers.
//
// Delivery is at-least-once: if the backend accepts a commit but the
// acknowledgment is lost before local state updates, the batch is
// restored and may be published again. That window is narrow and accepted.
type Pipeline struct {
	log    *activity.Log
	queue  *commitQueue
	logger *slog.Logger

	mu          sync.Mutex
	publisher   Publisher
	active      bool
	unpublished int

	drains sync.WaitGroup
}

// Config wires a pipeline together.
type Config struct {
	Log *activity.Log
	// Publisher may be nil when credentials are absent; the pipeline then
	// logs locally and reports batches as not externally published.
	Publisher Publisher
	// Active enables ingestion-triggered drains. When false, batches wait
	// for an explicit Drain or Flush.
	Active bool
	Logger *slog.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	log := cfg.Log
	if log == nil {
		log = activity.NewLog(nil, logger)
	}
	return &Pipeline{
		log:       log,
		queue:     newCommitQueue(),
		logger:    logger,
		publisher: cfg.Publisher,
		active:    cfg.Active,
	}
}

// IngestRequest describes one producer event.
type IngestRequest struct {
	Action      activity.Action
	Description string
	Value       float64
	Attributes  map[string]any
}

// Ingest appends the event to the durable log, enqueues it for publish,
// and, in active mode, triggers a drain if none is in flight. It is
// synchronous and never fails from the caller's point of view.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) activity.Record {
	if req.Value < 0 {
		req.Value = 0
	}
	rec := p.log.Append(ctx, activity.Record{
		Action:      req.Action,
		Description: req.Description,
		Value:       req.Value,
		Attributes:  req.Attributes,
	})
	p.queue.enqueue(rec)

	if p.isActive() {
		p.triggerDrain()
	}
	return rec
}

// Drain publishes the pending records as one batch. It is an idempotent
// no-op while a publish attempt is in flight or when the queue is empty.
// A retryable failure restores the batch to the front of the queue; the
// next ingestion-triggered drain or explicit call retries it. A
// non-retryable failure drops the batch from the retry path; the durable
// log still holds every record.
func (p *Pipeline) Drain(ctx context.Context) error {
	batch, ok := p.queue.begin()
	if !ok {
		return nil
	}

	pub := p.currentPublisher()
	if pub == nil {
		p.addUnpublished(len(batch))
		p.logger.Info("publish not configured, batch logged locally only",
			"records", len(batch))
		p.finishAndReschedule(nil)
		return ErrNotConfigured
	}

	message := FormatCommitMessage(batch)
	logJSON, err := p.log.ExportJSON()
	if err != nil {
		// Cannot build the payload; restore the batch untouched.
		p.finishAndReschedule(batch)
		return fmt.Errorf("encoding activity log: %w", err)
	}

	err = pub.Publish(ctx, batch, message, logJSON)
	if err == nil {
		p.logger.Info("published batch", "records", len(batch), "message", message)
		p.finishAndReschedule(nil)
		return nil
	}

	if retry.IsRetryable(err) {
		p.logger.Warn("publish failed, batch restored for retry",
			"records", len(batch), "error", err)
		p.queue.finish(batch)
		return fmt.Errorf("publishing batch: %w", err)
	}

	p.addUnpublished(len(batch))
	p.logger.Error("publish rejected, batch dropped from retry path",
		"records", len(batch), "error", err)
	p.queue.finish(nil)
	return fmt.Errorf("publishing batch: %w", err)
}

// Flush drains with bounded retry. It is the explicit external trigger
// for operators; automatic retries never happen outside this budget.
func (p *Pipeline) Flush(ctx context.Context, cfg retry.Config) error {
	return retry.Do(ctx, cfg, p.Drain)
}

// Status returns a read-only snapshot of the pipeline.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	active := p.active
	hasCreds := p.publisher != nil
	unpublished := p.unpublished
	p.mu.Unlock()

	return Status{
		ActiveMode:     active,
		HasCredentials: hasCreds,
		QueueLength:    p.queue.len(),
		InFlight:       p.queue.inflight(),
		TotalLogged:    p.log.Len(),
		Unpublished:    unpublished,
	}
}

// Status is a point-in-time view of the pipeline, with no side effects.
type Status struct {
	ActiveMode     bool `json:"active_mode"`
	HasCredentials bool `json:"has_credentials"`
	QueueLength    int  `json:"queue_length"`
	InFlight       bool `json:"in_flight"`
	TotalLogged    int  `json:"total_logged"`
	Unpublished    int  `json:"unpublished"`
}

// Log exposes the underlying activity log.
func (p *Pipeline) Log() *activity.Log {
	return p.log
}

// SetPublisher installs or withdraws publish credentials. Withdrawing
// only prevents future drains; an in-flight attempt runs to completion.
func (p *Pipeline) SetPublisher(pub Publisher) {
	p.mu.Lock()
	p.publisher = pub
	p.mu.Unlock()
}

// Wait blocks until all ingestion-triggered drains have resolved. It is
// intended for shutdown and tests.
func (p *Pipeline) Wait() {
	p.drains.Wait()
}

func (p *Pipeline) triggerDrain() {
	p.drains.Add(1)
	go func() {
		defer p.drains.Done()
		// Errors are already logged and reconciled inside Drain; an
		// ingestion-triggered drain has no caller to report to.
		_ = p.Drain(context.Background())
	}()
}

// finishAndReschedule releases the single-flight slot and, when records
// arrived mid-flight, schedules another drain in active mode.
func (p *Pipeline) finishAndReschedule(restore []activity.Record) {
	refilled := p.queue.finish(restore)
	if refilled && p.isActive() {
		p.triggerDrain()
	}
}

func (p *Pipeline) currentPublisher() Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publisher
}

func (p *Pipeline) isActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pipeline) addUnpublished(n int) {
	p.mu.Lock()
	p.unpublished += n
	p.mu.Unlock()
}
