package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/domain/pipeline"
	"github.com/google/uuid"
)

// Defaults used when a run request leaves inputs blank.
var (
	defaultTokenHash  = "demo" + strings.Repeat("0", 60)
	defaultTokenValue = 18_160_000_000.0
)

// Ingestor is the single entry point carts use to report results.
// Carts never touch the queue or log directly.
type Ingestor interface {
	Ingest(ctx context.Context, req pipeline.IngestRequest) activity.Record
}

// Runner orchestrates all carts and reports each run through the
// pipeline as one cart_run record.
type Runner struct {
	ingestor Ingestor
	log      *activity.Log
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a cart runner.
func NewRunner(ingestor Ingestor, log *activity.Log, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		ingestor: ingestor,
		log:      log,
		logger:   logger,
		now:      time.Now,
	}
}

// RunRequest carries the optional inputs of a cart run.
type RunRequest struct {
	Query      string
	TokenHash  string
	TokenValue float64
}

// RunSummary counts cart completions for one run.
type RunSummary struct {
	Total     int `json:"total_carts"`
	Completed int `json:"completed"`
}

// RunResult aggregates the payloads of all carts for one run.
type RunResult struct {
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	Memory    MemoryResult  `json:"memory_search"`
	Signal    Signal        `json:"signal_generator"`
	Artifact  Artifact      `json:"robotic_builder"`
	Movement  MovementToken `json:"location_tracker"`
	Summary   RunSummary    `json:"summary"`
}

// Run executes every cart in sequence and ingests one record describing
// the run. Individual cart payloads land in the record's attributes.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.TokenHash == "" {
		req.TokenHash = defaultTokenHash
	}
	if req.TokenValue <= 0 {
		req.TokenValue = defaultTokenValue
	}

	now := r.now()
	result := &RunResult{
		RunID:     uuid.NewString(),
		Timestamp: now,
	}

	result.Memory = SearchMemory(r.log.All(), req.Query, now)
	result.Signal = GenerateSignal(req.TokenHash, req.TokenValue, now)
	result.Artifact = CreateBuildArtifact(req.TokenHash, req.TokenValue, MemoryText(result.Memory, 10), now)

	gestures := []Gesture{
		TrackTap(100, 200, 0.8, "demo", now),
		TrackSlide(100, 200, 300, 400, 0.5, "demo", now),
	}
	movement, err := CalculateMovementToken(gestures, now)
	if err != nil {
		return nil, fmt.Errorf("calculating movement token: %w", err)
	}
	result.Movement = movement
	result.Summary = RunSummary{Total: 4, Completed: 4}

	r.logger.Info("cart run completed",
		"run_id", result.RunID,
		"completed", result.Summary.Completed,
		"total", result.Summary.Total)

	r.ingestor.Ingest(ctx, pipeline.IngestRequest{
		Action: activity.ActionCartRun,
		Description: fmt.Sprintf("%d/%d carts completed • run %.8s",
			result.Summary.Completed, result.Summary.Total, result.RunID),
		Value: result.Signal.TokenValue,
		Attributes: map[string]any{
			"run_id":         result.RunID,
			"completed":      result.Summary.Completed,
			"total_carts":    result.Summary.Total,
			"base_frequency": result.Signal.BaseFrequency,
			"build_tier":     result.Artifact.Build.Tier,
			"movement_value": result.Movement.TotalValue,
		},
	})

	return result, nil
}
