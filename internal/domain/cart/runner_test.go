package cart

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/domain/pipeline"
)

type recordingIngestor struct {
	requests []pipeline.IngestRequest
}

func (r *recordingIngestor) Ingest(ctx context.Context, req pipeline.IngestRequest) activity.Record {
	r.requests = append(r.requests, req)
	return activity.Record{
		Timestamp:   time.Now(),
		Action:      req.Action,
		Description: req.Description,
		Value:       req.Value,
		Attributes:  req.Attributes,
	}
}

func TestRunnerRun_Defaults(t *testing.T) {
	log := activity.NewLog(nil, slog.Default())
	ingestor := &recordingIngestor{}
	runner := NewRunner(ingestor, log, slog.Default())
	runner.now = func() time.Time {
		return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	}

	result, err := runner.Run(context.Background(), RunRequest{})
	require.NoError(t, err)

	require.NotEmpty(t, result.RunID)
	require.Equal(t, 4, result.Summary.Total)
	require.Equal(t, 4, result.Summary.Completed)

	// Blank inputs fall back to the demo token
	require.Equal(t, 18_160_000_000.0, result.Signal.TokenValue)
	require.Equal(t, defaultTokenHash, result.Signal.TokenHash)
	require.Equal(t, TierAdvanced, result.Artifact.Build.Tier)

	// The demo gestures yield one tap and one slide
	require.Equal(t, 1, result.Movement.Taps)
	require.Equal(t, 1, result.Movement.Slides)
}

func TestRunnerRun_IngestsOneRecord(t *testing.T) {
	log := activity.NewLog(nil, slog.Default())
	log.Append(context.Background(), activity.Record{
		Action:      activity.ActionTokenGenerated,
		Description: "generated demo token",
	})

	ingestor := &recordingIngestor{}
	runner := NewRunner(ingestor, log, slog.Default())

	result, err := runner.Run(context.Background(), RunRequest{Query: "token"})
	require.NoError(t, err)
	require.Len(t, result.Memory.Matches, 1)

	require.Len(t, ingestor.requests, 1)
	req := ingestor.requests[0]
	require.Equal(t, activity.ActionCartRun, req.Action)
	require.Contains(t, req.Description, "4/4 carts completed")
	require.Equal(t, result.Signal.TokenValue, req.Value)
	require.Equal(t, result.RunID, req.Attributes["run_id"])
	require.Equal(t, result.Artifact.Build.Tier, req.Attributes["build_tier"])
}

func TestRunnerRun_CustomToken(t *testing.T) {
	log := activity.NewLog(nil, slog.Default())
	ingestor := &recordingIngestor{}
	runner := NewRunner(ingestor, log, slog.Default())

	result, err := runner.Run(context.Background(), RunRequest{
		TokenHash:  "abcdef0123456789",
		TokenValue: 2e12,
	})
	require.NoError(t, err)
	require.Equal(t, "abcdef0123456789", result.Signal.TokenHash)
	require.Equal(t, TierQuantum, result.Artifact.Build.Tier)
}
