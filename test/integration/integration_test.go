package integration_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/domain/cart"
	"github.com/ganot/mongoose/internal/domain/pipeline"
	"github.com/ganot/mongoose/internal/github"
	"github.com/ganot/mongoose/internal/retry"
	"github.com/ganot/mongoose/internal/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// gitBackend emulates the git data API endpoints used on publish.
type gitBackend struct {
	mu          sync.Mutex
	refSHA      string
	commits     int
	lastBlob    []byte
	lastMessage string
	conflicts   int // remaining PATCH requests to reject with 409
}

func newGitBackend() *gitBackend {
	return &gitBackend{refSHA: "tip000"}
}

func (g *gitBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/git/ref/heads/"):
			fmt.Fprintf(w, `{"object":{"sha":%q}}`, g.refSHA)
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/git/commits/"):
			fmt.Fprintf(w, `{"sha":%q,"tree":{"sha":"tree000"}}`, g.refSHA)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/git/blobs"):
			data, _ := base64.StdEncoding.DecodeString(body["content"].(string))
			g.lastBlob = data
			fmt.Fprint(w, `{"sha":"blob001"}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/git/trees"):
			fmt.Fprint(w, `{"sha":"tree001"}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/git/commits"):
			g.lastMessage = body["message"].(string)
			g.commits++
			fmt.Fprintf(w, `{"sha":"commit%03d"}`, g.commits)
		case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/git/refs/heads/"):
			if g.conflicts > 0 {
				g.conflicts--
				http.Error(w, `{"message":"is not a fast forward"}`, http.StatusConflict)
				return
			}
			g.refSHA = body["sha"].(string)
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	})
}

func newEnv(t *testing.T, backend *gitBackend) (*pipeline.Pipeline, *gitBackend) {
	t.Helper()
	if backend == nil {
		backend = newGitBackend()
	}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client, err := github.New(github.Config{
		Token:      "test-token",
		Repository: "owner/repo",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	db := newTestDB(t)
	log := activity.NewLog(sqlite.NewActivityRepository(db), nil)
	require.NoError(t, log.Load(context.Background()))

	pipe := pipeline.New(pipeline.Config{
		Log:       log,
		Publisher: client,
		Active:    false,
	})
	return pipe, backend
}

func TestIntegration_PublishEndToEnd(t *testing.T) {
	ctx := context.Background()
	pipe, backend := newEnv(t, nil)

	pipe.Ingest(ctx, pipeline.IngestRequest{
		Action:      activity.ActionTokenGenerated,
		Description: "generated demo token",
		Value:       18_160_000_000,
	})
	pipe.Ingest(ctx, pipeline.IngestRequest{
		Action:      activity.ActionRoleSelected,
		Description: "selected builder role",
	})

	require.NoError(t, pipe.Drain(ctx))

	// One commit landed on the branch tip
	require.Equal(t, 1, backend.commits)
	require.Equal(t, "commit001", backend.refSHA)
	require.True(t, strings.HasPrefix(backend.lastMessage, "[ROLE_SELECTED] selected builder role"))

	// The committed blob is the full activity document
	records, meta, err := activity.ParseExport(backend.lastBlob)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, activity.Version, meta.Version)
	require.Equal(t, "generated demo token", records[0].Description)

	status := pipe.Status()
	require.Equal(t, 0, status.QueueLength)
	require.Equal(t, 2, status.TotalLogged)
}

func TestIntegration_RefConflictRetried(t *testing.T) {
	ctx := context.Background()
	backend := newGitBackend()
	backend.conflicts = 1
	pipe, _ := newEnv(t, backend)

	pipe.Ingest(ctx, pipeline.IngestRequest{Action: activity.ActionCartRun, Description: "run"})

	cfg := retry.Config{MaxAttempts: 3, InitialBackoff: 1, Multiplier: 2.0}
	require.NoError(t, pipe.Flush(ctx, cfg))

	// Two attempts, but history moved forward exactly once: the first
	// attempt's commit never became the ref, so the retry is not a duplicate.
	require.Equal(t, 2, backend.commits)
	require.Equal(t, "commit002", backend.refSHA)
	require.Equal(t, 0, pipe.Status().QueueLength)
}

func TestIntegration_RestartRecoversLog(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	log := activity.NewLog(sqlite.NewActivityRepository(db), nil)
	require.NoError(t, log.Load(ctx))

	pipe := pipeline.New(pipeline.Config{Log: log, Active: false})
	pipe.Ingest(ctx, pipeline.IngestRequest{Action: activity.ActionTokenGenerated, Description: "before restart"})
	pipe.Ingest(ctx, pipeline.IngestRequest{Action: activity.ActionRoleSelected, Description: "also before"})
	firstMeta := log.Meta()

	// A new process over the same database sees the same history
	reloaded := activity.NewLog(sqlite.NewActivityRepository(db), nil)
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, 2, reloaded.Len())
	require.Equal(t, firstMeta.Version, reloaded.Meta().Version)

	all := reloaded.All()
	require.Equal(t, "before restart", all[0].Description)
	require.Equal(t, "also before", all[1].Description)

	// Appends after reload stay behind none of the restored records
	rec := reloaded.Append(ctx, activity.Record{Action: activity.ActionCartRun})
	require.False(t, rec.Timestamp.Before(all[1].Timestamp))
}

func TestIntegration_CartRunFlowsThroughPipeline(t *testing.T) {
	ctx := context.Background()
	pipe, backend := newEnv(t, nil)

	runner := cart.NewRunner(pipe, pipe.Log(), nil)
	result, err := runner.Run(ctx, cart.RunRequest{})
	require.NoError(t, err)

	require.NoError(t, pipe.Drain(ctx))
	require.Equal(t, 1, backend.commits)
	require.Contains(t, backend.lastMessage, "[CART_RUN] 4/4 carts completed")
	require.Contains(t, backend.lastMessage, "$18.16B")

	records, _, err := activity.ParseExport(backend.lastBlob)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, result.RunID, records[0].Attributes["run_id"])
}
