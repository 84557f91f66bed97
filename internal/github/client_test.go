package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/retry"
)

// fakeGitAPI emulates the git data endpoints used by Publish.
type fakeGitAPI struct {
	mu       sync.Mutex
	requests []string
	blobs    map[string]string
	refSHA   string
	failWith map[string]int // path suffix -> status code

	lastMessage string
	lastParents []string
	lastForce   *bool
}

func newFakeGitAPI() *fakeGitAPI {
	return &fakeGitAPI{
		blobs:    map[string]string{},
		refSHA:   "tip000",
		failWith: map[string]int{},
	}
}

func (f *fakeGitAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		key := r.Method + " " + r.URL.Path
		f.requests = append(f.requests, key)

		for suffix, code := range f.failWith {
			if r.Method+" "+r.URL.Path == suffix {
				http.Error(w, `{"message":"injected failure"}`, code)
				return
			}
		}

		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		switch {
		case key == "GET /repos/owner/repo/git/ref/heads/main":
			fmt.Fprintf(w, `{"object":{"sha":%q}}`, f.refSHA)
		case key == "GET /repos/owner/repo/git/commits/"+f.refSHA:
			fmt.Fprintf(w, `{"sha":%q,"tree":{"sha":"tree000"}}`, f.refSHA)
		case key == "POST /repos/owner/repo/git/blobs":
			f.blobs["blob001"] = body["content"].(string)
			fmt.Fprint(w, `{"sha":"blob001"}`)
		case key == "POST /repos/owner/repo/git/trees":
			require.Equal(t, "tree000", body["base_tree"])
			fmt.Fprint(w, `{"sha":"tree001"}`)
		case key == "POST /repos/owner/repo/git/commits":
			f.lastMessage = body["message"].(string)
			for _, p := range body["parents"].([]any) {
				f.lastParents = append(f.lastParents, p.(string))
			}
			fmt.Fprint(w, `{"sha":"commit001"}`)
		case key == "PATCH /repos/owner/repo/git/refs/heads/main":
			force := body["force"].(bool)
			f.lastForce = &force
			f.refSHA = body["sha"].(string)
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected request %s", key)
			http.NotFound(w, r)
		}
	})
}

func newTestClient(t *testing.T, api *fakeGitAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	client, err := New(Config{
		Token:      "test-token",
		Repository: "owner/repo",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	return client
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{Token: "t"})
	require.Error(t, err)

	_, err = New(Config{Repository: "owner/repo"})
	require.Error(t, err)

	client, err := New(Config{Token: "t", Repository: "owner/repo"})
	require.NoError(t, err)
	require.Equal(t, "main", client.branch)
	require.Equal(t, "mongoose/activity_log.json", client.path)
}

func TestPublish_CommitSequence(t *testing.T) {
	api := newFakeGitAPI()
	client := newTestClient(t, api)

	logJSON := []byte(`{"activities":[],"version":"1.0","created":"2026-03-01T10:00:00Z"}`)
	batch := []activity.Record{{Action: activity.ActionTokenGenerated}}

	err := client.Publish(context.Background(), batch, "[TOKEN_GENERATED] demo • 10:00:00", logJSON)
	require.NoError(t, err)

	require.Equal(t, []string{
		"GET /repos/owner/repo/git/ref/heads/main",
		"GET /repos/owner/repo/git/commits/tip000",
		"POST /repos/owner/repo/git/blobs",
		"POST /repos/owner/repo/git/trees",
		"POST /repos/owner/repo/git/commits",
		"PATCH /repos/owner/repo/git/refs/heads/main",
	}, api.requests)

	// Blob content is the base64 of the log document
	decoded, err := base64.StdEncoding.DecodeString(api.blobs["blob001"])
	require.NoError(t, err)
	require.Equal(t, logJSON, decoded)

	require.Equal(t, "[TOKEN_GENERATED] demo • 10:00:00", api.lastMessage)
	require.Equal(t, []string{"tip000"}, api.lastParents)

	// Fast-forward only: never force-push
	require.NotNil(t, api.lastForce)
	require.False(t, *api.lastForce)
	require.Equal(t, "commit001", api.refSHA)
}

func TestPublish_RefConflictIsRetryable(t *testing.T) {
	api := newFakeGitAPI()
	api.failWith["PATCH /repos/owner/repo/git/refs/heads/main"] = http.StatusConflict
	client := newTestClient(t, api)

	err := client.Publish(context.Background(), nil, "msg", []byte("{}"))
	require.Error(t, err)
	require.True(t, retry.IsRetryable(err), "a moved ref should be retried as a whole")

	var httpErr *retry.HTTPStatusError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusConflict, httpErr.StatusCode)
}

func TestPublish_AuthRejectionNotRetryable(t *testing.T) {
	api := newFakeGitAPI()
	api.failWith["GET /repos/owner/repo/git/ref/heads/main"] = http.StatusUnauthorized
	client := newTestClient(t, api)

	err := client.Publish(context.Background(), nil, "msg", []byte("{}"))
	require.Error(t, err)
	require.False(t, retry.IsRetryable(err))

	// The sequence aborts at the first failed step
	require.Equal(t, []string{"GET /repos/owner/repo/git/ref/heads/main"}, api.requests)
}

func TestPublish_MidSequenceFailureAborts(t *testing.T) {
	api := newFakeGitAPI()
	api.failWith["POST /repos/owner/repo/git/blobs"] = http.StatusBadGateway
	client := newTestClient(t, api)

	err := client.Publish(context.Background(), nil, "msg", []byte("{}"))
	require.Error(t, err)
	require.True(t, retry.IsRetryable(err))

	// No tree, commit, or ref update after the blob failed; the ref is
	// untouched so a later retry cannot duplicate history.
	require.Len(t, api.requests, 3)
	require.Equal(t, "tip000", api.refSHA)
}
