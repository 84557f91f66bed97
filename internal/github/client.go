// Package github publishes activity batches to a hosted git backend using
// the git data API: blob, tree, commit, then a fast-forward ref update.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/retry"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultBranch  = "main"
	defaultPath    = "mongoose/activity_log.json"
)

// Client publishes batches by committing the serialized activity log to a
// repository. It implements pipeline.Publisher.
type Client struct {
	baseURL    string
	token      string
	repository string // "owner/repo"
	branch     string
	path       string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds the publish target and credentials.
type Config struct {
	// Token is the bearer token. Required.
	Token string
	// Repository is the "owner/repo" target. Required.
	Repository string
	// Branch defaults to "main".
	Branch string
	// Path is the file committed on each publish. Defaults to
	// "mongoose/activity_log.json".
	Path string
	// BaseURL overrides the API endpoint, for tests and GHE.
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New creates a client. Both token and repository must be present; the
// caller decides what "absent credentials" means (it should not construct
// a client at all).
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" || cfg.Repository == "" {
		return nil, fmt.Errorf("github: token and repository are required")
	}
	c := &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		repository: cfg.Repository,
		branch:     cfg.Branch,
		path:       cfg.Path,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.branch == "" {
		c.branch = defaultBranch
	}
	if c.path == "" {
		c.path = defaultPath
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

type refResponse struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type commitResponse struct {
	SHA  string `json:"sha"`
	Tree struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

type shaResponse struct {
	SHA string `json:"sha"`
}

// Publish commits the serialized log with the given message. The sequence
// is: resolve branch tip, resolve its tree, create a blob, create a tree
// on top of the prior one, create a commit with the tip as parent, then
// fast-forward the ref. Any step failure aborts the remaining steps.
func (c *Client) Publish(ctx context.Context, batch []activity.Record, message string, logJSON []byte) error {
	repo := strings.TrimSuffix(c.repository, "/")

	var ref refResponse
	if err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("/repos/%s/git/ref/heads/%s", repo, c.branch), nil, &ref); err != nil {
		return fmt.Errorf("resolving branch tip: %w", err)
	}
	tipSHA := ref.Object.SHA

	var tip commitResponse
	if err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("/repos/%s/git/commits/%s", repo, tipSHA), nil, &tip); err != nil {
		return fmt.Errorf("resolving tip tree: %w", err)
	}

	var blob shaResponse
	if err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/git/blobs", repo), map[string]string{
			"content":  base64.StdEncoding.EncodeToString(logJSON),
			"encoding": "base64",
		}, &blob); err != nil {
		return fmt.Errorf("creating blob: %w", err)
	}

	var tree shaResponse
	if err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/git/trees", repo), map[string]any{
			"base_tree": tip.Tree.SHA,
			"tree": []map[string]string{{
				"path": c.path,
				"mode": "100644",
				"type": "blob",
				"sha":  blob.SHA,
			}},
		}, &tree); err != nil {
		return fmt.Errorf("creating tree: %w", err)
	}

	var commit shaResponse
	if err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/git/commits", repo), map[string]any{
			"message": message,
			"tree":    tree.SHA,
			"parents": []string{tipSHA},
		}, &commit); err != nil {
		return fmt.Errorf("creating commit: %w", err)
	}

	// force=false: if the ref moved concurrently the update fails with a
	// conflict instead of overwriting history.
	if err := c.do(ctx, http.MethodPatch,
		fmt.Sprintf("/repos/%s/git/refs/heads/%s", repo, c.branch), map[string]any{
			"sha":   commit.SHA,
			"force": false,
		}, nil); err != nil {
		return fmt.Errorf("updating ref: %w", err)
	}

	c.logger.Debug("published commit",
		"repository", c.repository, "branch", c.branch,
		"commit", commit.SHA, "records", len(batch))
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &retry.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
