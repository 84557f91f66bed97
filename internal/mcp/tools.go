package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/domain/cart"
	"github.com/ganot/mongoose/internal/domain/pipeline"
	"github.com/ganot/mongoose/internal/retry"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// IngestActivityParams are the arguments for the ingest_activity tool.
type IngestActivityParams struct {
	Action      string         `json:"action" jsonschema:"activity kind, e.g. token_generated or role_selected"`
	Description string         `json:"description,omitempty" jsonschema:"human-readable description (defaults to action)"`
	Value       float64        `json:"value,omitempty" jsonschema:"numeric value; negative values are clamped to zero"`
	Attributes  map[string]any `json:"attributes,omitempty" jsonschema:"arbitrary structured payload"`
}

// RecordResponse is the wire representation of one logged record.
type RecordResponse struct {
	Timestamp   time.Time      `json:"timestamp"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Value       float64        `json:"value"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// IngestActivityResult reports the logged record and queue depth.
type IngestActivityResult struct {
	Record      RecordResponse `json:"record"`
	QueueLength int            `json:"queue_length"`
}

// RecentActivityParams are the arguments for the recent_activity tool.
type RecentActivityParams struct {
	Action string `json:"action,omitempty" jsonschema:"filter by activity kind"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum entries to return (default 20)"`
}

// RecentActivityResult lists recent records, newest first.
type RecentActivityResult struct {
	Entries []RecordResponse `json:"entries"`
	Total   int              `json:"total_logged"`
}

// PublishNowResult reports the outcome of a forced publish attempt.
type PublishNowResult struct {
	Status      string `json:"status"`
	QueueLength int    `json:"queue_length"`
	Unpublished int    `json:"unpublished"`
	Detail      string `json:"detail,omitempty"`
}

// RunCartsParams are the arguments for the run_carts tool.
type RunCartsParams struct {
	Query      string  `json:"query,omitempty" jsonschema:"memory search query (defaults to 'memory')"`
	TokenHash  string  `json:"token_hash,omitempty" jsonschema:"token hash seeding the signal generator"`
	TokenValue float64 `json:"token_value,omitempty" jsonschema:"token value driving signal frequency and build tier"`
}

// CategorizeTextParams are the arguments for the categorize_text tool.
type CategorizeTextParams struct {
	URL string `json:"url" jsonschema:"source URL to fetch and categorize"`
}

type emptyParams struct{}

// registerTools registers all tools with the MCP server.
func registerTools(server *sdkmcp.Server, svc Services, maxRetries int) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "ingest_activity",
		Description: "Record an activity event into the durable log and the commit queue",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params IngestActivityParams) (*sdkmcp.CallToolResult, IngestActivityResult, error) {
		action := strings.TrimSpace(params.Action)
		if action == "" {
			return nil, IngestActivityResult{}, mapError(fmt.Errorf("%w: action is required", activity.ErrInvalidInput))
		}
		rec := svc.Pipeline.Ingest(ctx, pipeline.IngestRequest{
			Action:      activity.Action(action),
			Description: params.Description,
			Value:       params.Value,
			Attributes:  params.Attributes,
		})
		return nil, IngestActivityResult{
			Record:      toRecordResponse(rec),
			QueueLength: svc.Pipeline.Status().QueueLength,
		}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "queue_status",
		Description: "Inspect the delivery pipeline: queue depth, in-flight state, and publish configuration",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params emptyParams) (*sdkmcp.CallToolResult, pipeline.Status, error) {
		return nil, svc.Pipeline.Status(), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "recent_activity",
		Description: "List recent activity records, newest first, optionally filtered by action",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params RecentActivityParams) (*sdkmcp.CallToolResult, RecentActivityResult, error) {
		limit := params.Limit
		if limit <= 0 {
			limit = 20
		}
		all := svc.Pipeline.Log().All()
		entries := make([]RecordResponse, 0, limit)
		for i := len(all) - 1; i >= 0 && len(entries) < limit; i-- {
			if params.Action != "" && string(all[i].Action) != params.Action {
				continue
			}
			entries = append(entries, toRecordResponse(all[i]))
		}
		return nil, RecentActivityResult{Entries: entries, Total: len(all)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "publish_now",
		Description: "Force a publish attempt of the pending batch with bounded retry",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params emptyParams) (*sdkmcp.CallToolResult, PublishNowResult, error) {
		cfg := retry.DefaultConfig()
		if maxRetries > 0 {
			cfg.MaxAttempts = maxRetries
		}
		err := svc.Pipeline.Flush(ctx, cfg)
		status := svc.Pipeline.Status()
		result := PublishNowResult{
			QueueLength: status.QueueLength,
			Unpublished: status.Unpublished,
		}
		switch {
		case err == nil:
			result.Status = "published"
		default:
			if apiErr := MapError(err); apiErr != nil {
				result.Status = apiErr.Code
				result.Detail = apiErr.Message
			} else {
				result.Status = "failed"
				result.Detail = err.Error()
			}
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "run_carts",
		Description: "Execute all autonomous carts in sequence and log a cart_run record",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params RunCartsParams) (*sdkmcp.CallToolResult, *cart.RunResult, error) {
		result, err := svc.Carts.Run(ctx, cart.RunRequest{
			Query:      params.Query,
			TokenHash:  params.TokenHash,
			TokenValue: params.TokenValue,
		})
		if err != nil {
			return nil, nil, mapError(err)
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "categorize_text",
		Description: "Fetch text from a URL, bucket its sentences by keyword category, and log the result",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params CategorizeTextParams) (*sdkmcp.CallToolResult, RecordResponse, error) {
		url := strings.TrimSpace(params.URL)
		if url == "" {
			return nil, RecordResponse{}, mapError(fmt.Errorf("%w: url is required", activity.ErrInvalidInput))
		}
		result, err := svc.Categorize.CategorizeURL(ctx, url)
		if err != nil {
			return nil, RecordResponse{}, mapError(err)
		}
		categorized := result.Sentences - result.Uncategorized
		rec := svc.Pipeline.Ingest(ctx, pipeline.IngestRequest{
			Action:      activity.ActionTextCategorized,
			Description: fmt.Sprintf("categorized %d/%d sentences from %s", categorized, result.Sentences, url),
			Value:       float64(categorized),
			Attributes: map[string]any{
				"url":           url,
				"sentences":     result.Sentences,
				"counts":        result.Counts,
				"uncategorized": result.Uncategorized,
			},
		})
		return nil, toRecordResponse(rec), nil
	})
}

func toRecordResponse(rec activity.Record) RecordResponse {
	return RecordResponse{
		Timestamp:   rec.Timestamp,
		Action:      string(rec.Action),
		Description: rec.Description,
		Value:       rec.Value,
		Attributes:  rec.Attributes,
	}
}
