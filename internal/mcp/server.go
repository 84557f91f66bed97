package mcp

import (
	"context"
	"log/slog"

	"github.com/ganot/mongoose/internal/categorize"
	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/domain/cart"
	"github.com/ganot/mongoose/internal/domain/pipeline"
	"github.com/ganot/mongoose/internal/retry"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// PipelineService defines pipeline operations needed by MCP.
type PipelineService interface {
	Ingest(ctx context.Context, req pipeline.IngestRequest) activity.Record
	Drain(ctx context.Context) error
	Flush(ctx context.Context, cfg retry.Config) error
	Status() pipeline.Status
	Log() *activity.Log
}

// CartService defines cart operations needed by MCP.
type CartService interface {
	Run(ctx context.Context, req cart.RunRequest) (*cart.RunResult, error)
}

// CategorizeService defines categorization operations needed by MCP.
type CategorizeService interface {
	CategorizeURL(ctx context.Context, url string) (categorize.Result, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Pipeline   PipelineService
	Carts      CartService
	Categorize CategorizeService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	AuthEnabled   bool
	AuthToken     string
	TransportMode string // "stdio" or "http"
	MaxRetries    int
	Logger        *slog.Logger
}

const serverInstructions = `Mongoose records producer activity into a durable local log and
publishes batched commits to a configured git repository. Use
ingest_activity to record events, run_carts to execute the autonomous
carts, queue_status to inspect the delivery pipeline, and publish_now to
force a publish attempt with bounded retry.`

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "mongoose",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	// Stdio mode: always disable auth (local dev only).
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware())
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.AuthToken))
	}
	server.AddReceivingMiddleware(wireLogMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(wireLogMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services, cfg.MaxRetries)

	return server
}
