package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxWirePayloadBytes caps logged payloads. recent_activity and publish
// results can embed large slices of the activity log, which would flood
// the debug log if written whole.
const maxWirePayloadBytes = 2048

// wireLogMiddleware logs every call crossing the session at Debug level,
// one line per request and one per response with the elapsed time.
func wireLogMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			line := logger.With("direction", direction, "method", method,
				"session_id", wireSessionID(req))
			line.Debug("wire request", "params", wirePayload(wireParams(req)))

			start := time.Now()
			result, err := next(ctx, method, req)

			// Notifications have no response worth logging.
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			if err != nil {
				line.Debug("wire response", "elapsed", time.Since(start), "error", err)
			} else {
				line.Debug("wire response", "elapsed", time.Since(start),
					"result", wirePayload(result))
			}
			return result, err
		}
	}
}

// wireSessionID tolerates requests with no session attached yet.
func wireSessionID(req sdkmcp.Request) (id string) {
	defer func() { recover() }()
	if req == nil {
		return ""
	}
	session := req.GetSession()
	if session == nil {
		return ""
	}
	return session.ID()
}

func wireParams(req sdkmcp.Request) (params any) {
	defer func() { recover() }()
	if req == nil {
		return nil
	}
	return req.GetParams()
}

func wirePayload(v any) string {
	if v == nil {
		return "<nil>"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	if len(data) > maxWirePayloadBytes {
		return fmt.Sprintf("%s... (%d bytes)", data[:maxWirePayloadBytes], len(data))
	}
	return string(data)
}
