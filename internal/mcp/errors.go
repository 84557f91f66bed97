package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/domain/cart"
	"github.com/ganot/mongoose/internal/domain/pipeline"
	"github.com/ganot/mongoose/internal/retry"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var exhausted *retry.ExhaustedError
	switch {
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required fields"}
	case errors.Is(err, pipeline.ErrNotConfigured):
		return &APIError{Code: "NOT_CONFIGURED", Message: "no publish credentials configured", RecoveryHint: "Set PUBLISH_TOKEN and PUBLISH_REPOSITORY"}
	case errors.Is(err, cart.ErrNoEvents):
		return &APIError{Code: "NO_EVENTS", Message: "no gesture events to tokenize"}
	case errors.As(err, &exhausted):
		return &APIError{Code: "RETRY_EXHAUSTED", Message: err.Error(), RecoveryHint: "Batch remains queued; retry later with publish_now"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
