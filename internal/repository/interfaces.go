package repository

import (
	"context"

	"github.com/ganot/mongoose/internal/domain/activity"
)

// ActivityRepository manages durable activity log persistence
type ActivityRepository interface {
	Append(ctx context.Context, rec *activity.Record) error
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error)
	Meta(ctx context.Context) (activity.LogMeta, error)
	SetMeta(ctx context.Context, meta activity.LogMeta) error
}
