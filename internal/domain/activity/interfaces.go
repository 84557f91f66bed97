package activity

import "context"

// Repository provides durable persistence for the activity log.
type Repository interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, opts ListOptions) ([]Record, error)
	Meta(ctx context.Context) (LogMeta, error)
	SetMeta(ctx context.Context, meta LogMeta) error
}

// ListOptions provides filtering options for listing records.
type ListOptions struct {
	Action *Action
	Limit  int
	Offset int
}
