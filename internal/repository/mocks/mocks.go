package mocks

import (
	"context"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Append(ctx context.Context, rec *activity.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error) {
	args := m.Called(ctx, opts)
	if records, ok := args.Get(0).([]activity.Record); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Meta(ctx context.Context) (activity.LogMeta, error) {
	args := m.Called(ctx)
	return args.Get(0).(activity.LogMeta), args.Error(1)
}

func (m *ActivityRepository) SetMeta(ctx context.Context, meta activity.LogMeta) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

// Publisher is a mock for pipeline.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, batch []activity.Record, message string, logJSON []byte) error {
	args := m.Called(ctx, batch, message, logJSON)
	return args.Error(0)
}
