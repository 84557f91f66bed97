package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/mongoose/internal/domain/activity"
	"github.com/ganot/mongoose/internal/repository"
)

// ActivityRepository implements repository.ActivityRepository for SQLite
type ActivityRepository struct {
	db *DB
}

var _ repository.ActivityRepository = (*ActivityRepository)(nil)

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts a record at the end of the log.
func (r *ActivityRepository) Append(ctx context.Context, rec *activity.Record) error {
	var attrs sql.NullString
	if len(rec.Attributes) > 0 {
		data, err := json.Marshal(rec.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode attributes: %w", err)
		}
		attrs = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO activity_log (timestamp, action, description, value, attributes)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		rec.Timestamp,
		rec.Action,
		rec.Description,
		rec.Value,
		attrs,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		rec.ID = id
	}
	return nil
}

// List returns records in ingestion order, matching the given filters.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error) {
	query := `
		SELECT id, timestamp, action, description, value, attributes
		FROM activity_log
	`
	var args []interface{}
	if opts.Action != nil {
		query += " WHERE action = ?"
		args = append(args, *opts.Action)
	}

	query += " ORDER BY id ASC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var records []activity.Record
	for rows.Next() {
		var rec activity.Record
		var attrs sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.Action,
			&rec.Description,
			&rec.Value,
			&attrs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &rec.Attributes); err != nil {
				return nil, fmt.Errorf("failed to decode attributes: %w", err)
			}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return records, nil
}

// Meta returns the log header. The zero value is returned when the log
// has never been written.
func (r *ActivityRepository) Meta(ctx context.Context) (activity.LogMeta, error) {
	var meta activity.LogMeta
	err := r.db.QueryRowContext(ctx,
		`SELECT version, created FROM log_meta WHERE id = 1`,
	).Scan(&meta.Version, &meta.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.LogMeta{}, nil
	}
	if err != nil {
		return activity.LogMeta{}, fmt.Errorf("failed to read log meta: %w", err)
	}
	return meta, nil
}

// SetMeta stores the log header. The header is written once, on the first
// append, and never changes afterwards.
func (r *ActivityRepository) SetMeta(ctx context.Context, meta activity.LogMeta) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO log_meta (id, version, created) VALUES (1, ?, ?)`,
		meta.Version, meta.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to write log meta: %w", err)
	}
	return nil
}
