package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/voicenote/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// AddRecording inserts a recording history entry.
func (s *SQLiteStore) AddRecording(ctx context.Context, r model.Recording) error {
	if r.ID == "" {
		return fmt.Errorf("recording id must not be empty")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Status == "" {
		r.Status = model.RecordingPending
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO recordings (
			id, kind, source, mime_type, bytes, status,
			note_id, meal_id, error, created_at, updated_at
		) VALUES (
			:id, :kind, :source, :mime_type, :bytes, :status,
			:note_id, :meal_id, :error, :created_at, :updated_at
		)`, r)
	if err != nil {
		return fmt.Errorf("adding recording %s: %w", r.ID, err)
	}
	return nil
}

// UpdateRecording stores the upload outcome of a recording.
func (s *SQLiteStore) UpdateRecording(ctx context.Context, r model.Recording) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	r.UpdatedAt = r.UpdatedAt.UTC()

	result, err := s.db.NamedExecContext(ctx, `
		UPDATE recordings SET
			status = :status, note_id = :note_id, meal_id = :meal_id,
			error = :error, updated_at = :updated_at
		WHERE id = :id`, r)
	if err != nil {
		return fmt.Errorf("updating recording %s: %w", r.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recording %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// GetRecordingByID retrieves one recording.
func (s *SQLiteStore) GetRecordingByID(ctx context.Context, id string) (*model.Recording, error) {
	var r model.Recording
	err := s.db.GetContext(ctx, &r, "SELECT * FROM recordings WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recording %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting recording %s: %w", id, err)
	}
	return &r, nil
}

// GetRecordings lists recordings, newest first.
func (s *SQLiteStore) GetRecordings(
	ctx context.Context,
	filter RecordingFilter,
) ([]model.Recording, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}

	query := "SELECT * FROM recordings"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var out []model.Recording
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("querying recordings: %w", err)
	}
	return out, nil
}

// DeleteRecording removes a history entry.
func (s *SQLiteStore) DeleteRecording(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM recordings WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting recording %s: %w", id, err)
	}
	return nil
}
