package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/voicenote/internal/query"
)

// SaveQuery stores one query payload, replacing any previous copy.
func (s *SQLiteStore) SaveQuery(
	ctx context.Context,
	key string,
	data []byte,
	updatedAt time.Time,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_cache (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, string(data), updatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving query %s: %w", key, err)
	}
	return nil
}

// DeleteQuery removes one stored payload.
func (s *SQLiteStore) DeleteQuery(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM query_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting query %s: %w", key, err)
	}
	return nil
}

// LoadQueries returns every stored payload.
func (s *SQLiteStore) LoadQueries(ctx context.Context) ([]query.PersistedEntry, error) {
	var rows []struct {
		Key       string    `db:"key"`
		Data      string    `db:"data"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT key, data, updated_at FROM query_cache ORDER BY updated_at")
	if err != nil {
		return nil, fmt.Errorf("loading queries: %w", err)
	}

	out := make([]query.PersistedEntry, len(rows))
	for i, r := range rows {
		out[i] = query.PersistedEntry{
			Key:       r.Key,
			Data:      []byte(r.Data),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return out, nil
}

// ClearQueries drops every stored payload, e.g. on logout.
func (s *SQLiteStore) ClearQueries(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM query_cache"); err != nil {
		return fmt.Errorf("clearing queries: %w", err)
	}
	return nil
}

// Persister adapts the store to query.Persister.
func (s *SQLiteStore) Persister() query.Persister {
	return persister{s: s}
}

type persister struct {
	s *SQLiteStore
}

func (p persister) Save(key string, data []byte, updatedAt time.Time) error {
	return p.s.SaveQuery(context.Background(), key, data, updatedAt)
}

func (p persister) Delete(key string) error {
	return p.s.DeleteQuery(context.Background(), key)
}

func (p persister) Load() ([]query.PersistedEntry, error) {
	return p.s.LoadQueries(context.Background())
}
