package store

import (
	"context"
	"time"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// RecordingFilter controls filtering and pagination for recording queries.
type RecordingFilter struct {
	Status *model.RecordingStatus
	Kind   *model.RecordingKind
	Limit  int
	Offset int
}

// Store defines the local persistence used by the client: the persisted
// query cache and the history of uploaded recordings.
type Store interface {
	// === Query cache ===

	SaveQuery(ctx context.Context, key string, data []byte, updatedAt time.Time) error
	DeleteQuery(ctx context.Context, key string) error
	LoadQueries(ctx context.Context) ([]query.PersistedEntry, error)
	ClearQueries(ctx context.Context) error

	// === Recordings ===

	AddRecording(ctx context.Context, r model.Recording) error
	UpdateRecording(ctx context.Context, r model.Recording) error
	GetRecordingByID(ctx context.Context, id string) (*model.Recording, error)
	GetRecordings(ctx context.Context, filter RecordingFilter) ([]model.Recording, error)
	DeleteRecording(ctx context.Context, id string) error

	Close() error
}
