package model

import "time"

// RecordingStatus tracks a local recording through upload.
type RecordingStatus string

const (
	RecordingPending  RecordingStatus = "pending"
	RecordingUploaded RecordingStatus = "uploaded"
	RecordingFailed   RecordingStatus = "failed"
)

// RecordingKind says which endpoint a recording was sent to.
type RecordingKind string

const (
	RecordingNote RecordingKind = "note"
	RecordingMeal RecordingKind = "meal"
)

// Recording is the local history entry kept for every captured or
// imported audio clip.
type Recording struct {
	// ID is a ULID so that recordings sort by capture time.
	ID string `json:"id" db:"id"`

	// Kind is the upload target.
	Kind RecordingKind `json:"kind" db:"kind"`

	// Source is the file path for imported clips, empty for live captures.
	Source string `json:"source" db:"source"`

	// MimeType is the clip's container/codec.
	MimeType string `json:"mime_type" db:"mime_type"`

	// Bytes is the clip size.
	Bytes int `json:"bytes" db:"bytes"`

	// Status is the upload state.
	Status RecordingStatus `json:"status" db:"status"`

	// NoteID or MealID is set once the backend accepted the clip.
	NoteID *int `json:"note_id,omitempty" db:"note_id"`
	MealID *int `json:"meal_id,omitempty" db:"meal_id"`

	// Error holds the last upload failure message.
	Error string `json:"error,omitempty" db:"error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
