package query

import (
	"encoding/json"
	"time"
)

// Persister stores successful query payloads so a later process can start
// from last-known data.
type Persister interface {
	Save(key string, data []byte, updatedAt time.Time) error
	Delete(key string) error
	Load() ([]PersistedEntry, error)
}

// PersistedEntry is one stored payload. Key is the canonical key string.
type PersistedEntry struct {
	Key       string
	Data      json.RawMessage
	UpdatedAt time.Time
}
