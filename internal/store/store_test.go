package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/store"
	"github.com/nhle/voicenote/internal/testutil"
)

func TestMigrationsApplied(t *testing.T) {
	s := testutil.NewTestStore(t)

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicenote.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveQuery(ctx, `["settings"]`, []byte(`{"auto_accept_todos":true}`), time.Now()))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	entries, err := s.LoadQueries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"auto_accept_todos":true}`, string(entries[0].Data))
}

func TestQueryCacheUpsert(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveQuery(ctx, `["notes","",50,0]`, []byte(`{"v":1}`), first))
	require.NoError(t, s.SaveQuery(ctx, `["notes","",50,0]`, []byte(`{"v":2}`), first.Add(time.Minute)))
	require.NoError(t, s.SaveQuery(ctx, `["tags"]`, []byte(`{"tags":[]}`), first))

	entries, err := s.LoadQueries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byKey := map[string]string{}
	for _, e := range entries {
		byKey[e.Key] = string(e.Data)
	}
	assert.JSONEq(t, `{"v":2}`, byKey[`["notes","",50,0]`])

	require.NoError(t, s.DeleteQuery(ctx, `["tags"]`))
	entries, err = s.LoadQueries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].UpdatedAt.Equal(first.Add(time.Minute)))

	require.NoError(t, s.ClearQueries(ctx))
	entries, err = s.LoadQueries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPersisterAdapter(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := s.Persister()

	require.NoError(t, p.Save(`["feedback",50,0]`, []byte(`{"feedback":[]}`), time.Now()))
	entries, err := p.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, `["feedback",50,0]`, entries[0].Key)

	require.NoError(t, p.Delete(`["feedback",50,0]`))
	entries, err = p.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordingLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	rec := model.Recording{
		ID:        "01HQ0000000000000000000001",
		Kind:      model.RecordingNote,
		MimeType:  "audio/webm",
		Bytes:     2048,
		CreatedAt: created,
	}
	require.NoError(t, s.AddRecording(ctx, rec))

	got, err := s.GetRecordingByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingPending, got.Status)
	assert.Equal(t, 2048, got.Bytes)
	assert.Nil(t, got.NoteID)
	assert.True(t, got.CreatedAt.Equal(created))

	noteID := 42
	rec.Status = model.RecordingUploaded
	rec.NoteID = &noteID
	require.NoError(t, s.UpdateRecording(ctx, rec))

	got, err = s.GetRecordingByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingUploaded, got.Status)
	require.NotNil(t, got.NoteID)
	assert.Equal(t, 42, *got.NoteID)

	require.NoError(t, s.DeleteRecording(ctx, rec.ID))
	_, err = s.GetRecordingByID(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateMissingRecording(t *testing.T) {
	s := testutil.NewTestStore(t)
	err := s.UpdateRecording(context.Background(), model.Recording{ID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddRecordingRequiresID(t *testing.T) {
	s := testutil.NewTestStore(t)
	assert.Error(t, s.AddRecording(context.Background(), model.Recording{}))
}

func TestGetRecordingsFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	add := func(id string, kind model.RecordingKind, status model.RecordingStatus) {
		require.NoError(t, s.AddRecording(ctx, model.Recording{ID: id, Kind: kind, Status: status}))
	}
	add("01A", model.RecordingNote, model.RecordingUploaded)
	add("01B", model.RecordingMeal, model.RecordingFailed)
	add("01C", model.RecordingNote, model.RecordingFailed)

	all, err := s.GetRecordings(ctx, store.RecordingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "01C", all[0].ID, "newest first")

	failed := model.RecordingFailed
	got, err := s.GetRecordings(ctx, store.RecordingFilter{Status: &failed})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	note := model.RecordingNote
	got, err = s.GetRecordings(ctx, store.RecordingFilter{Status: &failed, Kind: &note})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "01C", got[0].ID)

	got, err = s.GetRecordings(ctx, store.RecordingFilter{Offset: 1})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.GetRecordings(ctx, store.RecordingFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "01A", got[0].ID)
}
