package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nhle/voicenote/internal/credential"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/testutil"
)

type harness struct {
	t       *testing.T
	backend *testutil.Backend
	ring    keyring.Keyring
	config  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	b := testutil.NewBackend(t)
	b.Token = "secret"

	t.Setenv("VOICENOTE_API_URL", b.URL())
	t.Setenv("VOICENOTE_CACHE_PERSIST", "false")
	t.Setenv("VOICENOTE_CACHE_DB_PATH", filepath.Join(dir, "cache.db"))
	t.Setenv(credential.TokenEnv, "")

	return &harness{
		t:       t,
		backend: b,
		ring:    keyring.NewArrayKeyring(nil),
		config:  filepath.Join(dir, "config.yaml"),
	}
}

func (h *harness) signIn() {
	h.t.Helper()
	require.NoError(h.t, credential.NewStore(h.ring).SetToken("secret"))
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), Options{
		Keyring: h.ring,
		Stdin:   strings.NewReader(stdin),
		Stdout:  &out,
		Stderr:  &errOut,
	}, append([]string{"--config", h.config}, args...))
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func TestCommandsRequireSignIn(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "notes", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "not signed in")
	assert.Zero(t, h.backend.Requests("GET", "/api/notes"))
}

func TestUnknownFormat(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	res := h.run("", "--format", "xml", "notes", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `unknown format "xml"`)
}

func TestNotesListFormats(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.backend.AddNote(model.Note{Title: "Groceries", FolderPath: "home", Tags: []string{"shopping"}})
	h.backend.AddNote(model.Note{Title: "Standup", FolderPath: "work"})

	res := h.run("", "notes", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Groceries")
	assert.Contains(t, res.stdout, "Standup")
	assert.Contains(t, res.stdout, "TITLE")

	res = h.run("", "-f", "json", "notes", "list")
	require.NoError(t, res.err)
	var fromJSON struct {
		Notes []model.Note `json:"notes"`
		Total int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &fromJSON))
	assert.Equal(t, 2, fromJSON.Total)
	require.Len(t, fromJSON.Notes, 2)
	assert.ElementsMatch(t, []string{"Groceries", "Standup"},
		[]string{fromJSON.Notes[0].Title, fromJSON.Notes[1].Title})

	res = h.run("", "-f", "yaml", "notes", "list", "--folder", "home")
	require.NoError(t, res.err)
	var fromYAML struct {
		Notes []struct {
			Title string   `yaml:"title"`
			Tags  []string `yaml:"tags"`
		} `yaml:"notes"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &fromYAML))
	require.Len(t, fromYAML.Notes, 1)
	assert.Equal(t, "Groceries", fromYAML.Notes[0].Title)
	assert.Equal(t, []string{"shopping"}, fromYAML.Notes[0].Tags)
}

func TestSearchPrintsSnippets(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.backend.AddNote(model.Note{Title: "Groceries", Content: "buy milk and eggs"})

	res := h.run("", "search", "milk")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Groceries")
}

func TestTodosAcceptBatch(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	a := h.backend.AddTodo(model.Todo{Title: "Call mom"})
	b := h.backend.AddTodo(model.Todo{Title: "Pay rent"})
	c := h.backend.AddTodo(model.Todo{Title: "Water plants"})

	res := h.run("", "todos", "accept", strconv.Itoa(a.ID), strconv.Itoa(b.ID))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Accepted todo "+strconv.Itoa(a.ID))
	assert.Contains(t, res.stdout, "Accepted todo "+strconv.Itoa(b.ID))

	status := map[int]model.TodoStatus{}
	for _, td := range h.backend.Todos() {
		status[td.ID] = td.Status
	}
	assert.Equal(t, model.TodoAccepted, status[a.ID])
	assert.Equal(t, model.TodoAccepted, status[b.ID])
	assert.Equal(t, model.TodoSuggested, status[c.ID])
}

func TestTodosBatchReportsFailedID(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	done := h.backend.AddTodo(model.Todo{Title: "Done already", Status: model.TodoCompleted})

	res := h.run("", "todos", "accept", strconv.Itoa(done.ID))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "todo "+strconv.Itoa(done.ID)+":")
}

func TestInvalidIDs(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	res := h.run("", "todos", "complete", "abc")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `invalid id "abc"`)
}

func TestNoteDeleteAsksFirst(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	n := h.backend.AddNote(model.Note{Title: "Old"})

	res := h.run("n\n", "notes", "delete", strconv.Itoa(n.ID))
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Cancelled.")
	assert.Len(t, h.backend.Notes(), 1)

	res = h.run("", "notes", "delete", "--yes", strconv.Itoa(n.ID))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Deleted note")
	assert.Empty(t, h.backend.Notes())
}

func TestTranscribeFile(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	path := filepath.Join(t.TempDir(), "memo.wav")
	require.NoError(t, os.WriteFile(path, testutil.WAV(2000), 0o644))

	res := h.run("", "-f", "json", "transcribe", path)
	require.NoError(t, res.err)

	var got model.TranscriptionResult
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, "remember to buy milk", got.Transcription)
	assert.NotZero(t, got.NoteID)

	uploads := h.backend.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "/api/transcribe", uploads[0].Path)
}

func TestTranscribeMealOverrides(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	path := filepath.Join(t.TempDir(), "lunch.wav")
	require.NoError(t, os.WriteFile(path, testutil.WAV(2000), 0o644))

	res := h.run("", "transcribe", "--meal", "--type", "lunch", "--date", "2026-03-01", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "logged")

	uploads := h.backend.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "/api/meals/transcribe", uploads[0].Path)
	assert.Equal(t, "lunch", uploads[0].Fields["meal_type"])
	assert.Equal(t, "2026-03-01", uploads[0].Fields["meal_date"])
}

func TestTranscribeRejectsBadOverrides(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	res := h.run("", "transcribe", "--meal", "--type", "brunch", "x.wav")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid meal type")
	assert.Empty(t, h.backend.Uploads())
}

func TestTranscribeRejectsNonAudio(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	path := filepath.Join(t.TempDir(), "notes.wav")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o644))

	res := h.run("", "transcribe", path)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "not an audio file")
	assert.Empty(t, h.backend.Uploads())
}

func TestRecordingsHistory(t *testing.T) {
	h := newHarness(t)
	t.Setenv("VOICENOTE_CACHE_PERSIST", "true")
	h.signIn()
	path := filepath.Join(t.TempDir(), "memo.wav")
	require.NoError(t, os.WriteFile(path, testutil.WAV(2000), 0o644))

	require.NoError(t, h.run("", "transcribe", path).err)

	res := h.run("", "-f", "json", "recordings")
	require.NoError(t, res.err)
	var recs []model.Recording
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecordingUploaded, recs[0].Status)
	assert.Equal(t, model.RecordingNote, recs[0].Kind)
	assert.Equal(t, path, recs[0].Source)
}

func TestRecordingsNeedPersistence(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "recordings")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "cache.persist")
}

func TestLoginAndLogout(t *testing.T) {
	h := newHarness(t)
	store := credential.NewStore(h.ring)

	res := h.run("", "login", "--token", "wrong")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "rejected")
	assert.False(t, store.SignedIn(context.Background()))

	res = h.run("secret\n", "login")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Signed in to "+h.backend.URL())
	assert.True(t, store.SignedIn(context.Background()))

	require.NoError(t, h.run("", "notes", "list").err)

	res = h.run("", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Signed out.")
	assert.False(t, store.SignedIn(context.Background()))
}

func TestSettingsSet(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	res := h.run("", "settings", "set")
	require.Error(t, res.err)

	res = h.run("", "-f", "json", "settings", "set", "--auto-accept=true")
	require.NoError(t, res.err)
	var s model.UserSettings
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &s))
	assert.True(t, s.AutoAcceptTodos)

	res = h.run("", "settings")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Auto-accept todos:  true")
}

func TestFeedbackValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	res := h.run("", "feedback", "submit", "--rating", "9", "Great app")
	require.Error(t, res.err)
	assert.Zero(t, h.backend.Requests("POST", "/api/feedback"))

	res = h.run("", "feedback", "submit", "--type", "feature", "--rating", "5", "Dark mode")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Feedback #")
}

func TestAskAndDigest(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.backend.AddNote(model.Note{Title: "Groceries", Content: "buy milk"})

	res := h.run("", "ask", "what", "should", "I", "buy?")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Q: what should I buy?")

	res = h.run("", "-f", "json", "summarize", "--days", "3")
	require.NoError(t, res.err)
	var d model.Digest
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &d))
	assert.NotZero(t, d.ID)

	res = h.run("", "digests")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, strconv.Itoa(d.ID))
}

func TestMetricsFlag(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	res := h.run("", "--metrics", "notes", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, `voicenote_query_fetches_total{result="success"}`)
}
