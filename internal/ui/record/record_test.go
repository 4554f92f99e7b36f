package record

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/audio"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	"github.com/nhle/voicenote/internal/testutil"
)

// micDevice hands out streams that emit payload once started.
type micDevice struct {
	payload []byte

	mu    sync.Mutex
	opens int
}

func (d *micDevice) IsTypeSupported(mt string) bool { return mt == "audio/webm" }

func (d *micDevice) Open(context.Context, audio.Constraints) (audio.Stream, error) {
	d.mu.Lock()
	d.opens++
	d.mu.Unlock()
	return &micStream{payload: d.payload}, nil
}

func (d *micDevice) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

type micStream struct {
	payload []byte
	data    chan []byte
	once    sync.Once
}

func (s *micStream) Start(string, time.Duration) (<-chan []byte, error) {
	s.data = make(chan []byte, 1)
	s.data <- s.payload
	return s.data, nil
}

func (s *micStream) Stop() error {
	s.once.Do(func() { close(s.data) })
	return nil
}

func (s *micStream) Release() {}

func newModel(t *testing.T, b *testutil.Backend, payload []byte) (Model, *micDevice) {
	t.Helper()
	client := api.NewClient(api.Config{BaseURL: b.URL(), Timeout: 5 * time.Second}, nil)
	cache := query.New()
	t.Cleanup(cache.Close)
	dev := &micDevice{payload: payload}
	rec := audio.NewRecorder(dev)
	return New(service.New(client, cache), rec, keys.DefaultKeyMap(), 100, 30), dev
}

var recordKey = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	return m.Update(cmd())
}

func TestRecordAndTranscribe(t *testing.T) {
	b := testutil.NewBackend(t)
	m, dev := newModel(t, b, bytes.Repeat([]byte{1}, 4096))
	assert.True(t, m.CanStart())

	m, cmd := m.Update(recordKey)
	assert.False(t, m.CanStart(), "start is disabled while the device opens")
	m, _ = run(t, m, cmd)
	require.True(t, m.Recording())
	assert.False(t, m.CanStart())
	assert.Contains(t, m.View(), "Recording")

	m, cmd = m.Update(recordKey)
	m, cmd = run(t, m, cmd) // stopped
	assert.Equal(t, phaseUploading, m.phase)
	assert.False(t, m.CanStart(), "start is disabled while uploading")

	m, cmd = run(t, m, cmd) // uploaded
	require.Equal(t, phaseDone, m.phase, m.err)
	require.NotNil(t, m.note)
	assert.Contains(t, m.View(), "Saved: ")
	assert.True(t, m.CanStart())
	assert.Equal(t, 1, dev.openCount())

	done := cmd()
	assert.Equal(t, UploadedMsg{NoteID: m.note.NoteID}, done)

	uploads := b.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "recording.webm", uploads[0].Filename)
	assert.Equal(t, 4096, uploads[0].Size)
}

func TestStartIgnoredWhileRecording(t *testing.T) {
	b := testutil.NewBackend(t)
	m, dev := newModel(t, b, bytes.Repeat([]byte{1}, 4096))

	m, cmd := m.Update(recordKey)
	m, _ = run(t, m, cmd)
	require.True(t, m.Recording())

	// A second start while live is refused by the recorder itself.
	err := m.rec.Start(context.Background())
	assert.ErrorIs(t, err, audio.ErrAlreadyRecording)
	assert.Equal(t, 1, dev.openCount())

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, phaseIdle, m.phase)
	m, _ = run(t, m, cmd) // canceled off the UI loop
	assert.False(t, m.Recording())
	assert.True(t, m.CanStart())
}

func TestSecondStopPressIsIgnored(t *testing.T) {
	b := testutil.NewBackend(t)
	m, _ := newModel(t, b, bytes.Repeat([]byte{1}, 4096))

	m, cmd := m.Update(recordKey)
	m, _ = run(t, m, cmd)
	require.Equal(t, phaseRecording, m.phase)

	m, stop := m.Update(recordKey)
	require.NotNil(t, stop)
	assert.Equal(t, phaseStopping, m.phase)
	assert.True(t, m.Capturing())
	assert.False(t, m.CanStart())
	assert.Equal(t, "please wait", m.KeyHints())

	m, again := m.Update(recordKey)
	assert.Nil(t, again, "stop runs once")
	m, esc := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, esc, "discard is ignored while stopping")
	assert.Equal(t, phaseStopping, m.phase)

	m, cmd = run(t, m, stop)
	require.Equal(t, phaseUploading, m.phase, m.err)

	// A stray stop result after the upload began changes nothing.
	m, late := m.Update(stoppedMsg{err: audio.ErrNotRecording})
	assert.Nil(t, late)
	assert.Equal(t, phaseUploading, m.phase)

	m, _ = run(t, m, cmd)
	require.Equal(t, phaseDone, m.phase, m.err)
	assert.Len(t, b.Uploads(), 1)
}

func TestShortRecordingIsRejected(t *testing.T) {
	b := testutil.NewBackend(t)
	m, _ := newModel(t, b, []byte{1, 2, 3})

	m, cmd := m.Update(recordKey)
	m, _ = run(t, m, cmd)
	m, cmd = m.Update(recordKey)
	m, cmd = run(t, m, cmd)

	assert.Nil(t, cmd, "nothing is uploaded")
	assert.Equal(t, phaseFailed, m.phase)
	assert.Equal(t, audio.DescribeError(audio.ErrClipTooShort), m.err)
	assert.Empty(t, b.Uploads())
	assert.True(t, m.CanStart())
}

func TestMealModeUploadsMealType(t *testing.T) {
	b := testutil.NewBackend(t)
	m, _ := newModel(t, b, bytes.Repeat([]byte{1}, 2048))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.mealMode)
	assert.Equal(t, model.MealLunch, model.MealTypes[m.mealType])

	m, cmd := m.Update(recordKey)
	m, _ = run(t, m, cmd)
	m, cmd = m.Update(recordKey)
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)

	require.Equal(t, phaseDone, m.phase, m.err)
	require.NotNil(t, m.meal)
	uploads := b.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "lunch", uploads[0].Fields["meal_type"])
}

func TestUploadFailureShowsServerMessage(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail(http.MethodPost, "/api/transcribe", http.StatusBadGateway, `{"detail":"Transcription service unavailable"}`, 0)
	m, _ := newModel(t, b, bytes.Repeat([]byte{1}, 2048))

	m, cmd := m.Update(recordKey)
	m, _ = run(t, m, cmd)
	m, cmd = m.Update(recordKey)
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)

	assert.Equal(t, phaseFailed, m.phase)
	assert.Equal(t, "Transcription service unavailable", m.err)
}
