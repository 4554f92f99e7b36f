package ask

import (
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
	"github.com/nhle/voicenote/internal/testutil"
)

func newModel(t *testing.T, b *testutil.Backend) Model {
	t.Helper()
	client := api.NewClient(api.Config{BaseURL: b.URL(), Timeout: 5 * time.Second}, nil)
	cache := query.New(query.WithRetryDelay(time.Millisecond))
	t.Cleanup(cache.Close)
	n := appsync.NewNotifier()
	t.Cleanup(n.Stop)

	m := New(service.New(client, cache), n, keys.DefaultKeyMap(), 100, 30)
	m.Init()
	t.Cleanup(m.Close)
	return m
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestAskAppendsAnswer(t *testing.T) {
	b := testutil.NewBackend(t)
	n := b.AddNote(model.Note{Title: "groceries", Content: "buy milk and eggs"})
	m := newModel(t, b)
	require.True(t, m.Capturing(), "input starts focused")

	m = typeText(m, "where is the milk")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.Asking())
	assert.Empty(t, m.input.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Asking(), "a second question waits for the first")

	m, _ = m.Update(cmd())
	assert.False(t, m.Asking())
	require.Len(t, m.entries, 1)
	assert.Equal(t, "where is the milk", m.entries[0].Question)
	require.Len(t, m.entries[0].Sources, 1)
	assert.Contains(t, m.viewport.View(), "groceries")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Capturing())
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenNoteMsg{NoteID: n.ID}, cmd())
}

func TestAskFailureKeepsQuestion(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail(http.MethodPost, "/api/ask", http.StatusBadGateway, `{"detail":"Model unavailable"}`, 1)
	m := newModel(t, b)

	m = typeText(m, "anything")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(cmd())

	require.True(t, m.alert.Open())
	assert.Equal(t, "Model unavailable", m.alert.Message)
	assert.Equal(t, "anything", m.failed)
	assert.Empty(t, m.entries)
}

func TestHistoryLoadsOldestFirst(t *testing.T) {
	b := testutil.NewBackend(t)
	m := newModel(t, b)
	for _, q := range []string{"first question", "second question"} {
		m = typeText(m, q)
		var cmd tea.Cmd
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m, _ = m.Update(cmd())
	}

	fresh := newModel(t, b)
	tick := appsync.QueryUpdatedMsg{Updates: map[string]query.Snapshot{subHistory: {}}}
	require.Eventually(t, func() bool {
		fresh, _ = fresh.Update(tick)
		return len(fresh.entries) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "first question", fresh.entries[0].Question)
	assert.Equal(t, "second question", fresh.entries[1].Question)
}
