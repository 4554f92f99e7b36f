package digests

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/browse"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
	"github.com/nhle/voicenote/internal/testutil"
	"github.com/nhle/voicenote/internal/ui"
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

func settle(t *testing.T, m *Model, ok func(Model) bool) {
	t.Helper()
	tick := appsync.QueryUpdatedMsg{Updates: map[string]query.Snapshot{subList: {}}}
	require.Eventually(t, func() bool {
		*m, _ = m.Update(tick)
		return ok(*m)
	}, 2*time.Second, 5*time.Millisecond)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSummarizeOpensNewDigest(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddNote(model.Note{Title: "standup"})
	m := newModel(t, b)
	settle(t, &m, func(m Model) bool { return m.status == browse.StatusEmpty })
	assert.Contains(t, m.View(), "No digests yet")

	m, cmd := m.Update(runes("n"))
	require.NotNil(t, cmd)
	assert.True(t, m.summarizing)

	_, again := m.Update(runes("n"))
	assert.Nil(t, again, "one summary at a time")

	done := ui.Mutate(viewName, "summarize", m.svc.Summarize(), model.SummarizeRequest{Days: summaryDays})()
	m, _ = m.Update(done)
	assert.False(t, m.summarizing)
	assert.True(t, m.open)

	settle(t, &m, func(m Model) bool { return len(m.digests) == 1 })
	assert.Contains(t, m.View(), "Notes about standup")
}

func TestSummarizeWithoutNotesFails(t *testing.T) {
	b := testutil.NewBackend(t)
	m := newModel(t, b)

	m.summarizing = true
	done := ui.Mutate(viewName, "summarize", m.svc.Summarize(), model.SummarizeRequest{Days: summaryDays})()
	m, _ = m.Update(done)

	require.True(t, m.alert.Open())
	assert.Equal(t, "Could not summarize notes", m.alert.Title)
	assert.Equal(t, "No notes to summarize", m.alert.Message)
	assert.False(t, m.summarizing)
}

func TestDeleteDigest(t *testing.T) {
	b := testutil.NewBackend(t)
	d := b.AddDigest(model.Digest{Summary: "old week", NoteCount: 3, CreatedAt: time.Now()})
	m := newModel(t, b)
	settle(t, &m, func(m Model) bool { return len(m.digests) == 1 })

	m, _ = m.Update(runes("d"))
	require.True(t, m.confirm.Open())

	m, cmd := m.Update(deleteDigestMsg{id: d.ID})
	m, _ = m.Update(cmd())
	assert.Equal(t, "Digest deleted", m.notice)
	settle(t, &m, func(m Model) bool { return m.status == browse.StatusEmpty })
}
