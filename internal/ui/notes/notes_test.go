package notes

import (
	"net/http"
	"strconv"
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
)

const waitFor = 2 * time.Second

func newModel(t *testing.T, b *testutil.Backend) Model {
	t.Helper()
	client := api.NewClient(api.Config{BaseURL: b.URL(), Timeout: 5 * time.Second}, nil)
	cache := query.New(query.WithRetryDelay(time.Millisecond))
	t.Cleanup(cache.Close)
	n := appsync.NewNotifier()
	t.Cleanup(n.Stop)

	m := New(service.New(client, cache), n, keys.DefaultKeyMap(), 120, 40)
	m.Init()
	t.Cleanup(m.Close)
	return m
}

// settle feeds update messages until the listing satisfies ok.
func settle(t *testing.T, m *Model, ok func(browse.View) bool) {
	t.Helper()
	tick := appsync.QueryUpdatedMsg{Updates: map[string]query.Snapshot{subNotes: {}}}
	require.Eventually(t, func() bool {
		*m, _ = m.Update(tick)
		return ok(m.Listing())
	}, waitFor, 5*time.Millisecond)
}

func populated(v browse.View) bool {
	return v.Status == browse.StatusPopulated && !v.Refreshing
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ids(v browse.View) []int {
	out := make([]int, len(v.Items))
	for i, it := range v.Items {
		out[i] = it.ID
	}
	return out
}

func TestDeletingOpenNoteClosesDetail(t *testing.T) {
	b := testutil.NewBackend(t)
	older := b.AddNote(model.Note{Title: "older"})
	newer := b.AddNote(model.Note{Title: "newer"})
	m := newModel(t, b)
	settle(t, &m, func(v browse.View) bool { return populated(v) && len(v.Items) == 2 })

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, newer.ID, m.DetailID(), "newest note is first")

	// Keep the list refetch pending: the note must vanish without it.
	release := b.Hold(http.MethodGet, "/api/notes")
	defer release()

	msg := m.deleteNote(newer.ID)()
	m, _ = m.Update(msg)

	assert.Zero(t, m.DetailID())
	assert.Equal(t, []int{older.ID}, ids(m.Listing()))
	assert.False(t, m.alert.Open())
}

func TestDeleteFailureShowsAlertAndKeepsNote(t *testing.T) {
	b := testutil.NewBackend(t)
	n := b.AddNote(model.Note{Title: "stays"})
	m := newModel(t, b)
	settle(t, &m, populated)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, n.ID, m.DetailID())

	b.Fail(http.MethodDelete, "/api/notes/"+strconv.Itoa(n.ID), http.StatusInternalServerError, "", 1)
	m, _ = m.Update(m.deleteNote(n.ID)())

	assert.True(t, m.alert.Open())
	assert.Equal(t, "Failed to delete note", m.alert.Message)
	assert.Equal(t, n.ID, m.DetailID(), "detail stays open")
	assert.Equal(t, []int{n.ID}, ids(m.Listing()))

	m, _ = m.Update(runes("x"))
	assert.False(t, m.alert.Open(), "any key dismisses")
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddNote(model.Note{Title: "maybe"})
	m := newModel(t, b)
	settle(t, &m, populated)

	m, _ = m.Update(runes("d"))
	assert.True(t, m.confirm.Open())
	assert.True(t, m.Capturing())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.confirm.Open())
	assert.Equal(t, 0, b.Requests(http.MethodDelete, "/api/notes/"+strconv.Itoa(m.Listing().Items[0].ID)))
}

func TestSearchIsDebounced(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddNote(model.Note{Title: "groceries", Content: "buy milk"})
	b.AddNote(model.Note{Title: "meeting", Content: "agenda"})
	m := newModel(t, b)
	settle(t, &m, func(v browse.View) bool { return populated(v) && len(v.Items) == 2 })

	m, _ = m.Update(runes("/"))
	require.True(t, m.searching)
	for _, r := range "milk" {
		m, _ = m.Update(runes(string(r)))
	}
	assert.Equal(t, browse.ModeFolder, m.Selection().Mode(), "nothing runs while typing")
	assert.Zero(t, b.Requests(http.MethodGet, "/api/search"))

	m, _ = m.Update(searchTickMsg{seq: m.searchSeq - 1})
	assert.Equal(t, browse.ModeFolder, m.Selection().Mode(), "stale tick ignored")

	m, _ = m.Update(searchTickMsg{seq: m.searchSeq})
	assert.Equal(t, browse.ModeSearch, m.Selection().Mode())
	assert.Equal(t, "milk", m.Selection().Search)

	settle(t, &m, func(v browse.View) bool { return populated(v) && v.Mode == browse.ModeSearch })
	v := m.Listing()
	require.Len(t, v.Items, 1)
	assert.Equal(t, "groceries", v.Items[0].Title)
	assert.NotNil(t, v.Items[0].Rank)
}

func TestTagPickerReplacesSearch(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddNote(model.Note{Title: "tagged", Tags: []string{"work"}})
	b.AddNote(model.Note{Title: "plain"})
	m := newModel(t, b)
	settle(t, &m, populated)

	m.sel = m.sel.WithSearch("plain")
	m.subscribe()

	m, _ = m.Update(runes("t"))
	require.True(t, m.picker.open())
	require.Eventually(t, func() bool {
		m.picker.reload(m.obs)
		return !m.picker.loading
	}, waitFor, 5*time.Millisecond)
	require.Len(t, m.picker.entries, 1)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.picker.open())
	assert.Equal(t, browse.Selection{Tag: "work"}, m.Selection())

	settle(t, &m, func(v browse.View) bool { return populated(v) && v.Mode == browse.ModeTag })
	require.Len(t, m.Listing().Items, 1)
	assert.Equal(t, "tagged", m.Listing().Items[0].Title)
}

func TestEmptyTagMessage(t *testing.T) {
	b := testutil.NewBackend(t)
	m := newModel(t, b)

	m.setSelection(m.sel.WithTag("nothing"))
	settle(t, &m, func(v browse.View) bool { return v.Status == browse.StatusEmpty })
	assert.Equal(t, `No notes tagged "nothing"`, m.Listing().EmptyMessage)
	assert.Contains(t, m.View(), `No notes tagged "nothing"`)
}
