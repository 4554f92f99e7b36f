package feedback

import (
	"net/http"
	"testing"
	"time"

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

func TestSubmissionShowsPendingEntryFirst(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddFeedback(model.Feedback{Type: model.FeedbackBug, Title: "crash on start", CreatedAt: time.Now()})
	m := newModel(t, b)
	settle(t, &m, func(m Model) bool { return m.status == browse.StatusPopulated })

	release := b.Hold(http.MethodPost, "/api/feedback")
	rating := 5
	m, cmd := m.Update(formSubmitMsg{input: model.FeedbackInput{
		Type: model.FeedbackFeature, Title: "dark mode", Rating: &rating,
	}})
	done := make(chan any, 1)
	go func() { done <- cmd() }()

	settle(t, &m, func(m Model) bool { return m.Pending() == 1 })
	require.Len(t, m.items, 2)
	assert.Equal(t, "dark mode", m.items[0].Title)
	assert.Contains(t, m.View(), "sending...")

	release()
	var msg any
	require.Eventually(t, func() bool {
		select {
		case msg = <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
	m, _ = m.Update(msg)
	assert.Equal(t, "Thanks for the feedback!", m.notice)

	settle(t, &m, func(m Model) bool { return m.Pending() == 0 && len(m.items) == 2 && !m.obs.list.Current().IsFetching })
	assert.Equal(t, "dark mode", m.items[0].Title)
	assert.NotZero(t, m.items[0].ID)
}

func TestFailedSubmissionRollsBack(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddFeedback(model.Feedback{Type: model.FeedbackGeneral, Title: "nice app"})
	b.Fail(http.MethodPost, "/api/feedback", http.StatusServiceUnavailable, `{"detail":"Feedback is closed"}`, 1)
	m := newModel(t, b)
	settle(t, &m, func(m Model) bool { return m.status == browse.StatusPopulated })

	m, cmd := m.Update(formSubmitMsg{input: model.FeedbackInput{Type: model.FeedbackBug, Title: "lost"}})
	m, _ = m.Update(cmd())

	require.True(t, m.alert.Open())
	assert.Equal(t, "Feedback is closed", m.alert.Message)
	assert.Zero(t, m.Pending())
	settle(t, &m, func(m Model) bool { return len(m.items) == 1 && m.items[0].Title == "nice app" })

	m, _ = m.Update(ui.ActionDoneMsg{View: "todos", Action: "accept"})
	assert.True(t, m.alert.Open(), "other views' results are ignored")
}

func TestFormInputConversion(t *testing.T) {
	fb := &formBindings{kind: model.FeedbackBug, title: "  title ", description: " ", rating: "3"}
	in := fb.input()
	assert.Equal(t, "title", in.Title)
	assert.Nil(t, in.Description)
	require.NotNil(t, in.Rating)
	assert.Equal(t, 3, *in.Rating)

	fb.rating = ""
	assert.Nil(t, fb.input().Rating)
}
