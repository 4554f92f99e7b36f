package meals

import (
	"fmt"
	"net/http"
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
	tick := appsync.QueryUpdatedMsg{Updates: map[string]query.Snapshot{
		subList: {}, subCalendar: {}, subDetail: {},
	}}
	require.Eventually(t, func() bool {
		*m, _ = m.Update(tick)
		return ok(*m)
	}, 2*time.Second, 5*time.Millisecond)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func seed(b *testutil.Backend) (breakfast, dinner model.MealEntry) {
	breakfast = b.AddMeal(model.MealEntry{
		MealType: model.MealBreakfast,
		MealDate: "2026-03-02",
		Items:    []model.MealItem{{ID: 901, Name: "oats"}, {ID: 902, Name: "coffee"}},
	})
	dinner = b.AddMeal(model.MealEntry{
		MealType: model.MealDinner,
		MealDate: "2026-03-02",
		Items:    []model.MealItem{{ID: 903, Name: "soup"}},
	})
	return breakfast, dinner
}

func TestMealTypeTabsFilterList(t *testing.T) {
	b := testutil.NewBackend(t)
	seed(b)
	m := newModel(t, b)
	settle(t, &m, func(m Model) bool { return m.status == browse.StatusPopulated && len(m.meals) == 2 })

	m, _ = m.Update(runes("l"))
	settle(t, &m, func(m Model) bool { return m.status == browse.StatusPopulated && len(m.meals) == 1 })
	assert.Equal(t, model.MealBreakfast, m.meals[0].MealType)

	m, _ = m.Update(runes("l"))
	settle(t, &m, func(m Model) bool { return m.status == browse.StatusEmpty })
	assert.Contains(t, m.View(), "No lunch entries.")
}

func TestCalendarMarksLoggedDays(t *testing.T) {
	b := testutil.NewBackend(t)
	seed(b)
	m := newModel(t, b)
	m.month = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local)

	m, _ = m.Update(runes(" "))
	require.Equal(t, modeCalendar, m.mode)
	settle(t, &m, func(m Model) bool { return len(m.cal.Days) == 1 })

	assert.Equal(t, 2, m.cal.Days[0].Count)
	view := m.View()
	assert.Contains(t, view, "March 2026")
	assert.Contains(t, view, "2 meals on 1 days")

	m, _ = m.Update(runes("l"))
	assert.Equal(t, time.April, m.month.Month())
	settle(t, &m, func(m Model) bool { return m.obs.calendar.Current().HasData && len(m.cal.Days) == 0 })
}

func TestDeleteOpenMealClosesDetail(t *testing.T) {
	b := testutil.NewBackend(t)
	breakfast, _ := seed(b)
	m := newModel(t, b)
	settle(t, &m, func(m Model) bool { return len(m.meals) == 2 })

	m.openDetail(breakfast.ID)
	settle(t, &m, func(m Model) bool { return m.detail.ID == breakfast.ID })
	assert.Contains(t, m.View(), "oats")

	m, _ = m.Update(runes("d"))
	require.True(t, m.confirm.Open())

	m, cmd := m.Update(deleteMealMsg{id: breakfast.ID})
	m, _ = m.Update(cmd())
	assert.Zero(t, m.DetailID())
	assert.Equal(t, "Meal deleted", m.notice)
	settle(t, &m, func(m Model) bool { return len(m.meals) == 1 })
}

func TestRemoveItemFailureShowsAlert(t *testing.T) {
	b := testutil.NewBackend(t)
	breakfast, _ := seed(b)
	b.Fail(http.MethodDelete, fmt.Sprintf("/api/meals/%d/items/901", breakfast.ID), http.StatusInternalServerError, "", 1)
	m := newModel(t, b)

	m.openDetail(breakfast.ID)
	settle(t, &m, func(m Model) bool { return m.detail.ID == breakfast.ID })

	m, cmd := m.Update(deleteItemMsg{ref: service.MealItemRef{MealID: breakfast.ID, ItemID: 901}})
	m, _ = m.Update(cmd())
	require.True(t, m.alert.Open())
	assert.Equal(t, "Could not remove item from meal", m.alert.Title)
	assert.Equal(t, "Failed to delete item", m.alert.Message)
}
