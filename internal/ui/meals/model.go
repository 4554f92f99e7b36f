// Package meals shows logged meals as a filterable list and as a month
// calendar.
package meals

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/browse"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
	"github.com/nhle/voicenote/internal/theme"
	"github.com/nhle/voicenote/internal/ui"
)

const (
	viewName    = "meals"
	subList     = "meals.list"
	subCalendar = "meals.calendar"
	subDetail   = "meals.detail"
)

type mode int

const (
	modeList mode = iota
	modeCalendar
)

type (
	deleteMealMsg struct{ id int }
	deleteItemMsg struct{ ref service.MealItemRef }
)

type observers struct {
	list     *query.Observer
	calendar *query.Observer
	detail   *query.Observer
}

func (o *observers) close(obs **query.Observer) {
	if *obs != nil {
		(*obs).Close()
		*obs = nil
	}
}

// Model is the meals view.
type Model struct {
	svc      *service.Service
	notifier *appsync.Notifier
	keys     *keys.KeyMap
	obs      *observers
	now      func() time.Time

	mode     mode
	mealType int // 0 is every type, then model.MealTypes in order
	month    time.Time

	meals  []model.MealEntry
	status browse.Status
	err    error
	cursor ui.Cursor

	cal    model.CalendarMonth
	calErr error

	detailID   int
	detail     model.MealEntry
	itemCursor ui.Cursor

	confirm ui.Confirm
	alert   ui.Alert
	notice  string

	width  int
	height int
}

// New creates the meals view.
func New(svc *service.Service, n *appsync.Notifier, k *keys.KeyMap, width, height int) Model {
	now := time.Now()
	return Model{
		svc:      svc,
		notifier: n,
		keys:     k,
		obs:      &observers{},
		now:      time.Now,
		month:    time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local),
		width:    width,
		height:   height,
	}
}

// Init subscribes to the meal list.
func (m Model) Init() tea.Cmd {
	m.subscribeList()
	return nil
}

// Close drops every subscription.
func (m Model) Close() {
	m.obs.close(&m.obs.list)
	m.obs.close(&m.obs.calendar)
	m.obs.close(&m.obs.detail)
}

func (m Model) filter() model.MealFilter {
	var f model.MealFilter
	if m.mealType > 0 {
		f.MealType = model.MealTypes[m.mealType-1]
	}
	return f
}

func (m *Model) subscribeList() {
	m.obs.close(&m.obs.list)
	m.obs.list = m.svc.WatchMeals(m.filter(), m.notifier.Listener(subList))
	m.refresh()
}

func (m *Model) subscribeCalendar() {
	m.obs.close(&m.obs.calendar)
	m.obs.calendar = m.svc.WatchCalendar(m.month.Year(), int(m.month.Month()), m.notifier.Listener(subCalendar))
	m.refresh()
}

func (m *Model) openDetail(id int) {
	m.obs.close(&m.obs.detail)
	m.detailID = id
	m.itemCursor = ui.Cursor{}
	m.obs.detail = m.svc.WatchMeal(id, m.notifier.Listener(subDetail))
	m.refresh()
}

func (m *Model) closeDetail() {
	m.obs.close(&m.obs.detail)
	m.detailID = 0
	m.detail = model.MealEntry{}
}

func (m *Model) refresh() {
	if m.obs.list != nil {
		snap := m.obs.list.Current()
		list, ok := query.Result[model.MealList](snap)
		m.meals = list.Meals
		m.err = snap.Err
		m.status = browse.StatusOf(snap, ok, len(m.meals))
		m.cursor.Clamp(len(m.meals))
	}
	if m.obs.calendar != nil {
		snap := m.obs.calendar.Current()
		m.cal, _ = query.Result[model.CalendarMonth](snap)
		m.calErr = snap.Err
	}
	if m.obs.detail != nil {
		snap := m.obs.detail.Current()
		if meal, ok := query.Result[model.MealEntry](snap); ok {
			m.detail = meal
			m.itemCursor.Clamp(len(meal.Items))
		}
	}
}

// DetailID returns the open meal, or 0.
func (m Model) DetailID() int { return m.detailID }

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool {
	return m.confirm.Open() || m.alert.Open()
}

// Update handles messages for the meals view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsync.QueryUpdatedMsg:
		if msg.Has(subList) || msg.Has(subCalendar) || msg.Has(subDetail) {
			m.refresh()
		}
		return m, nil

	case deleteMealMsg:
		return m, ui.Mutate(viewName, "delete", m.svc.DeleteMeal(), msg.id)

	case deleteItemMsg:
		return m, ui.Mutate(viewName, "remove item from", m.svc.DeleteMealItem(), msg.ref)

	case ui.ActionDoneMsg:
		if msg.View != viewName {
			return m, nil
		}
		if msg.Err != nil {
			m.alert = ui.ErrorAlert("Could not "+msg.Action+" meal", msg.Err)
			return m, nil
		}
		if msg.Action == "delete" {
			m.closeDetail()
			m.notice = "Meal deleted"
		} else {
			m.notice = "Item removed"
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.alert.Open():
			m.alert = m.alert.Update(msg)
			return m, nil
		case m.confirm.Open():
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}
		return m.handleKeys(msg)
	}

	if m.confirm.Open() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.notice = ""
	if m.detailID != 0 {
		return m.handleDetailKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if m.mode == modeList {
			m.mode = modeCalendar
			m.subscribeCalendar()
		} else {
			m.mode = modeList
			m.obs.close(&m.obs.calendar)
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.obs.list != nil {
			m.obs.list.Refetch()
		}
		if m.obs.calendar != nil {
			m.obs.calendar.Refetch()
		}
		return m, nil
	}

	if m.mode == modeCalendar {
		switch {
		case key.Matches(msg, m.keys.Prev):
			m.month = m.month.AddDate(0, -1, 0)
			m.subscribeCalendar()
		case key.Matches(msg, m.keys.Next):
			m.month = m.month.AddDate(0, 1, 0)
			m.subscribeCalendar()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor.Move(1, len(m.meals))
	case key.Matches(msg, m.keys.Up):
		m.cursor.Move(-1, len(m.meals))
	case key.Matches(msg, m.keys.Next):
		m.mealType = (m.mealType + 1) % (len(model.MealTypes) + 1)
		m.cursor = ui.Cursor{}
		m.subscribeList()
	case key.Matches(msg, m.keys.Prev):
		m.mealType = (m.mealType + len(model.MealTypes)) % (len(model.MealTypes) + 1)
		m.cursor = ui.Cursor{}
		m.subscribeList()
	case key.Matches(msg, m.keys.Select):
		if meal, ok := m.selected(); ok {
			m.openDetail(meal.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if meal, ok := m.selected(); ok {
			return m.confirmDelete(meal)
		}
	}
	return m, nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeDetail()
	case key.Matches(msg, m.keys.Down):
		m.itemCursor.Move(1, len(m.detail.Items))
	case key.Matches(msg, m.keys.Up):
		m.itemCursor.Move(-1, len(m.detail.Items))
	case key.Matches(msg, m.keys.Dismiss):
		if len(m.detail.Items) == 0 {
			return m, nil
		}
		item := m.detail.Items[m.itemCursor.Index]
		var cmd tea.Cmd
		m.confirm, cmd = ui.NewConfirm("Remove item?", item.Name,
			deleteItemMsg{ref: service.MealItemRef{MealID: m.detailID, ItemID: item.ID}})
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		return m.confirmDelete(m.detail)
	}
	return m, nil
}

func (m Model) confirmDelete(meal model.MealEntry) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.confirm, cmd = ui.NewConfirm("Delete meal?",
		fmt.Sprintf("%s on %s", meal.MealType, meal.MealDate), deleteMealMsg{id: meal.ID})
	return m, cmd
}

func (m Model) selected() (model.MealEntry, bool) {
	if len(m.meals) == 0 {
		return model.MealEntry{}, false
	}
	return m.meals[m.cursor.Index], true
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the meals view.
func (m Model) View() string {
	var content string
	switch {
	case m.detailID != 0:
		content = m.renderDetail()
	case m.mode == modeCalendar:
		content = m.renderCalendar()
	default:
		content = m.renderList()
	}
	if m.notice != "" {
		content = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(m.notice) + "\n" + content
	}

	switch {
	case m.alert.Open():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.alert.View())
	case m.confirm.Open():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}
	return content
}

func (m Model) renderList() string {
	labels := append([]string{"all"}, mealTypeLabels()...)
	tabs := make([]string, len(labels))
	for i, label := range labels {
		if i == m.mealType {
			tabs[i] = theme.ActiveTabStyle.Render(label)
		} else {
			tabs[i] = theme.TabStyle.Render(label)
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	empty := "No meals logged yet. Record one in meal mode."
	if m.mealType > 0 {
		empty = fmt.Sprintf("No %s entries.", model.MealTypes[m.mealType-1])
	}
	body := ui.RenderStatus(m.width, m.height-2, m.status, m.err, empty)
	if body != "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", body)
	}

	start, end := m.cursor.Window(len(m.meals), m.height-2)
	var lines []string
	for i := start; i < end; i++ {
		meal := m.meals[i]
		names := make([]string, len(meal.Items))
		for j, it := range meal.Items {
			names[j] = it.Name
		}
		line := fmt.Sprintf("%s %s %s",
			meal.MealDate,
			theme.MealTypeStyle(meal.MealType).Render(string(meal.MealType)),
			ui.Truncate(strings.Join(names, ", "), max(m.width-30, 10)))
		if i == m.cursor.Index {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", strings.Join(lines, "\n"))
}

func (m Model) renderCalendar() string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(m.month.Format("January 2006")))
	b.WriteString("\n\n")
	if m.calErr != nil && len(m.cal.Days) == 0 {
		b.WriteString(theme.ErrorStyle.Render(m.calErr.Error()))
		return b.String()
	}

	b.WriteString(theme.DimmedStyle.Render(" Mo  Tu  We  Th  Fr  Sa  Su"))
	b.WriteString("\n")

	offset := (int(m.month.Weekday()) + 6) % 7
	b.WriteString(strings.Repeat("    ", offset))
	last := m.month.AddDate(0, 1, -1).Day()
	today := m.now().Format(time.DateOnly)
	for day := 1; day <= last; day++ {
		date := time.Date(m.month.Year(), m.month.Month(), day, 0, 0, 0, 0, time.Local)
		cell := fmt.Sprintf("%3d", day)
		if d, ok := m.cal.Day(date.Format(time.DateOnly)); ok && d.Count > 0 {
			cell = lipgloss.NewStyle().Foreground(theme.ColorGreen).Bold(true).Render(fmt.Sprintf("%3d", day))
		}
		if date.Format(time.DateOnly) == today {
			cell = lipgloss.NewStyle().Underline(true).Render(cell)
		}
		b.WriteString(cell + " ")
		if (offset+day)%7 == 0 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\n")

	total := 0
	for _, d := range m.cal.Days {
		total += d.Count
	}
	b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("%d meals on %d days", total, len(m.cal.Days))))
	return b.String()
}

func (m Model) renderDetail() string {
	meal := m.detail
	if meal.ID == 0 {
		return ui.Placeholder(m.width, m.height, "Loading...")
	}
	var b strings.Builder
	b.WriteString(theme.MealTypeStyle(meal.MealType).Render(string(meal.MealType)))
	b.WriteString(" " + meal.MealDate)
	if meal.MealTime != nil {
		b.WriteString(" " + *meal.MealTime)
	}
	b.WriteString("\n")
	b.WriteString(theme.ConfidenceStyle(meal.Confidence).Render(fmt.Sprintf("confidence %.0f%%", meal.Confidence*100)))
	b.WriteString("\n\n")

	if len(meal.Items) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No items recognised."))
	}
	for i, it := range meal.Items {
		line := "• " + it.Name
		if it.Portion != nil {
			line += theme.DimmedStyle.Render(" (" + *it.Portion + ")")
		}
		if i == m.itemCursor.Index {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if meal.Transcription != "" {
		b.WriteString("\n" + theme.DimmedStyle.Render(`"`+meal.Transcription+`"`))
	}
	return theme.DetailPanelStyle.Width(max(m.width-4, 20)).Render(b.String())
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	switch {
	case m.detailID != 0:
		return "j/k item | D remove item | d delete meal | esc back"
	case m.mode == modeCalendar:
		return "h/l month | space list"
	}
	return "h/l meal type | enter open | d delete | space calendar"
}

func mealTypeLabels() []string {
	out := make([]string, len(model.MealTypes))
	for i, t := range model.MealTypes {
		out[i] = string(t)
	}
	return out
}
