// Package todos lists action items by status and moves them through
// suggested, accepted and completed.
package todos

import (
	"fmt"
	"strings"

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
	viewName = "todos"
	subList  = "todos.list"
)

// filters are the status tabs, cycled with h/l. "" lists every todo.
var filters = []model.TodoStatus{model.TodoSuggested, model.TodoAccepted, model.TodoCompleted, ""}

type deleteTodoMsg struct{ id int }

type handle struct {
	list *query.Observer
}

// Model is the todos view.
type Model struct {
	svc      *service.Service
	notifier *appsync.Notifier
	keys     *keys.KeyMap
	obs      *handle

	filter int
	todos  []model.Todo
	status browse.Status
	err    error
	cursor ui.Cursor

	form    form
	confirm ui.Confirm
	alert   ui.Alert
	notice  string

	width  int
	height int
}

// New creates the todos view.
func New(svc *service.Service, n *appsync.Notifier, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:      svc,
		notifier: n,
		keys:     k,
		obs:      &handle{},
		width:    width,
		height:   height,
	}
}

// Init subscribes to the first status tab.
func (m Model) Init() tea.Cmd {
	m.subscribe()
	return nil
}

// Close drops the subscription.
func (m Model) Close() {
	if m.obs.list != nil {
		m.obs.list.Close()
		m.obs.list = nil
	}
}

func (m *Model) subscribe() {
	m.Close()
	m.obs.list = m.svc.WatchTodos(filters[m.filter], model.PageParams{}, m.notifier.Listener(subList))
	m.refresh()
}

func (m *Model) refresh() {
	if m.obs.list == nil {
		return
	}
	snap := m.obs.list.Current()
	list, ok := query.Result[model.TodoList](snap)
	m.todos = list.Todos
	m.err = snap.Err
	m.status = browse.StatusOf(snap, ok, len(m.todos))
	m.cursor.Clamp(len(m.todos))
}

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool {
	return m.form.open() || m.confirm.Open() || m.alert.Open()
}

// Update handles messages for the todos view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsync.QueryUpdatedMsg:
		if msg.Has(subList) {
			m.refresh()
		}
		return m, nil

	case formSubmitMsg:
		m.form = form{}
		return m, ui.Mutate(viewName, "create", m.svc.CreateTodo(), msg.input)

	case formCancelMsg:
		m.form = form{}
		return m, nil

	case deleteTodoMsg:
		return m, ui.Mutate(viewName, "delete", m.svc.DeleteTodo(), msg.id)

	case ui.ActionDoneMsg:
		if msg.View != viewName {
			return m, nil
		}
		if msg.Err != nil {
			m.alert = ui.ErrorAlert("Could not "+msg.Action+" todo", msg.Err)
			return m, nil
		}
		m.notice = "Todo " + pastTense(msg.Action)
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
		case m.form.open():
			if msg.String() == "esc" {
				m.form = form{}
				return m, nil
			}
			var cmd tea.Cmd
			m.form, cmd = m.form.update(msg)
			return m, cmd
		}
		return m.handleKeys(msg)
	}

	switch {
	case m.form.open():
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	case m.confirm.Open():
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor.Move(1, len(m.todos))
	case key.Matches(msg, m.keys.Up):
		m.cursor.Move(-1, len(m.todos))
	case key.Matches(msg, m.keys.Next):
		m.filter = (m.filter + 1) % len(filters)
		m.cursor = ui.Cursor{}
		m.subscribe()
	case key.Matches(msg, m.keys.Prev):
		m.filter = (m.filter + len(filters) - 1) % len(filters)
		m.cursor = ui.Cursor{}
		m.subscribe()
	case key.Matches(msg, m.keys.Refresh):
		if m.obs.list != nil {
			m.obs.list.Refetch()
		}
	case key.Matches(msg, m.keys.New):
		m.form = newForm(m.width, m.height)
		return m, m.form.init()
	}

	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Accept):
		return m, ui.Mutate(viewName, "accept", m.svc.AcceptTodo(), t.ID)
	case key.Matches(msg, m.keys.Complete):
		return m, ui.Mutate(viewName, "complete", m.svc.CompleteTodo(), t.ID)
	case key.Matches(msg, m.keys.Dismiss):
		return m, ui.Mutate(viewName, "dismiss", m.svc.DismissTodo(), t.ID)
	case key.Matches(msg, m.keys.Delete):
		var cmd tea.Cmd
		m.confirm, cmd = ui.NewConfirm("Delete todo?", t.Title, deleteTodoMsg{id: t.ID})
		return m, cmd
	}
	return m, nil
}

func (m Model) selected() (model.Todo, bool) {
	if len(m.todos) == 0 {
		return model.Todo{}, false
	}
	return m.todos[m.cursor.Index], true
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the todos view.
func (m Model) View() string {
	if m.form.open() {
		return m.form.view()
	}

	tabs := make([]string, len(filters))
	for i, f := range filters {
		label := string(f)
		if f == "" {
			label = "all"
		}
		if i == m.filter {
			tabs[i] = theme.ActiveTabStyle.Render(label)
		} else {
			tabs[i] = theme.TabStyle.Render(label)
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.notice != "" {
		header += "  " + lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(m.notice)
	}

	body := ui.RenderStatus(m.width, m.height-2, m.status, m.err, m.emptyMessage())
	if body == "" {
		body = m.renderList(m.height - 2)
	}
	content := lipgloss.JoinVertical(lipgloss.Left, header, "", body)

	switch {
	case m.alert.Open():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.alert.View())
	case m.confirm.Open():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}
	return content
}

func (m Model) emptyMessage() string {
	if f := filters[m.filter]; f != "" {
		return fmt.Sprintf("No %s todos.", f)
	}
	return "No todos yet. Press n to add one."
}

func (m Model) renderList(height int) string {
	start, end := m.cursor.Window(len(m.todos), height)
	var lines []string
	for i := start; i < end; i++ {
		t := m.todos[i]
		check := "○"
		if t.IsCompleted() {
			check = "✓"
		}
		line := fmt.Sprintf("%s %s %s", check, theme.TodoStatusStyle(t.Status).Render(string(t.Status)), t.Title)
		if t.NoteID != nil {
			line += theme.DimmedStyle.Render(fmt.Sprintf("  note #%d", *t.NoteID))
		}
		line += theme.DimmedStyle.Render("  " + ui.Ago(t.CreatedAt))
		if t.IsCompleted() {
			line = theme.DimmedStyle.Render(line)
		}
		if i == m.cursor.Index {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	if m.form.open() {
		return "enter submit | esc cancel"
	}
	return "h/l status | a accept | x complete | D dismiss | d delete | n new"
}

func pastTense(action string) string {
	switch action {
	case "accept":
		return "accepted"
	case "complete":
		return "completed"
	case "dismiss":
		return "dismissed"
	case "create":
		return "created"
	case "delete":
		return "deleted"
	}
	return action + "d"
}
