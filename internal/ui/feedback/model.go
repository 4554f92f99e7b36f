// Package feedback lists submitted feedback and sends new entries.
// Submissions show up immediately as pending and are replaced by the
// server's copy once it answers.
package feedback

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
	viewName = "feedback"
	subList  = "feedback.list"
)

type handle struct {
	list *query.Observer
}

// Model is the feedback view.
type Model struct {
	svc      *service.Service
	notifier *appsync.Notifier
	keys     *keys.KeyMap
	obs      *handle

	items  []model.Feedback
	status browse.Status
	err    error
	cursor ui.Cursor

	form   form
	alert  ui.Alert
	notice string

	width  int
	height int
}

// New creates the feedback view.
func New(svc *service.Service, n *appsync.Notifier, k *keys.KeyMap, width, height int) Model {
	return Model{svc: svc, notifier: n, keys: k, obs: &handle{}, width: width, height: height}
}

// Init subscribes to the first page of feedback.
func (m Model) Init() tea.Cmd {
	if m.obs.list == nil {
		m.obs.list = m.svc.WatchFeedback(model.PageParams{}, m.notifier.Listener(subList))
	}
	return nil
}

// Close drops the subscription.
func (m Model) Close() {
	if m.obs.list != nil {
		m.obs.list.Close()
		m.obs.list = nil
	}
}

func (m *Model) refresh() {
	if m.obs.list == nil {
		return
	}
	snap := m.obs.list.Current()
	list, ok := query.Result[model.FeedbackList](snap)
	m.items = list.Feedback
	m.err = snap.Err
	m.status = browse.StatusOf(snap, ok, len(m.items))
	m.cursor.Clamp(len(m.items))
}

// Pending returns how many entries are still awaiting the server.
func (m Model) Pending() int {
	n := 0
	for _, f := range m.items {
		if f.Pending() {
			n++
		}
	}
	return n
}

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool { return m.form.open() || m.alert.Open() }

// Update handles messages for the feedback view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsync.QueryUpdatedMsg:
		if msg.Has(subList) {
			m.refresh()
		}
		return m, nil

	case formSubmitMsg:
		m.form = form{}
		return m, ui.Mutate(viewName, "send", m.svc.SubmitFeedback(), msg.input)

	case formCancelMsg:
		m.form = form{}
		return m, nil

	case ui.ActionDoneMsg:
		if msg.View != viewName {
			return m, nil
		}
		if msg.Err != nil {
			m.alert = ui.ErrorAlert("Could not send feedback", msg.Err)
		} else {
			m.notice = "Thanks for the feedback!"
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.alert.Open():
			m.alert = m.alert.Update(msg)
			return m, nil
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

	if m.form.open() {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor.Move(1, len(m.items))
	case key.Matches(msg, m.keys.Up):
		m.cursor.Move(-1, len(m.items))
	case key.Matches(msg, m.keys.Refresh):
		if m.obs.list != nil {
			m.obs.list.Refetch()
		}
	case key.Matches(msg, m.keys.New):
		m.form = newForm(m.width, m.height)
		return m, m.form.init()
	}
	return m, nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the feedback view.
func (m Model) View() string {
	if m.form.open() {
		return m.form.view()
	}
	if m.alert.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.alert.View())
	}

	var header string
	if m.notice != "" {
		header = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(m.notice) + "\n"
	}
	body := ui.RenderStatus(m.width, m.height-1, m.status, m.err, "No feedback yet. Press n to send some.")
	if body != "" {
		return header + body
	}

	start, end := m.cursor.Window(len(m.items), m.height-1)
	var lines []string
	for i := start; i < end; i++ {
		f := m.items[i]
		line := fmt.Sprintf("%s %s", theme.FeedbackTypeStyle(f.Type).Render(string(f.Type)), f.Title)
		if f.Rating != nil {
			line += " " + lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(strings.Repeat("★", *f.Rating))
		}
		if f.Pending() {
			line = theme.DimmedStyle.Render(line + "  sending...")
		} else {
			line += theme.DimmedStyle.Render("  " + ui.Ago(f.CreatedAt))
		}
		if i == m.cursor.Index {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return header + strings.Join(lines, "\n")
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	if m.form.open() {
		return "tab next field | enter submit | esc cancel"
	}
	return "n new feedback | R refresh"
}
