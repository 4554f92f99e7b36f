// Package ask is the question-and-answer panel over the user's notes. Past
// questions come from the server-side history.
package ask

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
	"github.com/nhle/voicenote/internal/theme"
	"github.com/nhle/voicenote/internal/ui"
)

const subHistory = "ask.history"

// OpenNoteMsg asks the parent to show a source note.
type OpenNoteMsg struct {
	NoteID int
}

type (
	answerMsg struct {
		question string
		result   model.AskResult
		err      error
	}
	deleteEntryMsg struct{ id int }
	deletedMsg     struct{ err error }
)

type handle struct {
	history *query.Observer
}

// Model is the ask panel.
type Model struct {
	svc      *service.Service
	notifier *appsync.Notifier
	keys     *keys.KeyMap
	obs      *handle

	input    textarea.Model
	viewport viewport.Model

	// entries are oldest first.
	entries []model.AskResult
	histErr error
	cursor  ui.Cursor

	pending string
	failed  string

	confirm ui.Confirm
	alert   ui.Alert

	width  int
	height int
}

// New creates the ask panel with the input focused.
func New(svc *service.Service, n *appsync.Notifier, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your notes..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(max(width-4, 20))
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vp := viewport.New(max(width-4, 20), max(height-8, 4))

	return Model{
		svc:      svc,
		notifier: n,
		keys:     k,
		obs:      &handle{},
		input:    ta,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Init subscribes to the history and starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	if m.obs.history == nil {
		m.obs.history = m.svc.WatchAskHistory(model.PageParams{}, m.notifier.Listener(subHistory))
	}
	return textarea.Blink
}

// Close drops the subscription.
func (m Model) Close() {
	if m.obs.history != nil {
		m.obs.history.Close()
		m.obs.history = nil
	}
}

func (m *Model) refresh() {
	if m.obs.history == nil {
		return
	}
	snap := m.obs.history.Current()
	if list, ok := query.Result[model.AskHistoryList](snap); ok {
		m.entries = slices.Clone(list.Items)
		slices.Reverse(m.entries)
	}
	m.histErr = snap.Err
	m.cursor.Clamp(len(m.entries))
	m.refreshViewport()
}

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool {
	return m.input.Focused() || m.confirm.Open() || m.alert.Open()
}

// Asking reports whether a question is awaiting its answer.
func (m Model) Asking() bool { return m.pending != "" }

// Update handles messages for the ask panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsync.QueryUpdatedMsg:
		if msg.Has(subHistory) {
			m.refresh()
		}
		return m, nil

	case answerMsg:
		m.pending = ""
		if msg.err != nil {
			m.failed = msg.question
			m.alert = ui.ErrorAlert("Could not get an answer", msg.err)
		} else {
			m.failed = ""
			if !slices.ContainsFunc(m.entries, func(e model.AskResult) bool { return e.ID == msg.result.ID }) {
				m.entries = append(m.entries, msg.result)
			}
			m.cursor.Index = len(m.entries) - 1
		}
		m.refreshViewport()
		return m, nil

	case deleteEntryMsg:
		mu := m.svc.DeleteAskHistory()
		id := msg.id
		return m, func() tea.Msg {
			_, err := mu.Mutate(context.Background(), id)
			return deletedMsg{err: err}
		}

	case deletedMsg:
		if msg.err != nil {
			m.alert = ui.ErrorAlert("Could not delete entry", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.confirm.Open() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case m.alert.Open():
		m.alert = m.alert.Update(msg)
		return m, nil
	case m.confirm.Open():
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	if m.input.Focused() {
		switch msg.String() {
		case "esc":
			m.input.Blur()
			return m, nil
		case "enter":
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.New):
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Down):
		m.cursor.Move(1, len(m.entries))
		m.refreshViewport()
	case key.Matches(msg, m.keys.Up):
		m.cursor.Move(-1, len(m.entries))
		m.refreshViewport()
	case key.Matches(msg, m.keys.Refresh):
		if m.obs.history != nil {
			m.obs.history.Refetch()
		}
	case key.Matches(msg, m.keys.Delete):
		if e, ok := m.selected(); ok {
			var cmd tea.Cmd
			m.confirm, cmd = ui.NewConfirm("Delete this question?", ui.Truncate(e.Question, 60), deleteEntryMsg{id: e.ID})
			return m, cmd
		}
	case msg.String() == "o":
		if e, ok := m.selected(); ok && len(e.Sources) > 0 {
			id := e.Sources[0].NoteID
			return m, func() tea.Msg { return OpenNoteMsg{NoteID: id} }
		}
	}
	return m, nil
}

// AskQuestion puts q in the input and sends it.
func (m Model) AskQuestion(q string) (Model, tea.Cmd) {
	if m.pending != "" {
		return m, nil
	}
	m.input.SetValue(q)
	return m.submit()
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.pending != "" {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.pending = text
	m.failed = ""
	m.refreshViewport()

	mu := m.svc.Ask()
	return m, func() tea.Msg {
		res, err := mu.Mutate(context.Background(), model.AskRequest{Question: text})
		return answerMsg{question: text, result: res, err: err}
	}
}

func (m Model) selected() (model.AskResult, bool) {
	if len(m.entries) == 0 {
		return model.AskResult{}, false
	}
	return m.entries[m.cursor.Index], true
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	if len(m.entries) == 0 && m.pending == "" && m.failed == "" {
		hint := "Ask anything about your notes. Answers cite the notes they drew from."
		if m.histErr != nil {
			hint = api.Message(m.histErr)
		}
		return lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render(hint)
	}

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	answerStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	var sections []string
	for i, e := range m.entries {
		label := userStyle.Render("You:")
		if i == m.cursor.Index && !m.input.Focused() {
			label = theme.SelectedItemStyle.Render("You:")
		}
		sections = append(sections, label, contentStyle.Render(e.Question), "")
		sections = append(sections, answerStyle.Render("Answer:"), contentStyle.Render(e.Answer))
		for _, s := range e.Sources {
			sections = append(sections, theme.DimmedStyle.Render(fmt.Sprintf("  #%d %s", s.NoteID, s.Title)))
		}
		sections = append(sections, "")
	}

	thinking := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
	if m.pending != "" {
		sections = append(sections, userStyle.Render("You:"), contentStyle.Render(m.pending), "", thinking.Render("..."))
	}
	if m.failed != "" {
		sections = append(sections, userStyle.Render("You:"), contentStyle.Render(m.failed), theme.ErrorStyle.Render("No answer."))
	}
	return strings.Join(sections, "\n")
}

// View renders the ask panel.
func (m Model) View() string {
	if m.alert.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.alert.View())
	}
	if m.confirm.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).Render("Ask your notes")
	separator := lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(strings.Repeat("─", max(min(m.width-6, 80), 1)))

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), separator, m.input.View())
	return theme.DetailPanelStyle.Width(max(m.width-4, 20)).Render(content)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(max(width-4, 20))
	m.viewport.Width = max(width-4, 20)
	m.viewport.Height = max(height-8, 4)
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	if m.input.Focused() {
		return "enter ask | esc leave input"
	}
	return "enter type | j/k select | o open source | d delete"
}
