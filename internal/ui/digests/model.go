// Package digests lists generated summaries of recent notes and creates
// new ones.
package digests

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
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
	viewName = "digests"
	subList  = "digests.list"

	// summaryDays is the window a new digest covers.
	summaryDays = 7
)

type deleteDigestMsg struct{ id int }

type handle struct {
	list *query.Observer
}

// Model is the digests view.
type Model struct {
	svc      *service.Service
	notifier *appsync.Notifier
	keys     *keys.KeyMap
	obs      *handle

	digests []model.Digest
	status  browse.Status
	err     error
	cursor  ui.Cursor
	open    bool

	summarizing bool
	spinner     spinner.Model

	confirm ui.Confirm
	alert   ui.Alert
	notice  string

	width  int
	height int
}

// New creates the digests view.
func New(svc *service.Service, n *appsync.Notifier, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{svc: svc, notifier: n, keys: k, obs: &handle{}, spinner: sp, width: width, height: height}
}

// Init subscribes to the first page of digests.
func (m Model) Init() tea.Cmd {
	if m.obs.list == nil {
		m.obs.list = m.svc.WatchDigests(model.PageParams{}, m.notifier.Listener(subList))
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
	list, ok := query.Result[model.DigestList](snap)
	m.digests = list.Digests
	m.err = snap.Err
	m.status = browse.StatusOf(snap, ok, len(m.digests))
	m.cursor.Clamp(len(m.digests))
}

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool { return m.confirm.Open() || m.alert.Open() }

// Update handles messages for the digests view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsync.QueryUpdatedMsg:
		if msg.Has(subList) {
			m.refresh()
		}
		return m, nil

	case deleteDigestMsg:
		return m, ui.Mutate(viewName, "delete", m.svc.DeleteDigest(), msg.id)

	case ui.ActionDoneMsg:
		if msg.View != viewName {
			return m, nil
		}
		switch {
		case msg.Err != nil && msg.Action == "summarize":
			m.summarizing = false
			m.alert = ui.ErrorAlert("Could not summarize notes", msg.Err)
		case msg.Err != nil:
			m.alert = ui.ErrorAlert("Could not delete digest", msg.Err)
		case msg.Action == "summarize":
			m.summarizing = false
			m.notice = "Digest ready"
			m.cursor = ui.Cursor{}
			m.open = true
		default:
			m.open = false
			m.notice = "Digest deleted"
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.summarizing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
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
	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor.Move(1, len(m.digests))
	case key.Matches(msg, m.keys.Up):
		m.cursor.Move(-1, len(m.digests))
	case key.Matches(msg, m.keys.Select):
		m.open = len(m.digests) > 0
	case key.Matches(msg, m.keys.Back):
		m.open = false
	case key.Matches(msg, m.keys.Refresh):
		if m.obs.list != nil {
			m.obs.list.Refetch()
		}
	case key.Matches(msg, m.keys.New):
		return m.Summarize()
	case key.Matches(msg, m.keys.Delete):
		if len(m.digests) == 0 {
			return m, nil
		}
		d := m.digests[m.cursor.Index]
		var cmd tea.Cmd
		m.confirm, cmd = ui.NewConfirm("Delete digest?",
			fmt.Sprintf("Summary of %d notes from %s", d.NoteCount, ui.Ago(d.CreatedAt)), deleteDigestMsg{id: d.ID})
		return m, cmd
	}
	return m, nil
}

// Summarize asks the backend for a digest of recent notes. Only one
// request runs at a time.
func (m Model) Summarize() (Model, tea.Cmd) {
	if m.summarizing {
		return m, nil
	}
	m.summarizing = true
	return m, tea.Batch(
		m.spinner.Tick,
		ui.Mutate(viewName, "summarize", m.svc.Summarize(), model.SummarizeRequest{Days: summaryDays}),
	)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the digests view.
func (m Model) View() string {
	if m.alert.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.alert.View())
	}
	if m.confirm.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}

	var header string
	switch {
	case m.summarizing:
		header = m.spinner.View() + " Summarizing the last week of notes...\n"
	case m.notice != "":
		header = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(m.notice) + "\n"
	}

	body := ui.RenderStatus(m.width, m.height-1, m.status, m.err, "No digests yet. Press n to summarize the last week.")
	if body != "" {
		return header + body
	}
	if m.open {
		return header + m.renderDigest(m.digests[m.cursor.Index])
	}

	start, end := m.cursor.Window(len(m.digests), m.height-1)
	var lines []string
	for i := start; i < end; i++ {
		d := m.digests[i]
		line := fmt.Sprintf("%s  %s", ui.Truncate(firstLine(d.Summary), max(m.width-30, 20)),
			theme.DimmedStyle.Render(fmt.Sprintf("%d notes, %s", d.NoteCount, ui.Ago(d.CreatedAt))))
		if i == m.cursor.Index {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return header + strings.Join(lines, "\n")
}

func (m Model) renderDigest(d model.Digest) string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(fmt.Sprintf("Digest of %d notes", d.NoteCount)))
	b.WriteString("\n\n")
	b.WriteString(d.Summary)
	b.WriteString("\n")
	if len(d.KeyThemes) > 0 {
		b.WriteString("\nThemes: ")
		for _, th := range d.KeyThemes {
			b.WriteString(theme.TagStyle.Render(th) + " ")
		}
		b.WriteString("\n")
	}
	if len(d.ActionItems) > 0 {
		b.WriteString("\nAction items:\n")
		for _, a := range d.ActionItems {
			b.WriteString("  • " + a + "\n")
		}
	}
	return theme.DetailPanelStyle.Width(max(m.width-4, 20)).Render(b.String())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	if m.open {
		return "esc back | d delete"
	}
	return "enter open | n summarize | d delete"
}
