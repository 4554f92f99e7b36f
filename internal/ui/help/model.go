package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/theme"
	"github.com/nhle/voicenote/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	view   string
	hints  string
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetContext names the view the overlay was opened from and its hints.
func (m *Model) SetContext(view, hints string) {
	m.view = view
	m.hints = hints
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	parts := []string{titleStyle.Render("Keyboard Shortcuts"), m.help.View(m.keys)}
	if m.hints != "" && m.view != "" {
		parts = append(parts, "", sectionStyle.Render(strings.ToUpper(m.view[:1])+m.view[1:]), m.hints)
	}
	parts = append(parts, "", sectionStyle.Render("Commands (:)"),
		theme.HelpStyle.Render(strings.Join(command.Usage(), "  ·  ")))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
