// Package command is the ":" palette. Input is parsed into a Command and
// handed to the application shell.
package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/theme"
)

// Command is a parsed palette entry.
type Command struct {
	Name string
	Arg  string
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg Command

// CloseMsg is emitted when the palette is dismissed.
type CloseMsg struct{}

// spec describes one palette command.
type spec struct {
	usage  string
	needs  bool // argument required
	accept bool // argument allowed
}

var commands = map[string]spec{
	"notes":     {usage: "notes [folder]", accept: true},
	"search":    {usage: "search <query>", needs: true, accept: true},
	"tag":       {usage: "tag <name>", needs: true, accept: true},
	"record":    {usage: "record"},
	"meal":      {usage: "meal"},
	"todos":     {usage: "todos"},
	"meals":     {usage: "meals"},
	"ask":       {usage: "ask [question]", accept: true},
	"digests":   {usage: "digests"},
	"summarize": {usage: "summarize"},
	"feedback":  {usage: "feedback"},
	"settings":  {usage: "settings"},
	"refresh":   {usage: "refresh"},
	"logout":    {usage: "logout"},
	"quit":      {usage: "quit"},
}

var aliases = map[string]string{
	"q": "quit",
	"s": "search",
	"/": "search",
	"t": "tag",
	"f": "notes",
}

// Names lists every command, sorted.
func Names() []string {
	out := make([]string, 0, len(commands))
	for name := range commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Usage lists the usage line of every command, sorted.
func Usage() []string {
	names := Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = commands[n].usage
	}
	return out
}

// Parse turns palette input into a Command.
func Parse(input string) (Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}, fmt.Errorf("empty command")
	}
	name, arg, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)
	if full, ok := aliases[name]; ok {
		name = full
	}

	s, ok := commands[name]
	switch {
	case !ok:
		return Command{}, fmt.Errorf("unknown command %q", name)
	case s.needs && arg == "":
		return Command{}, fmt.Errorf("usage: %s", s.usage)
	case !s.accept && arg != "":
		return Command{}, fmt.Errorf("%s takes no argument", name)
	}
	return Command{Name: name, Arg: arg}, nil
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return CloseMsg{} }
		case "enter":
			c, err := Parse(m.input.Value())
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return CommandMsg(c) }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.err != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.err))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
