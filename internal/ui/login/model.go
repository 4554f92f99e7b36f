// Package login asks for the API token when none is stored and checks it
// against the backend before handing control back to the shell.
package login

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/theme"
)

// Account stores the API token.
type Account interface {
	SetToken(token string) error
	Clear() error
}

// SignedInMsg is sent once a token was stored and accepted.
type SignedInMsg struct{}

type checkedMsg struct{ err error }

// Model is the sign-in screen.
type Model struct {
	account Account
	client  *api.Client
	input   textinput.Model
	spinner spinner.Model

	checking bool
	reason   string
	err      string

	width  int
	height int
}

// New creates the sign-in screen. reason, when set, explains why the
// user has to sign in again.
func New(acct Account, client *api.Client, reason string, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "API token"
	ti.Prompt = "token: "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Width = max(width-20, 20)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		account: acct,
		client:  client,
		input:   ti,
		spinner: sp,
		reason:  reason,
		width:   width,
		height:  height,
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles messages for the sign-in screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case checkedMsg:
		m.checking = false
		if msg.err != nil {
			m.err = api.Message(msg.err)
			if api.IsUnauthorized(msg.err) {
				m.err = "The server rejected this token."
			}
			m.input.Reset()
			return m, nil
		}
		return m, func() tea.Msg { return SignedInMsg{} }

	case spinner.TickMsg:
		if m.checking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.checking {
			return m, nil
		}
		if msg.String() == "enter" {
			token := strings.TrimSpace(m.input.Value())
			if token == "" {
				m.err = "Paste the token from your account page."
				return m, nil
			}
			m.err = ""
			m.checking = true
			return m, tea.Batch(m.spinner.Tick, m.check(token))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// check stores token and confirms the backend accepts it. A rejected
// token is removed again.
func (m Model) check(token string) tea.Cmd {
	acct, client := m.account, m.client
	return func() tea.Msg {
		if err := acct.SetToken(token); err != nil {
			return checkedMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := client.GetSettings(ctx); err != nil {
			if api.IsUnauthorized(err) {
				_ = acct.Clear()
			}
			return checkedMsg{err: err}
		}
		return checkedMsg{}
	}
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-20, 20)
}

// View renders the sign-in screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("voicenote"))
	b.WriteString("\n\n")
	if m.reason != "" {
		b.WriteString(theme.ErrorStyle.Render(m.reason))
		b.WriteString("\n\n")
	}
	b.WriteString("Sign in to " + m.client.BaseURL() + "\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	switch {
	case m.checking:
		b.WriteString(m.spinner.View() + " Checking token...")
	case m.err != "":
		b.WriteString(theme.ErrorStyle.Render(m.err))
	default:
		b.WriteString(theme.HelpStyle.Render("enter sign in | ctrl+c quit"))
	}

	box := theme.BorderStyle.Padding(1, 3).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
