// Package settings shows the connection and server-side preferences and
// lets the user test the connection or sign out.
package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
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

const (
	viewName    = "settings"
	subSettings = "settings.user"
)

// Account is the signed-in identity.
type Account interface {
	SignedIn(ctx context.Context) bool
	Clear() error
}

// SignedOutMsg is sent after the stored token was removed.
type SignedOutMsg struct{}

type mode int

const (
	modeView mode = iota
	modeValidating
	modeValidateResult
)

type (
	validateResultMsg struct{ err error }
	signOutMsg        struct{}
	signOutFailedMsg  struct{ err error }
)

type handle struct {
	settings *query.Observer
}

// Model is the settings view.
type Model struct {
	svc      *service.Service
	notifier *appsync.Notifier
	account  Account
	cfg      model.AppConfig
	keys     *keys.KeyMap
	obs      *handle

	mode      mode
	settings  model.UserSettings
	loaded    bool
	err       error
	saving    bool
	spinner   spinner.Model
	validErr  error
	confirm   ui.Confirm
	alert     ui.Alert
	statusMsg string

	width, height int
}

// New creates the settings view.
func New(svc *service.Service, n *appsync.Notifier, acct Account, cfg model.AppConfig, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		svc:      svc,
		notifier: n,
		account:  acct,
		cfg:      cfg,
		keys:     k,
		obs:      &handle{},
		spinner:  sp,
		width:    width,
		height:   height,
	}
}

// Init subscribes to the user settings.
func (m Model) Init() tea.Cmd {
	if m.obs.settings == nil {
		m.obs.settings = m.svc.WatchSettings(m.notifier.Listener(subSettings))
	}
	return nil
}

// Close drops the subscription.
func (m Model) Close() {
	if m.obs.settings != nil {
		m.obs.settings.Close()
		m.obs.settings = nil
	}
}

func (m *Model) refresh() {
	if m.obs.settings == nil {
		return
	}
	snap := m.obs.settings.Current()
	m.settings, m.loaded = query.Result[model.UserSettings](snap)
	m.err = snap.Err
}

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool {
	return m.confirm.Open() || m.alert.Open() || m.mode != modeView
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appsync.QueryUpdatedMsg:
		if msg.Has(subSettings) {
			m.refresh()
		}
		return m, nil

	case ui.ActionDoneMsg:
		if msg.View != viewName {
			return m, nil
		}
		m.saving = false
		if msg.Err != nil {
			m.alert = ui.ErrorAlert("Could not save settings", msg.Err)
		} else {
			m.statusMsg = "Settings saved"
		}
		m.refresh()
		return m, nil

	case validateResultMsg:
		if m.mode != modeValidating {
			return m, nil
		}
		m.mode = modeValidateResult
		m.validErr = msg.err
		return m, nil

	case signOutMsg:
		acct := m.account
		return m, func() tea.Msg {
			if err := acct.Clear(); err != nil {
				return signOutFailedMsg{err: err}
			}
			return SignedOutMsg{}
		}

	case signOutFailedMsg:
		m.alert = ui.ErrorAlert("Could not sign out", msg.err)
		return m, nil

	case spinner.TickMsg:
		if m.mode == modeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
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
	return m, nil
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

	switch m.mode {
	case modeValidating:
		if msg.String() == "esc" {
			m.mode = modeView
		}
		return m, nil
	case modeValidateResult:
		switch msg.String() {
		case "enter", "esc":
			m.mode = modeView
			m.validErr = nil
		case "r":
			if m.validErr != nil {
				return m.startValidation()
			}
		}
		return m, nil
	}

	m.statusMsg = ""
	switch {
	case key.Matches(msg, m.keys.Toggle):
		if !m.loaded || m.saving {
			return m, nil
		}
		next := !m.settings.AutoAcceptTodos
		m.saving = true
		return m, ui.Mutate(viewName, "save", m.svc.UpdateSettings(), model.SettingsUpdate{AutoAcceptTodos: &next})
	case key.Matches(msg, m.keys.Select):
		return m.startValidation()
	case key.Matches(msg, m.keys.Refresh):
		if m.obs.settings != nil {
			m.obs.settings.Refetch()
		}
	case msg.String() == "o":
		var cmd tea.Cmd
		m.confirm, cmd = ui.NewConfirm("Sign out?", "The stored API token will be removed.", signOutMsg{})
		return m, cmd
	}
	return m, nil
}

func (m Model) startValidation() (Model, tea.Cmd) {
	m.mode = modeValidating
	m.validErr = nil
	return m, tea.Batch(m.spinner.Tick, m.validate())
}

// validate checks the backend answers an authenticated request.
func (m Model) validate() tea.Cmd {
	client := m.svc.API()
	timeout := time.Duration(m.cfg.API.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := client.GetSettings(ctx)
		return validateResultMsg{err: err}
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the settings view.
func (m Model) View() string {
	style := lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height)
	switch m.mode {
	case modeValidating:
		return style.Render(fmt.Sprintf("%s Testing connection to %s...\n\nPress esc to cancel.",
			m.spinner.View(), m.svc.API().BaseURL()))
	case modeValidateResult:
		return style.Render(m.viewValidateResult())
	}

	if m.alert.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.alert.View())
	}
	if m.confirm.Open() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}
	return style.Render(m.viewSettings())
}

func (m Model) viewSettings() string {
	var b strings.Builder
	section := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(22)

	b.WriteString(section.Render("Account"))
	b.WriteString("\n")
	b.WriteString(label.Render("Server") + m.svc.API().BaseURL() + "\n")
	signedIn := "no"
	if m.account != nil && m.account.SignedIn(context.Background()) {
		signedIn = "yes"
	}
	b.WriteString(label.Render("Signed in") + signedIn + "\n\n")

	b.WriteString(section.Render("Preferences"))
	b.WriteString("\n")
	switch {
	case !m.loaded && m.err != nil:
		b.WriteString(theme.ErrorStyle.Render(api.Message(m.err)) + "\n")
	case !m.loaded:
		b.WriteString(theme.DimmedStyle.Render("Loading...") + "\n")
	default:
		box := "[ ]"
		if m.settings.AutoAcceptTodos {
			box = "[x]"
		}
		if m.saving {
			box = "[~]"
		}
		b.WriteString(label.Render("Auto-accept todos") + box + "\n")
		if !m.settings.UpdatedAt.IsZero() {
			b.WriteString(label.Render("Updated") + ui.Ago(m.settings.UpdatedAt) + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(section.Render("Local"))
	b.WriteString("\n")
	b.WriteString(label.Render("Page size") + fmt.Sprint(m.cfg.Display.PageSize) + "\n")
	b.WriteString(label.Render("Cache fresh for") + fmt.Sprintf("%ds", m.cfg.Query.StaleTimeSec) + "\n")
	persist := "off"
	if m.cfg.Cache.Persist {
		persist = m.cfg.Cache.DBPath
	}
	b.WriteString(label.Render("Offline cache") + persist + "\n")
	if m.cfg.Log.File != "" {
		b.WriteString(label.Render("Log file") + m.cfg.Log.File + "\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}
	return b.String()
}

func (m Model) viewValidateResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if m.validErr != nil {
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).Render("Connection failed") + "\n\n" +
			api.Message(m.validErr) + "\n\n" +
			hint.Render("r retry | enter/esc back")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("Connection successful") + "\n\n" +
		hint.Render("enter/esc back")
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	return "space toggle auto-accept | enter test connection | o sign out"
}
