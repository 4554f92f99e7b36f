// Package app is the root Bubble Tea model: it gates the views behind
// sign-in, routes keys and background messages, and draws the frame.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/audio"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
	"github.com/nhle/voicenote/internal/ui"
	"github.com/nhle/voicenote/internal/ui/ask"
	"github.com/nhle/voicenote/internal/ui/command"
	helpview "github.com/nhle/voicenote/internal/ui/help"
	"github.com/nhle/voicenote/internal/ui/login"
	"github.com/nhle/voicenote/internal/ui/record"
	"github.com/nhle/voicenote/internal/ui/settings"
)

// Account holds the API token.
type Account interface {
	SignedIn(ctx context.Context) bool
	SetToken(token string) error
	Clear() error
}

// Deps are the collaborators shared by every view.
type Deps struct {
	Service  *service.Service
	Notifier *appsync.Notifier
	Recorder *audio.Recorder
	Account  Account
	Config   model.AppConfig
	Logger   *zap.Logger

	// OnSignOut runs after the token is gone, e.g. to drop the persisted
	// cache. Errors are logged.
	OnSignOut func() error
}

type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCommand
)

// sessionExpired is shown on the login screen after a 401.
const sessionExpired = "Your session expired. Sign in again."

// Model is the root Bubble Tea model that manages view routing,
// layout, and sign-in.
type Model struct {
	deps   Deps
	keys   *keys.KeyMap
	logger *zap.Logger

	layout ui.Layout
	ready  bool

	signedIn bool
	login    login.Model

	current ViewState
	overlay overlay
	views   views

	helpView    helpview.Model
	commandView command.Model

	notice  string
	startup tea.Cmd
}

// New creates the root model. The first view is opened right away when a
// token is already stored.
func New(d Deps) Model {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()
	m := Model{
		deps:        d,
		keys:        k,
		logger:      logger,
		layout:      ui.NewLayout(80, 24),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
	}
	if d.Account.SignedIn(context.Background()) {
		m.startup = m.startSession()
	} else {
		m.login = login.New(d.Account, d.Service.API(), "", 80, 24)
		m.startup = m.login.Init()
	}
	return m
}

// Init starts listening for cache updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.deps.Notifier.Wait(), m.startup)
}

// Current returns the active view.
func (m Model) Current() ViewState { return m.current }

// SignedIn reports whether the views are shown instead of the login.
func (m Model) SignedIn() bool { return m.signedIn }

func (m Model) contentSize() (int, int) {
	return m.layout.ContentWidth(), m.layout.ContentHeight()
}

// startSession builds fresh views and opens the notes view.
func (m *Model) startSession() tea.Cmd {
	m.signedIn = true
	m.current = ViewNotes
	m.overlay = overlayNone
	m.views = m.newViews()
	return m.views.open(ViewNotes)
}

// endSession closes every view, forgets cached data and shows the login
// screen with reason.
func (m *Model) endSession(reason string) tea.Cmd {
	if m.deps.Recorder != nil && m.deps.Recorder.IsRecording() {
		m.deps.Recorder.Cancel()
	}
	if m.signedIn {
		m.views.closeAll()
	}
	m.signedIn = false
	m.overlay = overlayNone
	m.notice = ""

	if err := m.deps.Account.Clear(); err != nil {
		m.logger.Warn("clearing token", zap.Error(err))
	}
	m.deps.Service.Cache().Remove(query.K())
	if m.deps.OnSignOut != nil {
		if err := m.deps.OnSignOut(); err != nil {
			m.logger.Warn("sign-out cleanup", zap.Error(err))
		}
	}

	m.login = login.New(m.deps.Account, m.deps.Service.API(), reason, m.layout.Width, m.layout.Height)
	return m.login.Init()
}

// show switches to v, opening it on first use.
func (m *Model) show(v ViewState) tea.Cmd {
	m.current = v
	m.overlay = overlayNone
	m.notice = ""
	return m.views.open(v)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.contentSize()
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.login.SetSize(msg.Width, msg.Height)
		if !m.signedIn {
			return m, nil
		}
		m.views.setSize(w, h)
		// huh forms size themselves from the message.
		return m, m.views.update(m.current, msg)

	case appsync.QueryUpdatedMsg:
		wait := m.deps.Notifier.Wait()
		if !m.signedIn {
			return m, wait
		}
		if unauthorized(msg) {
			m.logger.Info("session rejected by backend")
			return m, tea.Batch(wait, m.endSession(sessionExpired))
		}
		return m, tea.Batch(wait, m.views.broadcast(msg))

	case login.SignedInMsg:
		m.logger.Info("signed in")
		return m, m.startSession()

	case settings.SignedOutMsg:
		m.logger.Info("signed out")
		return m, m.endSession("")

	case ui.ActionDoneMsg:
		if api.IsUnauthorized(msg.Err) {
			return m, m.endSession(sessionExpired)
		}

	case command.CloseMsg:
		m.overlay = overlayNone
		return m, nil

	case command.CommandMsg:
		m.overlay = overlayNone
		return m.execute(command.Command(msg))

	case ask.OpenNoteMsg:
		cmd := m.show(ViewNotes)
		m.views.notes.OpenNote(msg.NoteID)
		return m, cmd

	case record.UploadedMsg:
		switch {
		case msg.MealID != 0:
			m.notice = fmt.Sprintf("Meal #%d logged", msg.MealID)
		case msg.NoteID != 0:
			m.notice = fmt.Sprintf("Note #%d saved", msg.NoteID)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if !m.signedIn {
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}
	cmds := []tea.Cmd{m.views.broadcast(msg)}
	if m.overlay == overlayCommand {
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleKey routes a key press: global shortcuts first, unless the
// active view or an overlay owns the keyboard.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if !m.signedIn {
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}

	switch m.overlay {
	case overlayCommand:
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	case overlayHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.overlay = overlayNone
		}
		return m, nil
	}

	if m.views.capturing(m.current) {
		return m, m.views.update(m.current, msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.helpView.SetContext(m.current.String(), m.views.keyHints(m.current))
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.overlay = overlayCommand
		return m, m.commandView.Focus()
	}

	for i, b := range m.viewBindings() {
		if key.Matches(msg, b) {
			return m, m.show(allViews[i])
		}
	}

	return m, m.views.update(m.current, msg)
}

// viewBindings returns the number keys in allViews order.
func (m Model) viewBindings() []key.Binding {
	k := m.keys
	return []key.Binding{
		k.ViewNotes, k.ViewRecord, k.ViewTodos, k.ViewMeals,
		k.ViewAsk, k.ViewDigests, k.ViewFeedback, k.ViewSettings,
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.deps.Recorder != nil && m.deps.Recorder.IsRecording() {
		m.deps.Recorder.Cancel()
	}
	if m.signedIn {
		m.views.closeAll()
	}
	m.deps.Notifier.Stop()
	return m, tea.Quit
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if !m.signedIn {
		return m.login.View()
	}

	header := m.layout.RenderHeader("voicenote", m.tabs(), m.status())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) renderContent() string {
	switch m.overlay {
	case overlayHelp:
		return m.helpView.View()
	case overlayCommand:
		return m.layout.Overlay(m.commandView.View())
	}
	return m.views.view(m.current)
}

func (m Model) tabs() []ui.Tab {
	bindings := m.viewBindings()
	tabs := make([]ui.Tab, len(allViews))
	for i, v := range allViews {
		tabs[i] = ui.Tab{
			Key:    bindings[i].Help().Key,
			Label:  v.String(),
			Active: v == m.current,
		}
	}
	return tabs
}

// status summarizes background activity for the header.
func (m Model) status() string {
	switch {
	case m.views.record.Recording():
		return "● recording"
	case m.views.ask.Asking():
		return "asking…"
	case m.views.feedback.Pending() > 0:
		return "sending feedback…"
	case m.notice != "":
		return m.notice
	}
	return m.deps.Service.API().BaseURL()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.overlay {
	case overlayHelp:
		return "? close help | esc back"
	case overlayCommand:
		return "enter run | tab complete | esc close"
	}
	hints := m.views.keyHints(m.current)
	if m.views.capturing(m.current) {
		return hints
	}
	return hints + " | ? help | : command | q quit"
}

// unauthorized reports whether any snapshot in msg failed with a 401.
func unauthorized(msg appsync.QueryUpdatedMsg) bool {
	for _, s := range msg.Updates {
		if api.IsUnauthorized(s.Err) {
			return true
		}
	}
	return false
}
