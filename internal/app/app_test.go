package app

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/audio"
	"github.com/nhle/voicenote/internal/credential"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
	"github.com/nhle/voicenote/internal/testutil"
	"github.com/nhle/voicenote/internal/ui/command"
	"github.com/nhle/voicenote/internal/ui/login"
	"github.com/nhle/voicenote/internal/ui/record"
	"github.com/nhle/voicenote/internal/ui/settings"
)

type harness struct {
	backend   *testutil.Backend
	account   *credential.Store
	cache     *query.Cache
	signedOut int
}

func newApp(t *testing.T, token string) (Model, *harness) {
	t.Helper()
	t.Setenv(credential.TokenEnv, "")

	h := &harness{
		backend: testutil.NewBackend(t),
		account: credential.NewStore(keyring.NewArrayKeyring(nil)),
	}
	h.backend.Token = "secret"
	if token != "" {
		require.NoError(t, h.account.SetToken(token))
	}

	client := api.NewClient(api.Config{BaseURL: h.backend.URL(), Timeout: 5 * time.Second}, h.account.Token)
	h.cache = query.New(query.WithRetryDelay(time.Millisecond))
	t.Cleanup(h.cache.Close)
	n := appsync.NewNotifier()
	t.Cleanup(n.Stop)

	m := New(Deps{
		Service:  service.New(client, h.cache),
		Notifier: n,
		Recorder: audio.NewRecorder(audio.NewFFmpegDevice("pulse", "default", zap.NewNop())),
		Account:  h.account,
		OnSignOut: func() error {
			h.signedOut++
			return nil
		},
	})
	return send(m, tea.WindowSizeMsg{Width: 120, Height: 40}), h
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStartsAtLoginWithoutToken(t *testing.T) {
	m, _ := newApp(t, "")
	assert.False(t, m.SignedIn())
	assert.Contains(t, m.View(), "Sign in to")

	// Global keys belong to the token input until signed in.
	m = send(m, runes("3"))
	assert.False(t, m.SignedIn())

	m = send(m, login.SignedInMsg{})
	assert.True(t, m.SignedIn())
	assert.Equal(t, ViewNotes, m.Current())
	assert.Contains(t, m.View(), "1 notes")
}

func TestNumberKeysSwitchViews(t *testing.T) {
	m, _ := newApp(t, "secret")
	require.True(t, m.SignedIn())
	assert.Equal(t, ViewNotes, m.Current())

	m = send(m, runes("3"))
	assert.Equal(t, ViewTodos, m.Current())
	assert.True(t, m.views.opened[ViewTodos])

	m = send(m, runes("8"))
	assert.Equal(t, ViewSettings, m.Current())
	assert.False(t, m.views.opened[ViewMeals])
}

func TestCapturingViewKeepsKeys(t *testing.T) {
	m, _ := newApp(t, "secret")

	m = send(m, runes("5"))
	require.Equal(t, ViewAsk, m.Current())

	// The question box has focus, so digits are typed, not routed.
	m = send(m, runes("1"))
	assert.Equal(t, ViewAsk, m.Current())

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	m = send(m, runes("1"))
	assert.Equal(t, ViewNotes, m.Current())
}

func TestHelpOverlayToggles(t *testing.T) {
	m, _ := newApp(t, "secret")

	m = send(m, runes("?"))
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	assert.Contains(t, m.View(), "Commands (:)")

	m = send(m, runes("3"))
	assert.Equal(t, ViewNotes, m.Current(), "help swallows keys")

	m = send(m, runes("?"))
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}

func TestCommandPaletteRunsSearch(t *testing.T) {
	m, _ := newApp(t, "secret")
	m = send(m, runes("3"))

	m = send(m, runes(":"))
	assert.Contains(t, m.View(), "Command Palette")
	m = send(m, runes("search milk"))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	m = send(m, cmd())

	assert.Equal(t, ViewNotes, m.Current())
	assert.Equal(t, "milk", m.views.notes.Selection().Search)
	assert.NotContains(t, m.View(), "Command Palette")
}

func TestCommandOpensView(t *testing.T) {
	m, _ := newApp(t, "secret")

	next, _ := m.execute(commandOf("meals"))
	m = next.(Model)
	assert.Equal(t, ViewMeals, m.Current())

	next, _ = m.execute(commandOf("meal"))
	m = next.(Model)
	assert.Equal(t, ViewRecord, m.Current())
	assert.Contains(t, m.View(), "Meal · ")
}

func commandOf(input string) command.Command {
	c, err := command.Parse(input)
	if err != nil {
		panic(err)
	}
	return c
}

func TestSignOutReturnsToLogin(t *testing.T) {
	m, h := newApp(t, "secret")
	h.cache.SetData(query.K("settings"), "cached")

	m = send(m, settings.SignedOutMsg{})
	assert.False(t, m.SignedIn())
	assert.Equal(t, 1, h.signedOut)
	_, cached := h.cache.GetData(query.K("settings"))
	assert.False(t, cached)
	assert.False(t, h.account.SignedIn(context.Background()))
	assert.Contains(t, m.View(), "Sign in to")
}

func TestUnauthorizedQueryEndsSession(t *testing.T) {
	m, h := newApp(t, "secret")

	m = send(m, appsync.QueryUpdatedMsg{Updates: map[string]query.Snapshot{
		"notes.list": {Err: &api.APIError{Status: 401, Message: "Not authenticated"}},
	}})
	assert.False(t, m.SignedIn())
	assert.False(t, h.account.SignedIn(context.Background()))
	assert.Contains(t, m.View(), sessionExpired)
}

func TestUploadNoticeInHeader(t *testing.T) {
	m, _ := newApp(t, "secret")

	m = send(m, record.UploadedMsg{NoteID: 7})
	assert.Contains(t, m.View(), "Note #7 saved")

	m = send(m, runes("2"))
	assert.NotContains(t, m.View(), "Note #7 saved")
}

func TestQuitKey(t *testing.T) {
	m, _ := newApp(t, "secret")

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
