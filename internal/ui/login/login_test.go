package login

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/credential"
	"github.com/nhle/voicenote/internal/testutil"
)

func newModel(t *testing.T, b *testutil.Backend) (Model, *credential.Store) {
	t.Helper()
	t.Setenv(credential.TokenEnv, "")
	store := credential.NewStore(keyring.NewArrayKeyring(nil))
	client := api.NewClient(api.Config{BaseURL: b.URL(), Timeout: 5 * time.Second}, store.Token)
	return New(store, client, "", 80, 24), store
}

func submit(t *testing.T, m Model, token string) Model {
	t.Helper()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(token)})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.checking)

	m, _ = m.Update(m.check(token)())
	return m
}

func TestSignInStoresAcceptedToken(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Token = "secret"
	m, store := newModel(t, b)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("secret")})
	assert.NotContains(t, m.View(), "secret", "token is masked")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, cmd = m.Update(m.check("secret")())
	require.NotNil(t, cmd)
	assert.Equal(t, SignedInMsg{}, cmd())
	assert.True(t, store.SignedIn(context.Background()))
}

func TestRejectedTokenIsCleared(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Token = "secret"
	m, store := newModel(t, b)

	m = submit(t, m, "wrong")
	assert.False(t, m.checking)
	assert.Equal(t, "The server rejected this token.", m.err)
	assert.False(t, store.SignedIn(context.Background()))
	assert.Empty(t, m.input.Value())
}

func TestEmptyTokenIsRefused(t *testing.T) {
	b := testutil.NewBackend(t)
	m, _ := newModel(t, b)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.checking)
	assert.Contains(t, m.View(), "Paste the token")
}
