// Package credential keeps the API bearer token in the OS keyring.
package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "voicenote"
	tokenKey    = "api-token"

	// TokenEnv overrides the stored token, for scripts and CI.
	TokenEnv = "VOICENOTE_TOKEN"
)

// Store reads and writes the bearer token.
type Store struct {
	ring keyring.Keyring
}

// openKeyring returns a configured keyring instance. dir holds the
// encrypted file backend used when no system keyring is available.
func openKeyring(dir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("voicenote-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Open opens the system keyring, with the file fallback under configDir.
func Open(configDir string) (*Store, error) {
	ring, err := openKeyring(filepath.Join(configDir, "credentials"))
	if err != nil {
		return nil, err
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an existing keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Token returns the bearer token, or "" when signed out. It has the shape
// of api.TokenFunc.
func (s *Store) Token(_ context.Context) (string, error) {
	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		return env, nil
	}

	item, err := s.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}
	return string(item.Data), nil
}

// SignedIn reports whether a token is available.
func (s *Store) SignedIn(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}

// SetToken stores the bearer token.
func (s *Store) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}
	err := s.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "voicenote API token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	return nil
}

// Clear removes the stored token. Clearing when signed out is not an
// error.
func (s *Store) Clear() error {
	err := s.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}
	return nil
}
