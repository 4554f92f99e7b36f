package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/query"
)

func TestNotifierCoalescesByName(t *testing.T) {
	n := NewNotifier()
	defer n.Stop()

	notes := n.Listener("notes")
	notes(query.Snapshot{IsFetching: true})
	notes(query.Snapshot{HasData: true, Data: 1})
	n.Listener("tags")(query.Snapshot{HasData: true, Data: "x"})

	msg, ok := n.Wait()().(QueryUpdatedMsg)
	require.True(t, ok)
	require.Len(t, msg.Updates, 2)
	assert.True(t, msg.Has("notes"))
	assert.Equal(t, 1, msg.Updates["notes"].Data, "latest snapshot wins")
	assert.False(t, msg.Has("feedback"))
}

func TestNotifierWaitBlocksUntilPublish(t *testing.T) {
	n := NewNotifier()
	defer n.Stop()

	got := make(chan QueryUpdatedMsg, 1)
	go func() { got <- n.Wait()().(QueryUpdatedMsg) }()

	select {
	case <-got:
		t.Fatal("Wait returned before any update")
	case <-time.After(20 * time.Millisecond):
	}

	n.Publish("settings", query.Snapshot{HasData: true})
	select {
	case msg := <-got:
		assert.True(t, msg.Has("settings"))
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestNotifierStopUnblocksWait(t *testing.T) {
	n := NewNotifier()
	done := make(chan interface{}, 1)
	go func() { done <- n.Wait()() }()

	n.Stop()
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("Wait still blocked after Stop")
	}
	n.Stop()
	n.Publish("notes", query.Snapshot{})
}

func TestInboxMatches(t *testing.T) {
	w, err := NewInboxWatcher(t.TempDir(), nil)
	require.NoError(t, err)

	assert.True(t, w.Matches("memo.wav"))
	assert.True(t, w.Matches("phone/2026/memo.m4a"))
	assert.False(t, w.Matches("notes.txt"))
	assert.False(t, w.Matches(".processed/memo.wav"))
	assert.False(t, w.Matches(".memo.wav.part"))
}

func TestInboxRejectsBadPattern(t *testing.T) {
	_, err := NewInboxWatcher(t.TempDir(), []string{"[unclosed"})
	assert.Error(t, err)

	_, err = NewInboxWatcher(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestInboxScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, processedDir), 0o755))
	for _, name := range []string{"a.wav", "sub/b.ogg", "c.txt", processedDir + "/d.wav"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	w, err := NewInboxWatcher(dir, []string{"**/*.wav", "**/*.ogg"})
	require.NoError(t, err)

	files, err := w.Scan()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "sub", "b.ogg"),
	}, files)
}

type handled struct {
	mu    gosync.Mutex
	paths []string
}

func (h *handled) add(p string) {
	h.mu.Lock()
	h.paths = append(h.paths, p)
	h.mu.Unlock()
}

func (h *handled) list() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func TestInboxRunHandlesNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.wav"), []byte("old"), 0o644))

	w, err := NewInboxWatcher(dir, nil, WithSettle(50*time.Millisecond), WithExisting(true))
	require.NoError(t, err)

	var h handled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx, func(_ context.Context, path string) error {
			h.add(filepath.Base(path))
			if filepath.Base(path) == "bad.wav" {
				return errors.New("upload failed")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(h.list()) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.wav"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.wav"), []byte("bad"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("txt"), 0o644))

	require.Eventually(t, func() bool { return len(h.list()) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"old.wav", "new.wav", "bad.wav"}, h.list())

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, processedDir, "new.wav"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.FileExists(t, filepath.Join(dir, "bad.wav"), "failed files stay")
	assert.FileExists(t, filepath.Join(dir, processedDir, "old.wav"))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
