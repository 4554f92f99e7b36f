package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/logging"
)

// DefaultInboxPatterns match the audio files picked up from an inbox.
var DefaultInboxPatterns = []string{
	"**/*.{webm,ogg,opus,m4a,mp4,mp3,wav,flac}",
}

// processedDir is where handled files are moved, relative to the inbox.
const processedDir = ".processed"

// HandleFunc uploads one inbox file.
type HandleFunc func(ctx context.Context, path string) error

// InboxWatcher watches a directory and hands every new file matching its
// patterns to a HandleFunc once the file stopped changing. Handled files
// are moved to a hidden .processed folder; failed ones stay in place.
type InboxWatcher struct {
	dir      string
	patterns []string
	settle   time.Duration
	existing bool
	logger   *zap.Logger
}

// InboxOption configures an InboxWatcher.
type InboxOption func(*InboxWatcher)

// WithSettle sets how long a file must be quiet before it is handled.
func WithSettle(d time.Duration) InboxOption {
	return func(w *InboxWatcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithExisting also handles matching files present when Run starts.
func WithExisting(on bool) InboxOption {
	return func(w *InboxWatcher) { w.existing = on }
}

// WithInboxLogger sets the logger.
func WithInboxLogger(l *zap.Logger) InboxOption {
	return func(w *InboxWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewInboxWatcher validates patterns and returns a watcher for dir.
func NewInboxWatcher(dir string, patterns []string, opts ...InboxOption) (*InboxWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox %s is not a directory", dir)
	}
	if len(patterns) == 0 {
		patterns = DefaultInboxPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}

	w := &InboxWatcher{
		dir:      dir,
		patterns: patterns,
		settle:   500 * time.Millisecond,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Matches reports whether rel, a slash-separated path relative to the
// inbox, is picked up.
func (w *InboxWatcher) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Scan lists the matching files currently in the inbox.
func (w *InboxWatcher) Scan() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range w.patterns {
		matches, err := doublestar.Glob(os.DirFS(w.dir), p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", w.dir, err)
		}
		for _, m := range matches {
			if seen[m] || !w.Matches(m) {
				continue
			}
			seen[m] = true
			out = append(out, filepath.Join(w.dir, filepath.FromSlash(m)))
		}
	}
	return out, nil
}

// Run watches until ctx is done. Files are handled one at a time.
func (w *InboxWatcher) Run(ctx context.Context, handle HandleFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.dir); err != nil {
		return err
	}

	ready := make(chan string, 64)
	deb := newDebouncer(w.settle)
	defer deb.stop()

	if w.existing {
		existing, err := w.Scan()
		if err != nil {
			return err
		}
		for _, path := range existing {
			p := path
			deb.add(p, func() { enqueue(ctx, ready, p) })
		}
	}

	w.logger.Info("watching inbox", zap.String(logging.FieldFile, w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.onEvent(ctx, watcher, deb, ready, event)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Warn("inbox watcher error", zap.Error(werr))

		case path := <-ready:
			w.process(ctx, handle, path)
		}
	}
}

func (w *InboxWatcher) onEvent(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	deb *debouncer,
	ready chan<- string,
	event fsnotify.Event,
) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if !strings.HasPrefix(filepath.Base(event.Name), ".") {
			_ = w.addRecursive(watcher, event.Name)
		}
		return
	}

	if !w.Matches(rel) {
		return
	}
	path := event.Name
	deb.add(path, func() { enqueue(ctx, ready, path) })
}

func (w *InboxWatcher) process(ctx context.Context, handle HandleFunc, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := handle(ctx, path); err != nil {
		w.logger.Warn("inbox file failed",
			zap.String(logging.FieldFile, path),
			zap.Error(err),
		)
		return
	}
	if err := w.archive(path); err != nil {
		w.logger.Warn("archiving inbox file",
			zap.String(logging.FieldFile, path),
			zap.Error(err),
		)
	}
}

// archive moves a handled file under .processed, keeping its relative path.
func (w *InboxWatcher) archive(path string) error {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return err
	}
	dest := filepath.Join(w.dir, processedDir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.Rename(path, dest)
}

func (w *InboxWatcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func enqueue(ctx context.Context, ready chan<- string, path string) {
	select {
	case ready <- path:
	case <-ctx.Done():
	}
}

// debouncer runs the last callback added for a key once the key has been
// quiet for delay.
type debouncer struct {
	delay  time.Duration
	mu     gosync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			fn()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
}
