// Package sync carries background events into the Bubble Tea loop: query
// cache updates and audio files dropped into a watched inbox.
package sync

import (
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voicenote/internal/query"
)

// QueryUpdatedMsg is a tea.Msg carrying the latest snapshot of every
// subscription that changed since the previous message, by subscription
// name.
type QueryUpdatedMsg struct {
	Updates map[string]query.Snapshot
}

// Has reports whether name changed.
func (m QueryUpdatedMsg) Has(name string) bool {
	_, ok := m.Updates[name]
	return ok
}

// Notifier bridges query cache listeners, which run on cache goroutines,
// to the single Bubble Tea update loop. Updates for the same name are
// coalesced so a slow UI never drops the latest state.
type Notifier struct {
	mu      gosync.Mutex
	pending map[string]query.Snapshot
	signal  chan struct{}
	stopCh  chan struct{}
	stopped bool
}

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		pending: make(map[string]query.Snapshot),
		signal:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

// Listener returns a query.Listener publishing under name.
func (n *Notifier) Listener(name string) query.Listener {
	return func(s query.Snapshot) { n.Publish(name, s) }
}

// Publish records a snapshot and wakes the waiting command.
func (n *Notifier) Publish(name string, s query.Snapshot) {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.pending[name] = s
	n.mu.Unlock()

	select {
	case n.signal <- struct{}{}:
	default:
		// A wake-up is already queued.
	}
}

// Wait returns a tea.Cmd that blocks until an update is available. It
// should be re-issued after each QueryUpdatedMsg to keep listening.
func (n *Notifier) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.signal:
		case <-n.stopCh:
			return nil
		}
		return n.drain()
	}
}

func (n *Notifier) drain() QueryUpdatedMsg {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg := QueryUpdatedMsg{Updates: n.pending}
	n.pending = make(map[string]query.Snapshot)
	return msg
}

// Stop unblocks Wait and drops further updates.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	n.stopped = true
	close(n.stopCh)
}
