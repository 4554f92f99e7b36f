package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voicenote/internal/query"
)

// ActionDoneMsg reports the outcome of a write started from a view.
type ActionDoneMsg struct {
	// View names the view that started the action.
	View   string
	Action string
	Err    error
}

// Mutate runs mu with v in a command and reports through ActionDoneMsg.
func Mutate[V, R any](view, action string, mu *query.Mutator[V, R], v V) tea.Cmd {
	return func() tea.Msg {
		_, err := mu.Mutate(context.Background(), v)
		return ActionDoneMsg{View: view, Action: action, Err: err}
	}
}

// Cursor is a bounded selection index over a list of n rows.
type Cursor struct {
	Index int
}

// Clamp keeps the index within n rows.
func (c *Cursor) Clamp(n int) {
	if c.Index >= n {
		c.Index = n - 1
	}
	if c.Index < 0 {
		c.Index = 0
	}
}

// Move shifts the index by delta within n rows.
func (c *Cursor) Move(delta, n int) {
	c.Index += delta
	c.Clamp(n)
}

// Window returns the [start, end) rows to draw so the cursor stays
// visible in height rows.
func (c Cursor) Window(n, height int) (int, int) {
	if height <= 0 {
		height = 1
	}
	start := 0
	if c.Index >= height {
		start = c.Index - height + 1
	}
	end := start + height
	if end > n {
		end = n
	}
	return start, end
}
