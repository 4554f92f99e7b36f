// Package ui holds the shared pieces of the terminal views: layout, the
// loading/error/empty placeholders, and the confirm and alert dialogs.
package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/browse"
	"github.com/nhle/voicenote/internal/theme"
)

// Placeholder renders centered guidance text in an otherwise empty panel.
func Placeholder(width, height int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// RenderStatus renders the non-populated states of a list or detail
// panel. It returns "" for StatusPopulated so the caller draws its data.
func RenderStatus(width, height int, status browse.Status, err error, empty string) string {
	switch status {
	case browse.StatusLoading:
		return Placeholder(width, height, "Loading...")
	case browse.StatusError:
		return lipgloss.NewStyle().
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(theme.ErrorStyle.Render(api.Message(err)) + "\n\n" +
				theme.HelpStyle.Render("R to retry"))
	case browse.StatusEmpty:
		return Placeholder(width, height, empty)
	default:
		return ""
	}
}

// Ago renders t relative to now, or "" for the zero time.
func Ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// Truncate shortens s to at most n cells, marking the cut.
func Truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
