package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// Tab is one entry of the header's view switcher.
type Tab struct {
	Key    string
	Label  string
	Active bool
}

// RenderHeader renders the top header bar with a title, the view tabs and
// a status on the right.
func (l Layout) RenderHeader(title string, tabs []Tab, status string) string {
	parts := []string{theme.HeaderStyle.Render(title)}
	for _, t := range tabs {
		style := theme.TabStyle
		if t.Active {
			style = theme.ActiveTabStyle
		}
		parts = append(parts, style.Render(t.Key+" "+t.Label))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	gap := l.Width -
		lipgloss.Width(left) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}

// Overlay centers a dialog over the content area.
func (l Layout) Overlay(dialog string) string {
	return lipgloss.Place(
		l.ContentWidth(), l.ContentHeight(),
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}
