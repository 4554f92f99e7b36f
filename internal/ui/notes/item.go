package notes

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/browse"
	"github.com/nhle/voicenote/internal/theme"
	"github.com/nhle/voicenote/internal/ui"
)

// noteItem wraps a browse.Item so it can be used in a bubbles/list.
type noteItem struct {
	browse.Item
}

// FilterValue returns the string used for fuzzy filtering.
func (i noteItem) FilterValue() string { return i.Title }

// itemDelegate implements list.ItemDelegate for notes.
type itemDelegate struct{}

// Height returns the number of lines each item takes.
func (d itemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d itemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a note as a title line and a metadata line. Search hits
// show their rank and snippet in place of the folder.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(noteItem)
	if !ok {
		return
	}
	width := m.Width() - 4

	title := ui.Truncate(it.Title, width)

	var meta []string
	if it.Rank != nil {
		meta = append(meta, theme.DimmedStyle.Render(fmt.Sprintf("rank %.2f", *it.Rank)))
		if it.Snippet != nil && *it.Snippet != "" {
			meta = append(meta, stripMarks(*it.Snippet))
		}
	} else {
		meta = append(meta, theme.FolderStyle.Render(it.FolderPath))
		if len(it.Tags) > 0 {
			meta = append(meta, theme.TagStyle.Render("#"+strings.Join(it.Tags, " #")))
		}
	}
	meta = append(meta, theme.DimmedStyle.Render(ui.Ago(it.CreatedAt)))
	second := lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(meta, "  "))

	style := theme.ListItemStyle
	if index == m.Index() {
		style = theme.SelectedItemStyle
	}
	fmt.Fprint(w, style.Render(lipgloss.JoinVertical(lipgloss.Left, title, second)))
}

// stripMarks removes the <mark> highlighting the backend puts in snippets.
func stripMarks(s string) string {
	r := strings.NewReplacer("<mark>", "", "</mark>", "", "\n", " ")
	return r.Replace(s)
}
