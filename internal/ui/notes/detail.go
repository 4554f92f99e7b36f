package notes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/browse"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/theme"
	"github.com/nhle/voicenote/internal/ui"
)

// renderDetail builds the detail panel content for the open note.
func (m Model) renderDetail() string {
	snap := current(m.obs.detail)
	note, ok := query.Result[model.Note](snap)
	if s := ui.RenderStatus(m.detail.Width, m.detail.Height, browse.StatusOf(snap, ok, 1), snap.Err, ""); s != "" {
		return s
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(note.Title))

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		sections = append(sections, fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-11s", label)), valStyle.Render(value)))
	}

	sections = append(sections, "")
	row("Folder:", theme.FolderStyle.Render(note.FolderPath))
	if tags := model.NormalizeTags(note.Tags); len(tags) > 0 {
		row("Tags:", theme.TagStyle.Render("#"+strings.Join(tags, " #")))
	}
	if !note.CreatedAt.IsZero() {
		row("Created:", note.CreatedAt.Local().Format("2006-01-02 15:04")+"  ("+ui.Ago(note.CreatedAt)+")")
	}
	row("Words:", fmt.Sprintf("%d", note.WordCount))
	row("Confidence:", theme.ConfidenceStyle(note.Confidence).Render(fmt.Sprintf("%.0f%%", note.Confidence*100)))
	if note.Filename != "" {
		row("File:", note.Filename)
	}

	sections = append(sections, "")
	sections = append(sections, lipgloss.NewStyle().Width(m.detail.Width).Render(note.Content))

	if todos := m.renderNoteTodos(); todos != "" {
		sections = append(sections, "", todos)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderNoteTodos lists the todos extracted from the open note.
func (m Model) renderNoteTodos() string {
	list, ok := query.Result[model.TodoList](current(m.obs.noteTodos))
	if !ok || len(list.Todos) == 0 {
		return ""
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Todos")}
	for _, t := range list.Todos {
		badge := theme.TodoStatusStyle(t.Status).Render(string(t.Status))
		lines = append(lines, badge+" "+t.Title)
	}
	return strings.Join(lines, "\n")
}
