package notes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/theme"
)

type pickKind int

const (
	pickNone pickKind = iota
	pickTags
	pickFolders
)

type pickEntry struct {
	label string
	value string
	depth int
	count int
}

// picker is the tag or folder chooser shown over the list.
type picker struct {
	kind    pickKind
	entries []pickEntry
	cursor  int
	err     error
	loading bool
}

func newPicker(kind pickKind) picker {
	return picker{kind: kind, loading: true}
}

func (p picker) open() bool { return p.kind != pickNone }

// reload fills the picker from the cached tags or folder tree.
func (p *picker) reload(obs *observers) {
	var snap query.Snapshot
	switch p.kind {
	case pickTags:
		snap = current(obs.tags)
		tags, ok := query.Result[model.TagList](snap)
		p.entries = p.entries[:0]
		if ok {
			for _, t := range tags.Tags {
				p.entries = append(p.entries, pickEntry{label: "#" + t.Tag, value: t.Tag, count: t.Count})
			}
		}
		p.loading = !ok
	case pickFolders:
		snap = current(obs.folders)
		tree, ok := query.Result[model.FolderTree](snap)
		p.entries = p.entries[:0]
		if ok {
			model.Walk(tree.Folders, func(n model.FolderNode, depth int) bool {
				p.entries = append(p.entries, pickEntry{label: n.Name, value: n.Path, depth: depth, count: n.NoteCount})
				return true
			})
		}
		p.loading = !ok
	}
	p.err = snap.Err
	if p.cursor >= len(p.entries) {
		p.cursor = max(len(p.entries)-1, 0)
	}
}

func (m Model) handlePickerKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.picker = picker{}
	case key.Matches(msg, m.keys.Down):
		if m.picker.cursor < len(m.picker.entries)-1 {
			m.picker.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.picker.cursor > 0 {
			m.picker.cursor--
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.picker.entries) == 0 {
			return m, nil
		}
		e := m.picker.entries[m.picker.cursor]
		kind := m.picker.kind
		m.picker = picker{}
		if kind == pickTags {
			m.setSelection(m.sel.WithTag(e.value))
		} else {
			m.setSelection(m.sel.WithFolder(e.value))
		}
	}
	return m, nil
}

// view renders at most height rows around the cursor.
func (p picker) view(height int) string {
	title := "Tags"
	if p.kind == pickFolders {
		title = "Folders"
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).MarginBottom(1).Render(title))
	switch {
	case p.loading && p.err != nil:
		lines = append(lines, theme.ErrorStyle.Render(p.err.Error()))
	case p.loading:
		lines = append(lines, theme.DimmedStyle.Render("Loading..."))
	case len(p.entries) == 0:
		lines = append(lines, theme.DimmedStyle.Render("Nothing here yet"))
	}

	rows := max(height-4, 1)
	start := 0
	if p.cursor >= rows {
		start = p.cursor - rows + 1
	}
	for i := start; i < len(p.entries) && i < start+rows; i++ {
		e := p.entries[i]
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", e.depth), e.label,
			theme.DimmedStyle.Render(fmt.Sprintf("(%d)", e.count)))
		if i == p.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return theme.DetailPanelStyle.Width(50).Render(strings.Join(lines, "\n"))
}
