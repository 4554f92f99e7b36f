package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voicenote/internal/browse"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/ui/command"
)

// execute runs a command from the palette.
func (m Model) execute(c command.Command) (tea.Model, tea.Cmd) {
	m.logger.Debug("command: " + c.Name)

	var sel browse.Selection
	switch c.Name {
	case "notes":
		cmd := m.show(ViewNotes)
		m.views.notes.Browse(sel.WithFolder(c.Arg))
		return m, cmd

	case "search":
		cmd := m.show(ViewNotes)
		m.views.notes.Browse(sel.WithSearch(c.Arg))
		return m, cmd

	case "tag":
		cmd := m.show(ViewNotes)
		m.views.notes.Browse(sel.WithTag(c.Arg))
		return m, cmd

	case "record", "meal":
		cmd := m.show(ViewRecord)
		m.views.record.SetMealMode(c.Name == "meal")
		if c.Name == "meal" {
			return m, cmd
		}
		var start tea.Cmd
		m.views.record, start = m.views.record.Begin()
		return m, tea.Batch(cmd, start)

	case "ask":
		cmd := m.show(ViewAsk)
		if c.Arg == "" {
			return m, cmd
		}
		var send tea.Cmd
		m.views.ask, send = m.views.ask.AskQuestion(c.Arg)
		return m, tea.Batch(cmd, send)

	case "summarize":
		cmd := m.show(ViewDigests)
		var run tea.Cmd
		m.views.digests, run = m.views.digests.Summarize()
		return m, tea.Batch(cmd, run)

	case "refresh":
		m.deps.Service.Cache().Invalidate(query.K())
		m.notice = "Refreshing…"
		return m, nil

	case "logout":
		return m, m.endSession("")

	case "quit":
		return m.quit()
	}

	for _, v := range allViews {
		if v.String() == c.Name {
			return m, m.show(v)
		}
	}
	return m, nil
}
