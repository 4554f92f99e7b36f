package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voicenote/internal/ui/ask"
	"github.com/nhle/voicenote/internal/ui/digests"
	"github.com/nhle/voicenote/internal/ui/feedback"
	"github.com/nhle/voicenote/internal/ui/meals"
	"github.com/nhle/voicenote/internal/ui/notes"
	"github.com/nhle/voicenote/internal/ui/record"
	"github.com/nhle/voicenote/internal/ui/settings"
	"github.com/nhle/voicenote/internal/ui/todos"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewNotes ViewState = iota
	ViewRecord
	ViewTodos
	ViewMeals
	ViewAsk
	ViewDigests
	ViewFeedback
	ViewSettings
)

var viewNames = [...]string{
	ViewNotes:    "notes",
	ViewRecord:   "record",
	ViewTodos:    "todos",
	ViewMeals:    "meals",
	ViewAsk:      "ask",
	ViewDigests:  "digests",
	ViewFeedback: "feedback",
	ViewSettings: "settings",
}

func (v ViewState) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// allViews lists the views in tab order.
var allViews = []ViewState{
	ViewNotes, ViewRecord, ViewTodos, ViewMeals,
	ViewAsk, ViewDigests, ViewFeedback, ViewSettings,
}

// views holds one model per signed-in view. A view opens its
// subscriptions the first time it is shown and keeps them until sign-out.
type views struct {
	notes    notes.Model
	record   record.Model
	todos    todos.Model
	meals    meals.Model
	ask      ask.Model
	digests  digests.Model
	feedback feedback.Model
	settings settings.Model

	opened [len(viewNames)]bool
}

func (m *Model) newViews() views {
	w, h := m.contentSize()
	d := m.deps
	return views{
		notes:    notes.New(d.Service, d.Notifier, m.keys, w, h),
		record:   record.New(d.Service, d.Recorder, m.keys, w, h),
		todos:    todos.New(d.Service, d.Notifier, m.keys, w, h),
		meals:    meals.New(d.Service, d.Notifier, m.keys, w, h),
		ask:      ask.New(d.Service, d.Notifier, m.keys, w, h),
		digests:  digests.New(d.Service, d.Notifier, m.keys, w, h),
		feedback: feedback.New(d.Service, d.Notifier, m.keys, w, h),
		settings: settings.New(d.Service, d.Notifier, d.Account, d.Config, m.keys, w, h),
	}
}

// open initializes v unless it already is.
func (vs *views) open(v ViewState) tea.Cmd {
	if vs.opened[v] {
		return nil
	}
	vs.opened[v] = true
	switch v {
	case ViewNotes:
		return vs.notes.Init()
	case ViewRecord:
		return vs.record.Init()
	case ViewTodos:
		return vs.todos.Init()
	case ViewMeals:
		return vs.meals.Init()
	case ViewAsk:
		return vs.ask.Init()
	case ViewDigests:
		return vs.digests.Init()
	case ViewFeedback:
		return vs.feedback.Init()
	case ViewSettings:
		return vs.settings.Init()
	}
	return nil
}

// closeAll drops every subscription held by the opened views.
func (vs *views) closeAll() {
	for _, v := range allViews {
		if !vs.opened[v] {
			continue
		}
		switch v {
		case ViewNotes:
			vs.notes.Close()
		case ViewTodos:
			vs.todos.Close()
		case ViewMeals:
			vs.meals.Close()
		case ViewAsk:
			vs.ask.Close()
		case ViewDigests:
			vs.digests.Close()
		case ViewFeedback:
			vs.feedback.Close()
		case ViewSettings:
			vs.settings.Close()
		}
		vs.opened[v] = false
	}
}

func (vs *views) setSize(width, height int) {
	vs.notes.SetSize(width, height)
	vs.record.SetSize(width, height)
	vs.todos.SetSize(width, height)
	vs.meals.SetSize(width, height)
	vs.ask.SetSize(width, height)
	vs.digests.SetSize(width, height)
	vs.feedback.SetSize(width, height)
	vs.settings.SetSize(width, height)
}

// update hands msg to view v.
func (vs *views) update(v ViewState, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch v {
	case ViewNotes:
		vs.notes, cmd = vs.notes.Update(msg)
	case ViewRecord:
		vs.record, cmd = vs.record.Update(msg)
	case ViewTodos:
		vs.todos, cmd = vs.todos.Update(msg)
	case ViewMeals:
		vs.meals, cmd = vs.meals.Update(msg)
	case ViewAsk:
		vs.ask, cmd = vs.ask.Update(msg)
	case ViewDigests:
		vs.digests, cmd = vs.digests.Update(msg)
	case ViewFeedback:
		vs.feedback, cmd = vs.feedback.Update(msg)
	case ViewSettings:
		vs.settings, cmd = vs.settings.Update(msg)
	}
	return cmd
}

// broadcast hands msg to every opened view. Replies to background work
// reach their view even after the user switched away.
func (vs *views) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, v := range allViews {
		if vs.opened[v] {
			cmds = append(cmds, vs.update(v, msg))
		}
	}
	return tea.Batch(cmds...)
}

func (vs *views) capturing(v ViewState) bool {
	switch v {
	case ViewNotes:
		return vs.notes.Capturing()
	case ViewRecord:
		return vs.record.Capturing()
	case ViewTodos:
		return vs.todos.Capturing()
	case ViewMeals:
		return vs.meals.Capturing()
	case ViewAsk:
		return vs.ask.Capturing()
	case ViewDigests:
		return vs.digests.Capturing()
	case ViewFeedback:
		return vs.feedback.Capturing()
	case ViewSettings:
		return vs.settings.Capturing()
	}
	return false
}

func (vs *views) view(v ViewState) string {
	switch v {
	case ViewNotes:
		return vs.notes.View()
	case ViewRecord:
		return vs.record.View()
	case ViewTodos:
		return vs.todos.View()
	case ViewMeals:
		return vs.meals.View()
	case ViewAsk:
		return vs.ask.View()
	case ViewDigests:
		return vs.digests.View()
	case ViewFeedback:
		return vs.feedback.View()
	case ViewSettings:
		return vs.settings.View()
	}
	return ""
}

func (vs *views) keyHints(v ViewState) string {
	switch v {
	case ViewNotes:
		return vs.notes.KeyHints()
	case ViewRecord:
		return vs.record.KeyHints()
	case ViewTodos:
		return vs.todos.KeyHints()
	case ViewMeals:
		return vs.meals.KeyHints()
	case ViewAsk:
		return vs.ask.KeyHints()
	case ViewDigests:
		return vs.digests.KeyHints()
	case ViewFeedback:
		return vs.feedback.KeyHints()
	case ViewSettings:
		return vs.settings.KeyHints()
	}
	return ""
}
