package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding
	Prev key.Binding
	Next key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Browsing
	Search      key.Binding
	Tags        key.Binding
	Folders     key.Binding
	ClearFilter key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Views
	ViewNotes    key.Binding
	ViewRecord   key.Binding
	ViewTodos    key.Binding
	ViewMeals    key.Binding
	ViewAsk      key.Binding
	ViewDigests  key.Binding
	ViewFeedback key.Binding
	ViewSettings key.Binding

	// Actions
	Record   key.Binding
	New      key.Binding
	Delete   key.Binding
	Accept   key.Binding
	Complete key.Binding
	Dismiss  key.Binding
	Toggle   key.Binding
	MealMode key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Prev: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Tags: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "browse tags"),
		),
		Folders: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "browse folders"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filter"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		ViewNotes: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "notes"),
		),
		ViewRecord: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "record"),
		),
		ViewTodos: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "todos"),
		),
		ViewMeals: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "meals"),
		),
		ViewAsk: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "ask"),
		),
		ViewDigests: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "digests"),
		),
		ViewFeedback: key.NewBinding(
			key.WithKeys("7"),
			key.WithHelp("7", "feedback"),
		),
		ViewSettings: key.NewBinding(
			key.WithKeys("8"),
			key.WithHelp("8", "settings"),
		),
		Record: key.NewBinding(
			key.WithKeys("r", " "),
			key.WithHelp("r/space", "start/stop recording"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accept"),
		),
		Complete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "complete"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "dismiss"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		MealMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "note/meal mode"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Prev, k.Next, k.Select, k.Back, k.Quit},
		{k.Search, k.Tags, k.Folders, k.ClearFilter, k.Command, k.Help, k.Refresh},
		{k.ViewNotes, k.ViewRecord, k.ViewTodos, k.ViewMeals, k.ViewAsk, k.ViewDigests, k.ViewFeedback, k.ViewSettings},
		{k.Record, k.MealMode, k.New, k.Delete, k.Accept, k.Complete, k.Dismiss, k.Toggle},
	}
}
