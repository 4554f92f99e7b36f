package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/theme"
)

// confirmBinding keeps the answer on the heap so huh's Value pointer stays
// valid across Bubble Tea model copies.
type confirmBinding struct {
	yes bool
}

// Confirm is a yes/no dialog built on a huh confirm field. The zero value
// is closed.
type Confirm struct {
	form    *huh.Form
	binding *confirmBinding
	onYes   tea.Msg
}

// NewConfirm opens a dialog asking title. onYes is emitted when the user
// confirms; declining or aborting emits nothing.
func NewConfirm(title, description string, onYes tea.Msg) (Confirm, tea.Cmd) {
	b := &confirmBinding{}
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&b.yes),
	)).WithWidth(50).WithShowHelp(false)
	c := Confirm{form: form, binding: b, onYes: onYes}
	return c, form.Init()
}

// Open reports whether the dialog is showing.
func (c Confirm) Open() bool { return c.form != nil }

// Update routes msg to the form and closes the dialog once answered.
func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	if c.form == nil {
		return c, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return Confirm{}, nil
	}

	mdl, cmd := c.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		c.form = f
	}

	switch c.form.State {
	case huh.StateCompleted:
		if c.binding.yes {
			onYes := c.onYes
			return Confirm{}, func() tea.Msg { return onYes }
		}
		return Confirm{}, nil
	case huh.StateAborted:
		return Confirm{}, nil
	}
	return c, cmd
}

// View renders the dialog.
func (c Confirm) View() string {
	if c.form == nil {
		return ""
	}
	return theme.DetailPanelStyle.Render(c.form.View())
}

// Alert is a blocking error dialog dismissed by any key. The zero value
// is closed.
type Alert struct {
	Title   string
	Message string
}

// ErrorAlert builds an alert for a failed action.
func ErrorAlert(title string, err error) Alert {
	msg := api.Message(err)
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		title = "Check your input"
	}
	return Alert{Title: title, Message: msg}
}

// Open reports whether the alert is showing.
func (a Alert) Open() bool { return a.Message != "" }

// Update closes the alert on any key press.
func (a Alert) Update(msg tea.Msg) Alert {
	if _, ok := msg.(tea.KeyMsg); ok {
		return Alert{}
	}
	return a
}

// View renders the alert.
func (a Alert) View() string {
	if !a.Open() {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).Render(a.Title)
	body := lipgloss.NewStyle().Width(50).Render(a.Message)
	hint := theme.HelpStyle.Render("press any key")
	return theme.AlertStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))
}
