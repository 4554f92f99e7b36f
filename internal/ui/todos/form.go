package todos

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/theme"
)

// formSubmitMsg carries a completed new-todo form.
type formSubmitMsg struct {
	input model.TodoInput
}

// formCancelMsg is dispatched when the user cancels the form.
type formCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
}

// form is the new-todo form.
type form struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

func newForm(width, height int) form {
	f := form{fb: &formBindings{}, width: width, height: height}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&f.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&f.fb.description),
		),
	).WithWidth(f.formWidth()).WithHeight(f.formHeight())
	return f
}

func (f form) open() bool { return f.form != nil }

func (f form) init() tea.Cmd {
	return f.form.Init()
}

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	if f.form == nil {
		return f, nil
	}

	mdl, cmd := f.form.Update(msg)
	if hf, ok := mdl.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		in := model.TodoInput{Title: strings.TrimSpace(f.fb.title)}
		if d := strings.TrimSpace(f.fb.description); d != "" {
			in.Description = &d
		}
		return form{}, func() tea.Msg { return formSubmitMsg{input: in} }
	case huh.StateAborted:
		return form{}, func() tea.Msg { return formCancelMsg{} }
	}
	return f, cmd
}

func (f form) view() string {
	if f.form == nil {
		return ""
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("New Todo") + "\n" + f.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

func (f form) formWidth() int {
	return min(max(f.width-4, 40), 100)
}

func (f form) formHeight() int {
	return max(f.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
