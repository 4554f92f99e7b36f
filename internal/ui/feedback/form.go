package feedback

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/theme"
)

type (
	formSubmitMsg struct{ input model.FeedbackInput }
	formCancelMsg struct{}
)

// formBindings lives on the heap so huh's Value pointers survive model
// copies.
type formBindings struct {
	kind        model.FeedbackType
	title       string
	description string
	rating      string
}

type form struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

func newForm(width, height int) form {
	f := form{fb: &formBindings{kind: model.FeedbackGeneral}, width: width, height: height}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.FeedbackType]().
				Title("Type").
				Options(
					huh.NewOption("General", model.FeedbackGeneral),
					huh.NewOption("Bug report", model.FeedbackBug),
					huh.NewOption("Feature request", model.FeedbackFeature),
				).
				Value(&f.fb.kind),
			huh.NewInput().
				Title("Title").
				Placeholder("Short summary").
				CharLimit(200).
				Value(&f.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("Title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				CharLimit(5000).
				Value(&f.fb.description),
			huh.NewSelect[string]().
				Title("Rating").
				Options(
					huh.NewOption("No rating", ""),
					huh.NewOption("★", "1"),
					huh.NewOption("★★", "2"),
					huh.NewOption("★★★", "3"),
					huh.NewOption("★★★★", "4"),
					huh.NewOption("★★★★★", "5"),
				).
				Value(&f.fb.rating),
		),
	).WithWidth(min(max(width-4, 40), 100)).WithHeight(max(height-4, 12))
	return f
}

func (f form) open() bool { return f.form != nil }

func (f form) init() tea.Cmd { return f.form.Init() }

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
		in := f.fb.input()
		return form{}, func() tea.Msg { return formSubmitMsg{input: in} }
	case huh.StateAborted:
		return form{}, func() tea.Msg { return formCancelMsg{} }
	}
	return f, cmd
}

func (fb *formBindings) input() model.FeedbackInput {
	in := model.FeedbackInput{Type: fb.kind, Title: strings.TrimSpace(fb.title)}
	if d := strings.TrimSpace(fb.description); d != "" {
		in.Description = &d
	}
	if r, err := strconv.Atoi(fb.rating); err == nil {
		in.Rating = &r
	}
	return in
}

func (f form) view() string {
	if f.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).Render("Send Feedback")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + f.form.View())
}
