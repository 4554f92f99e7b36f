// Package record captures a voice note or meal from the microphone and
// uploads it for transcription.
package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/audio"
	"github.com/nhle/voicenote/internal/keys"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/service"
	"github.com/nhle/voicenote/internal/theme"
)

// tickInterval refreshes the elapsed time while recording.
const tickInterval = 500 * time.Millisecond

type phase int

const (
	phaseIdle phase = iota
	phaseStarting
	phaseRecording
	phaseStopping
	phaseUploading
	phaseDone
	phaseFailed
)

type startedMsg struct{ err error }

type stoppedMsg struct {
	clip audio.Clip
	err  error
}

type uploadedMsg struct {
	note *model.TranscriptionResult
	meal *model.MealEntry
	err  error
}

type tickMsg struct{}

type canceledMsg struct{}

// UploadedMsg tells the shell a recording became a note or meal.
type UploadedMsg struct {
	NoteID int
	MealID int
}

// Model is the record view.
type Model struct {
	svc  *service.Service
	rec  *audio.Recorder
	keys *keys.KeyMap

	phase    phase
	mealMode bool
	mealType int // index into model.MealTypes

	elapsed  time.Duration
	buffered int

	note *model.TranscriptionResult
	meal *model.MealEntry
	err  string

	width  int
	height int
}

// New creates the record view around rec.
func New(svc *service.Service, rec *audio.Recorder, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:    svc,
		rec:    rec,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// CanStart reports whether a new recording may begin. Starting is
// disabled while the microphone is capturing or a clip is uploading.
func (m Model) CanStart() bool {
	if m.rec.IsRecording() {
		return false
	}
	switch m.phase {
	case phaseStarting, phaseRecording, phaseStopping, phaseUploading:
		return false
	}
	return true
}

// Recording reports whether the microphone is live.
func (m Model) Recording() bool { return m.rec.IsRecording() }

// Capturing reports whether the view consumes all key presses.
func (m Model) Capturing() bool {
	return m.phase == phaseStarting || m.phase == phaseRecording || m.phase == phaseStopping
}

// Update handles messages for the record view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = audio.DescribeError(msg.err)
			return m, nil
		}
		m.phase = phaseRecording
		return m, tick()

	case tickMsg:
		if m.phase != phaseRecording {
			return m, nil
		}
		m.elapsed = m.rec.Elapsed()
		m.buffered = m.rec.Buffered()
		return m, tick()

	case stoppedMsg:
		if m.phase != phaseStopping {
			return m, nil
		}
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = audio.DescribeError(msg.err)
			return m, nil
		}
		m.phase = phaseUploading
		return m, m.upload(msg.clip)

	case uploadedMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = api.Message(msg.err)
			return m, nil
		}
		m.phase = phaseDone
		m.note, m.meal = msg.note, msg.meal
		done := UploadedMsg{}
		if msg.note != nil {
			done.NoteID = msg.note.NoteID
		}
		if msg.meal != nil {
			done.MealID = msg.meal.ID
		}
		return m, func() tea.Msg { return done }

	case canceledMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Record):
		switch m.phase {
		case phaseRecording:
			m.phase = phaseStopping
			return m, m.stop()
		case phaseStopping:
			return m, nil
		}
		return m.Begin()

	case key.Matches(msg, m.keys.Back):
		if m.phase == phaseRecording {
			m.phase = phaseIdle
			return m, m.cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.MealMode):
		if m.CanStart() {
			m.mealMode = !m.mealMode
		}
		return m, nil

	case msg.String() == "tab":
		if m.mealMode && m.CanStart() {
			m.mealType = (m.mealType + 1) % len(model.MealTypes)
		}
		return m, nil
	}
	return m, nil
}

// Begin starts a recording when CanStart allows it.
func (m Model) Begin() (Model, tea.Cmd) {
	if !m.CanStart() {
		return m, nil
	}
	m.phase = phaseStarting
	m.err = ""
	m.note, m.meal = nil, nil
	m.elapsed, m.buffered = 0, 0
	return m, m.start()
}

// SetMealMode switches between note and meal uploads. It is ignored while
// a clip is being captured or uploaded.
func (m *Model) SetMealMode(on bool) {
	if m.CanStart() {
		m.mealMode = on
	}
}

func (m Model) start() tea.Cmd {
	rec := m.rec
	return func() tea.Msg {
		return startedMsg{err: rec.Start(context.Background())}
	}
}

func (m Model) stop() tea.Cmd {
	rec := m.rec
	return func() tea.Msg {
		clip, err := rec.Stop()
		return stoppedMsg{clip: clip, err: err}
	}
}

// cancel discards the capture off the UI loop; stopping ffmpeg can take
// seconds.
func (m Model) cancel() tea.Cmd {
	rec := m.rec
	return func() tea.Msg {
		rec.Cancel()
		return canceledMsg{}
	}
}

// upload sends the clip to the note or meal endpoint.
func (m Model) upload(clip audio.Clip) tea.Cmd {
	if m.mealMode {
		mu := m.svc.TranscribeMeal()
		up := service.MealUpload{
			Clip:    clip,
			Options: model.MealTranscribeOptions{MealType: model.MealTypes[m.mealType]},
		}
		return func() tea.Msg {
			meal, err := mu.Mutate(context.Background(), up)
			if err != nil {
				return uploadedMsg{err: err}
			}
			return uploadedMsg{meal: &meal}
		}
	}
	mu := m.svc.Transcribe()
	return func() tea.Msg {
		res, err := mu.Mutate(context.Background(), clip)
		if err != nil {
			return uploadedMsg{err: err}
		}
		return uploadedMsg{note: &res}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the record view.
func (m Model) View() string {
	var lines []string

	target := "Voice note"
	if m.mealMode {
		target = "Meal · " + string(model.MealTypes[m.mealType])
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(target), "")

	switch m.phase {
	case phaseStarting:
		lines = append(lines, theme.DimmedStyle.Render("Opening microphone..."))
	case phaseRecording:
		lines = append(lines,
			theme.RecordingStyle.Render("● Recording  "+formatElapsed(m.elapsed)),
			theme.DimmedStyle.Render(humanize.Bytes(uint64(m.buffered))+" captured"),
		)
	case phaseStopping:
		lines = append(lines, theme.DimmedStyle.Render("Finishing recording..."))
	case phaseUploading:
		lines = append(lines, theme.DimmedStyle.Render("Transcribing..."))
	case phaseFailed:
		lines = append(lines, theme.ErrorStyle.Render(m.err))
	case phaseDone:
		lines = append(lines, m.renderResult()...)
	default:
		lines = append(lines, theme.DimmedStyle.Render("Press r or space to start recording."))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderResult() []string {
	ok := lipgloss.NewStyle().Foreground(theme.ColorGreen).Bold(true)
	if m.meal != nil {
		lines := []string{
			ok.Render("Meal logged"),
			theme.MealTypeStyle(m.meal.MealType).Render(string(m.meal.MealType)) + " " + m.meal.MealDate,
			"",
			m.meal.Transcription,
		}
		for _, it := range m.meal.Items {
			line := "• " + it.Name
			if it.Portion != nil {
				line += theme.DimmedStyle.Render(" (" + *it.Portion + ")")
			}
			lines = append(lines, line)
		}
		return lines
	}
	if m.note == nil {
		return nil
	}
	n := m.note
	lines := []string{
		ok.Render("Saved: " + n.Title),
		theme.FolderStyle.Render(n.FolderPath) + "  " + theme.TagStyle.Render("#"+strings.Join(n.Tags, " #")),
		"",
		n.Transcription,
	}
	if todos := n.SuggestedTodos(); len(todos) > 0 {
		lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d suggested todos", len(todos))))
		for _, t := range todos {
			lines = append(lines, "○ "+t.Title)
		}
	}
	return lines
}

// KeyHints returns keyboard shortcut hints for the status bar.
func (m Model) KeyHints() string {
	switch m.phase {
	case phaseRecording:
		return "r/space stop | esc discard"
	case phaseStarting, phaseStopping, phaseUploading:
		return "please wait"
	}
	if m.mealMode {
		return "r/space record | m note mode | tab meal type"
	}
	return "r/space record | m meal mode"
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
