package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/voicenote/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// TabStyle renders an inactive view tab in the header.
var TabStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ActiveTabStyle renders the current view tab.
var ActiveTabStyle = TabStyle.
	Bold(true).
	Background(ColorBlue)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// DimmedStyle fades secondary text and pending entries.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle renders inline error text.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// AlertStyle frames a blocking error dialog.
var AlertStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.DoubleBorder()).
	BorderForeground(ColorRed)

// TagStyle renders a note tag badge.
var TagStyle = lipgloss.NewStyle().
	Foreground(ColorMagenta)

// FolderStyle renders a folder path.
var FolderStyle = lipgloss.NewStyle().
	Foreground(ColorBlue)

// RecordingStyle marks an active recording.
var RecordingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// TodoStatusStyle returns a color-coded style for a todo status.
func TodoStatusStyle(status model.TodoStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.TodoSuggested:
		return base.Foreground(ColorYellow)
	case model.TodoAccepted:
		return base.Foreground(ColorBlue)
	case model.TodoCompleted:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// MealTypeStyle returns a color-coded style for a meal type.
func MealTypeStyle(t model.MealType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.MealBreakfast:
		return base.Foreground(ColorYellow)
	case model.MealLunch:
		return base.Foreground(ColorGreen)
	case model.MealDinner:
		return base.Foreground(ColorOrange)
	case model.MealSnack:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// FeedbackTypeStyle returns a color-coded style for a feedback type.
func FeedbackTypeStyle(t model.FeedbackType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.FeedbackBug:
		return base.Foreground(ColorRed)
	case model.FeedbackFeature:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// ConfidenceStyle colors a 0..1 confidence score.
func ConfidenceStyle(c float64) lipgloss.Style {
	switch {
	case c >= 0.8:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case c >= 0.5:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	default:
		return lipgloss.NewStyle().Foreground(ColorRed)
	}
}
