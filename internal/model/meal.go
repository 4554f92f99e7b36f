package model

import "time"

// MealType classifies a meal entry.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists every meal type in daily order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// MealItem is one food item within a meal.
type MealItem struct {
	ID      int     `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Portion *string `json:"portion,omitempty" yaml:"portion,omitempty"`
}

// MealEntry is a logged meal, usually created from a voice recording.
type MealEntry struct {
	ID              int        `json:"id" yaml:"id"`
	MealType        MealType   `json:"meal_type" yaml:"meal_type"`
	MealDate        string     `json:"meal_date" yaml:"meal_date"`
	MealTime        *string    `json:"meal_time,omitempty" yaml:"meal_time,omitempty"`
	Transcription   string     `json:"transcription" yaml:"transcription"`
	Items           []MealItem `json:"items" yaml:"items"`
	Confidence      float64    `json:"confidence" yaml:"confidence"`
	DurationSeconds float64    `json:"duration_seconds" yaml:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" yaml:"updated_at"`
}

// MealList is a page of meals.
type MealList struct {
	Meals []MealEntry `json:"meals" yaml:"meals"`
	Page  `yaml:",inline"`
}

// MealFilter narrows a meal listing. Dates use YYYY-MM-DD.
type MealFilter struct {
	MealType  MealType
	StartDate string
	EndDate   string
	PageParams
}

// MealTranscribeOptions are the optional form fields sent alongside the
// audio of a meal recording.
type MealTranscribeOptions struct {
	MealType MealType
	MealDate string
	MealTime string
}

// MealUpdate edits a meal. Nil fields are left untouched.
type MealUpdate struct {
	MealType      *MealType `json:"meal_type,omitempty" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	MealDate      *string   `json:"meal_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MealTime      *string   `json:"meal_time,omitempty" validate:"omitempty,datetime=15:04"`
	Transcription *string   `json:"transcription,omitempty"`
}

// MealItemInput creates or edits a meal item.
type MealItemInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Portion *string `json:"portion,omitempty" validate:"omitempty,max=100"`
}

// CalendarDay summarizes the meals logged on one date.
type CalendarDay struct {
	Date      string     `json:"date" yaml:"date"`
	MealTypes []MealType `json:"meal_types" yaml:"meal_types"`
	Count     int        `json:"count" yaml:"count"`
}

// CalendarMonth is the response of the meal calendar endpoint.
type CalendarMonth struct {
	Year  int           `json:"year" yaml:"year"`
	Month int           `json:"month" yaml:"month"`
	Days  []CalendarDay `json:"days" yaml:"days"`
}

// Day returns the summary for date, if any meals were logged.
func (c CalendarMonth) Day(date string) (CalendarDay, bool) {
	for _, d := range c.Days {
		if d.Date == date {
			return d, true
		}
	}
	return CalendarDay{}, false
}
