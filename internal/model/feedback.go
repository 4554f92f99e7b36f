package model

import "time"

// FeedbackType classifies user feedback.
type FeedbackType string

const (
	FeedbackBug     FeedbackType = "bug"
	FeedbackFeature FeedbackType = "feature"
	FeedbackGeneral FeedbackType = "general"
)

// Feedback is a bug report, feature request or general comment.
type Feedback struct {
	ID          int          `json:"id" yaml:"id"`
	Type        FeedbackType `json:"type" yaml:"type"`
	Title       string       `json:"title" yaml:"title"`
	Description *string      `json:"description,omitempty" yaml:"description,omitempty"`
	Rating      *int         `json:"rating,omitempty" yaml:"rating,omitempty"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`

	// ClientID identifies a provisional entry written before the server
	// assigned an ID. It is never sent or received.
	ClientID string `json:"-" yaml:"-"`
}

// Pending reports whether the entry is a provisional optimistic write.
func (f Feedback) Pending() bool { return f.ClientID != "" }

// FeedbackList is a page of feedback entries.
type FeedbackList struct {
	Feedback []Feedback `json:"feedback" yaml:"feedback"`
	Page     `yaml:",inline"`
}

// FeedbackInput submits feedback.
type FeedbackInput struct {
	Type        FeedbackType `json:"type" validate:"required,oneof=bug feature general"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=5000"`
	Rating      *int         `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}
