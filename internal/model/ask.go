package model

import "time"

// SummarizeRequest asks the backend for a digest of recent notes. Zero
// values let the backend pick its defaults.
type SummarizeRequest struct {
	NoteIDs    []int  `json:"note_ids,omitempty" validate:"omitempty,dive,gt=0"`
	FolderPath string `json:"folder_path,omitempty"`
	Days       int    `json:"days,omitempty" validate:"omitempty,min=1,max=365"`
}

// Digest is a generated summary of a set of notes.
type Digest struct {
	ID          int       `json:"id" yaml:"id"`
	Summary     string    `json:"summary" yaml:"summary"`
	KeyThemes   []string  `json:"key_themes" yaml:"key_themes"`
	ActionItems []string  `json:"action_items" yaml:"action_items"`
	NoteCount   int       `json:"note_count" yaml:"note_count"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// DigestList is a page of digests.
type DigestList struct {
	Digests []Digest `json:"digests" yaml:"digests"`
	Page    `yaml:",inline"`
}

// AskRequest is a natural-language question over the user's notes.
type AskRequest struct {
	Question   string `json:"question" validate:"required,max=2000"`
	MaxSources int    `json:"max_sources,omitempty" validate:"omitempty,min=1,max=50"`
}

// AskSource is a note the answer drew from.
type AskSource struct {
	NoteID    int     `json:"note_id" yaml:"note_id"`
	Title     string  `json:"title" yaml:"title"`
	Snippet   string  `json:"snippet" yaml:"snippet"`
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

// QueryPlan describes how the backend retrieved sources for a question.
type QueryPlan struct {
	SemanticQuery string   `json:"semantic_query" yaml:"semantic_query"`
	Keywords      []string `json:"keywords" yaml:"keywords"`
	Folders       []string `json:"folders" yaml:"folders"`
	Tags          []string `json:"tags" yaml:"tags"`
	DateFrom      *string  `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo        *string  `json:"date_to,omitempty" yaml:"date_to,omitempty"`
}

// AskResult is the planned hybrid-retrieval answer to a question.
type AskResult struct {
	ID        int         `json:"id" yaml:"id"`
	Question  string      `json:"question" yaml:"question"`
	Answer    string      `json:"answer" yaml:"answer"`
	Sources   []AskSource `json:"sources" yaml:"sources"`
	QueryPlan *QueryPlan  `json:"query_plan,omitempty" yaml:"query_plan,omitempty"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
}

// AskHistoryList is a page of past questions.
type AskHistoryList struct {
	Items []AskResult `json:"items" yaml:"items"`
	Page  `yaml:",inline"`
}
