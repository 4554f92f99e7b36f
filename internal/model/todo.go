package model

import (
	"fmt"
	"time"
)

// TodoStatus is the lifecycle state of a todo.
type TodoStatus string

// Todos move suggested → accepted → completed. There is no way back.
const (
	TodoSuggested TodoStatus = "suggested"
	TodoAccepted  TodoStatus = "accepted"
	TodoCompleted TodoStatus = "completed"
)

func (s TodoStatus) rank() int {
	switch s {
	case TodoSuggested:
		return 0
	case TodoAccepted:
		return 1
	case TodoCompleted:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether a todo may move from s to next.
func (s TodoStatus) CanTransition(next TodoStatus) bool {
	from, to := s.rank(), next.rank()
	return from >= 0 && to >= 0 && to > from
}

// Todo is an action item, either extracted from a note or created by hand.
type Todo struct {
	ID          int        `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description *string    `json:"description,omitempty" yaml:"description,omitempty"`
	Status      TodoStatus `json:"status" yaml:"status"`
	NoteID      *int       `json:"note_id,omitempty" yaml:"note_id,omitempty"`
	Confidence  *float64   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// IsCompleted reports whether the todo reached its final state.
func (t Todo) IsCompleted() bool { return t.Status == TodoCompleted }

// TodoList is a page of todos.
type TodoList struct {
	Todos []Todo `json:"todos" yaml:"todos"`
	Page  `yaml:",inline"`
}

// TodoFilter narrows a todo listing.
type TodoFilter struct {
	Status TodoStatus
	NoteID int
	PageParams
}

// TodoInput creates a todo by hand.
type TodoInput struct {
	Title       string  `json:"title" validate:"required,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	NoteID      *int    `json:"note_id,omitempty" validate:"omitempty,gt=0"`
}

// TodoUpdate edits an existing todo. Nil fields are left untouched.
type TodoUpdate struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=5000"`
	Status      *TodoStatus `json:"status,omitempty" validate:"omitempty,oneof=suggested accepted completed"`
}

// ExtractedTodos is the response of extracting todos from a note.
type ExtractedTodos struct {
	NoteID int    `json:"note_id" yaml:"note_id"`
	Todos  []Todo `json:"todos" yaml:"todos"`
}

// AcceptTodosRequest accepts a subset of a note's suggested todos. An empty
// list accepts all of them.
type AcceptTodosRequest struct {
	TodoIDs []int `json:"todo_ids"`
}

// AcceptTodosResult reports how many todos were accepted.
type AcceptTodosResult struct {
	Accepted int    `json:"accepted" yaml:"accepted"`
	Todos    []Todo `json:"todos,omitempty" yaml:"todos,omitempty"`
}

// ErrInvalidTransition is returned when a status change would regress.
type ErrInvalidTransition struct {
	From, To TodoStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("todo cannot move from %s to %s", e.From, e.To)
}
