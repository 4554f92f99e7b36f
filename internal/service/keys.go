package service

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// Key roots. Every key of an entity starts with its root, so invalidating
// the root covers all pages and filters.
const (
	rootNotes        = "notes"
	rootNote         = "note"
	rootSearch       = "search"
	rootTags         = "tags"
	rootTagNotes     = "tag-notes"
	rootFolders      = "folders"
	rootTodos        = "todos"
	rootTodo         = "todo"
	rootNoteTodos    = "note-todos"
	rootMeals        = "meals"
	rootMeal         = "meal"
	rootMealCalendar = "meal-calendar"
	rootFeedback     = "feedback"
	rootSettings     = "settings"
	rootDigests      = "digests"
	rootDigest       = "digest"
	rootAskHistory   = "ask-history"
	rootAskEntry     = "ask-entry"
)

// NotesKey identifies one page of notes, optionally within a folder.
func NotesKey(folder string, p model.PageParams) query.Key {
	return query.K(rootNotes, folder, p.Limit, p.Offset)
}

// NoteKey identifies a single note.
func NoteKey(id int) query.Key { return query.K(rootNote, id) }

// SearchKey identifies full-text search results.
func SearchKey(q string, limit int) query.Key { return query.K(rootSearch, q, limit) }

// TagsKey identifies the tag list.
func TagsKey() query.Key { return query.K(rootTags) }

// TagNotesKey identifies the notes carrying a tag.
func TagNotesKey(tag string, limit int) query.Key { return query.K(rootTagNotes, tag, limit) }

// FoldersKey identifies the folder tree.
func FoldersKey() query.Key { return query.K(rootFolders) }

// TodosKey identifies one page of todos filtered by status.
func TodosKey(status model.TodoStatus, p model.PageParams) query.Key {
	return query.K(rootTodos, string(status), p.Limit, p.Offset)
}

// TodoKey identifies a single todo.
func TodoKey(id int) query.Key { return query.K(rootTodo, id) }

// NoteTodosKey identifies the todos extracted from a note.
func NoteTodosKey(noteID int) query.Key { return query.K(rootNoteTodos, noteID) }

// MealsKey identifies one page of meals matching f.
func MealsKey(f model.MealFilter) query.Key {
	return query.K(rootMeals, string(f.MealType), f.StartDate, f.EndDate, f.Limit, f.Offset)
}

// MealKey identifies a single meal.
func MealKey(id int) query.Key { return query.K(rootMeal, id) }

// CalendarKey identifies the meal calendar for a month.
func CalendarKey(year, month int) query.Key { return query.K(rootMealCalendar, year, month) }

// FeedbackKey identifies one page of submitted feedback.
func FeedbackKey(p model.PageParams) query.Key {
	return query.K(rootFeedback, p.Limit, p.Offset)
}

// SettingsKey identifies the user settings.
func SettingsKey() query.Key { return query.K(rootSettings) }

// DigestsKey identifies one page of digests.
func DigestsKey(p model.PageParams) query.Key { return query.K(rootDigests, p.Limit, p.Offset) }

// DigestKey identifies a single digest.
func DigestKey(id int) query.Key { return query.K(rootDigest, id) }

// AskHistoryKey identifies one page of asked questions.
func AskHistoryKey(p model.PageParams) query.Key {
	return query.K(rootAskHistory, p.Limit, p.Offset)
}

// AskEntryKey identifies a single past answer.
func AskEntryKey(id int) query.Key { return query.K(rootAskEntry, id) }

func root(name string) query.Key { return query.K(name) }

func newULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
