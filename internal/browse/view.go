package browse

import (
	"fmt"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// Item is a note in the unified list. Rank and Snippet are set only for
// search results.
type Item struct {
	model.Note
	Rank    *float64
	Snippet *string
}

// Normalize maps tagged entries to list items.
func Normalize(entries []model.NoteEntry) []Item {
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Note: e.Note}
		if e.Kind == model.EntrySearch {
			rank, snippet := e.Rank, e.Snippet
			items[i].Rank = &rank
			items[i].Snippet = &snippet
		}
	}
	return items
}

// Status is the render state of a list.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusEmpty
	StatusPopulated
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusEmpty:
		return "empty"
	case StatusPopulated:
		return "populated"
	default:
		return "loading"
	}
}

// Snapshots holds the current state of the three note queries.
type Snapshots struct {
	Notes  query.Snapshot
	Tag    query.Snapshot
	Search query.Snapshot
}

// View is what the notes list renders.
type View struct {
	Mode   Mode
	Status Status
	Items  []Item
	Total  int

	// Err is the active query's last failure. It may be set alongside
	// data when a background refetch failed.
	Err error

	// Refreshing is set while stale data is refetched.
	Refreshing bool

	EmptyMessage string
}

// Derive builds the view from the query backing the active mode. The
// other two snapshots are ignored.
func Derive(sel Selection, snaps Snapshots) View {
	mode := sel.Mode()
	snap := snaps.Notes
	switch mode {
	case ModeSearch:
		snap = snaps.Search
	case ModeTag:
		snap = snaps.Tag
	}

	v := View{Mode: mode, Err: snap.Err, EmptyMessage: EmptyMessage(sel)}

	page, ok := query.As[model.EntryPage](snap.Data)
	if ok {
		v.Items = Normalize(page.Entries)
		v.Total = page.Total
		v.Refreshing = snap.IsFetching
	}
	v.Status = StatusOf(snap, ok, len(v.Items))
	return v
}

// StatusOf classifies a snapshot whose data decoded (ok) to n items.
// Data that is present always renders, even beside a refetch error.
func StatusOf(snap query.Snapshot, ok bool, n int) Status {
	switch {
	case !snap.HasData || !ok:
		if snap.Err != nil && !snap.IsFetching {
			return StatusError
		}
		return StatusLoading
	case n == 0:
		return StatusEmpty
	default:
		return StatusPopulated
	}
}

// EmptyMessage is shown when the active query returned no notes.
func EmptyMessage(sel Selection) string {
	switch sel.Mode() {
	case ModeSearch:
		return fmt.Sprintf("No notes match %q", sel.Query())
	case ModeTag:
		return fmt.Sprintf("No notes tagged %q", sel.Tag)
	default:
		if sel.Folder == "" {
			return "No notes yet. Record one to get started."
		}
		return fmt.Sprintf("No notes in %s", sel.Folder)
	}
}
