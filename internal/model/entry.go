package model

// EntryKind discriminates the sources a note list can come from.
type EntryKind int

const (
	// EntryPlain is a note returned directly by a listing endpoint.
	EntryPlain EntryKind = iota
	// EntrySearch is a note wrapped with rank and snippet by search.
	EntrySearch
)

func (k EntryKind) String() string {
	if k == EntrySearch {
		return "search"
	}
	return "plain"
}

// NoteEntry is the tagged union produced at the API boundary for every
// note-list source. Rank and Snippet are meaningful only for EntrySearch.
type NoteEntry struct {
	Kind    EntryKind
	Note    Note
	Rank    float64
	Snippet string
}

// PlainEntries wraps notes returned by a listing endpoint.
func PlainEntries(notes []Note) []NoteEntry {
	out := make([]NoteEntry, len(notes))
	for i, n := range notes {
		out[i] = NoteEntry{Kind: EntryPlain, Note: n}
	}
	return out
}

// SearchEntries wraps search results.
func SearchEntries(results []SearchResult) []NoteEntry {
	out := make([]NoteEntry, len(results))
	for i, r := range results {
		out[i] = NoteEntry{
			Kind:    EntrySearch,
			Note:    r.Note,
			Rank:    r.Rank,
			Snippet: r.Snippet,
		}
	}
	return out
}

// EntryPage is one page of note entries in their tagged form.
type EntryPage struct {
	Entries []NoteEntry
	Page
}
