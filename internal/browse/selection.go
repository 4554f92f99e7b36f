// Package browse turns the three note-list sources (folder listing, tag
// listing, full-text search) into one list the notes view can render.
package browse

import "strings"

// Mode is the active note-list source.
type Mode int

const (
	ModeFolder Mode = iota
	ModeTag
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	case ModeTag:
		return "tag"
	default:
		return "folder"
	}
}

// Selection is what the user picked in the notes view. At most one of the
// three fields is set; the With* methods keep it that way.
type Selection struct {
	Search string
	Tag    string
	Folder string
}

// Mode resolves the active source: search over tag over folder.
func (s Selection) Mode() Mode {
	switch {
	case strings.TrimSpace(s.Search) != "":
		return ModeSearch
	case s.Tag != "":
		return ModeTag
	default:
		return ModeFolder
	}
}

// WithSearch sets the search query and clears the tag and folder. An
// empty query falls back to the unfiltered listing.
func (s Selection) WithSearch(q string) Selection {
	if strings.TrimSpace(q) == "" {
		return Selection{}
	}
	return Selection{Search: q}
}

// WithTag selects a tag, clearing search and folder.
func (s Selection) WithTag(tag string) Selection {
	return Selection{Tag: tag}
}

// WithFolder selects a folder ("" for all notes), clearing search and tag.
func (s Selection) WithFolder(folder string) Selection {
	return Selection{Folder: folder}
}

// Clear returns the unfiltered listing.
func (s Selection) Clear() Selection { return Selection{} }

// Query returns the trimmed search query.
func (s Selection) Query() string { return strings.TrimSpace(s.Search) }

// Label describes the selection for headers and status lines.
func (s Selection) Label() string {
	switch s.Mode() {
	case ModeSearch:
		return "Search: " + s.Query()
	case ModeTag:
		return "#" + s.Tag
	default:
		if s.Folder == "" {
			return "All notes"
		}
		return s.Folder
	}
}

// Enabled says which of the three note queries may fetch.
type Enabled struct {
	Notes  bool
	Tag    bool
	Search bool
}

// Plan enables exactly the query backing the active mode.
func Plan(sel Selection) Enabled {
	switch sel.Mode() {
	case ModeSearch:
		return Enabled{Search: true}
	case ModeTag:
		return Enabled{Tag: true}
	default:
		return Enabled{Notes: true}
	}
}
