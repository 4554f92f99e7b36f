package model

import (
	"sort"
	"strings"
	"time"
)

// Note is a transcribed and categorized note owned by the backend.
type Note struct {
	ID         int       `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Content    string    `json:"content" yaml:"content"`
	FolderPath string    `json:"folder_path" yaml:"folder_path"`
	Filename   string    `json:"filename" yaml:"filename"`
	Tags       []string  `json:"tags" yaml:"tags"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	WordCount  int       `json:"word_count" yaml:"word_count"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// NormalizeTags returns the note's tags trimmed, de-duplicated and sorted.
// The tag set has no inherent order; sorting only stabilizes display.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTag reports whether the note carries tag.
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NoteList is a page of notes.
type NoteList struct {
	Notes []Note `json:"notes" yaml:"notes"`
	Page  `yaml:",inline"`
}

// TagNotes is the response of the tag-filtered listing.
type TagNotes struct {
	Tag   string `json:"tag" yaml:"tag"`
	Notes []Note `json:"notes" yaml:"notes"`
	Total int    `json:"total" yaml:"total"`
}

// SearchResult wraps a note with its relevance rank and an HTML snippet
// highlighting the match.
type SearchResult struct {
	Note    Note    `json:"note" yaml:"note"`
	Rank    float64 `json:"rank" yaml:"rank"`
	Snippet string  `json:"snippet" yaml:"snippet"`
}

// SearchResponse is the response of the full-text search endpoint.
type SearchResponse struct {
	Query   string         `json:"query" yaml:"query"`
	Results []SearchResult `json:"results" yaml:"results"`
	Total   int            `json:"total" yaml:"total"`
}

// TagCount is a tag together with the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// TagList is the response of the tags endpoint.
type TagList struct {
	Tags []TagCount `json:"tags" yaml:"tags"`
}
