package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nhle/voicenote/internal/model"
)

// pageQuery encodes limit/offset, applying defaults.
func pageQuery(p model.PageParams) url.Values {
	p = p.WithDefaults()
	q := url.Values{}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset))
	return q
}

// ListNotes returns one page of notes, optionally limited to a folder.
func (c *Client) ListNotes(
	ctx context.Context,
	folder string,
	p model.PageParams,
) (model.EntryPage, error) {
	q := pageQuery(p)
	if folder != "" {
		q.Set("folder", folder)
	}

	var list model.NoteList
	if err := c.Get(ctx, "/api/notes", q, "Failed to load notes", &list); err != nil {
		return model.EntryPage{}, err
	}
	return model.EntryPage{
		Entries: model.PlainEntries(list.Notes),
		Page:    list.Page,
	}, nil
}

// GetNote fetches a single note.
func (c *Client) GetNote(ctx context.Context, id int) (model.Note, error) {
	var note model.Note
	path := fmt.Sprintf("/api/notes/%d", id)
	if err := c.Get(ctx, path, nil, "Failed to load note", &note); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

// DeleteNote deletes a note.
func (c *Client) DeleteNote(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/notes/%d", id)
	return c.Delete(ctx, path, "Failed to delete note", nil)
}

// Folders returns the folder tree.
func (c *Client) Folders(ctx context.Context) (model.FolderTree, error) {
	var tree model.FolderTree
	if err := c.Get(ctx, "/api/folders", nil, "Failed to load folders", &tree); err != nil {
		return model.FolderTree{}, err
	}
	return tree, nil
}

// Search runs a full-text search. Results keep their rank and snippet.
func (c *Client) Search(
	ctx context.Context,
	query string,
	limit int,
) (model.EntryPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.EntryPage{}, &ValidationError{Message: "Search query is required"}
	}
	if limit <= 0 {
		limit = model.DefaultPageSize
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp model.SearchResponse
	if err := c.Get(ctx, "/api/search", q, "Search failed", &resp); err != nil {
		return model.EntryPage{}, err
	}
	return model.EntryPage{
		Entries: model.SearchEntries(resp.Results),
		Page:    model.Page{Total: resp.Total, Limit: limit},
	}, nil
}

// Tags returns every tag with its note count.
func (c *Client) Tags(ctx context.Context) (model.TagList, error) {
	var tags model.TagList
	if err := c.Get(ctx, "/api/tags", nil, "Failed to load tags", &tags); err != nil {
		return model.TagList{}, err
	}
	return tags, nil
}

// NotesByTag returns the notes carrying tag.
func (c *Client) NotesByTag(
	ctx context.Context,
	tag string,
	limit int,
) (model.EntryPage, error) {
	if strings.TrimSpace(tag) == "" {
		return model.EntryPage{}, &ValidationError{Message: "Tag is required"}
	}
	if limit <= 0 {
		limit = model.DefaultPageSize
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	path := "/api/tags/" + url.PathEscape(tag) + "/notes"

	var resp model.TagNotes
	if err := c.Get(ctx, path, q, "Failed to load tagged notes", &resp); err != nil {
		return model.EntryPage{}, err
	}
	return model.EntryPage{
		Entries: model.PlainEntries(resp.Notes),
		Page:    model.Page{Total: resp.Total, Limit: limit},
	}, nil
}
