package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/logging"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// WatchNotes observes one page of notes in folder ("" for all).
func (s *Service) WatchNotes(folder string, p model.PageParams, enabled bool, l query.Listener) *query.Observer {
	p = s.Page(p)
	return watch(s, NotesKey(folder, p), enabled, func(ctx context.Context) (model.EntryPage, error) {
		return s.api.ListNotes(ctx, folder, p)
	}, l)
}

// Notes reads one page of notes.
func (s *Service) Notes(ctx context.Context, folder string, p model.PageParams) (model.EntryPage, error) {
	p = s.Page(p)
	return get(ctx, s, NotesKey(folder, p), func(ctx context.Context) (model.EntryPage, error) {
		return s.api.ListNotes(ctx, folder, p)
	})
}

// WatchSearch observes full-text results for q. Blank queries never fetch.
func (s *Service) WatchSearch(q string, limit int, enabled bool, l query.Listener) *query.Observer {
	q = strings.TrimSpace(q)
	limit = s.limit(limit)
	return watch(s, SearchKey(q, limit), enabled && q != "", func(ctx context.Context) (model.EntryPage, error) {
		return s.api.Search(ctx, q, limit)
	}, l)
}

// Search reads full-text results for q.
func (s *Service) Search(ctx context.Context, q string, limit int) (model.EntryPage, error) {
	q = strings.TrimSpace(q)
	limit = s.limit(limit)
	return get(ctx, s, SearchKey(q, limit), func(ctx context.Context) (model.EntryPage, error) {
		return s.api.Search(ctx, q, limit)
	})
}

// WatchTagNotes observes the notes carrying tag.
func (s *Service) WatchTagNotes(tag string, limit int, enabled bool, l query.Listener) *query.Observer {
	limit = s.limit(limit)
	return watch(s, TagNotesKey(tag, limit), enabled && tag != "", func(ctx context.Context) (model.EntryPage, error) {
		return s.api.NotesByTag(ctx, tag, limit)
	}, l)
}

// TagNotes reads the notes carrying tag.
func (s *Service) TagNotes(ctx context.Context, tag string, limit int) (model.EntryPage, error) {
	limit = s.limit(limit)
	return get(ctx, s, TagNotesKey(tag, limit), func(ctx context.Context) (model.EntryPage, error) {
		return s.api.NotesByTag(ctx, tag, limit)
	})
}

// WatchNote observes one note.
func (s *Service) WatchNote(id int, l query.Listener) *query.Observer {
	return watch(s, NoteKey(id), id > 0, func(ctx context.Context) (model.Note, error) {
		return s.api.GetNote(ctx, id)
	}, l)
}

// Note reads one note.
func (s *Service) Note(ctx context.Context, id int) (model.Note, error) {
	return get(ctx, s, NoteKey(id), func(ctx context.Context) (model.Note, error) {
		return s.api.GetNote(ctx, id)
	})
}

// WatchTags observes the tag list.
func (s *Service) WatchTags(l query.Listener) *query.Observer {
	return watch(s, TagsKey(), true, s.api.Tags, l)
}

// Tags reads the tag list.
func (s *Service) Tags(ctx context.Context) (model.TagList, error) {
	return get(ctx, s, TagsKey(), s.api.Tags)
}

// WatchFolders observes the folder tree.
func (s *Service) WatchFolders(l query.Listener) *query.Observer {
	return watch(s, FoldersKey(), true, s.api.Folders, l)
}

// Folders reads the folder tree.
func (s *Service) Folders(ctx context.Context) (model.FolderTree, error) {
	return get(ctx, s, FoldersKey(), s.api.Folders)
}

// DeleteNote deletes a note. On success the note disappears from every
// cached list at once, its detail entry is dropped, and the lists, folder
// counts and tags are refetched.
func (s *Service) DeleteNote() *query.Mutator[int, None] {
	return query.NewMutator(query.Mutation[int, None]{
		Fn: func(ctx context.Context, id int) (None, error) {
			return None{}, s.api.DeleteNote(ctx, id)
		},
		OnSuccess: func(_ None, id int, _ any) {
			s.logger.Info("note deleted", zap.Int(logging.FieldNoteID, id))
			drop := func(_ query.Key, data any) (any, bool) {
				page, ok := query.As[model.EntryPage](data)
				if !ok {
					return nil, false
				}
				next, removed := withoutNote(page, id)
				return next, removed
			}
			s.cache.UpdateData(root(rootNotes), drop)
			s.cache.UpdateData(root(rootTagNotes), drop)
			s.cache.UpdateData(root(rootSearch), drop)
			s.cache.Remove(NoteKey(id))
			s.cache.Remove(NoteTodosKey(id))
			s.invalidate(
				root(rootNotes), root(rootFolders), root(rootTags),
				root(rootSearch), root(rootTagNotes),
			)
		},
	})
}

// withoutNote removes note id from a page, adjusting the total.
func withoutNote(page model.EntryPage, id int) (model.EntryPage, bool) {
	out := make([]model.NoteEntry, 0, len(page.Entries))
	for _, e := range page.Entries {
		if e.Note.ID != id {
			out = append(out, e)
		}
	}
	removed := len(page.Entries) - len(out)
	if removed == 0 {
		return page, false
	}
	page.Entries = out
	page.Total -= removed
	if page.Total < len(out) {
		page.Total = len(out)
	}
	return page, true
}

func (s *Service) limit(n int) int {
	if n <= 0 {
		return s.pageSize
	}
	return n
}
