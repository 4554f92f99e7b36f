package service

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// TodoEdit is an update to one todo.
type TodoEdit struct {
	ID     int
	Update model.TodoUpdate
}

// NoteTodoSelection picks suggestions of one note to accept together.
type NoteTodoSelection struct {
	NoteID  int
	TodoIDs []int
}

// WatchTodos observes one page of todos ("" status for all).
func (s *Service) WatchTodos(status model.TodoStatus, p model.PageParams, l query.Listener) *query.Observer {
	p = s.Page(p)
	return watch(s, TodosKey(status, p), true, func(ctx context.Context) (model.TodoList, error) {
		return s.api.ListTodos(ctx, model.TodoFilter{Status: status, PageParams: p})
	}, l)
}

// Todos reads one page of todos.
func (s *Service) Todos(ctx context.Context, status model.TodoStatus, p model.PageParams) (model.TodoList, error) {
	p = s.Page(p)
	return get(ctx, s, TodosKey(status, p), func(ctx context.Context) (model.TodoList, error) {
		return s.api.ListTodos(ctx, model.TodoFilter{Status: status, PageParams: p})
	})
}

// Todo reads one todo.
func (s *Service) Todo(ctx context.Context, id int) (model.Todo, error) {
	return get(ctx, s, TodoKey(id), func(ctx context.Context) (model.Todo, error) {
		return s.api.GetTodo(ctx, id)
	})
}

// WatchNoteTodos observes the todos extracted from one note.
func (s *Service) WatchNoteTodos(noteID int, l query.Listener) *query.Observer {
	return watch(s, NoteTodosKey(noteID), noteID > 0, func(ctx context.Context) (model.TodoList, error) {
		return s.api.NoteTodos(ctx, noteID)
	}, l)
}

// NoteTodos reads the todos of one note.
func (s *Service) NoteTodos(ctx context.Context, noteID int) (model.TodoList, error) {
	return get(ctx, s, NoteTodosKey(noteID), func(ctx context.Context) (model.TodoList, error) {
		return s.api.NoteTodos(ctx, noteID)
	})
}

// CreateTodo creates a todo and seeds its detail entry.
func (s *Service) CreateTodo() *query.Mutator[model.TodoInput, model.Todo] {
	return query.NewMutator(query.Mutation[model.TodoInput, model.Todo]{
		Fn: s.api.CreateTodo,
		OnSuccess: func(t model.Todo, _ model.TodoInput, _ any) {
			s.cache.SetData(TodoKey(t.ID), t)
			s.todosChanged()
		},
	})
}

// AcceptTodo promotes a suggestion.
func (s *Service) AcceptTodo() *query.Mutator[int, model.Todo] {
	return s.transition(model.TodoAccepted, s.api.AcceptTodo)
}

// CompleteTodo marks a todo done.
func (s *Service) CompleteTodo() *query.Mutator[int, model.Todo] {
	return s.transition(model.TodoCompleted, s.api.CompleteTodo)
}

// transition refuses moves the lifecycle forbids when the todo's current
// status is cached; the server remains the authority otherwise.
func (s *Service) transition(
	to model.TodoStatus,
	fn func(ctx context.Context, id int) (model.Todo, error),
) *query.Mutator[int, model.Todo] {
	return query.NewMutator(query.Mutation[int, model.Todo]{
		Fn: fn,
		OnMutate: func(id int) (any, error) {
			if cur, ok := query.GetAs[model.Todo](s.cache, TodoKey(id)); ok {
				if !cur.Status.CanTransition(to) {
					return nil, &model.ErrInvalidTransition{From: cur.Status, To: to}
				}
			}
			return nil, nil
		},
		OnSuccess: func(t model.Todo, _ int, _ any) {
			s.cache.SetData(TodoKey(t.ID), t)
			s.todosChanged()
		},
	})
}

// DismissTodo discards a suggestion.
func (s *Service) DismissTodo() *query.Mutator[int, None] {
	return query.NewMutator(query.Mutation[int, None]{
		Fn: func(ctx context.Context, id int) (None, error) {
			return None{}, s.api.DismissTodo(ctx, id)
		},
		OnSuccess: func(_ None, id int, _ any) {
			s.cache.Remove(TodoKey(id))
			s.todosChanged()
		},
	})
}

// UpdateTodo edits a todo.
func (s *Service) UpdateTodo() *query.Mutator[TodoEdit, model.Todo] {
	return query.NewMutator(query.Mutation[TodoEdit, model.Todo]{
		Fn: func(ctx context.Context, e TodoEdit) (model.Todo, error) {
			return s.api.UpdateTodo(ctx, e.ID, e.Update)
		},
		OnSuccess: func(t model.Todo, _ TodoEdit, _ any) {
			s.cache.SetData(TodoKey(t.ID), t)
			s.todosChanged()
		},
	})
}

// DeleteTodo deletes a todo.
func (s *Service) DeleteTodo() *query.Mutator[int, None] {
	return query.NewMutator(query.Mutation[int, None]{
		Fn: func(ctx context.Context, id int) (None, error) {
			return None{}, s.api.DeleteTodo(ctx, id)
		},
		OnSuccess: func(_ None, id int, _ any) {
			s.cache.Remove(TodoKey(id))
			s.todosChanged()
		},
	})
}

// ExtractNoteTodos re-runs todo extraction for a note.
func (s *Service) ExtractNoteTodos() *query.Mutator[int, model.ExtractedTodos] {
	return query.NewMutator(query.Mutation[int, model.ExtractedTodos]{
		Fn: s.api.ExtractNoteTodos,
		OnSuccess: func(_ model.ExtractedTodos, _ int, _ any) {
			s.todosChanged()
		},
	})
}

// AcceptNoteTodos accepts a batch of one note's suggestions.
func (s *Service) AcceptNoteTodos() *query.Mutator[NoteTodoSelection, model.AcceptTodosResult] {
	return query.NewMutator(query.Mutation[NoteTodoSelection, model.AcceptTodosResult]{
		Fn: func(ctx context.Context, sel NoteTodoSelection) (model.AcceptTodosResult, error) {
			return s.api.AcceptNoteTodos(ctx, sel.NoteID, sel.TodoIDs)
		},
		OnSuccess: func(res model.AcceptTodosResult, _ NoteTodoSelection, _ any) {
			for _, t := range res.Todos {
				s.cache.SetData(TodoKey(t.ID), t)
			}
			s.todosChanged()
		},
	})
}

func (s *Service) todosChanged() {
	s.invalidate(root(rootTodos), root(rootNoteTodos))
}
