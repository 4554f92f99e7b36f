package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nhle/voicenote/internal/model"
)

// ListTodos returns one page of todos matching the filter.
func (c *Client) ListTodos(
	ctx context.Context,
	f model.TodoFilter,
) (model.TodoList, error) {
	q := pageQuery(f.PageParams)
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.NoteID > 0 {
		q.Set("note_id", strconv.Itoa(f.NoteID))
	}

	var list model.TodoList
	if err := c.Get(ctx, "/api/todos", q, "Failed to load todos", &list); err != nil {
		return model.TodoList{}, err
	}
	return list, nil
}

// GetTodo fetches one todo.
func (c *Client) GetTodo(ctx context.Context, id int) (model.Todo, error) {
	var todo model.Todo
	path := fmt.Sprintf("/api/todos/%d", id)
	if err := c.Get(ctx, path, nil, "Failed to load todo", &todo); err != nil {
		return model.Todo{}, err
	}
	return todo, nil
}

// CreateTodo creates a todo by hand.
func (c *Client) CreateTodo(
	ctx context.Context,
	in model.TodoInput,
) (model.Todo, error) {
	if err := c.Validate(in); err != nil {
		return model.Todo{}, err
	}
	var todo model.Todo
	if err := c.Post(ctx, "/api/todos", in, "Failed to create todo", &todo); err != nil {
		return model.Todo{}, err
	}
	return todo, nil
}

// UpdateTodo edits a todo.
func (c *Client) UpdateTodo(
	ctx context.Context,
	id int,
	in model.TodoUpdate,
) (model.Todo, error) {
	if err := c.Validate(in); err != nil {
		return model.Todo{}, err
	}
	var todo model.Todo
	path := fmt.Sprintf("/api/todos/%d", id)
	if err := c.Put(ctx, path, in, "Failed to update todo", &todo); err != nil {
		return model.Todo{}, err
	}
	return todo, nil
}

// DeleteTodo deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/todos/%d", id)
	return c.Delete(ctx, path, "Failed to delete todo", nil)
}

// AcceptTodo moves a suggested todo to accepted.
func (c *Client) AcceptTodo(ctx context.Context, id int) (model.Todo, error) {
	return c.todoAction(ctx, id, "accept", "Failed to accept todo")
}

// CompleteTodo marks a todo completed.
func (c *Client) CompleteTodo(ctx context.Context, id int) (model.Todo, error) {
	return c.todoAction(ctx, id, "complete", "Failed to complete todo")
}

// DismissTodo discards a suggestion. The server removes it.
func (c *Client) DismissTodo(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/todos/%d/dismiss", id)
	return c.Post(ctx, path, nil, "Failed to dismiss todo", nil)
}

func (c *Client) todoAction(
	ctx context.Context,
	id int,
	action string,
	fallback string,
) (model.Todo, error) {
	var todo model.Todo
	path := fmt.Sprintf("/api/todos/%d/%s", id, action)
	if err := c.Post(ctx, path, nil, fallback, &todo); err != nil {
		return model.Todo{}, err
	}
	return todo, nil
}

// NoteTodos returns the todos extracted from a note.
func (c *Client) NoteTodos(ctx context.Context, noteID int) (model.TodoList, error) {
	var list model.TodoList
	path := fmt.Sprintf("/api/notes/%d/todos", noteID)
	if err := c.Get(ctx, path, nil, "Failed to load note todos", &list); err != nil {
		return model.TodoList{}, err
	}
	return list, nil
}

// ExtractNoteTodos asks the backend to (re)extract todos from a note.
func (c *Client) ExtractNoteTodos(
	ctx context.Context,
	noteID int,
) (model.ExtractedTodos, error) {
	var out model.ExtractedTodos
	path := fmt.Sprintf("/api/notes/%d/todos", noteID)
	if err := c.Post(ctx, path, nil, "Failed to extract todos", &out); err != nil {
		return model.ExtractedTodos{}, err
	}
	return out, nil
}

// AcceptNoteTodos accepts several suggestions of one note at once.
func (c *Client) AcceptNoteTodos(
	ctx context.Context,
	noteID int,
	todoIDs []int,
) (model.AcceptTodosResult, error) {
	if len(todoIDs) == 0 {
		return model.AcceptTodosResult{}, &ValidationError{Message: "No todos selected"}
	}
	var out model.AcceptTodosResult
	path := fmt.Sprintf("/api/notes/%d/todos/accept", noteID)
	body := model.AcceptTodosRequest{TodoIDs: todoIDs}
	if err := c.Post(ctx, path, body, "Failed to accept todos", &out); err != nil {
		return model.AcceptTodosResult{}, err
	}
	return out, nil
}
