package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token TokenFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/"}, token)
}

func staticToken(tok string) TokenFunc {
	return func(context.Context) (string, error) { return tok, nil }
}

func TestBearerHeader(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"tags":[]}`))
	}, staticToken("abc"))

	_, err := c.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestNoTokenOmitsHeader(t *testing.T) {
	cases := map[string]TokenFunc{
		"nil getter":   nil,
		"empty token":  staticToken(""),
		"getter error": func(context.Context) (string, error) { return "", errors.New("locked") },
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			present := true
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, present = r.Header["Authorization"]
				_, _ = w.Write([]byte(`{"tags":[]}`))
			}, tok)

			_, err := c.Tags(context.Background())
			require.NoError(t, err)
			assert.False(t, present)
		})
	}
}

func TestErrorMessagePrecedence(t *testing.T) {
	cases := []struct {
		name string
		ct   string
		body string
		want string
	}{
		{"json error field", "application/json", `{"error":"Note not found"}`, "Note not found"},
		{"json detail field", "application/json", `{"detail":"Not authenticated"}`, "Not authenticated"},
		{"plain text", "text/plain", "upstream exploded", "upstream exploded"},
		{"empty body", "text/plain", "", "Failed to delete note"},
		{"json without message", "application/json", `{"code":17}`, "Failed to delete note"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.ct)
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, tc.body)
			}, nil)

			err := c.DeleteNote(context.Background(), 3)
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
			assert.True(t, IsNotFound(err))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.MethodDelete, apiErr.Method)
			assert.Equal(t, "/api/notes/3", apiErr.Path)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, nil)
	_, err := c.GetNote(context.Background(), 1)

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "Failed to load note: network error", Message(err))
}

func TestListNotesReturnsPlainEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notes", r.URL.Path)
		assert.Equal(t, "work", r.URL.Query().Get("folder"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`{"notes":[{"id":1,"title":"a"}],"total":41,"limit":20,"offset":40}`))
	}, nil)

	page, err := c.ListNotes(context.Background(), "work", model.PageParams{Limit: 20, Offset: 40})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, model.EntryPlain, page.Entries[0].Kind)
	assert.Equal(t, 41, page.Total)
	assert.False(t, page.HasMore())
}

func TestSearchReturnsSearchEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "groceries", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"query":"groceries","total":1,
			"results":[{"note":{"id":7,"title":"list"},"rank":0.8,"snippet":"buy <b>milk</b>"}]}`))
	}, nil)

	page, err := c.Search(context.Background(), " groceries ", 0)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	e := page.Entries[0]
	assert.Equal(t, model.EntrySearch, e.Kind)
	assert.Equal(t, 7, e.Note.ID)
	assert.InDelta(t, 0.8, e.Rank, 1e-9)
	assert.Equal(t, "buy <b>milk</b>", e.Snippet)
	assert.Equal(t, model.DefaultPageSize, page.Limit)
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil)
	_, err := c.Search(context.Background(), "   ", 10)
	assert.True(t, IsValidation(err))
}

func TestNotesByTagEscapesPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags/to%20do/notes", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"tag":"to do","notes":[],"total":0}`))
	}, nil)

	page, err := c.NotesByTag(context.Background(), "to do", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
}

func TestValidationStopsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, nil)

	rating := 9
	_, err := c.SubmitFeedback(context.Background(), model.FeedbackInput{
		Type:   model.FeedbackBug,
		Title:  "crash",
		Rating: &rating,
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Rating must be at most 5", Message(err))
	assert.False(t, called)

	_, err = c.SubmitFeedback(context.Background(), model.FeedbackInput{Type: "rant", Title: "x"})
	assert.Equal(t, "Type must be one of: bug feature general", Message(err))
}

func TestSubmitFeedbackSendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in model.FeedbackInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "slow search", in.Title)
		_, _ = w.Write([]byte(`{"id":12,"type":"bug","title":"slow search"}`))
	}, nil)

	fb, err := c.SubmitFeedback(context.Background(), model.FeedbackInput{
		Type: model.FeedbackBug, Title: "slow search",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, fb.ID)
}

func TestTranscribeMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "clip.webm", hdr.Filename)
		assert.Equal(t, "audio/webm", hdr.Header.Get("Content-Type"))
		assert.Len(t, data, 1500)
		_, _ = w.Write([]byte(`{"note_id":5,"title":"Call mom","tags":["family"],
			"todos":[{"id":1,"title":"call","status":"suggested"}]}`))
	}, nil)

	res, err := c.Transcribe(context.Background(), FilePart{
		Filename: "clip.webm", ContentType: "audio/webm", Data: make([]byte, 1500),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.NoteID)
	assert.Len(t, res.SuggestedTodos(), 1)
}

func TestTranscribeMealFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "lunch", r.FormValue("meal_type"))
		assert.Equal(t, "2026-10-01", r.FormValue("meal_date"))
		assert.Empty(t, r.FormValue("meal_time"))
		_, _ = w.Write([]byte(`{"id":3,"meal_type":"lunch","meal_date":"2026-10-01","items":[]}`))
	}, nil)

	meal, err := c.TranscribeMeal(context.Background(),
		FilePart{Filename: "m.ogg", Data: []byte("0123456789")},
		model.MealTranscribeOptions{MealType: model.MealLunch, MealDate: "2026-10-01"})
	require.NoError(t, err)
	assert.Equal(t, 3, meal.ID)
}

func TestEmptyUploadRejected(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil)
	_, err := c.Transcribe(context.Background(), FilePart{Filename: "x.webm"})
	assert.True(t, IsValidation(err))
}

func TestTodoActionPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/api/todos/4/dismiss" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"id":4,"title":"t","status":"accepted"}`))
	}, nil)

	ctx := context.Background()
	_, err := c.AcceptTodo(ctx, 4)
	require.NoError(t, err)
	_, err = c.CompleteTodo(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, c.DismissTodo(ctx, 4))

	assert.Equal(t, []string{
		"POST /api/todos/4/accept",
		"POST /api/todos/4/complete",
		"POST /api/todos/4/dismiss",
	}, paths)
}

func TestMealCalendarValidatesMonth(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil)
	_, err := c.MealCalendar(context.Background(), 2026, 13)
	assert.True(t, IsValidation(err))
}

func TestUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
	}, staticToken("stale"))

	_, err := c.GetSettings(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Invalid token", Message(err))
}
