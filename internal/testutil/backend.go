package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/voicenote/internal/model"
)

// Backend is an in-memory stand-in for the voicenote API, served over
// httptest. Tests seed it, inject failures and count requests.
type Backend struct {
	Server *httptest.Server

	// Token, when set, is required as the Bearer token of every request.
	Token string

	mu         sync.Mutex
	nextID     int
	notes      []model.Note
	todos      []model.Todo
	feedback   []model.Feedback
	meals      []model.MealEntry
	digests    []model.Digest
	asks       []model.AskResult
	settings   model.UserSettings
	uploads    []Upload
	failures   map[string]failure
	gates      map[string]chan struct{}
	requests   map[string]int
	transcript string
}

// Upload records one multipart audio upload.
type Upload struct {
	Path     string
	Filename string
	MimeType string
	Size     int
	Fields   map[string]string
}

type failure struct {
	status int
	body   string
	times  int
}

// NewBackend starts a fake backend that shuts down with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		nextID:     100,
		failures:   make(map[string]failure),
		gates:      make(map[string]chan struct{}),
		requests:   make(map[string]int),
		transcript: "remember to buy milk",
		settings: model.UserSettings{
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL to hand to api.Config.
func (b *Backend) URL() string { return b.Server.URL }

// AddNote seeds a note and returns it with its assigned ID.
func (b *Backend) AddNote(n model.Note) model.Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.ID == 0 {
		n.ID = b.id()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n.ID) * time.Minute)
		n.UpdatedAt = n.CreatedAt
	}
	b.notes = append(b.notes, n)
	return n
}

// AddTodo seeds a todo.
func (b *Backend) AddTodo(td model.Todo) model.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	if td.ID == 0 {
		td.ID = b.id()
	}
	if td.Status == "" {
		td.Status = model.TodoSuggested
	}
	b.todos = append(b.todos, td)
	return td
}

// AddFeedback seeds a feedback entry.
func (b *Backend) AddFeedback(fb model.Feedback) model.Feedback {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fb.ID == 0 {
		fb.ID = b.id()
	}
	b.feedback = append([]model.Feedback{fb}, b.feedback...)
	return fb
}

// AddMeal seeds a meal.
func (b *Backend) AddMeal(m model.MealEntry) model.MealEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.ID == 0 {
		m.ID = b.id()
	}
	b.meals = append(b.meals, m)
	return m
}

// SetTranscript sets the text returned by the transcription endpoints.
func (b *Backend) SetTranscript(s string) {
	b.mu.Lock()
	b.transcript = s
	b.mu.Unlock()
}

// Notes returns the notes currently stored.
func (b *Backend) Notes() []model.Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Note(nil), b.notes...)
}

// Todos returns the todos currently stored.
func (b *Backend) Todos() []model.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Todo(nil), b.todos...)
}

// Uploads returns every audio upload received.
func (b *Backend) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}

// Fail makes the next times requests to method+path answer with status
// and body. times <= 0 fails until ClearFailures.
func (b *Backend) Fail(method, path string, status int, body string, times int) {
	b.mu.Lock()
	b.failures[method+" "+path] = failure{status: status, body: body, times: times}
	b.mu.Unlock()
}

// ClearFailures removes every injected failure.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	b.failures = make(map[string]failure)
	b.mu.Unlock()
}

// Hold blocks requests to method+path until the returned func is called.
func (b *Backend) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[method+" "+path] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.gates, method+" "+path)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns how many requests reached method+path.
func (b *Backend) Requests(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[method+" "+path]
}

func (b *Backend) id() int {
	b.nextID++
	return b.nextID
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(b.intercept())

	api := r.Group("/api")
	api.GET("/notes", b.listNotes)
	api.GET("/notes/:id", b.getNote)
	api.DELETE("/notes/:id", b.deleteNote)
	api.GET("/notes/:id/todos", b.noteTodos)
	api.POST("/notes/:id/todos/accept", b.acceptNoteTodos)
	api.GET("/search", b.search)
	api.GET("/tags", b.tags)
	api.GET("/tags/:tag/notes", b.tagNotes)
	api.GET("/folders", b.folders)
	api.POST("/transcribe", b.transcribe)

	api.GET("/todos", b.listTodos)
	api.POST("/todos", b.createTodo)
	api.GET("/todos/:id", b.getTodo)
	api.DELETE("/todos/:id", b.deleteTodo)
	api.POST("/todos/:id/:action", b.todoAction)

	api.GET("/feedback", b.listFeedback)
	api.POST("/feedback", b.submitFeedback)

	api.GET("/meals", b.listMeals)
	api.POST("/meals/transcribe", b.transcribeMeal)
	api.GET("/meals/calendar", b.calendar)
	api.GET("/meals/:id", b.getMeal)
	api.DELETE("/meals/:id", b.deleteMeal)
	api.DELETE("/meals/:id/items/:item", b.deleteMealItem)

	api.GET("/digests", b.listDigests)
	api.POST("/summarize", b.summarize)
	api.DELETE("/digests/:id", b.deleteDigest)

	api.POST("/ask", b.ask)
	api.GET("/ask-history", b.askHistory)
	api.DELETE("/ask-history/:id", b.deleteAsk)

	api.GET("/settings", b.getSettings)
	api.PUT("/settings", b.updateSettings)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	return r
}

// intercept counts requests, enforces auth and applies injected failures
// and holds.
func (b *Backend) intercept() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.Request.URL.Path

		b.mu.Lock()
		b.requests[key]++
		gate := b.gates[key]
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		if b.Token != "" && c.GetHeader("Authorization") != "Bearer "+b.Token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		b.mu.Lock()
		f, failing := b.failures[key]
		if failing && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(b.failures, key)
			} else {
				b.failures[key] = f
			}
		}
		b.mu.Unlock()

		if failing {
			c.Data(f.status, "application/json", []byte(f.body))
			c.Abort()
			return
		}
		c.Next()
	}
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[offset:end]...)
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid id"})
		return 0, false
	}
	return id, true
}

// newestNotes returns the notes newest first. Callers hold b.mu.
func (b *Backend) newestNotes() []model.Note {
	notes := append([]model.Note(nil), b.notes...)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes
}

func (b *Backend) listNotes(c *gin.Context) {
	limit, offset := pageParams(c)
	folder := c.Query("folder")

	b.mu.Lock()
	var notes []model.Note
	for _, n := range b.newestNotes() {
		if folder == "" || n.FolderPath == folder || strings.HasPrefix(n.FolderPath, folder+"/") {
			notes = append(notes, n)
		}
	}
	b.mu.Unlock()

	c.JSON(http.StatusOK, model.NoteList{
		Notes: window(notes, limit, offset),
		Page:  model.Page{Total: len(notes), Limit: limit, Offset: offset},
	})
}

func (b *Backend) getNote(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.notes {
		if n.ID == id {
			c.JSON(http.StatusOK, n)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Note not found"})
}

func (b *Backend) deleteNote(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notes {
		if n.ID == id {
			b.notes = append(b.notes[:i], b.notes[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Note not found"})
}

func (b *Backend) search(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	limit, _ := pageParams(c)
	if q == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "q is required"})
		return
	}

	b.mu.Lock()
	var results []model.SearchResult
	for _, n := range b.newestNotes() {
		text := strings.ToLower(n.Title + " " + n.Content)
		if strings.Contains(text, q) {
			results = append(results, model.SearchResult{
				Note:    n,
				Rank:    float64(strings.Count(text, q)),
				Snippet: "<mark>" + q + "</mark>",
			})
		}
	}
	b.mu.Unlock()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Rank > results[j].Rank })
	c.JSON(http.StatusOK, model.SearchResponse{
		Query:   q,
		Results: window(results, limit, 0),
		Total:   len(results),
	})
}

func (b *Backend) tags(c *gin.Context) {
	b.mu.Lock()
	counts := map[string]int{}
	for _, n := range b.notes {
		for _, t := range n.Tags {
			counts[t]++
		}
	}
	b.mu.Unlock()

	list := model.TagList{Tags: []model.TagCount{}}
	for t, n := range counts {
		list.Tags = append(list.Tags, model.TagCount{Tag: t, Count: n})
	}
	sort.Slice(list.Tags, func(i, j int) bool { return list.Tags[i].Tag < list.Tags[j].Tag })
	c.JSON(http.StatusOK, list)
}

func (b *Backend) tagNotes(c *gin.Context) {
	tag := c.Param("tag")
	limit, _ := pageParams(c)

	b.mu.Lock()
	var notes []model.Note
	for _, n := range b.newestNotes() {
		if n.HasTag(tag) {
			notes = append(notes, n)
		}
	}
	b.mu.Unlock()

	c.JSON(http.StatusOK, model.TagNotes{
		Tag:   tag,
		Notes: window(notes, limit, 0),
		Total: len(notes),
	})
}

func (b *Backend) folders(c *gin.Context) {
	b.mu.Lock()
	counts := map[string]int{}
	for _, n := range b.notes {
		parts := strings.Split(n.FolderPath, "/")
		for i := range parts {
			counts[strings.Join(parts[:i+1], "/")]++
		}
	}
	b.mu.Unlock()

	c.JSON(http.StatusOK, model.FolderTree{Folders: folderLevel(counts, "")})
}

func folderLevel(counts map[string]int, parent string) []model.FolderNode {
	var out []model.FolderNode
	for path, n := range counts {
		name := path
		if parent != "" {
			if !strings.HasPrefix(path, parent+"/") {
				continue
			}
			name = strings.TrimPrefix(path, parent+"/")
		}
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		out = append(out, model.FolderNode{
			Name:       name,
			Path:       path,
			NoteCount:  n,
			Subfolders: folderLevel(counts, path),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (b *Backend) transcribe(c *gin.Context) {
	up, ok := b.receiveUpload(c)
	if !ok {
		return
	}

	b.mu.Lock()
	note := model.Note{
		ID:         b.id(),
		Title:      "Voice note",
		Content:    b.transcript,
		FolderPath: "inbox",
		Filename:   up.Filename,
		Tags:       []string{"voice"},
		Confidence: 0.9,
		CreatedAt:  time.Now().UTC(),
	}
	note.UpdatedAt = note.CreatedAt
	b.notes = append(b.notes, note)

	noteID := note.ID
	todo := model.Todo{
		ID:     b.id(),
		Title:  "Follow up: " + b.transcript,
		Status: model.TodoSuggested,
		NoteID: &noteID,
	}
	b.todos = append(b.todos, todo)
	b.mu.Unlock()

	c.JSON(http.StatusOK, model.TranscriptionResult{
		NoteID:        note.ID,
		Transcription: note.Content,
		Title:         note.Title,
		FolderPath:    note.FolderPath,
		Filename:      note.Filename,
		Tags:          note.Tags,
		Confidence:    note.Confidence,
		Todos:         []model.Todo{todo},
	})
}

func (b *Backend) transcribeMeal(c *gin.Context) {
	up, ok := b.receiveUpload(c)
	if !ok {
		return
	}

	mealType := model.MealType(up.Fields["meal_type"])
	if mealType == "" {
		mealType = model.MealLunch
	}
	date := up.Fields["meal_date"]
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	b.mu.Lock()
	meal := model.MealEntry{
		ID:            b.id(),
		MealType:      mealType,
		MealDate:      date,
		Transcription: b.transcript,
		Items:         []model.MealItem{{ID: b.id(), Name: b.transcript}},
		Confidence:    0.8,
		CreatedAt:     time.Now().UTC(),
	}
	if t := up.Fields["meal_time"]; t != "" {
		meal.MealTime = &t
	}
	meal.UpdatedAt = meal.CreatedAt
	b.meals = append(b.meals, meal)
	b.mu.Unlock()

	c.JSON(http.StatusOK, meal)
}

func (b *Backend) receiveUpload(c *gin.Context) (Upload, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return Upload{}, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return Upload{}, false
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Empty audio file"})
		return Upload{}, false
	}

	up := Upload{
		Path:     c.Request.URL.Path,
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     len(data),
		Fields:   map[string]string{},
	}
	for name, values := range c.Request.MultipartForm.Value {
		if len(values) > 0 {
			up.Fields[name] = values[0]
		}
	}

	b.mu.Lock()
	b.uploads = append(b.uploads, up)
	b.mu.Unlock()
	return up, true
}

func (b *Backend) listTodos(c *gin.Context) {
	limit, offset := pageParams(c)
	status := model.TodoStatus(c.Query("status"))
	noteID, _ := strconv.Atoi(c.Query("note_id"))

	b.mu.Lock()
	var todos []model.Todo
	for _, td := range b.todos {
		if status != "" && td.Status != status {
			continue
		}
		if noteID != 0 && (td.NoteID == nil || *td.NoteID != noteID) {
			continue
		}
		todos = append(todos, td)
	}
	b.mu.Unlock()

	c.JSON(http.StatusOK, model.TodoList{
		Todos: window(todos, limit, offset),
		Page:  model.Page{Total: len(todos), Limit: limit, Offset: offset},
	})
}

func (b *Backend) createTodo(c *gin.Context) {
	var in model.TodoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	td := model.Todo{
		ID:          b.id(),
		Title:       in.Title,
		Description: in.Description,
		NoteID:      in.NoteID,
		Status:      model.TodoAccepted,
		CreatedAt:   time.Now().UTC(),
	}
	td.UpdatedAt = td.CreatedAt
	b.todos = append(b.todos, td)
	b.mu.Unlock()
	c.JSON(http.StatusCreated, td)
}

func (b *Backend) getTodo(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, td := range b.todos {
		if td.ID == id {
			c.JSON(http.StatusOK, td)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Todo not found"})
}

func (b *Backend) deleteTodo(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, td := range b.todos {
		if td.ID == id {
			b.todos = append(b.todos[:i], b.todos[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Todo not found"})
}

func (b *Backend) todoAction(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var next model.TodoStatus
	switch c.Param("action") {
	case "accept":
		next = model.TodoAccepted
	case "complete":
		next = model.TodoCompleted
	case "dismiss":
	default:
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, td := range b.todos {
		if td.ID != id {
			continue
		}
		if next == "" {
			b.todos = append(b.todos[:i], b.todos[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
		if !td.Status.CanTransition(next) {
			c.JSON(http.StatusBadRequest, gin.H{
				"detail": fmt.Sprintf("Cannot move todo from %s to %s", td.Status, next),
			})
			return
		}
		td.Status = next
		td.UpdatedAt = time.Now().UTC()
		b.todos[i] = td
		c.JSON(http.StatusOK, td)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Todo not found"})
}

func (b *Backend) noteTodos(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	todos := []model.Todo{}
	for _, td := range b.todos {
		if td.NoteID != nil && *td.NoteID == id {
			todos = append(todos, td)
		}
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, model.TodoList{
		Todos: todos,
		Page:  model.Page{Total: len(todos), Limit: len(todos)},
	})
}

func (b *Backend) acceptNoteTodos(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req model.AcceptTodosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	wanted := map[int]bool{}
	for _, tid := range req.TodoIDs {
		wanted[tid] = true
	}

	b.mu.Lock()
	var res model.AcceptTodosResult
	for i, td := range b.todos {
		if td.NoteID == nil || *td.NoteID != id || !wanted[td.ID] || td.Status != model.TodoSuggested {
			continue
		}
		td.Status = model.TodoAccepted
		b.todos[i] = td
		res.Accepted++
		res.Todos = append(res.Todos, td)
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, res)
}

func (b *Backend) listFeedback(c *gin.Context) {
	limit, offset := pageParams(c)
	b.mu.Lock()
	items := window(b.feedback, limit, offset)
	total := len(b.feedback)
	b.mu.Unlock()
	c.JSON(http.StatusOK, model.FeedbackList{
		Feedback: items,
		Page:     model.Page{Total: total, Limit: limit, Offset: offset},
	})
}

func (b *Backend) submitFeedback(c *gin.Context) {
	var in model.FeedbackInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	fb := model.Feedback{
		ID:          b.id(),
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Rating:      in.Rating,
		CreatedAt:   time.Now().UTC(),
	}
	b.feedback = append([]model.Feedback{fb}, b.feedback...)
	b.mu.Unlock()
	c.JSON(http.StatusCreated, fb)
}

func (b *Backend) listMeals(c *gin.Context) {
	limit, offset := pageParams(c)
	mealType := model.MealType(c.Query("meal_type"))

	b.mu.Lock()
	var meals []model.MealEntry
	for _, m := range b.meals {
		if mealType == "" || m.MealType == mealType {
			meals = append(meals, m)
		}
	}
	b.mu.Unlock()

	c.JSON(http.StatusOK, model.MealList{
		Meals: window(meals, limit, offset),
		Page:  model.Page{Total: len(meals), Limit: limit, Offset: offset},
	})
}

func (b *Backend) getMeal(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.meals {
		if m.ID == id {
			c.JSON(http.StatusOK, m)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Meal not found"})
}

func (b *Backend) deleteMeal(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, m := range b.meals {
		if m.ID == id {
			b.meals = append(b.meals[:i], b.meals[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Meal not found"})
}

func (b *Backend) getSettings(c *gin.Context) {
	b.mu.Lock()
	s := b.settings
	b.mu.Unlock()
	c.JSON(http.StatusOK, s)
}

func (b *Backend) updateSettings(c *gin.Context) {
	var in model.SettingsUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	if in.AutoAcceptTodos != nil {
		b.settings.AutoAcceptTodos = *in.AutoAcceptTodos
	}
	b.settings.UpdatedAt = time.Now().UTC()
	s := b.settings
	b.mu.Unlock()
	c.JSON(http.StatusOK, s)
}

func (b *Backend) calendar(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	prefix := fmt.Sprintf("%04d-%02d-", year, month)

	b.mu.Lock()
	byDate := map[string]*model.CalendarDay{}
	var order []string
	for _, m := range b.meals {
		if !strings.HasPrefix(m.MealDate, prefix) {
			continue
		}
		d, ok := byDate[m.MealDate]
		if !ok {
			d = &model.CalendarDay{Date: m.MealDate}
			byDate[m.MealDate] = d
			order = append(order, m.MealDate)
		}
		d.Count++
		d.MealTypes = append(d.MealTypes, m.MealType)
	}
	b.mu.Unlock()

	sort.Strings(order)
	days := make([]model.CalendarDay, 0, len(order))
	for _, date := range order {
		days = append(days, *byDate[date])
	}
	c.JSON(http.StatusOK, model.CalendarMonth{Year: year, Month: month, Days: days})
}

func (b *Backend) deleteMealItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	itemID, err := strconv.Atoi(c.Param("item"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid item id"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, m := range b.meals {
		if m.ID != id {
			continue
		}
		for j, it := range m.Items {
			if it.ID == itemID {
				m.Items = append(m.Items[:j:j], m.Items[j+1:]...)
				b.meals[i] = m
				c.Status(http.StatusNoContent)
				return
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Item not found"})
}

// AddDigest seeds a digest.
func (b *Backend) AddDigest(d model.Digest) model.Digest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d.ID == 0 {
		d.ID = b.id()
	}
	b.digests = append([]model.Digest{d}, b.digests...)
	return d
}

func (b *Backend) listDigests(c *gin.Context) {
	limit, offset := pageParams(c)
	b.mu.Lock()
	items := window(b.digests, limit, offset)
	total := len(b.digests)
	b.mu.Unlock()
	c.JSON(http.StatusOK, model.DigestList{
		Digests: items,
		Page:    model.Page{Total: total, Limit: limit, Offset: offset},
	})
}

func (b *Backend) summarize(c *gin.Context) {
	var in model.SummarizeRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	if len(b.notes) == 0 {
		b.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No notes to summarize"})
		return
	}
	titles := make([]string, len(b.notes))
	for i, n := range b.notes {
		titles[i] = n.Title
	}
	d := model.Digest{
		ID:          b.id(),
		Summary:     "Notes about " + strings.Join(titles, ", "),
		KeyThemes:   titles,
		ActionItems: []string{},
		NoteCount:   len(b.notes),
		CreatedAt:   time.Now().UTC(),
	}
	b.digests = append([]model.Digest{d}, b.digests...)
	b.mu.Unlock()
	c.JSON(http.StatusOK, d)
}

func (b *Backend) deleteDigest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, d := range b.digests {
		if d.ID == id {
			b.digests = append(b.digests[:i], b.digests[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Digest not found"})
}

// ask answers with every note whose content mentions a word of the
// question.
func (b *Backend) ask(c *gin.Context) {
	var in model.AskRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	words := strings.Fields(strings.ToLower(in.Question))

	b.mu.Lock()
	sources := []model.AskSource{}
	for _, n := range b.notes {
		text := strings.ToLower(n.Title + " " + n.Content)
		for _, w := range words {
			if len(w) > 3 && strings.Contains(text, w) {
				sources = append(sources, model.AskSource{NoteID: n.ID, Title: n.Title, Snippet: n.Content, Relevance: 1})
				break
			}
		}
	}
	answer := "I could not find anything about that."
	if len(sources) > 0 {
		answer = fmt.Sprintf("Found %d related notes.", len(sources))
	}
	res := model.AskResult{
		ID:        b.id(),
		Question:  in.Question,
		Answer:    answer,
		Sources:   sources,
		QueryPlan: &model.QueryPlan{SemanticQuery: in.Question, Keywords: words},
		CreatedAt: time.Now().UTC(),
	}
	b.asks = append([]model.AskResult{res}, b.asks...)
	b.mu.Unlock()
	c.JSON(http.StatusOK, res)
}

func (b *Backend) askHistory(c *gin.Context) {
	limit, offset := pageParams(c)
	b.mu.Lock()
	items := window(b.asks, limit, offset)
	total := len(b.asks)
	b.mu.Unlock()
	c.JSON(http.StatusOK, model.AskHistoryList{
		Items: items,
		Page:  model.Page{Total: total, Limit: limit, Offset: offset},
	})
}

func (b *Backend) deleteAsk(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.asks {
		if a.ID == id {
			b.asks = append(b.asks[:i], b.asks[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Answer not found"})
}
