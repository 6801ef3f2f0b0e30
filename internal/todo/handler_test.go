package todo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/middleware"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/models"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/store"
)

// memTodos is an in-memory TodoStore with the same owner scoping as the
// real PostgresStore.
type memTodos struct {
	items []*models.Todo
	clock time.Time
}

func newMemTodos() *memTodos {
	return &memTodos{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memTodos) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memTodos) CreateTodo(_ context.Context, t *models.Todo) (*models.Todo, error) {
	now := m.tick()
	item := *t
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	m.items = append(m.items, &item)
	copied := item
	return &copied, nil
}

func (m *memTodos) find(userID, id string) *models.Todo {
	for _, t := range m.items {
		if t.ID == id && t.UserID == userID {
			return t
		}
	}
	return nil
}

func (m *memTodos) ListTodos(_ context.Context, userID string) ([]models.Todo, error) {
	var out []models.Todo
	for _, t := range m.items {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memTodos) GetTodo(_ context.Context, userID, id string) (*models.Todo, error) {
	t := m.find(userID, id)
	if t == nil {
		return nil, store.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *memTodos) UpdateTodo(_ context.Context, in *models.Todo) (*models.Todo, error) {
	t := m.find(in.UserID, in.ID)
	if t == nil {
		return nil, store.ErrNotFound
	}
	t.Title = in.Title
	t.Description = in.Description
	t.DueDate = in.DueDate
	t.Priority = in.Priority
	t.Completed = in.Completed
	t.UpdatedAt = m.tick()
	copied := *t
	return &copied, nil
}

func (m *memTodos) SetAttachment(_ context.Context, userID, id, key, name string) error {
	t := m.find(userID, id)
	if t == nil {
		return store.ErrNotFound
	}
	t.AttachmentKey = key
	t.AttachmentName = name
	return nil
}

func (m *memTodos) DeleteTodo(_ context.Context, userID, id string) error {
	for i, t := range m.items {
		if t.ID == id && t.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memTodos) TodoStats(_ context.Context, userID string) (*models.TodoStats, error) {
	var st models.TodoStats
	for _, t := range m.items {
		if t.UserID != userID {
			continue
		}
		st.Total++
		if t.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	return &st, nil
}

// memActivity records events in order.
type memActivity struct {
	events []models.Activity
	clock  time.Time
}

func (m *memActivity) Record(_ context.Context, a *models.Activity) error {
	m.clock = m.clock.Add(time.Second)
	e := *a
	e.CreatedAt = m.clock
	m.events = append(m.events, e)
	return nil
}

func (m *memActivity) ListByUser(_ context.Context, userID string, limit int) ([]models.Activity, error) {
	var out []models.Activity
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].UserID == userID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

type memObject struct {
	data        []byte
	contentType string
}

// memFiles is an in-memory FileStore.
type memFiles map[string]memObject

func (m memFiles) Upload(_ context.Context, key string, data []byte, contentType string) error {
	m[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (m memFiles) Download(_ context.Context, key string) ([]byte, string, error) {
	obj, ok := m[key]
	if !ok {
		return nil, "", fmt.Errorf("object %s not found", key)
	}
	return obj.data, obj.contentType, nil
}

func (m memFiles) Remove(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

type env struct {
	todos    *memTodos
	files    memFiles
	activity *memActivity
	handler  *Handler
}

func newEnv() *env {
	todos := newMemTodos()
	files := memFiles{}
	activity := &memActivity{}
	return &env{
		todos:    todos,
		files:    files,
		activity: activity,
		handler:  NewHandler(todos, files, activity),
	}
}

// router builds the same route table as cmd/server, with the auth middleware
// replaced by a stub that pins the user.
func (e *env) router(userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, middleware.WithUserID(req, userID))
		})
	})
	r.Post("/api/todos", e.handler.Create)
	r.Get("/api/todos", e.handler.List)
	r.Get("/api/todos/stats", e.handler.Stats)
	r.Get("/api/todos/{id}", e.handler.Get)
	r.Put("/api/todos/{id}", e.handler.Replace)
	r.Patch("/api/todos/{id}", e.handler.Update)
	r.Patch("/api/todos/{id}/toggle", e.handler.Toggle)
	r.Delete("/api/todos/{id}", e.handler.Delete)
	r.Post("/api/todos/{id}/attachment", e.handler.UploadAttachment)
	r.Get("/api/todos/{id}/attachment", e.handler.DownloadAttachment)
	r.Get("/api/activity", e.handler.Activity)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createTodo(t *testing.T, h http.Handler, title string) models.Todo {
	t.Helper()
	rr := doJSON(t, h, "POST", "/api/todos", map[string]any{"title": title})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.Todo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	return created
}

func TestCreateAndList(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")

	created := createTodo(t, alice, "buy milk")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-alice", created.UserID)
	assert.Equal(t, models.DefaultPriority, created.Priority)
	assert.False(t, created.Completed)

	rr := doJSON(t, alice, "GET", "/api/todos", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []models.Todo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1, "created item must appear exactly once")
	assert.Equal(t, created.ID, listed[0].ID)

	second := createTodo(t, alice, "walk dog")
	rr = doJSON(t, alice, "GET", "/api/todos", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, created.ID, listed[0].ID, "list must be in creation order")
	assert.Equal(t, second.ID, listed[1].ID)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")

	rr := doJSON(t, alice, "POST", "/api/todos", map[string]any{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, alice, "POST", "/api/todos", map[string]any{"title": "ok", "priority": 9})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest("POST", "/api/todos", bytes.NewBufferString("{not json"))
	out := httptest.NewRecorder()
	alice.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestOwnerIsolation(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")
	bob := e.router("user-bob")

	item := createTodo(t, alice, "alice's secret")

	rr := doJSON(t, bob, "GET", "/api/todos", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String(), "bob must not see alice's items")

	path := "/api/todos/" + item.ID
	assert.Equal(t, http.StatusNotFound, doJSON(t, bob, "GET", path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, bob, "PUT", path, map[string]any{"title": "hijack"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, bob, "PATCH", path, map[string]any{"completed": true}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, bob, "DELETE", path, nil).Code)

	// Alice's item is untouched.
	rr = doJSON(t, alice, "GET", path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Todo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "alice's secret", got.Title)
	assert.False(t, got.Completed)
}

func TestGetNotFound(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")

	assert.Equal(t, http.StatusNotFound, doJSON(t, alice, "GET", "/api/todos/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, alice, "GET", "/api/todos/"+uuid.NewString(), nil).Code)
}

func TestReplaceAndPatch(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")
	item := createTodo(t, alice, "draft")

	rr := doJSON(t, alice, "PUT", "/api/todos/"+item.ID, map[string]any{
		"title": "final", "description": "rewritten", "priority": 1, "completed": true,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var replaced models.Todo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &replaced))
	assert.Equal(t, "final", replaced.Title)
	assert.Equal(t, 1, replaced.Priority)
	assert.True(t, replaced.Completed)

	rr = doJSON(t, alice, "PATCH", "/api/todos/"+item.ID, map[string]any{"priority": 5})
	require.Equal(t, http.StatusOK, rr.Code)
	var patched models.Todo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &patched))
	assert.Equal(t, 5, patched.Priority)
	assert.Equal(t, "final", patched.Title, "patch must not clear unset fields")
	assert.True(t, patched.Completed)

	rr = doJSON(t, alice, "PATCH", "/api/todos/"+item.ID, map[string]any{"title": " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestToggle(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")
	item := createTodo(t, alice, "flip me")

	rr := doJSON(t, alice, "PATCH", "/api/todos/"+item.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var toggled models.Todo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &toggled))
	assert.True(t, toggled.Completed)

	rr = doJSON(t, alice, "PATCH", "/api/todos/"+item.ID+"/toggle", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &toggled))
	assert.False(t, toggled.Completed)
}

func TestDeleteThenGone(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")
	item := createTodo(t, alice, "short-lived")

	path := "/api/todos/" + item.ID
	assert.Equal(t, http.StatusNoContent, doJSON(t, alice, "DELETE", path, nil).Code)

	assert.Equal(t, http.StatusNotFound, doJSON(t, alice, "GET", path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, alice, "PATCH", path, map[string]any{"completed": true}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, alice, "DELETE", path, nil).Code)
}

func TestStats(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")

	first := createTodo(t, alice, "one")
	createTodo(t, alice, "two")
	createTodo(t, alice, "three")

	rr := doJSON(t, alice, "PATCH", "/api/todos/"+first.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, alice, "GET", "/api/todos/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats models.TodoStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, models.TodoStats{Total: 3, Completed: 1, Pending: 2}, stats)

	// Stats are per user.
	bob := e.router("user-bob")
	rr = doJSON(t, bob, "GET", "/api/todos/stats", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, models.TodoStats{}, stats)
}

func TestAttachmentLifecycle(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")
	item := createTodo(t, alice, "with file")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("remember the milk"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/todos/"+item.ID+"/attachment", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	alice.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, e.files, 1)

	down := doJSON(t, alice, "GET", "/api/todos/"+item.ID+"/attachment", nil)
	require.Equal(t, http.StatusOK, down.Code)
	assert.Equal(t, "remember the milk", down.Body.String())
	assert.Contains(t, down.Header().Get("Content-Disposition"), "notes.txt")

	// Deleting the item cleans up the object too.
	assert.Equal(t, http.StatusNoContent, doJSON(t, alice, "DELETE", "/api/todos/"+item.ID, nil).Code)
	assert.Empty(t, e.files)
}

func TestAttachmentMissing(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")
	item := createTodo(t, alice, "bare")

	rr := doJSON(t, alice, "GET", "/api/todos/"+item.ID+"/attachment", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestActivityFeed(t *testing.T) {
	e := newEnv()
	alice := e.router("user-alice")

	item := createTodo(t, alice, "track me")
	rr := doJSON(t, alice, "PATCH", "/api/todos/"+item.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, alice, "GET", "/api/activity", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var events []models.Activity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, models.ActionTodoCompleted, events[0].Action, "newest first")
	assert.Equal(t, models.ActionTodoCreated, events[1].Action)

	// Bob's feed is empty.
	bob := e.router("user-bob")
	rr = doJSON(t, bob, "GET", "/api/activity", nil)
	assert.JSONEq(t, "[]", rr.Body.String())
}
