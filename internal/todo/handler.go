package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/middleware"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/models"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/store"
)

// maxAttachmentSize caps uploads at 10 MiB.
const maxAttachmentSize = 10 << 20

// activityFeedLimit is how many recent events the feed returns.
const activityFeedLimit = 20

// TodoStore defines the interface for todo persistence. Every method is
// scoped by the owning user, which is what keeps users out of each other's
// items.
type TodoStore interface {
	CreateTodo(ctx context.Context, t *models.Todo) (*models.Todo, error)
	ListTodos(ctx context.Context, userID string) ([]models.Todo, error)
	GetTodo(ctx context.Context, userID, id string) (*models.Todo, error)
	UpdateTodo(ctx context.Context, t *models.Todo) (*models.Todo, error)
	SetAttachment(ctx context.Context, userID, id, key, name string) error
	DeleteTodo(ctx context.Context, userID, id string) error
	TodoStats(ctx context.Context, userID string) (*models.TodoStats, error)
}

// ActivityLog records and lists activity feed events.
type ActivityLog interface {
	Record(ctx context.Context, a *models.Activity) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error)
}

// FileStore defines the interface for attachment storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds the todo HTTP handlers.
type Handler struct {
	todos    TodoStore
	files    FileStore
	activity ActivityLog
}

func NewHandler(todos TodoStore, files FileStore, activity ActivityLog) *Handler {
	return &Handler{todos: todos, files: files, activity: activity}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// todoID validates the {id} URL parameter. A malformed ID can't match any
// item, so it reports not-found rather than a parse error.
func todoID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", store.ErrNotFound
	}
	return id, nil
}

// Create adds a new item for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req models.TodoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.todos.CreateTodo(r.Context(), &models.Todo{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Completed:   req.Completed,
	})
	if err != nil {
		log.Printf("create todo error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save todo")
		return
	}

	h.record(r.Context(), userID, models.ActionTodoCreated, created.ID, created.Title)
	writeJSON(w, http.StatusCreated, created)
}

// List returns all of the user's items in creation order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.ListTodos(r.Context(), middleware.UserID(r))
	if err != nil {
		log.Printf("list todos error: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

// Get returns a single item, 404 when absent or owned by someone else.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}

	t, err := h.todos.GetTodo(r.Context(), middleware.UserID(r), id)
	if err != nil {
		h.notFoundOr500(w, err, "get todo")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Replace overwrites every mutable field of an item.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := todoID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}

	var req models.TodoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.todos.UpdateTodo(r.Context(), &models.Todo{
		ID:          id,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Completed:   req.Completed,
	})
	if err != nil {
		h.notFoundOr500(w, err, "replace todo")
		return
	}

	h.record(r.Context(), userID, models.ActionTodoUpdated, updated.ID, updated.Title)
	writeJSON(w, http.StatusOK, updated)
}

// Update applies a partial patch to an item.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := todoID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}

	var req models.TodoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.todos.GetTodo(r.Context(), userID, id)
	if err != nil {
		h.notFoundOr500(w, err, "patch todo")
		return
	}

	req.Apply(current)
	updated, err := h.todos.UpdateTodo(r.Context(), current)
	if err != nil {
		h.notFoundOr500(w, err, "patch todo")
		return
	}

	h.record(r.Context(), userID, models.ActionTodoUpdated, updated.ID, updated.Title)
	writeJSON(w, http.StatusOK, updated)
}

// Toggle flips the completed flag.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := todoID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}

	current, err := h.todos.GetTodo(r.Context(), userID, id)
	if err != nil {
		h.notFoundOr500(w, err, "toggle todo")
		return
	}

	current.Completed = !current.Completed
	updated, err := h.todos.UpdateTodo(r.Context(), current)
	if err != nil {
		h.notFoundOr500(w, err, "toggle todo")
		return
	}

	action := models.ActionTodoCompleted
	if !updated.Completed {
		action = models.ActionTodoReopened
	}
	h.record(r.Context(), userID, action, updated.ID, updated.Title)
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes an item and its attachment.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := todoID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}

	t, err := h.todos.GetTodo(r.Context(), userID, id)
	if err != nil {
		h.notFoundOr500(w, err, "delete todo")
		return
	}

	if err := h.todos.DeleteTodo(r.Context(), userID, id); err != nil {
		h.notFoundOr500(w, err, "delete todo")
		return
	}

	if t.AttachmentKey != "" {
		if err := h.files.Remove(r.Context(), t.AttachmentKey); err != nil {
			log.Printf("attachment cleanup error (non-fatal): %v", err)
		}
	}

	h.record(r.Context(), userID, models.ActionTodoDeleted, t.ID, t.Title)
	w.WriteHeader(http.StatusNoContent)
}

// Stats returns {total, completed, pending} for the current user.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.todos.TodoStats(r.Context(), middleware.UserID(r))
	if err != nil {
		log.Printf("todo stats error: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UploadAttachment attaches one file to an item, replacing any previous one.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := todoID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}

	t, err := h.todos.GetTodo(r.Context(), userID, id)
	if err != nil {
		h.notFoundOr500(w, err, "upload attachment")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	key := fmt.Sprintf("%s/%s/%s", userID, id, header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.files.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("attachment upload error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	if err := h.todos.SetAttachment(r.Context(), userID, id, key, header.Filename); err != nil {
		h.notFoundOr500(w, err, "upload attachment")
		return
	}

	// A replaced attachment leaves its old object behind; clean it up.
	if t.AttachmentKey != "" && t.AttachmentKey != key {
		if err := h.files.Remove(r.Context(), t.AttachmentKey); err != nil {
			log.Printf("attachment cleanup error (non-fatal): %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"attachment_name": header.Filename})
}

// DownloadAttachment streams an item's attachment.
func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := todoID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}

	t, err := h.todos.GetTodo(r.Context(), userID, id)
	if err != nil {
		h.notFoundOr500(w, err, "download attachment")
		return
	}
	if t.AttachmentKey == "" {
		writeError(w, http.StatusNotFound, "no attachment")
		return
	}

	data, contentType, err := h.files.Download(r.Context(), t.AttachmentKey)
	if err != nil {
		log.Printf("attachment download error: %v", err)
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.AttachmentName))
	w.Write(data)
}

// Activity returns the user's recent activity feed.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	events, err := h.activity.ListByUser(r.Context(), middleware.UserID(r), activityFeedLimit)
	if err != nil {
		log.Printf("activity list error: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if events == nil {
		events = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) notFoundOr500(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	log.Printf("%s error: %v", op, err)
	writeError(w, http.StatusInternalServerError, "database error")
}

func (h *Handler) record(ctx context.Context, userID, action, todoID, title string) {
	err := h.activity.Record(ctx, &models.Activity{
		UserID: userID,
		Action: action,
		TodoID: todoID,
		Title:  title,
	})
	if err != nil {
		log.Printf("record activity error: %v", err)
	}
}
