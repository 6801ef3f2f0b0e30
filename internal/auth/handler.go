package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/middleware"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/models"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/store"
)

// ActivityRecorder appends events to the activity feed. Recording failures
// are logged and never fail the request.
type ActivityRecorder interface {
	Record(ctx context.Context, a *models.Activity) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc      *Service
	activity ActivityRecorder
}

func NewHandler(svc *Service, activity ActivityRecorder) *Handler {
	return &Handler{svc: svc, activity: activity}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Register creates a new user and opens a session for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.svc.Register(r.Context(), &req)
	if errors.Is(err, store.ErrDuplicateUser) {
		writeError(w, http.StatusConflict, "username or email already taken")
		return
	}
	if err != nil {
		log.Printf("register error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.record(r.Context(), user.ID, models.ActionRegistered, "", "")

	setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

// Login authenticates a user and returns a fresh session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		log.Printf("login error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.record(r.Context(), user.ID, models.ActionLoggedIn, "", "")

	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// Logout invalidates the current session token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if err := h.svc.Logout(r.Context(), token); err != nil {
			log.Printf("logout error: %v", err)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.UserByID(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
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
