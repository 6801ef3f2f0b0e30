package web

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/auth"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/middleware"
	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// recentItems is how many todos the dashboard previews.
const recentItems = 5

// TodoReader is the read-only slice of the todo store the dashboard needs.
type TodoReader interface {
	ListTodos(ctx context.Context, userID string) ([]models.Todo, error)
	TodoStats(ctx context.Context, userID string) (*models.TodoStats, error)
}

// ActivityReader lists recent activity events.
type ActivityReader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error)
}

// Handler serves the server-rendered dashboard pages.
type Handler struct {
	svc      *auth.Service
	sessions middleware.SessionStore
	todos    TodoReader
	activity ActivityReader
}

func NewHandler(svc *auth.Service, sessions middleware.SessionStore, todos TodoReader, activity ActivityReader) *Handler {
	return &Handler{svc: svc, sessions: sessions, todos: todos, activity: activity}
}

func (h *Handler) render(w http.ResponseWriter, view string, data any) {
	tmpl, err := template.ParseFS(templatesFS, "templates/base.html", "templates/"+view)
	if err != nil {
		log.Printf("template parse error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("template execute error: %v", err)
	}
}

// currentUser resolves the session cookie to a user ID, or "" when logged out.
func (h *Handler) currentUser(r *http.Request) string {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	userID, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return ""
	}
	return userID
}

// RequireUser redirects to /login when there is no live session, unlike the
// API middleware which answers 401.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.currentUser(r)
		if userID == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, middleware.WithUserID(r, userID))
	})
}

// AuthViewModel holds data for the login and register pages.
type AuthViewModel struct {
	Error string
}

// DashboardViewModel holds everything the dashboard page shows.
type DashboardViewModel struct {
	Username string
	Stats    *models.TodoStats
	Recent   []models.Todo
	Activity []models.Activity
}

// Dashboard renders the metric cards, recent items and activity feed.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	user, err := h.svc.UserByID(r.Context(), userID)
	if err != nil {
		log.Printf("dashboard user lookup error: %v", err)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	stats, err := h.todos.TodoStats(r.Context(), userID)
	if err != nil {
		log.Printf("dashboard stats error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	todos, err := h.todos.ListTodos(r.Context(), userID)
	if err != nil {
		log.Printf("dashboard list error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	// Newest first for the preview; the store lists in creation order.
	recent := make([]models.Todo, 0, recentItems)
	for i := len(todos) - 1; i >= 0 && len(recent) < recentItems; i-- {
		recent = append(recent, todos[i])
	}

	events, err := h.activity.ListByUser(r.Context(), userID, 10)
	if err != nil {
		log.Printf("dashboard activity error: %v", err)
		events = nil
	}

	h.render(w, "dashboard.html", DashboardViewModel{
		Username: user.Username,
		Stats:    stats,
		Recent:   recent,
		Activity: events,
	})
}

// LoginForm renders the login page, skipping straight to the dashboard for
// users who already have a session.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.currentUser(r) != "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, "login.html", AuthViewModel{})
}

// Login handles the login form submission.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.render(w, "login.html", AuthViewModel{Error: "Username and password are required"})
		return
	}

	_, token, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		h.render(w, "login.html", AuthViewModel{Error: "Invalid username or password"})
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RegisterForm renders the registration page.
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.currentUser(r) != "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, "register.html", AuthViewModel{})
}

// Register handles the registration form submission.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "register.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	req := models.RegisterRequest{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if req.Password != r.FormValue("confirm_password") {
		h.render(w, "register.html", AuthViewModel{Error: "Passwords do not match"})
		return
	}
	if err := req.Validate(); err != nil {
		h.render(w, "register.html", AuthViewModel{Error: err.Error()})
		return
	}

	_, token, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		h.render(w, "register.html", AuthViewModel{Error: "Username or email already taken"})
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout ends the session and returns to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
			log.Printf("logout error: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.SessionTTL.Seconds()),
	})
}
