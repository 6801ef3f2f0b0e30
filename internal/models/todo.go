package models

import (
	"errors"
	"strings"
	"time"
)

// Priority bounds for a todo item. Zero in a create request means DefaultPriority.
const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3

	maxTitleLen       = 100
	maxDescriptionLen = 500
)

// Todo is a single todo item owned by one user.
type Todo struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Priority       int        `json:"priority"`
	Completed      bool       `json:"completed"`
	AttachmentKey  string     `json:"-"`
	AttachmentName string     `json:"attachment_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TodoStats summarizes a user's items.
type TodoStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// TodoCreateRequest is the JSON body for POST /api/todos and PUT /api/todos/{id}.
type TodoCreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    int        `json:"priority"`
	Completed   bool       `json:"completed"`
}

// Validate normalizes the fields and reports the first rule violation.
func (r *TodoCreateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title cannot be empty or just whitespace")
	}
	if len(r.Title) > maxTitleLen {
		return errors.New("title must be at most 100 characters")
	}
	if len(r.Description) > maxDescriptionLen {
		return errors.New("description must be at most 500 characters")
	}
	if r.Priority == 0 {
		r.Priority = DefaultPriority
	}
	if r.Priority < MinPriority || r.Priority > MaxPriority {
		return errors.New("priority must be between 1 and 5")
	}
	return nil
}

// TodoUpdateRequest is the JSON body for PATCH /api/todos/{id}.
// Nil fields are left unchanged.
type TodoUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *int       `json:"priority"`
	Completed   *bool      `json:"completed"`
}

// Validate checks only the fields present in the patch.
func (r *TodoUpdateRequest) Validate() error {
	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
		if *r.Title == "" {
			return errors.New("title cannot be empty or just whitespace")
		}
		if len(*r.Title) > maxTitleLen {
			return errors.New("title must be at most 100 characters")
		}
	}
	if r.Description != nil && len(*r.Description) > maxDescriptionLen {
		return errors.New("description must be at most 500 characters")
	}
	if r.Priority != nil && (*r.Priority < MinPriority || *r.Priority > MaxPriority) {
		return errors.New("priority must be between 1 and 5")
	}
	return nil
}

// Apply copies the set fields onto the item.
func (r *TodoUpdateRequest) Apply(t *Todo) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.DueDate != nil {
		t.DueDate = r.DueDate
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.Completed != nil {
		t.Completed = *r.Completed
	}
}
