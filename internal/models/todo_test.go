package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoCreateRequestValidate(t *testing.T) {
	t.Run("trims title and applies default priority", func(t *testing.T) {
		req := TodoCreateRequest{Title: "  buy milk  "}
		require.NoError(t, req.Validate())
		assert.Equal(t, "buy milk", req.Title)
		assert.Equal(t, DefaultPriority, req.Priority)
	})

	t.Run("rejects whitespace-only title", func(t *testing.T) {
		req := TodoCreateRequest{Title: "   "}
		assert.Error(t, req.Validate())
	})

	t.Run("rejects overly long title", func(t *testing.T) {
		req := TodoCreateRequest{Title: strings.Repeat("x", 101)}
		assert.Error(t, req.Validate())
	})

	t.Run("rejects overly long description", func(t *testing.T) {
		req := TodoCreateRequest{Title: "ok", Description: strings.Repeat("x", 501)}
		assert.Error(t, req.Validate())
	})

	t.Run("rejects out-of-range priority", func(t *testing.T) {
		for _, p := range []int{-1, 6, 100} {
			req := TodoCreateRequest{Title: "ok", Priority: p}
			assert.Error(t, req.Validate(), "priority %d should be rejected", p)
		}
	})

	t.Run("accepts priority bounds", func(t *testing.T) {
		for _, p := range []int{MinPriority, MaxPriority} {
			req := TodoCreateRequest{Title: "ok", Priority: p}
			assert.NoError(t, req.Validate())
		}
	})
}

func TestTodoUpdateRequestValidate(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }

	t.Run("empty patch is valid", func(t *testing.T) {
		req := TodoUpdateRequest{}
		assert.NoError(t, req.Validate())
	})

	t.Run("rejects empty title when set", func(t *testing.T) {
		req := TodoUpdateRequest{Title: strPtr("  ")}
		assert.Error(t, req.Validate())
	})

	t.Run("rejects bad priority when set", func(t *testing.T) {
		req := TodoUpdateRequest{Priority: intPtr(0)}
		assert.Error(t, req.Validate())
	})
}

func TestTodoUpdateRequestApply(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	boolPtr := func(b bool) *bool { return &b }

	todo := Todo{Title: "old", Description: "desc", Priority: 2}
	req := TodoUpdateRequest{Title: strPtr("new"), Completed: boolPtr(true)}
	req.Apply(&todo)

	assert.Equal(t, "new", todo.Title)
	assert.Equal(t, "desc", todo.Description, "unset fields stay unchanged")
	assert.Equal(t, 2, todo.Priority)
	assert.True(t, todo.Completed)
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := func() RegisterRequest {
		return RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"}
	}

	t.Run("accepts valid input", func(t *testing.T) {
		req := valid()
		assert.NoError(t, req.Validate())
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		req := valid()
		req.Password = ""
		assert.Error(t, req.Validate())
	})

	t.Run("rejects short username", func(t *testing.T) {
		req := valid()
		req.Username = "ab"
		assert.Error(t, req.Validate())
	})

	t.Run("rejects short password", func(t *testing.T) {
		req := valid()
		req.Password = "12345"
		assert.Error(t, req.Validate())
	})

	t.Run("rejects bad email", func(t *testing.T) {
		req := valid()
		req.Email = "not-an-email"
		assert.Error(t, req.Validate())
	})
}
