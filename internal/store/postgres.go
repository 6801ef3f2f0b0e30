package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/models"
)

// Sentinel errors mapped to HTTP status codes by the handlers.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateUser = errors.New("user already exists")
)

// PostgresStore handles user and todo persistence in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and todos tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username      VARCHAR(50)  UNIQUE NOT NULL,
			email         VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at    TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS todos (
			id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id         UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title           VARCHAR(100) NOT NULL,
			description     VARCHAR(500) NOT NULL DEFAULT '',
			due_date        TIMESTAMPTZ,
			priority        INT NOT NULL DEFAULT 3,
			completed       BOOLEAN NOT NULL DEFAULT FALSE,
			attachment_key  TEXT NOT NULL DEFAULT '',
			attachment_name TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, created_at`,
		username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const todoColumns = `id, user_id, title, description, due_date, priority, completed,
	attachment_key, attachment_name, created_at, updated_at`

func scanTodo(row pgx.Row) (*models.Todo, error) {
	var t models.Todo
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate,
		&t.Priority, &t.Completed, &t.AttachmentKey, &t.AttachmentName,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTodo(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO todos (user_id, title, description, due_date, priority, completed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+todoColumns,
		t.UserID, t.Title, t.Description, t.DueDate, t.Priority, t.Completed,
	)
	created, err := scanTodo(row)
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return created, nil
}

// ListTodos returns all of a user's items in creation order.
func (s *PostgresStore) ListTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate,
			&t.Priority, &t.Completed, &t.AttachmentKey, &t.AttachmentName,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// GetTodo returns the item only if it belongs to userID.
func (s *PostgresStore) GetTodo(ctx context.Context, userID, id string) (*models.Todo, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return scanTodo(row)
}

// UpdateTodo writes the mutable fields back, scoped to the owner.
func (s *PostgresStore) UpdateTodo(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE todos
		 SET title = $3, description = $4, due_date = $5, priority = $6,
		     completed = $7, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+todoColumns,
		t.ID, t.UserID, t.Title, t.Description, t.DueDate, t.Priority, t.Completed,
	)
	return scanTodo(row)
}

// SetAttachment records the object key and original filename for an item.
func (s *PostgresStore) SetAttachment(ctx context.Context, userID, id, key, name string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE todos SET attachment_key = $3, attachment_name = $4, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		id, userID, key, name,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTodo(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TodoStats counts a user's items in a single scan.
func (s *PostgresStore) TodoStats(ctx context.Context, userID string) (*models.TodoStats, error) {
	var st models.TodoStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
		 FROM todos WHERE user_id = $1`,
		userID,
	).Scan(&st.Total, &st.Completed)
	if err != nil {
		return nil, err
	}
	st.Pending = st.Total - st.Completed
	return &st, nil
}
