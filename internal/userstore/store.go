// Package userstore persists users and chats in SQLite and answers the
// scope-validation queries the knowledge service needs.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_chats_user_id ON chats(user_id);
`

// User is a registered user.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Chat is a conversation owned by a user.
type Chat struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an in-memory store.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// modernc's driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts a user. Inserting an existing ID is a no-op.
func (s *Store) CreateUser(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, id, name)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// CreateChat inserts a chat for a user. The user must exist.
func (s *Store) CreateChat(ctx context.Context, id, userID, title string) error {
	exists, err := s.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, title) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		id, userID, title)
	if err != nil {
		return fmt.Errorf("creating chat: %w", err)
	}
	return nil
}

// UserExists reports whether a user with the given ID exists.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying user: %w", err)
	}
	return true, nil
}

// ChatExists reports whether the chat exists and belongs to the user.
func (s *Store) ChatExists(ctx context.Context, chatID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM chats WHERE id = ? AND user_id = ?`, chatID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying chat: %w", err)
	}
	return true, nil
}

// GetChat returns a chat by ID.
func (s *Store) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	var c Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at FROM chats WHERE id = ?`, chatID).
		Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %q: %w", chatID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}
	return &c, nil
}
