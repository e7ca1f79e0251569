package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no row matches the id.
var ErrNotFound = errors.New("user not found")

// User is one row of the users table.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	selectUser  = `SELECT id, name, email, created_at FROM users WHERE id = ?`
	selectUsers = `SELECT id, name, email, created_at FROM users ORDER BY id LIMIT ? OFFSET ?`
	insertUser  = `INSERT INTO users (name, email) VALUES (?, ?)`
	updateUser  = `UPDATE users SET name = ?, email = ? WHERE id = ?`
	deleteUser  = `DELETE FROM users WHERE id = ?`

	createTable = `CREATE TABLE IF NOT EXISTS users (
	id         BIGINT AUTO_INCREMENT PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	email      VARCHAR(255) NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
)

// Store is a thin sqlx wrapper.  It holds no state beyond the pool, so
// endpoints build one per request.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

func (s *Store) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.db.GetContext(ctx, &u, selectUser, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: get %d: %w", id, err)
	}
	return &u, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]User, error) {
	out := []User{}
	if err := s.db.SelectContext(ctx, &out, selectUsers, limit, offset); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return out, nil
}

// Create inserts a row and reads it back so CreatedAt is populated.
func (s *Store) Create(ctx context.Context, name, email string) (*User, error) {
	res, err := s.db.ExecContext(ctx, insertUser, name, email)
	if err != nil {
		return nil, fmt.Errorf("users: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("users: insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Update overwrites name and email.  MySQL reports zero affected rows for
// a no-op update, so existence is checked by reading the row back.
func (s *Store) Update(ctx context.Context, id int64, name, email string) (*User, error) {
	if _, err := s.db.ExecContext(ctx, updateUser, name, email, id); err != nil {
		return nil, fmt.Errorf("users: update %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return fmt.Errorf("users: delete %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("users: delete %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
