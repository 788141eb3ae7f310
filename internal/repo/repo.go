// Package repo persists user accounts and their saved calculator setups in
// Postgres (lib/pq) or SQLite (modernc.org/sqlite).
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Setup is a named calculator form saved by a user. Form holds the request
// body exactly as the calculator endpoint accepts it.
type Setup struct {
	ID        int64           `json:"id"`
	UserID    int             `json:"-"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Form      json.RawMessage `json:"form"`
	CreatedAt time.Time       `json:"created_at"`
}

type Repository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	// GetByLogin returns the user id and password hash, or ErrNotFound.
	GetByLogin(ctx context.Context, login string) (int, string, error)

	CreateSetup(ctx context.Context, s Setup) (int64, error)
	ListSetups(ctx context.Context, userID int) ([]Setup, error)
	GetSetup(ctx context.Context, userID int, id int64) (Setup, error)
	DeleteSetup(ctx context.Context, userID int, id int64) error
}
