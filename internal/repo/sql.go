package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	postgres dialect = iota
	sqlite
)

// SQLRepository implements Repository over database/sql. Queries are written
// with ? placeholders and rebound for Postgres.
type SQLRepository struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to url and creates the schema. "sqlite:<path>" (or a path
// ending in .db) selects SQLite; anything else is a Postgres URL or DSN.
func Open(ctx context.Context, url string) (*SQLRepository, error) {
	if path, ok := sqlitePath(url); ok {
		return openSQLite(ctx, path)
	}
	return openPostgres(ctx, url)
}

func sqlitePath(url string) (string, bool) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://"), true
	case strings.HasPrefix(url, "sqlite:"):
		return strings.TrimPrefix(url, "sqlite:"), true
	case strings.HasSuffix(url, ".db"):
		return url, true
	}
	return "", false
}

func openSQLite(ctx context.Context, path string) (*SQLRepository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	r := &SQLRepository{db: db, dialect: sqlite}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func openPostgres(ctx context.Context, connStr string) (*SQLRepository, error) {
	if !strings.Contains(connStr, "sslmode=") {
		switch {
		case strings.HasPrefix(connStr, "postgres://"), strings.HasPrefix(connStr, "postgresql://"):
			sep := "?"
			if strings.Contains(connStr, "?") {
				sep = "&"
			}
			connStr += sep + "sslmode=require"
		default:
			connStr += " sslmode=require"
		}
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres not responding: %w", err)
	}
	r := &SQLRepository{db: db, dialect: postgres}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLRepository) Close() error { return r.db.Close() }

// Ping checks the connection, for health checks.
func (r *SQLRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

var schema = map[dialect]string{
	postgres: `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		login TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		created_at BIGINT NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS setups (
		id BIGSERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		form TEXT NOT NULL,
		created_at BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_setups_user ON setups(user_id);`,
	sqlite: `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		login TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS setups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		form TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_setups_user ON setups(user_id);`,
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema[r.dialect]); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// rebind turns ? placeholders into $1, $2, ... for Postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := r.rebind("INSERT INTO users (login, email, password, created_at) VALUES (?, ?, ?, ?) RETURNING id")
	err := r.db.QueryRowContext(ctx, query, login, email, password, time.Now().Unix()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user %q: %w", login, ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (r *SQLRepository) GetByLogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string
	query := r.rebind("SELECT id, password FROM users WHERE login=?")
	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *SQLRepository) CreateSetup(ctx context.Context, s Setup) (int64, error) {
	var id int64
	query := r.rebind("INSERT INTO setups (user_id, name, kind, form, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id")
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, s.UserID, s.Name, s.Kind, string(s.Form), created.Unix()).Scan(&id)
	return id, err
}

func (r *SQLRepository) ListSetups(ctx context.Context, userID int) ([]Setup, error) {
	query := r.rebind("SELECT id, user_id, name, kind, form, created_at FROM setups WHERE user_id=? ORDER BY id DESC")
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Setup{}
	for rows.Next() {
		s, err := scanSetup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLRepository) GetSetup(ctx context.Context, userID int, id int64) (Setup, error) {
	query := r.rebind("SELECT id, user_id, name, kind, form, created_at FROM setups WHERE id=? AND user_id=?")
	s, err := scanSetup(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Setup{}, ErrNotFound
	}
	return s, err
}

func (r *SQLRepository) DeleteSetup(ctx context.Context, userID int, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM setups WHERE id=? AND user_id=?"), id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSetup(row scanner) (Setup, error) {
	var (
		s       Setup
		form    string
		created int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Kind, &form, &created); err != nil {
		return Setup{}, err
	}
	s.Form = []byte(form)
	s.CreatedAt = time.Unix(created, 0).UTC()
	return s, nil
}
