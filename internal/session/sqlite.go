package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// SQLiteStore implements Store on a SQLite database, for deployments where
// sessions are shared through a database file rather than per-session
// manifests. SQLite provides read-after-write visibility, so Sync is a
// no-op.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode lets concurrent prepare/summarize requests read while a
	// writer commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStore opens (and migrates) the session database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id, root string) error {
	query := `INSERT INTO sessions (id, root, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, root, time.Now()); err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (string, error) {
	query := `SELECT root FROM sessions WHERE id = ?`
	var root string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&root)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", types.ErrUnknownSession, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session record: %w", err)
	}
	return root, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Sync(ctx context.Context) error { return nil }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
