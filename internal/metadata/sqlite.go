package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS image_metadata (
	path        TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLite stores metadata in a single table of a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metadata schema: %w", err)
	}

	slog.Debug("Opened metadata database", "path", path)
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, path string) (*imagetext.Metadata, error) {
	var meta imagetext.Metadata
	err := s.db.QueryRowContext(ctx,
		`SELECT title, description FROM image_metadata WHERE path = ?`, path,
	).Scan(&meta.Title, &meta.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata for %s: %w", path, err)
	}
	return &meta, nil
}

func (s *SQLite) Set(ctx context.Context, path string, meta imagetext.Metadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO image_metadata (path, title, description, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP`,
		path, meta.Title, meta.Description)
	if err != nil {
		return fmt.Errorf("failed to store metadata for %s: %w", path, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
