package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS mrvoice (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	title    TEXT NOT NULL,
	artist   TEXT,
	category TEXT,
	info     TEXT,
	filename TEXT,
	time     TEXT
)`

// SQLite reads items from the local song database
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, creating the song table if it
// does not exist
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the song with id. Non-numeric IDs never exist.
func (s *SQLite) Lookup(ctx context.Context, id string) (types.Item, bool, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return types.Item{}, false, nil
	}

	var (
		it                                 types.Item
		rowID                              int64
		artist, category, filename, length sql.NullString
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, title, artist, category, filename, time FROM mrvoice WHERE id = ?`, n,
	).Scan(&rowID, &it.Title, &artist, &category, &filename, &length)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Item{}, false, nil
	}
	if err != nil {
		return types.Item{}, false, fmt.Errorf("lookup song %s: %w", id, err)
	}

	it.ID = strconv.FormatInt(rowID, 10)
	it.Artist = artist.String
	it.Category = category.String
	it.Filename = filename.String
	it.Duration = length.String
	return it, true, nil
}

// Insert adds a song and returns it with its assigned ID
func (s *SQLite) Insert(ctx context.Context, it types.Item) (types.Item, error) {
	if strings.TrimSpace(it.Title) == "" {
		return types.Item{}, fmt.Errorf("%w: title is required", types.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mrvoice (title, artist, category, filename, time) VALUES (?, ?, ?, ?, ?)`,
		it.Title, it.Artist, it.Category, it.Filename, it.Duration)
	if err != nil {
		return types.Item{}, fmt.Errorf("insert song: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Item{}, fmt.Errorf("insert song: %w", err)
	}
	it.ID = strconv.FormatInt(id, 10)
	return it, nil
}

// Delete removes the song with id
func (s *SQLite) Delete(ctx context.Context, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: song id %q", types.ErrValidation, id)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mrvoice WHERE id = ?`, n); err != nil {
		return fmt.Errorf("delete song: %w", err)
	}
	return nil
}

// Count returns the number of songs
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mrvoice`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return n, nil
}
