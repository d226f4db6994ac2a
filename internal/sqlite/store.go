package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Metadata describes the storage file as observed at process start. The
// file's modification time is the pipeline's staleness marker.
type Metadata struct {
	Exists   bool
	LastEdit time.Time
}

// Probe stats the storage file. A missing file is not an error; it is
// reported as Exists=false and routes the pipeline to a fresh build. Any
// other stat failure is returned as-is and must abort startup.
func Probe(path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, nil
		}
		return Metadata{}, fmt.Errorf("probing storage %s: %w", path, err)
	}
	return Metadata{Exists: true, LastEdit: info.ModTime()}, nil
}

// Store owns the SQLite handle. All writes run in transactions; reads are
// plain parameterized SELECTs.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open opens (creating if needed) the SQLite database at path with
// foreign-key enforcement on. SQLite ships with foreign keys off and the
// pragma is per-connection, so the pool is capped at a single connection.
func Open(path string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}

	return &Store{db: db, path: path, log: log}, nil
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.path
}

// Init creates the schema if absent, dimensions before the fact table.
func (s *Store) Init() error {
	for _, stmt := range createStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
