package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/settlement-form/backend/internal/models"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite. File ids are kept as a JSON array.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dbPath and ensures the schema.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: request inserts and background file updates share it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func sqliteSchema() string {
	cols := make([]string, len(formColumns))
	for i, c := range formColumns {
		cols[i] = c + " TEXT NOT NULL DEFAULT ''"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		%s,
		files TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	)`, strings.Join(cols, ",\n\t\t"))
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a new settlement row.
func (s *SQLiteStore) Create(ctx context.Context, rec *models.Settlement) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Files == nil {
		rec.Files = []string{}
	}

	files, err := json.Marshal(rec.Files)
	if err != nil {
		return fmt.Errorf("failed to encode files: %w", err)
	}

	query := fmt.Sprintf(
		"INSERT INTO settlements (id, %s, files, created_at) VALUES (?, %s, ?, ?)",
		strings.Join(formColumns, ", "),
		placeholders(len(formColumns), 0, func(int) string { return "?" }),
	)

	args := append([]any{rec.ID}, formArgs(&rec.Form)...)
	args = append(args, string(files), rec.CreatedAt.UnixNano())

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// UpdateFiles replaces the file id list of an existing settlement.
func (s *SQLiteStore) UpdateFiles(ctx context.Context, id string, files []string) error {
	if files == nil {
		files = []string{}
	}
	encoded, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to encode files: %w", err)
	}

	res, err := s.db.ExecContext(ctx, "UPDATE settlements SET files = ? WHERE id = ?", string(encoded), id)
	if err != nil {
		return fmt.Errorf("failed to update settlement files: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update settlement files: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get retrieves a settlement by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Settlement, error) {
	query := fmt.Sprintf(
		"SELECT id, %s, files, created_at FROM settlements WHERE id = ?",
		strings.Join(formColumns, ", "),
	)

	rec := &models.Settlement{}
	var files string
	var createdAt int64

	dest := append([]any{&rec.ID}, formDest(&rec.Form)...)
	dest = append(dest, &files, &createdAt)

	err := s.db.QueryRowContext(ctx, query, id).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	if err := json.Unmarshal([]byte(files), &rec.Files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	if rec.Files == nil {
		rec.Files = []string{}
	}
	rec.CreatedAt = time.Unix(0, createdAt).UTC()

	return rec, nil
}
