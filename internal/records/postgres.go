package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/settlement-form/backend/internal/models"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store on a pgx connection pool. File ids live in a text[] column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database, verifies it with a ping and ensures the schema.
func NewPostgres(ctx context.Context, uri string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("parse records uri: %w", err)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func postgresSchema() string {
	cols := make([]string, len(formColumns))
	for i, c := range formColumns {
		cols[i] = c + " TEXT NOT NULL DEFAULT ''"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS settlements (
		id UUID PRIMARY KEY,
		%s,
		files TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, strings.Join(cols, ",\n\t\t"))
}

func dollar(i int) string { return "$" + strconv.Itoa(i) }

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Create inserts a new settlement row.
func (s *PostgresStore) Create(ctx context.Context, rec *models.Settlement) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Files == nil {
		rec.Files = []string{}
	}

	n := len(formColumns)
	query := fmt.Sprintf(
		"INSERT INTO settlements (id, %s, files, created_at) VALUES ($1, %s, %s, %s)",
		strings.Join(formColumns, ", "),
		placeholders(n, 2, dollar),
		dollar(n+2), dollar(n+3),
	)

	args := append([]any{rec.ID}, formArgs(&rec.Form)...)
	args = append(args, rec.Files, rec.CreatedAt)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// UpdateFiles replaces the file id list of an existing settlement.
func (s *PostgresStore) UpdateFiles(ctx context.Context, id string, files []string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if files == nil {
		files = []string{}
	}
	tag, err := s.pool.Exec(ctx, "UPDATE settlements SET files = $1 WHERE id = $2", files, id)
	if err != nil {
		return fmt.Errorf("update settlement files: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get retrieves a settlement by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Settlement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	query := fmt.Sprintf(
		"SELECT id::text, %s, files, created_at FROM settlements WHERE id = $1",
		strings.Join(formColumns, ", "),
	)

	rec := &models.Settlement{}
	dest := append([]any{&rec.ID}, formDest(&rec.Form)...)
	dest = append(dest, &rec.Files, &rec.CreatedAt)

	if err := s.pool.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	if rec.Files == nil {
		rec.Files = []string{}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	return rec, nil
}
