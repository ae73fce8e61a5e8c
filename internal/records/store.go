// Package records persists settlement records.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/settlement-form/backend/internal/models"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("settlement not found")

// Store is the durable record store for settlements.
//
// Writes are two-phase: Create assigns the id and persists the record with
// its initial (empty) file list, and UpdateFiles later replaces that list.
type Store interface {
	// Create persists a new record. ID and CreatedAt are populated by the store.
	Create(ctx context.Context, s *models.Settlement) error

	// UpdateFiles replaces the external file ids of an existing record.
	UpdateFiles(ctx context.Context, id string, files []string) error

	// Get retrieves a record by id.
	Get(ctx context.Context, id string) (*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}

// formColumns lists the form columns in models.Form.Fields order.
var formColumns = []string{
	"email", "name", "adv_setl_date", "area", "place_prog",
	"project", "prj_code", "coversheet", "date_prog", "prog_title",
	"summary", "food", "travel", "stationery", "printing",
	"accom", "communication", "resource", "other", "total",
	"inword", "vendor", "individual", "total_adv_take", "receivable",
}

// Open picks a backend from the URI scheme:
// postgres:// and postgresql:// use pgx, sqlite:// or a bare path use SQLite.
func Open(ctx context.Context, uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return NewPostgres(ctx, uri)
	case strings.HasPrefix(uri, "sqlite://"):
		return NewSQLite(strings.TrimPrefix(uri, "sqlite://"))
	case strings.Contains(uri, "://"):
		return nil, fmt.Errorf("unsupported records uri scheme: %s", uri[:strings.Index(uri, "://")])
	case uri == "":
		return nil, errors.New("records uri is empty")
	default:
		return NewSQLite(uri)
	}
}

func formArgs(f *models.Form) []any {
	fields := f.Fields()
	args := make([]any, len(fields))
	for i, p := range fields {
		args[i] = *p
	}
	return args
}

func formDest(f *models.Form) []any {
	fields := f.Fields()
	dest := make([]any, len(fields))
	for i, p := range fields {
		dest[i] = p
	}
	return dest
}

func placeholders(n, start int, style func(int) string) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = style(start + i)
	}
	return strings.Join(ph, ", ")
}
