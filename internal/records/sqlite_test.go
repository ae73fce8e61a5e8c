package records

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlement-form/backend/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "settlements.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleForm() models.Form {
	return models.Form{
		Email:      "a@b.com",
		Name:       "A",
		Project:    "Proj1",
		PrjCode:    "P-001",
		Food:       "40",
		Travel:     "60",
		Total:      "100",
		InWord:     "One hundred",
		Vendor:     "Acme",
		Summary:    "Field visit, day 1",
		Receivable: "0",
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Create assigns id, timestamp and empty files", func(t *testing.T) {
		rec := models.NewSettlement(sampleForm())
		require.NoError(t, store.Create(ctx, rec))

		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.Equal(t, []string{}, rec.Files)
	})

	t.Run("Get round-trips every form field", func(t *testing.T) {
		rec := models.NewSettlement(sampleForm())
		require.NoError(t, store.Create(ctx, rec))

		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)

		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.Form, got.Form)
		assert.Equal(t, []string{}, got.Files)
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("UpdateFiles preserves order", func(t *testing.T) {
		rec := models.NewSettlement(sampleForm())
		require.NoError(t, store.Create(ctx, rec))

		ids := []string{"file-c", "file-a", "file-b"}
		require.NoError(t, store.UpdateFiles(ctx, rec.ID, ids))

		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, ids, got.Files)
		assert.Equal(t, rec.Form, got.Form, "form fields untouched by file update")
	})

	t.Run("UpdateFiles on unknown id", func(t *testing.T) {
		err := store.UpdateFiles(ctx, "missing", []string{"x"})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Get on unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlements.db")
	ctx := context.Background()

	store, err := NewSQLite(path)
	require.NoError(t, err)
	rec := models.NewSettlement(sampleForm())
	require.NoError(t, store.Create(ctx, rec))
	require.NoError(t, store.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Proj1", got.Project)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite scheme", func(t *testing.T) {
		s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "a.db"))
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("bare path", func(t *testing.T) {
		s, err := Open(ctx, filepath.Join(t.TempDir(), "b.db"))
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := Open(ctx, "mongodb://localhost:27017/settlements")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mongodb")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Open(ctx, "")
		assert.Error(t, err)
	})
}
