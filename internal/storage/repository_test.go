package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ports"
	"ledger/internal/storage/storetest"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Collections {
		return newRepo(t)
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	c, err := repo.Collection(core.Income)
	require.NoError(t, err)
	rec, err := c.Create(context.Background(), "u", "c")
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer reopened.Close()
	c, err = reopened.Collection(core.Income)
	require.NoError(t, err)
	got, err := c.Get(context.Background(), rec.ID, "u")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestListTiesBrokenByInsertionOrder(t *testing.T) {
	repo := newRepo(t)
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.collections[core.Expense].clock.now = func() time.Time { return frozen }

	c, err := repo.Collection(core.Expense)
	require.NoError(t, err)
	ctx := context.Background()
	first, err := c.Create(ctx, "u", "a")
	require.NoError(t, err)
	second, err := c.Create(ctx, "u", "b")
	require.NoError(t, err)

	list, err := c.List(ctx, "u", ports.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestStoreErrorOnClosedDatabase(t *testing.T) {
	repo := newRepo(t)
	c, err := repo.Collection(core.Income)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = c.List(context.Background(), "u", ports.ListOptions{})
	assert.ErrorIs(t, err, core.ErrStore)

	_, err = c.Create(context.Background(), "u", "c")
	assert.ErrorIs(t, err, core.ErrStore)
}
