// Package storetest holds the behaviour every ports.Collections
// implementation must share.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ports"
)

// Run exercises a fresh Collections returned by factory for each subtest.
func Run(t *testing.T, factory func(t *testing.T) ports.Collections) {
	t.Helper()
	tests := map[string]func(t *testing.T, c ports.Collections){
		"CreateAndGet":           testCreateAndGet,
		"ListNewestFirst":        testListNewestFirst,
		"ListLimit":              testListLimit,
		"OwnerIsolation":         testOwnerIsolation,
		"UpdateReplaces":         testUpdateReplaces,
		"DeleteTwice":            testDeleteTwice,
		"CollectionsAreSeparate": testCollectionsAreSeparate,
		"UnknownKind":            testUnknownKind,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func collection(t *testing.T, c ports.Collections, kind core.Kind) ports.RecordStore {
	t.Helper()
	s, err := c.Collection(kind)
	require.NoError(t, err)
	return s
}

func testCreateAndGet(t *testing.T, c ports.Collections) {
	ctx := context.Background()
	s := collection(t, c, core.Income)

	rec, err := s.Create(ctx, "owner-a", "cipher-1")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "owner-a", rec.OwnerID)
	assert.Equal(t, "cipher-1", rec.Ciphertext)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	got, err := s.Get(ctx, rec.ID, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = s.Get(ctx, "does-not-exist", "owner-a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testListNewestFirst(t *testing.T, c ports.Collections) {
	ctx := context.Background()
	s := collection(t, c, core.Expense)

	var ids []string
	for i := 0; i < 5; i++ {
		rec, err := s.Create(ctx, "owner-a", fmt.Sprintf("c%d", i))
		require.NoError(t, err)
		ids = append([]string{rec.ID}, ids...)
	}

	list, err := s.List(ctx, "owner-a", ports.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, rec := range list {
		assert.Equal(t, ids[i], rec.ID)
	}

	empty, err := s.List(ctx, "nobody", ports.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testListLimit(t *testing.T, c ports.Collections) {
	ctx := context.Background()
	s := collection(t, c, core.Income)
	for i := 0; i < 7; i++ {
		_, err := s.Create(ctx, "owner-a", "c")
		require.NoError(t, err)
	}

	list, err := s.List(ctx, "owner-a", ports.ListOptions{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, list, 5)

	list, err = s.List(ctx, "owner-a", ports.ListOptions{Limit: -1})
	require.NoError(t, err)
	assert.Len(t, list, 7)
}

func testOwnerIsolation(t *testing.T, c ports.Collections) {
	ctx := context.Background()
	s := collection(t, c, core.Expense)

	rec, err := s.Create(ctx, "owner-a", "secret-of-a")
	require.NoError(t, err)

	_, err = s.Get(ctx, rec.ID, "owner-b")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Update(ctx, rec.ID, "owner-b", "overwritten")
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = s.Delete(ctx, rec.ID, "owner-b")
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := s.List(ctx, "owner-b", ports.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := s.Get(ctx, rec.ID, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "secret-of-a", got.Ciphertext)
}

func testUpdateReplaces(t *testing.T, c ports.Collections) {
	ctx := context.Background()
	s := collection(t, c, core.Income)

	rec, err := s.Create(ctx, "owner-a", "v1")
	require.NoError(t, err)

	updated, err := s.Update(ctx, rec.ID, "owner-a", "v2")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, "v2", updated.Ciphertext)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(rec.UpdatedAt))

	got, err := s.Get(ctx, rec.ID, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Ciphertext)

	_, err = s.Update(ctx, "missing", "owner-a", "v3")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testDeleteTwice(t *testing.T, c ports.Collections) {
	ctx := context.Background()
	s := collection(t, c, core.Expense)

	rec, err := s.Create(ctx, "owner-a", "c")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rec.ID, "owner-a"))
	assert.ErrorIs(t, s.Delete(ctx, rec.ID, "owner-a"), core.ErrNotFound)

	_, err = s.Get(ctx, rec.ID, "owner-a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testCollectionsAreSeparate(t *testing.T, c ports.Collections) {
	ctx := context.Background()
	incomes := collection(t, c, core.Income)
	expenses := collection(t, c, core.Expense)

	rec, err := incomes.Create(ctx, "owner-a", "c")
	require.NoError(t, err)

	_, err = expenses.Get(ctx, rec.ID, "owner-a")
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := expenses.List(ctx, "owner-a", ports.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testUnknownKind(t *testing.T, c ports.Collections) {
	_, err := c.Collection(core.Kind("transfer"))
	assert.ErrorIs(t, err, core.ErrValidation)
}
