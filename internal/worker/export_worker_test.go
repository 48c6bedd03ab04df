package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/ports"
	"ledger/internal/services"
	"ledger/internal/sheets/xlsx"
	"ledger/internal/storage/memory"
	"ledger/internal/vault"
)

func newWorker(t *testing.T) (*ExportWorker, *services.TransactionService, string) {
	t.Helper()
	c, err := vault.New(vault.Config{Secret: "worker-test-secret"})
	require.NoError(t, err)
	svc := services.NewTransactionService(memory.New(), c, nil, nil)
	dir := t.TempDir()
	return NewExportWorker(svc, xlsx.New(), dir, nil), svc, dir
}

func TestHandleRecordEventWritesWorkbook(t *testing.T) {
	w, svc, dir := newWorker(t)
	ctx := context.Background()
	rec, err := svc.AddPayload(ctx, core.Expense, "user_1", core.Payload{
		Amount: core.NewAmount(12), Source: "Cafe", Category: "Food", Date: core.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)

	msg := amqp.NewRecordEventMessage(ports.RecordEvent{RecordID: rec.ID, Kind: core.Expense, OwnerID: "user_1", Op: ports.OpCreated})
	require.NoError(t, w.HandleRecordEvent(ctx, msg))

	path := filepath.Join(dir, "user_1", "expenses.xlsx")
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cafe", rows[1][1])

	leftovers, err := filepath.Glob(filepath.Join(dir, "user_1", ".export-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExportRejectsUnsafeOwner(t *testing.T) {
	w, _, dir := newWorker(t)
	for _, owner := range []string{"../etc", "a/b", "", "."} {
		_, err := w.Export(context.Background(), core.Income, owner)
		assert.ErrorIs(t, err, core.ErrValidation, owner)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingRenderer struct{}

func (failingRenderer) Render(io.Writer, core.Kind, []core.Entry) error { return errors.New("boom") }
func (failingRenderer) ContentType() string                            { return "application/octet-stream" }

func TestExportKeepsPreviousFileOnRenderFailure(t *testing.T) {
	w, svc, dir := newWorker(t)
	ctx := context.Background()
	_, err := w.Export(ctx, core.Income, "u1")
	require.NoError(t, err)
	path := filepath.Join(dir, "u1", "income.xlsx")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	broken := NewExportWorker(svc, failingRenderer{}, dir, nil)
	_, err = broken.Export(ctx, core.Income, "u1")
	assert.ErrorContains(t, err, "boom")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHandleRecordEventPermanentFailures(t *testing.T) {
	c, err := vault.New(vault.Config{Secret: "worker-test-secret"})
	require.NoError(t, err)
	store := memory.New()
	svc := services.NewTransactionService(store, c, nil, nil)
	dir := t.TempDir()
	w := NewExportWorker(svc, xlsx.New(), dir, nil)
	ctx := context.Background()

	t.Run("owner not usable as a directory", func(t *testing.T) {
		msg := amqp.NewRecordEventMessage(ports.RecordEvent{RecordID: "r1", Kind: core.Income, OwnerID: "user@example.com", Op: ports.OpCreated})
		err := w.HandleRecordEvent(ctx, msg)
		assert.ErrorIs(t, err, core.ErrValidation)
		_, statErr := os.Stat(filepath.Join(dir, "user@example.com"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("stored record cannot be decrypted", func(t *testing.T) {
		coll, err := store.Collection(core.Expense)
		require.NoError(t, err)
		rec, err := coll.Create(ctx, "u2", "not-a-ciphertext")
		require.NoError(t, err)

		msg := amqp.NewRecordEventMessage(ports.RecordEvent{RecordID: rec.ID, Kind: core.Expense, OwnerID: "u2", Op: ports.OpCreated})
		assert.ErrorIs(t, w.HandleRecordEvent(ctx, msg), core.ErrDecryption)
	})
}
