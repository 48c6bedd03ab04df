package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/ports"
	"ledger/internal/storage"
)

func TestLoadIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	dataPath := filepath.Join(dir, "expenses.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`[
		{"amount": 12.5, "source": "Shop", "category": "Food", "date": "2024-01-02"},
		{"amount": 3, "source": "Cafe", "category": "Food", "date": "2024-01-03"}
	]`), 0o600))

	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("SECRET_KEY", "loader-secret-0123456789")
	t.Setenv("AMQP_URL", "")

	cmd := newRootCmd(log.Discard())
	cmd.SetArgs([]string{"--kind", "expense", "--owner", "owner-1", "--file", dataPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	coll, err := repo.Collection(core.Expense)
	require.NoError(t, err)
	records, err := coll.List(context.Background(), "owner-1", ports.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SECRET_KEY", "loader-secret-0123456789")
	t.Setenv("AMQP_URL", "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing owner", []string{"--kind", "income"}},
		{"unknown kind", []string{"--kind", "savings", "--owner", "o"}},
		{"missing file", []string{"--kind", "income", "--owner", "o", "--file", filepath.Join(t.TempDir(), "nope.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd(log.Discard())
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.ExecuteContext(context.Background()))
		})
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SECRET_KEY", "")

	cmd := newRootCmd(log.Discard())
	cmd.SetArgs([]string{"--kind", "income", "--owner", "o", "--file", "x.json"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY is required")
}
