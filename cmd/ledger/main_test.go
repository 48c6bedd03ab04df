package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"ledger/internal/config"
	"ledger/internal/log"
)

func TestRunFailsWithoutVerifier(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewJSONHandler(&logs, nil)})

	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
		SecretKey:    "server-secret-0123456789",
	}

	assert.Equal(t, 1, run(logger, cfg))
	assert.Contains(t, logs.String(), "Failed to initialize token verifier")
	assert.NotContains(t, logs.String(), "Starting ledger server")
}
