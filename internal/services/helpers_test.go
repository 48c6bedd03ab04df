package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ports"
	"ledger/internal/storage/memory"
	"ledger/internal/vault"
)

const testSecret = "test-secret-0123456789"

func newCipher(t *testing.T) *vault.Cipher {
	t.Helper()
	c, err := vault.New(vault.Config{Secret: testSecret})
	require.NoError(t, err)
	return c
}

func payload(amount float64, source, category string, date core.Date) core.Payload {
	return core.Payload{Amount: core.NewAmount(amount), Source: source, Category: category, Date: date}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.RecordEvent
	err    error
}

func (p *recordingPublisher) PublishRecordEvent(_ context.Context, e ports.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Events() []ports.RecordEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.RecordEvent(nil), p.events...)
}

// failingCollections returns a store whose List always fails.
type failingCollections struct{ ports.Collections }

func (f failingCollections) Collection(kind core.Kind) (ports.RecordStore, error) {
	s, err := f.Collections.Collection(kind)
	if err != nil {
		return nil, err
	}
	return failingStore{s}, nil
}

type failingStore struct{ ports.RecordStore }

func (failingStore) List(context.Context, string, ports.ListOptions) ([]core.Record, error) {
	return nil, core.NewStoreError("list records", errors.New("disk I/O error"))
}

func seed(t *testing.T, store *memory.Store, c *vault.Cipher, kind core.Kind, owner string, payloads ...core.Payload) []core.Record {
	t.Helper()
	coll, err := store.Collection(kind)
	require.NoError(t, err)
	var out []core.Record
	for _, p := range payloads {
		text, err := c.Encrypt(p)
		require.NoError(t, err)
		rec, err := coll.Create(context.Background(), owner, text)
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}
