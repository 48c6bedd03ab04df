package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/ports"
)

// Store keeps both collections in process memory. It is meant for tests and
// local runs; nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	last   time.Time
	tables map[core.Kind]*table
}

type table struct {
	store *Store
	kind  core.Kind
	// items is kept in insertion order
	items []core.Record
}

func New() *Store {
	s := &Store{now: time.Now, tables: map[core.Kind]*table{}}
	for _, k := range core.Kinds() {
		s.tables[k] = &table{store: s, kind: k}
	}
	return s
}

// Collection implements ports.Collections.
func (s *Store) Collection(kind core.Kind) (ports.RecordStore, error) {
	t, ok := s.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no collection for kind %q", core.ErrValidation, kind)
	}
	return t, nil
}

// tick returns a timestamp strictly after the previous one. Callers hold mu.
func (s *Store) tick() time.Time {
	n := s.now().UTC()
	if !n.After(s.last) {
		n = s.last.Add(time.Nanosecond)
	}
	s.last = n
	return n
}

func (t *table) Create(ctx context.Context, ownerID, ciphertext string) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	now := t.store.tick()
	rec := core.Record{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Ciphertext: ciphertext,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.items = append(t.items, rec)
	return rec, nil
}

func (t *table) List(ctx context.Context, ownerID string, opts ports.ListOptions) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	out := []core.Record{}
	// Creation timestamps are strictly increasing, so reverse insertion order
	// is newest first.
	for i := len(t.items) - 1; i >= 0; i-- {
		if t.items[i].OwnerID != ownerID {
			continue
		}
		out = append(out, t.items[i])
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (t *table) Get(ctx context.Context, id, ownerID string) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	i := t.find(id, ownerID)
	if i < 0 {
		return core.Record{}, fmt.Errorf("get %s record %s: %w", t.kind, id, core.ErrNotFound)
	}
	return t.items[i], nil
}

func (t *table) Update(ctx context.Context, id, ownerID, ciphertext string) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	i := t.find(id, ownerID)
	if i < 0 {
		return core.Record{}, fmt.Errorf("update %s record %s: %w", t.kind, id, core.ErrNotFound)
	}
	t.items[i].Ciphertext = ciphertext
	t.items[i].UpdatedAt = t.store.tick()
	return t.items[i], nil
}

func (t *table) Delete(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	i := t.find(id, ownerID)
	if i < 0 {
		return fmt.Errorf("delete %s record %s: %w", t.kind, id, core.ErrNotFound)
	}
	t.items = append(t.items[:i], t.items[i+1:]...)
	return nil
}

func (t *table) find(id, ownerID string) int {
	for i, r := range t.items {
		if r.ID == id && r.OwnerID == ownerID {
			return i
		}
	}
	return -1
}
