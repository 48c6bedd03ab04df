package ports

import (
	"context"
	"time"

	"ledger/internal/core"
)

// Ports used by the services. Implementations live in storage, storage/memory
// and amqp.
type (
	// RecordStore persists the ciphertext records of one kind. Every read and
	// mutation is scoped to the owner; foreign or unknown ids yield
	// core.ErrNotFound.
	RecordStore interface {
		Create(ctx context.Context, ownerID, ciphertext string) (core.Record, error)
		// List returns the owner's records, newest created first.
		List(ctx context.Context, ownerID string, opts ListOptions) ([]core.Record, error)
		Get(ctx context.Context, id, ownerID string) (core.Record, error)
		Update(ctx context.Context, id, ownerID, ciphertext string) (core.Record, error)
		Delete(ctx context.Context, id, ownerID string) error
	}

	// Collections selects the store for a kind.
	Collections interface {
		Collection(kind core.Kind) (RecordStore, error)
	}

	// EventPublisher announces record changes. A nil publisher disables events.
	EventPublisher interface {
		PublishRecordEvent(ctx context.Context, event RecordEvent) error
	}
)

// ListOptions bounds a listing. Limit <= 0 returns every record.
type ListOptions struct {
	Limit int
}

// Op names a record mutation.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// RecordEvent is published after a successful mutation. It never carries the
// ciphertext or any payload field.
type RecordEvent struct {
	RecordID  string    `json:"recordId"`
	Kind      core.Kind `json:"kind"`
	OwnerID   string    `json:"ownerId"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectionMap is a Collections backed by a fixed map.
type CollectionMap map[core.Kind]RecordStore

func (m CollectionMap) Collection(kind core.Kind) (RecordStore, error) {
	s, ok := m[kind]
	if !ok {
		return nil, &unknownKindError{kind: kind}
	}
	return s, nil
}

type unknownKindError struct{ kind core.Kind }

func (e *unknownKindError) Error() string { return "no collection for kind " + string(e.kind) }

func (e *unknownKindError) Unwrap() error { return core.ErrValidation }
