package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/ports"
)

// TransactionService fronts the record stores for the transport: it scopes
// every call to the owner, checks ciphertexts before they are stored and
// announces changes.
type TransactionService struct {
	collections ports.Collections
	cipher      Cipher
	publisher   ports.EventPublisher
	logger      *log.Logger
	events      *log.StructuredLogger
	now         func() time.Time
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(collections ports.Collections, cipher Cipher, publisher ports.EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &TransactionService{
		collections: collections,
		cipher:      cipher,
		publisher:   publisher,
		logger:      logger,
		events:      log.NewStructuredLogger(logger),
		now:         time.Now,
	}
}

// Add stores a ciphertext produced by a client holding the shared secret.
func (s *TransactionService) Add(ctx context.Context, kind core.Kind, ownerID, ciphertext string) (core.Record, error) {
	store, err := s.store(kind, ownerID)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.checkCiphertext(ciphertext); err != nil {
		return core.Record{}, err
	}
	rec, err := store.Create(ctx, ownerID, ciphertext)
	if err != nil {
		return core.Record{}, fmt.Errorf("add %s: %w", kind, err)
	}
	s.changed(ctx, ports.OpCreated, kind, rec)
	return rec, nil
}

// AddPayload validates and encrypts p before storing it.
func (s *TransactionService) AddPayload(ctx context.Context, kind core.Kind, ownerID string, p core.Payload) (core.Record, error) {
	ciphertext, err := s.seal(kind, p)
	if err != nil {
		return core.Record{}, err
	}
	return s.Add(ctx, kind, ownerID, ciphertext)
}

// List returns the owner's records of kind, newest created first. The
// ciphertext stays opaque.
func (s *TransactionService) List(ctx context.Context, kind core.Kind, ownerID string) ([]core.Record, error) {
	store, err := s.store(kind, ownerID)
	if err != nil {
		return nil, err
	}
	records, err := store.List(ctx, ownerID, ports.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return records, nil
}

// Entries decrypts the owner's records of kind, keeps those inside period and
// orders them by transaction date, newest first.
func (s *TransactionService) Entries(ctx context.Context, kind core.Kind, ownerID string, period core.Period) ([]core.Entry, error) {
	entries, err := s.allEntries(ctx, kind, ownerID)
	if err != nil {
		return nil, err
	}
	entries = core.FilterEntries(entries, period)
	core.SortByDateDesc(entries)
	return entries, nil
}

// Summary builds the per-kind breakdown. Missing period fields default to the
// current month and year.
func (s *TransactionService) Summary(ctx context.Context, kind core.Kind, ownerID string, period core.Period) (core.KindSummary, error) {
	entries, err := s.allEntries(ctx, kind, ownerID)
	if err != nil {
		return core.KindSummary{}, err
	}
	return core.Summarize(kind, entries, period.OrCurrent(s.now())), nil
}

func (s *TransactionService) Get(ctx context.Context, kind core.Kind, ownerID, id string) (core.Record, error) {
	store, err := s.store(kind, ownerID)
	if err != nil {
		return core.Record{}, err
	}
	return store.Get(ctx, id, ownerID)
}

// Update replaces the whole ciphertext of one record.
func (s *TransactionService) Update(ctx context.Context, kind core.Kind, ownerID, id, ciphertext string) (core.Record, error) {
	store, err := s.store(kind, ownerID)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.checkCiphertext(ciphertext); err != nil {
		return core.Record{}, err
	}
	rec, err := store.Update(ctx, id, ownerID, ciphertext)
	if err != nil {
		return core.Record{}, err
	}
	s.changed(ctx, ports.OpUpdated, kind, rec)
	return rec, nil
}

// UpdatePayload validates and encrypts p, then replaces the record with it.
func (s *TransactionService) UpdatePayload(ctx context.Context, kind core.Kind, ownerID, id string, p core.Payload) (core.Record, error) {
	ciphertext, err := s.seal(kind, p)
	if err != nil {
		return core.Record{}, err
	}
	return s.Update(ctx, kind, ownerID, id, ciphertext)
}

func (s *TransactionService) Delete(ctx context.Context, kind core.Kind, ownerID, id string) error {
	store, err := s.store(kind, ownerID)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	s.changed(ctx, ports.OpDeleted, kind, core.Record{ID: id, OwnerID: ownerID})
	return nil
}

func (s *TransactionService) allEntries(ctx context.Context, kind core.Kind, ownerID string) ([]core.Entry, error) {
	records, err := s.List(ctx, kind, ownerID)
	if err != nil {
		return nil, err
	}
	return decryptRecords(s.cipher, kind, records)
}

func (s *TransactionService) store(kind core.Kind, ownerID string) (ports.RecordStore, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", core.ErrValidation)
	}
	return s.collections.Collection(kind)
}

func (s *TransactionService) checkCiphertext(ciphertext string) error {
	if strings.TrimSpace(ciphertext) == "" {
		return fmt.Errorf("%w: encryptedData is required", core.ErrValidation)
	}
	if _, err := s.cipher.Decrypt(ciphertext); err != nil {
		return fmt.Errorf("%w: encryptedData cannot be decrypted with the server key", core.ErrValidation)
	}
	return nil
}

func (s *TransactionService) seal(kind core.Kind, p core.Payload) (string, error) {
	if err := p.Validate(kind); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	ciphertext, err := s.cipher.Encrypt(p)
	if err != nil {
		return "", fmt.Errorf("encrypt payload: %w", err)
	}
	return ciphertext, nil
}

func (s *TransactionService) changed(ctx context.Context, op ports.Op, kind core.Kind, rec core.Record) {
	logOp := map[ports.Op]string{ports.OpCreated: log.OpCreate, ports.OpUpdated: log.OpUpdate, ports.OpDeleted: log.OpDelete}[op]
	s.events.LogRecordChange(ctx, logOp, kind.String(), rec.OwnerID, rec.ID)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping record event")
		return
	}
	event := ports.RecordEvent{
		RecordID:  rec.ID,
		Kind:      kind,
		OwnerID:   rec.OwnerID,
		Op:        op,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishRecordEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record event",
			log.FieldRecordID, rec.ID, log.FieldKind, kind, log.FieldError, err)
	}
}
