// Package loader seeds a collection from a JSON array of plaintext payloads.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/ports"
)

// Encrypter is satisfied by vault.Cipher.
type Encrypter interface {
	Encrypt(p core.Payload) (string, error)
}

type Loader struct {
	collections ports.Collections
	cipher      Encrypter
	logger      *log.Logger
}

func New(collections ports.Collections, cipher Encrypter, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Discard()
	}
	return &Loader{collections: collections, cipher: cipher, logger: logger.WithComponent(log.ComponentLoader)}
}

// Load encrypts every item of the array read from r and stores it for
// ownerID, in order. It stops at the first failure; records stored before it
// are kept. The count of stored items is returned either way.
func (l *Loader) Load(ctx context.Context, kind core.Kind, ownerID string, r io.Reader) (int, error) {
	if strings.TrimSpace(ownerID) == "" {
		return 0, fmt.Errorf("%w: owner id is required", core.ErrValidation)
	}
	store, err := l.collections.Collection(kind)
	if err != nil {
		return 0, err
	}

	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("decode %s data: %w", kind, err)
	}

	for i, raw := range items {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		var p core.Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			return i, fmt.Errorf("item %d: decode payload: %w", i, err)
		}
		ciphertext, err := l.cipher.Encrypt(p)
		if err != nil {
			return i, fmt.Errorf("item %d: %w", i, err)
		}
		if _, err := store.Create(ctx, ownerID, ciphertext); err != nil {
			return i, fmt.Errorf("item %d: store: %w", i, err)
		}
	}

	l.logger.InfoContext(ctx, "Data loaded",
		log.FieldKind, kind, log.FieldOwnerID, ownerID, log.FieldCount, len(items))
	return len(items), nil
}
