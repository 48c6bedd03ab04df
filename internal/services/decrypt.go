package services

import (
	"errors"

	"ledger/internal/core"
)

// Cipher is the part of vault.Cipher the services need.
type Cipher interface {
	Encrypt(p core.Payload) (string, error)
	Decrypt(text string) (core.Payload, error)
}

// decryptRecords turns records into entries, keeping their order. The first
// record that fails aborts the whole conversion.
func decryptRecords(c Cipher, kind core.Kind, records []core.Record) ([]core.Entry, error) {
	entries := make([]core.Entry, 0, len(records))
	for _, rec := range records {
		e, err := decryptRecord(c, kind, rec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decryptRecord(c Cipher, kind core.Kind, rec core.Record) (core.Entry, error) {
	p, err := c.Decrypt(rec.Ciphertext)
	if err != nil {
		cause := err
		var de *core.DecryptionError
		if errors.As(err, &de) && de.Err != nil {
			cause = de.Err
		}
		return core.Entry{}, &core.DecryptionError{Kind: kind, RecordID: rec.ID, Err: cause}
	}
	return core.NewEntry(kind, rec, p), nil
}
