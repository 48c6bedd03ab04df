package core

import (
	"errors"
	"fmt"
)

// Error categories surfaced to callers. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("record not found")
	ErrDecryption = errors.New("decryption failed")
	ErrStore      = errors.New("store failure")
)

// DecryptionError reports a ciphertext that could not be turned back into a
// payload. It never carries the ciphertext or the key.
type DecryptionError struct {
	Kind     Kind
	RecordID string
	Err      error
}

func (e *DecryptionError) Error() string {
	switch {
	case e.RecordID != "":
		return fmt.Sprintf("decrypt %s record %s: %v", e.Kind, e.RecordID, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("decrypt payload: %v", e.Err)
	default:
		return ErrDecryption.Error()
	}
}

func (e *DecryptionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecryption}
	}
	return []error{ErrDecryption, e.Err}
}

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

// NewStoreError returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
