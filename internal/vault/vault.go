// Package vault encrypts transaction payloads into the opaque text form that
// the record store persists.
//
// A ciphertext is base64(nonce || sealed) where sealed is the AES-256-GCM
// output over the JSON encoding of the payload. The key is derived once from
// the process-wide secret.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"ledger/internal/core"
)

const (
	keySize    = 32
	iterations = 100_000
)

// salt is fixed so that every process sharing the secret derives the same key.
var salt = []byte("ledger/vault/v1")

var (
	errTooShort  = errors.New("ciphertext too short")
	errNotObject = errors.New("payload is not a JSON object")
)

// Config carries the secret the key is derived from.
type Config struct {
	Secret string
}

// Cipher seals and opens payloads. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// New derives the key and prepares the AEAD.
func New(cfg Config) (*Cipher, error) {
	if cfg.Secret == "" {
		return nil, errors.New("vault secret is empty")
	}
	key := pbkdf2.Key([]byte(cfg.Secret), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// Encrypt serialises p and returns its ciphertext text form.
func (c *Cipher) Encrypt(p core.Payload) (string, error) {
	plain, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	sealed, err := c.Seal(plain)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Every failure matches core.ErrDecryption.
func (c *Cipher) Decrypt(text string) (core.Payload, error) {
	var p core.Payload
	sealed, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return p, &core.DecryptionError{Err: fmt.Errorf("decode base64: %w", err)}
	}
	plain, err := c.Open(sealed)
	if err != nil {
		return p, &core.DecryptionError{Err: err}
	}
	plain = bytes.TrimSpace(plain)
	if len(plain) == 0 || plain[0] != '{' {
		return p, &core.DecryptionError{Err: errNotObject}
	}
	if err := json.Unmarshal(plain, &p); err != nil {
		return core.Payload{}, &core.DecryptionError{Err: fmt.Errorf("decode payload: %w", err)}
	}
	return p, nil
}

// Seal encrypts plain under a fresh random nonce and returns nonce||ciphertext.
func (c *Cipher) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

// Open authenticates and decrypts the output of Seal.
func (c *Cipher) Open(sealed []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return nil, errTooShort
	}
	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plain, nil
}
