package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const dateLayout = "2006-01-02"

type (
	// Kind selects one of the two transaction collections.
	Kind string

	// Date is a transaction date. It accepts a bare calendar date or RFC 3339
	// on input; the zero Date means no date and encodes as null.
	Date struct {
		time.Time
	}

	// Record is the persisted form of a transaction. Ciphertext is the only
	// representation of the sensitive fields and is never inspected by the store.
	Record struct {
		ID         string    `json:"id"`
		OwnerID    string    `json:"ownerId"`
		Ciphertext string    `json:"encryptedData"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	// Payload holds the plaintext fields of a transaction. It only exists in
	// memory, before encryption or after decryption.
	Payload struct {
		Amount      Amount `json:"amount"`
		Source      string `json:"source"`
		Category    string `json:"category,omitempty"`
		Date        Date   `json:"date"`
		Description string `json:"description,omitempty"`
		Icon        string `json:"icon,omitempty"`
	}

	// Entry is a decrypted record: the payload plus the record's identity.
	Entry struct {
		ID   string `json:"id"`
		Kind Kind   `json:"type"`
		Payload
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var (
	ErrEmptySource   = errors.New("empty source")
	ErrEmptyCategory = errors.New("empty category")
	ErrMissingDate   = errors.New("missing date")
)

// Kinds lists every transaction kind in display order.
func Kinds() []Kind {
	return []Kind{Income, Expense}
}

// ParseKind accepts "income" or "expense" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Income, Expense:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction kind %q", ErrValidation, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// GroupField names the payload field used to group entries of this kind.
func (k Kind) GroupField() string {
	if k == Expense {
		return "category"
	}
	return "source"
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// MarshalJSON writes a bare calendar date when the clock part is zero and
// RFC 3339 otherwise. The zero Date is written as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	t := d.Time.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return json.Marshal(t.Format(dateLayout))
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses YYYY-MM-DD or RFC 3339 and normalises the result to UTC.
// An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return Date{Time: t.UTC()}, nil
}

// Validate checks the fields a new transaction of the given kind must carry.
func (p Payload) Validate(kind Kind) error {
	if !p.Amount.Valid {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(p.Source) == "" {
		return ErrEmptySource
	}
	if kind == Expense && strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if p.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// GroupName returns the label an entry is grouped under in breakdowns.
func (e Entry) GroupName() string {
	if e.Kind == Expense {
		return e.Category
	}
	return e.Source
}

// NewEntry attaches a record's identity to its decrypted payload.
func NewEntry(kind Kind, rec Record, p Payload) Entry {
	return Entry{
		ID:        rec.ID,
		Kind:      kind,
		Payload:   p,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
