package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ports"
	"ledger/internal/storage/memory"
	"ledger/internal/vault"
)

func newService(t *testing.T) (*TransactionService, *recordingPublisher, *vault.Cipher) {
	t.Helper()
	c := newCipher(t)
	pub := &recordingPublisher{}
	return NewTransactionService(memory.New(), c, pub, nil), pub, c
}

func TestAddAcceptsClientCiphertext(t *testing.T) {
	svc, pub, c := newService(t)
	ctx := context.Background()
	text, err := c.Encrypt(payload(12.5, "Job", "", core.NewDate(2024, 5, 1)))
	require.NoError(t, err)

	rec, err := svc.Add(ctx, core.Income, "u1", text)
	require.NoError(t, err)
	assert.Equal(t, text, rec.Ciphertext)
	assert.Equal(t, "u1", rec.OwnerID)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ports.RecordEvent{RecordID: rec.ID, Kind: core.Income, OwnerID: "u1", Op: ports.OpCreated, Timestamp: events[0].Timestamp}, events[0])
}

func TestAddValidation(t *testing.T) {
	svc, pub, c := newService(t)
	ctx := context.Background()
	text, err := c.Encrypt(payload(1, "Job", "", core.NewDate(2024, 5, 1)))
	require.NoError(t, err)

	_, err = svc.Add(ctx, core.Income, "", text)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Add(ctx, core.Income, "u1", "")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Add(ctx, core.Income, "u1", "c29tZXRoaW5nIGVsc2U=")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Add(ctx, core.Kind("transfer"), "u1", text)
	assert.ErrorIs(t, err, core.ErrValidation)

	assert.Empty(t, pub.Events())
}

func TestAddPayloadEncrypts(t *testing.T) {
	svc, _, c := newService(t)
	ctx := context.Background()

	rec, err := svc.AddPayload(ctx, core.Expense, "u1", payload(40, "Market", "Food", core.NewDate(2024, 5, 2)))
	require.NoError(t, err)
	assert.NotContains(t, rec.Ciphertext, "Market")

	p, err := c.Decrypt(rec.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "Food", p.Category)

	_, err = svc.AddPayload(ctx, core.Expense, "u1", payload(40, "Market", "", core.NewDate(2024, 5, 2)))
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.AddPayload(ctx, core.Income, "u1", payload(-3, "Job", "", core.NewDate(2024, 5, 2)))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestGetUpdateDeleteScopedByOwner(t *testing.T) {
	svc, pub, c := newService(t)
	ctx := context.Background()
	rec, err := svc.AddPayload(ctx, core.Income, "owner-a", payload(10, "Job", "", core.NewDate(2024, 1, 1)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, core.Income, "owner-b", rec.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.UpdatePayload(ctx, core.Income, "owner-b", rec.ID, payload(99, "Stolen", "", core.NewDate(2024, 1, 1)))
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, core.Income, "owner-b", rec.ID), core.ErrNotFound)

	got, err := svc.Get(ctx, core.Income, "owner-a", rec.ID)
	require.NoError(t, err)
	p, err := c.Decrypt(got.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "Job", p.Source)

	updated, err := svc.UpdatePayload(ctx, core.Income, "owner-a", rec.ID, payload(20, "Job2", "", core.NewDate(2024, 1, 2)))
	require.NoError(t, err)
	assert.NotEqual(t, rec.Ciphertext, updated.Ciphertext)

	require.NoError(t, svc.Delete(ctx, core.Income, "owner-a", rec.ID))
	assert.ErrorIs(t, svc.Delete(ctx, core.Income, "owner-a", rec.ID), core.ErrNotFound)

	var ops []ports.Op
	for _, e := range pub.Events() {
		ops = append(ops, e.Op)
	}
	assert.Equal(t, []ports.Op{ports.OpCreated, ports.OpUpdated, ports.OpDeleted}, ops)
}

func TestUpdateRejectsUndecryptableCiphertext(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	rec, err := svc.AddPayload(ctx, core.Income, "u1", payload(10, "Job", "", core.NewDate(2024, 1, 1)))
	require.NoError(t, err)

	_, err = svc.Update(ctx, core.Income, "u1", rec.ID, "")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.Update(ctx, core.Income, "u1", rec.ID, "garbage")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	c := newCipher(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(memory.New(), c, pub, nil)

	_, err := svc.AddPayload(context.Background(), core.Income, "u1", payload(1, "Job", "", core.NewDate(2024, 1, 1)))
	assert.NoError(t, err)
	assert.Len(t, pub.Events(), 1)
}

func TestNilPublisher(t *testing.T) {
	svc := NewTransactionService(memory.New(), newCipher(t), nil, nil)
	_, err := svc.AddPayload(context.Background(), core.Income, "u1", payload(1, "Job", "", core.NewDate(2024, 1, 1)))
	assert.NoError(t, err)
}

func TestEntriesFilteredAndSorted(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	for _, p := range []core.Payload{
		payload(1, "Job", "", core.NewDate(2024, 1, 10)),
		payload(2, "Job", "", core.NewDate(2024, 3, 5)),
		payload(3, "Job", "", core.NewDate(2023, 3, 5)),
		payload(4, "Job", "", core.NewDate(2024, 3, 20)),
	} {
		_, err := svc.AddPayload(ctx, core.Income, "u1", p)
		require.NoError(t, err)
	}

	all, err := svc.Entries(ctx, core.Income, "u1", core.Period{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, core.NewDate(2024, 3, 20), all[0].Date)
	assert.Equal(t, core.NewDate(2023, 3, 5), all[3].Date)

	march, err := svc.Entries(ctx, core.Income, "u1", core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Len(t, march, 2)

	anyMarch, err := svc.Entries(ctx, core.Income, "u1", core.Period{Month: 3})
	require.NoError(t, err)
	assert.Len(t, anyMarch, 3)
}

func TestSummaryDefaultsToCurrentMonth(t *testing.T) {
	svc, _, _ := newService(t)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	for _, p := range []core.Payload{
		payload(10, "Shop", "Food", core.NewDate(2024, 3, 1)),
		payload(5, "Shop", "Food", core.NewDate(2024, 3, 2)),
		payload(7, "Cinema", "Fun", core.NewDate(2024, 3, 3)),
		payload(100, "Landlord", "Rent", core.NewDate(2024, 1, 1)),
	} {
		_, err := svc.AddPayload(ctx, core.Expense, "u1", p)
		require.NoError(t, err)
	}

	s, err := svc.Summary(ctx, core.Expense, "u1", core.Period{})
	require.NoError(t, err)

	assert.Equal(t, core.Period{Year: 2024, Month: 3}, s.Period)
	assert.Equal(t, int64(2200), s.Total.Cents)
	assert.Equal(t, []core.NamedValue{
		{Name: "Food", Value: core.Money{Cents: 1500}},
		{Name: "Fun", Value: core.Money{Cents: 700}},
	}, s.Groups)
	assert.Equal(t, int64(10000), s.Monthly[0].Total.Cents)
	assert.Zero(t, s.Monthly[1].Total.Cents)
}

func TestEntriesFailOnCorruptRecord(t *testing.T) {
	store := memory.New()
	c := newCipher(t)
	svc := NewTransactionService(store, c, nil, nil)
	coll, err := store.Collection(core.Income)
	require.NoError(t, err)
	_, err = coll.Create(context.Background(), "u1", "not-a-ciphertext")
	require.NoError(t, err)

	_, err = svc.Entries(context.Background(), core.Income, "u1", core.Period{})
	assert.ErrorIs(t, err, core.ErrDecryption)
}
