package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/ports"

	_ "modernc.org/sqlite"
)

var tables = map[core.Kind]string{
	core.Income:  "incomes",
	core.Expense: "expenses",
}

// SQLiteRepository holds both record collections in one SQLite database.
type SQLiteRepository struct {
	db          *sql.DB
	collections map[core.Kind]*RecordTable
}

// RecordTable is the ports.RecordStore for one kind.
type RecordTable struct {
	kind    core.Kind
	queries *Queries
	clock   *clock
}

// clock hands out strictly increasing timestamps so that creation order is
// preserved even when the wall clock does not advance between two inserts.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func (c *clock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.now().UTC().UnixNano()
	if n <= c.last {
		n = c.last + 1
	}
	c.last = n
	return n
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	clk := &clock{now: time.Now}
	repo := &SQLiteRepository{db: db, collections: map[core.Kind]*RecordTable{}}
	for kind, table := range tables {
		repo.collections[kind] = &RecordTable{kind: kind, queries: New(db, table), clock: clk}
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Collection implements ports.Collections.
func (r *SQLiteRepository) Collection(kind core.Kind) (ports.RecordStore, error) {
	t, ok := r.collections[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no collection for kind %q", core.ErrValidation, kind)
	}
	return t, nil
}

func (t *RecordTable) Create(ctx context.Context, ownerID, ciphertext string) (core.Record, error) {
	row, err := t.queries.CreateRecord(ctx, CreateRecordParams{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		EncryptedData: ciphertext,
		CreatedAt:     t.clock.next(),
	})
	if err != nil {
		return core.Record{}, core.NewStoreError(fmt.Sprintf("create %s record", t.kind), err)
	}
	return toRecord(row), nil
}

func (t *RecordTable) List(ctx context.Context, ownerID string, opts ports.ListOptions) ([]core.Record, error) {
	limit := int64(-1)
	if opts.Limit > 0 {
		limit = int64(opts.Limit)
	}
	rows, err := t.queries.ListRecords(ctx, ownerID, limit)
	if err != nil {
		return nil, core.NewStoreError(fmt.Sprintf("list %s records", t.kind), err)
	}
	records := make([]core.Record, len(rows))
	for i, row := range rows {
		records[i] = toRecord(row)
	}
	return records, nil
}

func (t *RecordTable) Get(ctx context.Context, id, ownerID string) (core.Record, error) {
	row, err := t.queries.GetRecord(ctx, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("get %s record %s: %w", t.kind, id, core.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, core.NewStoreError(fmt.Sprintf("get %s record", t.kind), err)
	}
	return toRecord(row), nil
}

func (t *RecordTable) Update(ctx context.Context, id, ownerID, ciphertext string) (core.Record, error) {
	row, err := t.queries.UpdateRecord(ctx, UpdateRecordParams{
		ID:            id,
		OwnerID:       ownerID,
		EncryptedData: ciphertext,
		UpdatedAt:     t.clock.next(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("update %s record %s: %w", t.kind, id, core.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, core.NewStoreError(fmt.Sprintf("update %s record", t.kind), err)
	}
	return toRecord(row), nil
}

func (t *RecordTable) Delete(ctx context.Context, id, ownerID string) error {
	n, err := t.queries.DeleteRecord(ctx, id, ownerID)
	if err != nil {
		return core.NewStoreError(fmt.Sprintf("delete %s record", t.kind), err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s record %s: %w", t.kind, id, core.ErrNotFound)
	}
	return nil
}

func toRecord(row Row) core.Record {
	return core.Record{
		ID:         row.ID,
		OwnerID:    row.OwnerID,
		Ciphertext: row.EncryptedData,
		CreatedAt:  time.Unix(0, row.CreatedAt).UTC(),
		UpdatedAt:  time.Unix(0, row.UpdatedAt).UTC(),
	}
}
