package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the record statements against one table.
type Queries struct {
	db    DBTX
	table string
}

// New binds the statements to table, which must be one of the migrated tables.
func New(db DBTX, table string) *Queries {
	return &Queries{db: db, table: table}
}

// Row mirrors one record row.
type Row struct {
	ID            string
	OwnerID       string
	EncryptedData string
	CreatedAt     int64
	UpdatedAt     int64
}

type CreateRecordParams struct {
	ID            string
	OwnerID       string
	EncryptedData string
	CreatedAt     int64
}

func (q *Queries) CreateRecord(ctx context.Context, arg CreateRecordParams) (Row, error) {
	query := fmt.Sprintf(`INSERT INTO %s (id, owner_id, encrypted_data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, owner_id, encrypted_data, created_at, updated_at`, q.table)
	row := q.db.QueryRowContext(ctx, query, arg.ID, arg.OwnerID, arg.EncryptedData, arg.CreatedAt, arg.CreatedAt)
	return scanRow(row)
}

func (q *Queries) ListRecords(ctx context.Context, ownerID string, limit int64) ([]Row, error) {
	// SQLite treats a negative LIMIT as no limit
	query := fmt.Sprintf(`SELECT id, owner_id, encrypted_data, created_at, updated_at
FROM %s
WHERE owner_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, q.table)
	rows, err := q.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Row
	for rows.Next() {
		var i Row
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.EncryptedData, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) GetRecord(ctx context.Context, id, ownerID string) (Row, error) {
	query := fmt.Sprintf(`SELECT id, owner_id, encrypted_data, created_at, updated_at
FROM %s
WHERE id = ? AND owner_id = ?`, q.table)
	return scanRow(q.db.QueryRowContext(ctx, query, id, ownerID))
}

type UpdateRecordParams struct {
	ID            string
	OwnerID       string
	EncryptedData string
	UpdatedAt     int64
}

func (q *Queries) UpdateRecord(ctx context.Context, arg UpdateRecordParams) (Row, error) {
	query := fmt.Sprintf(`UPDATE %s
SET encrypted_data = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
RETURNING id, owner_id, encrypted_data, created_at, updated_at`, q.table)
	row := q.db.QueryRowContext(ctx, query, arg.EncryptedData, arg.UpdatedAt, arg.ID, arg.OwnerID)
	return scanRow(row)
}

func (q *Queries) DeleteRecord(ctx context.Context, id, ownerID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND owner_id = ?`, q.table)
	res, err := q.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRow(row *sql.Row) (Row, error) {
	var i Row
	err := row.Scan(&i.ID, &i.OwnerID, &i.EncryptedData, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
