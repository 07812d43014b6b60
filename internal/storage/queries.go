package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type RecordRow struct {
	Kind          string
	ID            string
	PaymentStatus string
	CreatedAt     int64
	UpdatedAt     int64
	Doc           string
}

const insertRecord = `
INSERT INTO records (kind, id, payment_status, created_at, updated_at, doc)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRecord(ctx context.Context, arg RecordRow) error {
	_, err := q.db.ExecContext(ctx, insertRecord,
		arg.Kind, arg.ID, arg.PaymentStatus, arg.CreatedAt, arg.UpdatedAt, arg.Doc)
	return err
}

const updateRecord = `
UPDATE records
SET payment_status = ?, created_at = ?, updated_at = ?, doc = ?
WHERE kind = ? AND id = ?`

func (q *Queries) UpdateRecord(ctx context.Context, arg RecordRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateRecord,
		arg.PaymentStatus, arg.CreatedAt, arg.UpdatedAt, arg.Doc, arg.Kind, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteRecord = `DELETE FROM records WHERE kind = ? AND id = ?`

func (q *Queries) DeleteRecord(ctx context.Context, kind, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecord, kind, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getRecordDoc = `SELECT doc FROM records WHERE kind = ? AND id = ?`

func (q *Queries) GetRecordDoc(ctx context.Context, kind, id string) (string, error) {
	var doc string
	err := q.db.QueryRowContext(ctx, getRecordDoc, kind, id).Scan(&doc)
	return doc, err
}

const listRecordDocs = `SELECT doc FROM records WHERE kind = ? ORDER BY created_at, rowid`

func (q *Queries) ListRecordDocs(ctx context.Context, kind string) ([]string, error) {
	return q.scanDocs(ctx, listRecordDocs, kind)
}

const listRecordDocsByStatus = `
SELECT doc FROM records WHERE kind = ? AND payment_status = ? ORDER BY created_at, rowid`

func (q *Queries) ListRecordDocsByStatus(ctx context.Context, kind, status string) ([]string, error) {
	return q.scanDocs(ctx, listRecordDocsByStatus, kind, status)
}

const upsertProfile = `
INSERT INTO profiles (email, doc)
VALUES (?, ?)
ON CONFLICT (email) DO UPDATE SET doc = excluded.doc`

type ProfileRow struct {
	Email string
	Doc   string
}

func (q *Queries) UpsertProfile(ctx context.Context, arg ProfileRow) error {
	_, err := q.db.ExecContext(ctx, upsertProfile, arg.Email, arg.Doc)
	return err
}

const getProfileDoc = `SELECT doc FROM profiles WHERE email = ?`

func (q *Queries) GetProfileDoc(ctx context.Context, email string) (string, error) {
	var doc string
	err := q.db.QueryRowContext(ctx, getProfileDoc, email).Scan(&doc)
	return doc, err
}

const listProfileDocs = `SELECT doc FROM profiles ORDER BY email`

func (q *Queries) ListProfileDocs(ctx context.Context) ([]string, error) {
	return q.scanDocs(ctx, listProfileDocs)
}

func (q *Queries) scanDocs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
