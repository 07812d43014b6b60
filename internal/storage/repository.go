package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"agencycrm/internal/core"
	"agencycrm/internal/records"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ records.RecordStore  = (*SQLiteRepository)(nil)
	_ records.ProfileStore = (*SQLiteRepository)(nil)
)

// SQLiteRepository keeps each record as a JSON document next to the columns
// the tables filter and sort on.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Create(ctx context.Context, rec core.Record) error {
	row, err := recordRow(rec)
	if err != nil {
		return err
	}
	if err := r.queries.InsertRecord(ctx, row); err != nil {
		return fmt.Errorf("insert %s %s: %w", rec.Kind, rec.ID, err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite", "kind", rec.Kind, "id", rec.ID)
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec core.Record) error {
	row, err := recordRow(rec)
	if err != nil {
		return err
	}
	n, err := r.queries.UpdateRecord(ctx, row)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", rec.Kind, rec.ID, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, kind core.RecordKind, id string) error {
	if !kind.IsValid() {
		return core.ErrInvalidKind
	}
	n, err := r.queries.DeleteRecord(ctx, kind.String(), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, kind core.RecordKind, id string) (core.Record, error) {
	if !kind.IsValid() {
		return core.Record{}, core.ErrInvalidKind
	}
	doc, err := r.queries.GetRecordDoc(ctx, kind.String(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Record{}, core.ErrNotFound
		}
		return core.Record{}, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return decodeRecord(doc, kind)
}

func (r *SQLiteRepository) List(ctx context.Context, kind core.RecordKind) ([]core.Record, error) {
	if !kind.IsValid() {
		return nil, core.ErrInvalidKind
	}
	docs, err := r.queries.ListRecordDocs(ctx, kind.String())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return decodeRecords(docs, kind)
}

// ListByStatus returns the records of kind in status, oldest first.
func (r *SQLiteRepository) ListByStatus(ctx context.Context, kind core.RecordKind, status core.PaymentStatus) ([]core.Record, error) {
	if !kind.IsValid() {
		return nil, core.ErrInvalidKind
	}
	docs, err := r.queries.ListRecordDocsByStatus(ctx, kind.String(), status.String())
	if err != nil {
		return nil, fmt.Errorf("list %s %s: %w", status, kind, err)
	}
	return decodeRecords(docs, kind)
}

func decodeRecords(docs []string, kind core.RecordKind) ([]core.Record, error) {
	out := make([]core.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := decodeRecord(doc, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, email string) (core.Profile, error) {
	doc, err := r.queries.GetProfileDoc(ctx, profileKey(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Profile{}, core.ErrNotFound
		}
		return core.Profile{}, fmt.Errorf("get profile %s: %w", email, err)
	}
	var p core.Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return core.Profile{}, fmt.Errorf("decode profile %s: %w", email, err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	docs, err := r.queries.ListProfileDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]core.Profile, 0, len(docs))
	for _, doc := range docs {
		var p core.Profile
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	err = r.queries.UpsertProfile(ctx, ProfileRow{
		Email: profileKey(p.Email),
		Doc:   string(doc),
	})
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Email, err)
	}
	return nil
}

func recordRow(rec core.Record) (RecordRow, error) {
	if !rec.Kind.IsValid() {
		return RecordRow{}, core.ErrInvalidKind
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return RecordRow{}, fmt.Errorf("encode %s %s: %w", rec.Kind, rec.ID, err)
	}
	return RecordRow{
		Kind:          rec.Kind.String(),
		ID:            rec.ID,
		PaymentStatus: rec.PaymentStatus.String(),
		CreatedAt:     rec.CreatedAt.UnixNano(),
		UpdatedAt:     rec.UpdatedAt.UnixNano(),
		Doc:           string(doc),
	}, nil
}

func decodeRecord(doc string, kind core.RecordKind) (core.Record, error) {
	var rec core.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return core.Record{}, fmt.Errorf("decode %s: %w", kind, err)
	}
	rec.Kind = kind
	return rec, nil
}

func profileKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
