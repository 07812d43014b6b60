package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"agencycrm/internal/amqp"
	"agencycrm/internal/core"
	"agencycrm/internal/ledger"
	ledgermem "agencycrm/internal/ledger/memory"
	"agencycrm/internal/records"
	"agencycrm/internal/records/memory"
)

type failingWriter struct{}

func (failingWriter) Append(context.Context, ledger.Row) (string, error) {
	return "", errors.New("quota exceeded")
}

func fixture() (*memory.Store, *ledgermem.Store, *LedgerWorker) {
	store := memory.New(nil,
		core.Record{ID: "q1", Kind: core.KindQuotation, Student: "Asha", Author: "agent@x",
			Course: []core.Course{{CourseFee: "1,500"}}, Transcript: []core.PaymentProof{{Amount: "500"}},
			PaymentStatus: core.StatusAccepted},
		core.Record{ID: "q2", Kind: core.KindQuotation, Student: "Bikash", PaymentStatus: core.StatusPending},
	)
	rows := ledgermem.New()
	return store, rows, NewLedgerWorker(store, rows)
}

func TestLedgerWorker_StatusChanged(t *testing.T) {
	_, rows, w := fixture()
	ts := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	msg := &amqp.Message{Type: amqp.EventPaymentStatusChanged, Kind: core.KindQuotation, ID: "q1",
		From: core.StatusPending, To: core.StatusAccepted, Actor: "admin@x", Timestamp: ts}

	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	got := rows.Rows()
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	r := got[0]
	if !r.At.Equal(ts) || r.Student != "Asha" || r.Due != "1,000.00" || r.Actor != "admin@x" {
		t.Errorf("unexpected row %+v", r)
	}
}

func TestLedgerWorker_StatusChangedRecordGone(t *testing.T) {
	_, rows, w := fixture()
	msg := &amqp.Message{Type: amqp.EventPaymentStatusChanged, Kind: core.KindQuotation, ID: "missing"}
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("missing record should not requeue: %v", err)
	}
	if len(rows.Rows()) != 0 {
		t.Errorf("no row expected")
	}
}

func TestLedgerWorker_Deleted(t *testing.T) {
	_, rows, w := fixture()
	msg := &amqp.Message{Type: amqp.EventRecordDeleted, Kind: core.KindLead, ID: "l9", Actor: "agent@x"}
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	got := rows.Rows()
	if len(got) != 1 || got[0].RecordID != "l9" || got[0].Event != amqp.EventRecordDeleted || got[0].At.IsZero() {
		t.Fatalf("unexpected rows %+v", got)
	}
}

func TestLedgerWorker_WriterFailureRequeues(t *testing.T) {
	store, _, _ := fixture()
	w := NewLedgerWorker(store, failingWriter{})
	msg := &amqp.Message{Type: amqp.EventPaymentStatusChanged, Kind: core.KindQuotation, ID: "q1"}
	if err := w.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestLedgerWorker_Snapshot(t *testing.T) {
	_, rows, w := fixture()
	n, err := w.Snapshot(context.Background(), core.KindQuotation)
	if err != nil || n != 1 {
		t.Fatalf("Snapshot() = %d, %v", n, err)
	}
	if rows.Rows()[0].RecordID != "q1" {
		t.Errorf("only accepted records belong in the snapshot")
	}
}

// statusOnlyReader serves snapshots through ListByStatus and fails full listings.
type statusOnlyReader struct {
	records.RecordReader
	accepted []core.Record
}

func (r statusOnlyReader) List(context.Context, core.RecordKind) ([]core.Record, error) {
	return nil, errors.New("full listing not expected")
}

func (r statusOnlyReader) ListByStatus(_ context.Context, _ core.RecordKind, status core.PaymentStatus) ([]core.Record, error) {
	if status != core.StatusAccepted {
		return nil, errors.New("unexpected status filter")
	}
	return r.accepted, nil
}

func TestLedgerWorker_SnapshotUsesStatusLister(t *testing.T) {
	rows := ledgermem.New()
	reader := statusOnlyReader{accepted: []core.Record{
		{ID: "q7", Kind: core.KindQuotation, PaymentStatus: core.StatusAccepted},
	}}
	w := NewLedgerWorker(reader, rows)

	n, err := w.Snapshot(context.Background(), core.KindQuotation)
	if err != nil || n != 1 {
		t.Fatalf("Snapshot() = %d, %v", n, err)
	}
	if rows.Rows()[0].RecordID != "q7" {
		t.Errorf("row = %+v", rows.Rows()[0])
	}
}
