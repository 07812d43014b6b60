package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agencycrm/internal/amqp"
	"agencycrm/internal/core"
	"agencycrm/internal/ledger"
	"agencycrm/internal/records"
)

// LedgerWorker turns record events into payment ledger rows.
type LedgerWorker struct {
	records records.RecordReader
	ledger  ledger.Writer
	now     func() time.Time
}

func NewLedgerWorker(rr records.RecordReader, w ledger.Writer) *LedgerWorker {
	return &LedgerWorker{records: rr, ledger: w, now: time.Now}
}

// HandleMessage is an amqp.Handler. Returning an error requeues the message.
func (w *LedgerWorker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	switch msg.Type {
	case amqp.EventPaymentStatusChanged:
		return w.handleStatusChanged(ctx, msg)
	case amqp.EventRecordDeleted:
		return w.handleDeleted(ctx, msg)
	}
	// Unknown types cannot succeed on retry.
	slog.WarnContext(ctx, "Ignoring unknown event", "type", msg.Type, "id", msg.ID)
	return nil
}

func (w *LedgerWorker) handleStatusChanged(ctx context.Context, msg *amqp.Message) error {
	rec, err := w.records.Get(ctx, msg.Kind, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got here; the delete event writes its own row.
			slog.WarnContext(ctx, "Record gone before ledger sync", "kind", msg.Kind, "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get %s %s: %w", msg.Kind, msg.ID, err)
	}

	row := ledger.NewRow(w.at(msg), msg.Type, rec, msg.Actor)
	ref, err := w.ledger.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}

	slog.InfoContext(ctx, "Payment status written to ledger",
		"kind", msg.Kind,
		"id", msg.ID,
		"from", msg.From,
		"to", rec.PaymentStatus,
		"ref", ref)
	return nil
}

func (w *LedgerWorker) handleDeleted(ctx context.Context, msg *amqp.Message) error {
	row := ledger.Row{
		At:       w.at(msg),
		Event:    msg.Type,
		Kind:     msg.Kind,
		RecordID: msg.ID,
		Actor:    msg.Actor,
	}
	ref, err := w.ledger.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}
	slog.InfoContext(ctx, "Deletion written to ledger", "kind", msg.Kind, "id", msg.ID, "ref", ref)
	return nil
}

// Snapshot appends one row per Accepted record of kind. It backs up the
// event flow when messages were lost.
func (w *LedgerWorker) Snapshot(ctx context.Context, kind core.RecordKind) (int, error) {
	var (
		all []core.Record
		err error
	)
	if sl, ok := w.records.(records.StatusLister); ok {
		all, err = sl.ListByStatus(ctx, kind, core.StatusAccepted)
	} else {
		all, err = w.records.List(ctx, kind)
	}
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", kind, err)
	}
	now := w.now()
	written := 0
	for _, rec := range all {
		if rec.PaymentStatus != core.StatusAccepted {
			continue
		}
		if _, err := w.ledger.Append(ctx, ledger.NewRow(now, "snapshot", rec, "")); err != nil {
			return written, fmt.Errorf("append %s %s: %w", kind, rec.ID, err)
		}
		written++
	}
	slog.InfoContext(ctx, "Ledger snapshot written", "kind", kind, "rows", written)
	return written, nil
}

func (w *LedgerWorker) at(msg *amqp.Message) time.Time {
	if msg.Timestamp.IsZero() {
		return w.now()
	}
	return msg.Timestamp
}
