// Package ledger records the payment history of leads and quotations in an
// append-only ledger (a spreadsheet in production).
package ledger

import (
	"context"
	"time"

	"agencycrm/internal/core"
)

// Row is one ledger line. Money columns are pre-formatted ("1,234.50").
type Row struct {
	At         time.Time
	Event      string
	Kind       core.RecordKind
	RecordID   string
	Student    string
	Author     string
	Country    string
	Status     core.PaymentStatus
	GrandTotal string
	Paid       string
	Due        string
	Actor      string
}

// Header names the columns in Values order.
var Header = []string{"At", "Event", "Kind", "Record", "Student", "Author", "Country", "Status", "Grand total", "Paid", "Due", "Actor"}

// NewRow builds a ledger row from a record's current state.
func NewRow(at time.Time, event string, r core.Record, actor string) Row {
	f := core.ComputeFinancials(r)
	return Row{
		At:         at,
		Event:      event,
		Kind:       r.Kind,
		RecordID:   r.ID,
		Student:    r.Student,
		Author:     r.Author,
		Country:    r.Home.Country,
		Status:     r.PaymentStatus,
		GrandTotal: core.FormatAmount(f.GrandTotal),
		Paid:       core.FormatAmount(f.PaidAmount),
		Due:        core.FormatAmount(f.DueAmount),
		Actor:      actor,
	}
}

// Values returns the row as spreadsheet cells.
func (r Row) Values() []any {
	return []any{
		r.At.UTC().Format(time.RFC3339),
		r.Event,
		r.Kind.String(),
		r.RecordID,
		r.Student,
		r.Author,
		r.Country,
		r.Status.String(),
		r.GrandTotal,
		r.Paid,
		r.Due,
		r.Actor,
	}
}

// Writer is the outbound port for the ledger.
type Writer interface {
	// Append adds a row and returns a reference to where it landed.
	Append(ctx context.Context, row Row) (ref string, err error)
}
