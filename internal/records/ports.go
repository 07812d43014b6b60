package records

import (
	"context"

	"agencycrm/internal/core"
)

// Ports for outbound adapters.
type (
	RecordWriter interface {
		// Create stores a new record; the ID is assigned by the caller.
		Create(ctx context.Context, r core.Record) error
		// Update replaces a stored record. Returns core.ErrNotFound if absent.
		Update(ctx context.Context, r core.Record) error
		// Delete hard-deletes a record. Returns core.ErrNotFound if absent.
		Delete(ctx context.Context, kind core.RecordKind, id string) error
	}

	RecordReader interface {
		// Get returns core.ErrNotFound when no record matches.
		Get(ctx context.Context, kind core.RecordKind, id string) (core.Record, error)
		// List returns every record of a kind, oldest first.
		List(ctx context.Context, kind core.RecordKind) ([]core.Record, error)
	}

	// StatusLister is implemented by stores that can filter by payment
	// status without loading every record of a kind.
	StatusLister interface {
		ListByStatus(ctx context.Context, kind core.RecordKind, status core.PaymentStatus) ([]core.Record, error)
	}

	RecordStore interface {
		RecordReader
		RecordWriter
	}

	// ProfileStore holds staff, agent and sub-agent profiles keyed by email.
	ProfileStore interface {
		GetProfile(ctx context.Context, email string) (core.Profile, error)
		ListProfiles(ctx context.Context) ([]core.Profile, error)
		SaveProfile(ctx context.Context, p core.Profile) error
	}
)
