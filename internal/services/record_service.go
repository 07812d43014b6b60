package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"agencycrm/internal/core"
	"agencycrm/internal/log"
	"agencycrm/internal/records"
)

// EventPublisher announces record changes to the worker.
type EventPublisher interface {
	PublishPaymentStatusChanged(ctx context.Context, kind core.RecordKind, id string, from, to core.PaymentStatus, actor string) error
	PublishRecordDeleted(ctx context.Context, kind core.RecordKind, id, actor string) error
}

// RecordPatch carries field-level updates. Nil fields are left alone.
// Payment status is not patchable; it only moves through CyclePaymentStatus.
type RecordPatch struct {
	Student    *string              `json:"student"`
	Email      *string              `json:"email"`
	Phone      *string              `json:"phone"`
	Home       *core.Home           `json:"home"`
	Course     *[]core.Course       `json:"course"`
	Services   *[]core.Service      `json:"services"`
	Discount   *core.Amount         `json:"discount"`
	Transcript *[]core.PaymentProof `json:"transcript"`
	Progress   *string              `json:"progress"`
	Note       *string              `json:"note"`
}

func (p RecordPatch) apply(r *core.Record) {
	if p.Student != nil {
		r.Student = strings.TrimSpace(*p.Student)
	}
	if p.Email != nil {
		r.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		r.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Home != nil {
		r.Home = *p.Home
	}
	if p.Course != nil {
		r.Course = append([]core.Course(nil), (*p.Course)...)
	}
	if p.Services != nil {
		r.Services = append([]core.Service(nil), (*p.Services)...)
	}
	if p.Discount != nil {
		r.Discount = *p.Discount
	}
	if p.Transcript != nil {
		r.Transcript = append([]core.PaymentProof(nil), (*p.Transcript)...)
	}
	if p.Progress != nil {
		r.Progress = strings.TrimSpace(*p.Progress)
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
}

// RecordService orchestrates lead and quotation operations across the
// record store, the profile store and the event publisher.
type RecordService struct {
	records  records.RecordStore
	profiles records.ProfileStore
	events   EventPublisher
	now      func() time.Time
	logger   *log.StructuredLogger
}

func NewRecordService(rs records.RecordStore, ps records.ProfileStore, events EventPublisher) *RecordService {
	return &RecordService{
		records:  rs,
		profiles: ps,
		events:   events,
		now:      time.Now,
		logger: log.NewStructuredLogger(log.New(log.Config{
			Component: log.ComponentRecord,
			Handler:   slog.Default().Handler(),
		})),
	}
}

// WithLogger replaces the structured logger.
func (s *RecordService) WithLogger(l *log.Logger) *RecordService {
	s.logger = log.NewStructuredLogger(l.WithComponent(log.ComponentRecord))
	return s
}

// WithClock replaces the time source; used by tests.
func (s *RecordService) WithClock(now func() time.Time) *RecordService {
	s.now = now
	return s
}

// ScopeFor resolves what actor may see. Unknown actors are forbidden.
func (s *RecordService) ScopeFor(ctx context.Context, actor string) (Scope, error) {
	if strings.TrimSpace(actor) == "" {
		return Scope{}, fmt.Errorf("%w: no actor", core.ErrForbidden)
	}
	profile, err := s.profiles.GetProfile(ctx, actor)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Scope{}, fmt.Errorf("%w: unknown actor %s", core.ErrForbidden, actor)
		}
		return Scope{}, fmt.Errorf("get actor profile: %w", err)
	}

	var all []core.Profile
	if profile.Role == core.RoleAgent {
		all, err = s.profiles.ListProfiles(ctx)
		if err != nil {
			return Scope{}, fmt.Errorf("list profiles: %w", err)
		}
	}
	return NewScope(profile, all), nil
}

// Create stores a new lead or quotation owned by r.Author (the actor when empty).
func (s *RecordService) Create(ctx context.Context, actor string, r core.Record) (core.Record, error) {
	scope, err := s.ScopeFor(ctx, actor)
	if err != nil {
		return core.Record{}, err
	}

	now := s.now()
	r.ID = uuid.NewString()
	if strings.TrimSpace(r.Author) == "" {
		r.Author = scope.Actor.Email
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = core.StatusPending
	}
	r.PaymentAcceptedAt = nil
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	if r.PaymentStatus != core.StatusPending && !scope.CanChangePaymentStatus() {
		return core.Record{}, fmt.Errorf("%w: only admins may set payment status", core.ErrForbidden)
	}
	if r.PaymentStatus == core.StatusAccepted {
		r.PaymentAcceptedAt = &now
	}
	if !scope.CanEdit(r) {
		return core.Record{}, fmt.Errorf("%w: cannot create records for %s", core.ErrForbidden, r.Author)
	}

	if err := s.records.Create(ctx, r); err != nil {
		return core.Record{}, fmt.Errorf("create %s: %w", r.Kind, err)
	}

	s.logger.LogRecordCreated(ctx, r.Kind.String(), r.ID, r.Author, r.Home.Country, scope.Actor.Email)
	return r, nil
}

// Get returns a record the actor may view.
func (s *RecordService) Get(ctx context.Context, actor string, kind core.RecordKind, id string) (core.Record, error) {
	scope, err := s.ScopeFor(ctx, actor)
	if err != nil {
		return core.Record{}, err
	}
	return s.getScoped(ctx, scope, kind, id)
}

func (s *RecordService) getScoped(ctx context.Context, scope Scope, kind core.RecordKind, id string) (core.Record, error) {
	if !kind.IsValid() {
		return core.Record{}, core.ErrInvalidKind
	}
	r, err := s.records.Get(ctx, kind, id)
	if err != nil {
		return core.Record{}, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	// Out-of-scope records look absent rather than forbidden.
	if !scope.CanView(r) {
		return core.Record{}, fmt.Errorf("get %s %s: %w", kind, id, core.ErrNotFound)
	}
	return r, nil
}

// List returns one page of the actor's records of a kind.
func (s *RecordService) List(ctx context.Context, actor string, kind core.RecordKind, q ListQuery) (Page, error) {
	if !kind.IsValid() {
		return Page{}, core.ErrInvalidKind
	}
	scope, err := s.ScopeFor(ctx, actor)
	if err != nil {
		return Page{}, err
	}
	all, err := s.records.List(ctx, kind)
	if err != nil {
		return Page{}, fmt.Errorf("list %s: %w", kind, err)
	}
	return ApplyQuery(scope.Filter(all), q), nil
}

// Patch applies field updates and bumps UpdatedAt.
func (s *RecordService) Patch(ctx context.Context, actor string, kind core.RecordKind, id string, p RecordPatch) (core.Record, error) {
	scope, err := s.ScopeFor(ctx, actor)
	if err != nil {
		return core.Record{}, err
	}
	r, err := s.getScoped(ctx, scope, kind, id)
	if err != nil {
		return core.Record{}, err
	}
	if !scope.CanEdit(r) {
		return core.Record{}, fmt.Errorf("%w: cannot edit %s %s", core.ErrForbidden, kind, id)
	}

	p.apply(&r)
	r.UpdatedAt = s.now()
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	if err := s.records.Update(ctx, r); err != nil {
		return core.Record{}, fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	return r, nil
}

// Delete hard-deletes a record and announces it.
func (s *RecordService) Delete(ctx context.Context, actor string, kind core.RecordKind, id string) error {
	scope, err := s.ScopeFor(ctx, actor)
	if err != nil {
		return err
	}
	r, err := s.getScoped(ctx, scope, kind, id)
	if err != nil {
		return err
	}
	if !scope.CanEdit(r) {
		return fmt.Errorf("%w: cannot delete %s %s", core.ErrForbidden, kind, id)
	}
	if err := s.records.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}

	if s.events != nil {
		if err := s.events.PublishRecordDeleted(ctx, kind, id, scope.Actor.Email); err != nil {
			// The record is already gone; the ledger catches up on its own.
			s.logger.LogError(ctx, "Failed to publish delete event", err, log.ComponentAMQP, log.OpDelete,
				log.NewFields().WithRecord(kind.String(), id, "", ""))
		}
	}
	return nil
}

// CyclePaymentStatus advances the payment status by one step. Only
// privileged actors may do so.
func (s *RecordService) CyclePaymentStatus(ctx context.Context, actor string, kind core.RecordKind, id string) (core.Record, error) {
	scope, err := s.ScopeFor(ctx, actor)
	if err != nil {
		return core.Record{}, err
	}
	if !scope.CanChangePaymentStatus() {
		return core.Record{}, fmt.Errorf("%w: %s may not change payment status", core.ErrForbidden, actor)
	}
	r, err := s.getScoped(ctx, scope, kind, id)
	if err != nil {
		return core.Record{}, err
	}

	prev := r.AdvancePaymentStatus(s.now())
	if err := s.records.Update(ctx, r); err != nil {
		return core.Record{}, fmt.Errorf("update payment status: %w", err)
	}

	s.logger.LogStatusChanged(ctx, kind.String(), id, prev.String(), r.PaymentStatus.String(), scope.Actor.Email)

	if s.events != nil {
		if err := s.events.PublishPaymentStatusChanged(ctx, kind, id, prev, r.PaymentStatus, scope.Actor.Email); err != nil {
			s.logger.LogError(ctx, "Failed to publish status change", err, log.ComponentAMQP, log.OpStatusChange,
				log.NewFields().WithRecord(kind.String(), id, "", ""))
		}
	}
	return r, nil
}

// Financials computes the money picture of one record.
func (s *RecordService) Financials(ctx context.Context, actor string, kind core.RecordKind, id string) (core.Financials, error) {
	r, err := s.Get(ctx, actor, kind, id)
	if err != nil {
		return core.Financials{}, err
	}
	return core.ComputeFinancials(r), nil
}

// ConvertToQuotation copies a lead into a new Pending quotation that keeps
// a reference to the lead. The transcript carries over.
func (s *RecordService) ConvertToQuotation(ctx context.Context, actor string, leadID string) (core.Record, error) {
	scope, err := s.ScopeFor(ctx, actor)
	if err != nil {
		return core.Record{}, err
	}
	lead, err := s.getScoped(ctx, scope, core.KindLead, leadID)
	if err != nil {
		return core.Record{}, err
	}
	if lead.Kind != core.KindLead {
		return core.Record{}, core.ErrNotALead
	}

	now := s.now()
	q := lead.Clone()
	q.ID = uuid.NewString()
	q.Kind = core.KindQuotation
	q.LeadID = lead.ID
	q.PaymentStatus = core.StatusPending
	q.PaymentAcceptedAt = nil
	q.CreatedAt = now
	q.UpdatedAt = now

	if err := s.records.Create(ctx, q); err != nil {
		return core.Record{}, fmt.Errorf("create quotation: %w", err)
	}
	s.logger.LogLeadConverted(ctx, lead.ID, q.ID, q.Author, q.Home.Country, scope.Actor.Email)
	return q, nil
}

// Close releases the event publisher when it holds a connection.
func (s *RecordService) Close() error {
	if c, ok := s.events.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close event publisher: %w", err)
		}
	}
	return nil
}
