package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"agencycrm/internal/core"
	"agencycrm/internal/records"
)

// ReportQuery selects a progress report.
type ReportQuery struct {
	Kind      core.RecordKind
	Grouping  string
	Period    string
	Start     time.Time // custom period only
	End       time.Time // custom period only
	DateField DateField
}

// Key is a stable cache key for the query.
func (q ReportQuery) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", q.Kind, q.Grouping, q.Period,
		q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339), q.DateField)
}

// ProgressReport is the sales-target progress of every group in a period.
type ProgressReport struct {
	Kind        core.RecordKind     `json:"kind"`
	Grouping    string              `json:"grouping"`
	Period      string              `json:"period"`
	From        *time.Time          `json:"from,omitempty"`
	To          *time.Time          `json:"to,omitempty"`
	Groups      []core.GroupSummary `json:"groups"`
	Total       core.GroupSummary   `json:"total"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// ReportService builds dashboard aggregates from the stores.
type ReportService struct {
	records  records.RecordReader
	profiles records.ProfileStore
	now      func() time.Time
}

func NewReportService(rr records.RecordReader, ps records.ProfileStore) *ReportService {
	return &ReportService{records: rr, profiles: ps, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Progress aggregates the actor's visible records of q.Kind by q.Grouping
// within q.Period, against the sales targets of the visible profiles.
func (s *ReportService) Progress(ctx context.Context, actor string, q ReportQuery) (ProgressReport, error) {
	if q.Kind == "" {
		q.Kind = core.KindQuotation
	}
	if !q.Kind.IsValid() {
		return ProgressReport{}, core.ErrInvalidKind
	}
	grouping, err := GetGrouping(q.Grouping)
	if err != nil {
		return ProgressReport{}, err
	}
	q.Period = strings.ToLower(strings.TrimSpace(q.Period))
	now := s.now()
	rng, err := ResolvePeriod(q.Period, now, q.Start, q.End)
	if err != nil {
		return ProgressReport{}, err
	}
	if q.DateField == "" {
		q.DateField = DateFieldCreated
	}

	actorProfile, err := s.profiles.GetProfile(ctx, actor)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ProgressReport{}, fmt.Errorf("%w: unknown actor %s", core.ErrForbidden, actor)
		}
		return ProgressReport{}, fmt.Errorf("get actor profile: %w", err)
	}

	var (
		all      []core.Record
		profiles []core.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.records.List(gctx, q.Kind)
		if err != nil {
			return fmt.Errorf("list %s: %w", q.Kind, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		profiles, err = s.profiles.ListProfiles(gctx)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ProgressReport{}, err
	}

	scope := NewScope(actorProfile, profiles)
	visibleProfiles := make([]core.Profile, 0, len(profiles))
	for _, p := range profiles {
		if scope.CanViewProfile(p) && p.SalesTarget.Decimal().IsPositive() {
			visibleProfiles = append(visibleProfiles, p)
		}
	}

	filter := &DateFilter{Range: rng, Field: q.DateField}
	targets := ProfileTargets(visibleProfiles, grouping.ProfileKey)
	groups := AggregateByGroup(scope.Filter(all), grouping.RecordKey, filter, targets)

	report := ProgressReport{
		Kind:        q.Kind,
		Grouping:    grouping.Name,
		Period:      periodName(q.Period),
		Groups:      groups,
		Total:       TotalOf(groups),
		GeneratedAt: now,
	}
	if !rng.From.IsZero() {
		from := rng.From
		report.From = &from
	}
	if !rng.To.IsZero() {
		to := rng.To
		report.To = &to
	}
	return report, nil
}

func periodName(p string) string {
	if p == "" {
		return PeriodAllTime
	}
	return p
}
