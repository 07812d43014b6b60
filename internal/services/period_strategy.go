// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for reporting periods. Each named
// preset (last-week, last-month, ...) has its own resolver that turns "now"
// into the inclusive date range the dashboards filter on.

package services

import (
	"fmt"
	"strings"
	"time"

	"agencycrm/internal/core"
)

// Period names accepted by reports and table filters.
const (
	PeriodLastWeek    = "last-week"
	PeriodLastMonth   = "last-month"
	PeriodLastQuarter = "last-quarter"
	PeriodLastYear    = "last-year"
	PeriodAllTime     = "all-time"
	PeriodCustom      = "custom"
)

// DateRange is an inclusive [From, To] window. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (d DateRange) Contains(t time.Time) bool {
	if !d.From.IsZero() && t.Before(d.From) {
		return false
	}
	if !d.To.IsZero() && t.After(d.To) {
		return false
	}
	return true
}

// IsUnbounded is true for the all-time range.
func (d DateRange) IsUnbounded() bool {
	return d.From.IsZero() && d.To.IsZero()
}

// PeriodResolver is the strategy interface for reporting periods.
type PeriodResolver interface {
	// Range returns the window the period covers when evaluated at now.
	Range(now time.Time) DateRange
}

// RelativeResolver covers the window ending at now and starting the given
// number of years, months and days earlier.
type RelativeResolver struct {
	Years, Months, Days int
}

// Range implements PeriodResolver.
func (r RelativeResolver) Range(now time.Time) DateRange {
	return DateRange{From: now.AddDate(-r.Years, -r.Months, -r.Days), To: now}
}

// AllTimeResolver never filters anything out.
type AllTimeResolver struct{}

// Range implements PeriodResolver.
func (AllTimeResolver) Range(time.Time) DateRange {
	return DateRange{}
}

// periodStrategies maps preset names to their resolvers.
var periodStrategies = map[string]PeriodResolver{
	PeriodLastWeek:    RelativeResolver{Days: 7},
	PeriodLastMonth:   RelativeResolver{Months: 1},
	PeriodLastQuarter: RelativeResolver{Months: 3},
	PeriodLastYear:    RelativeResolver{Years: 1},
	PeriodAllTime:     AllTimeResolver{},
}

// GetPeriodResolver returns the resolver for a preset name.
func GetPeriodResolver(name string) (PeriodResolver, error) {
	resolver, ok := periodStrategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown period %q", core.ErrInvalidPeriod, name)
	}
	return resolver, nil
}

// RegisterPeriodResolver adds or replaces a named preset.
func RegisterPeriodResolver(name string, resolver PeriodResolver) {
	periodStrategies[name] = resolver
}

// ResolvePeriod turns a period name into a range. An empty name means
// all-time. "custom" requires both start and end, with start not after end;
// the end day is widened to its last instant when given as a bare date.
func ResolvePeriod(name string, now time.Time, start, end time.Time) (DateRange, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = PeriodAllTime
	}
	if name == PeriodCustom {
		if start.IsZero() || end.IsZero() {
			return DateRange{}, fmt.Errorf("%w: custom period needs start and end", core.ErrInvalidPeriod)
		}
		if isMidnight(end) {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		if end.Before(start) {
			return DateRange{}, fmt.Errorf("%w: end %s before start %s", core.ErrInvalidPeriod,
				end.Format("2006-01-02"), start.Format("2006-01-02"))
		}
		return DateRange{From: start, To: end}, nil
	}

	resolver, err := GetPeriodResolver(name)
	if err != nil {
		return DateRange{}, err
	}
	return resolver.Range(now), nil
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// DateField selects which timestamp of a record a DateFilter looks at.
type DateField string

const (
	DateFieldCreated DateField = "createdAt"
	DateFieldUpdated DateField = "updatedAt"
)

// ParseDateField defaults to createdAt.
func ParseDateField(s string) (DateField, error) {
	switch strings.TrimSpace(s) {
	case "", string(DateFieldCreated), "created":
		return DateFieldCreated, nil
	case string(DateFieldUpdated), "updated":
		return DateFieldUpdated, nil
	}
	return "", fmt.Errorf("%w: unknown date field %q", core.ErrInvalidPeriod, s)
}

// DateFilter keeps records whose chosen timestamp lies in Range.
type DateFilter struct {
	Range DateRange
	Field DateField
}

// Matches reports whether r passes the filter. A nil filter matches all.
func (f *DateFilter) Matches(r core.Record) bool {
	if f == nil || f.Range.IsUnbounded() {
		return true
	}
	ts := r.CreatedAt
	if f.Field == DateFieldUpdated {
		ts = r.UpdatedAt
	}
	return f.Range.Contains(ts)
}
