package services

import (
	"errors"
	"testing"
	"time"

	"agencycrm/internal/core"
)

func TestResolvePeriodPresets(t *testing.T) {
	now := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		wantFrom time.Time
	}{
		{PeriodLastWeek, time.Date(2025, 3, 24, 10, 0, 0, 0, time.UTC)},
		{PeriodLastMonth, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)}, // Feb 31 normalizes
		{PeriodLastQuarter, time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)},
		{PeriodLastYear, time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ResolvePeriod(tt.name, now, time.Time{}, time.Time{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !rng.From.Equal(tt.wantFrom) || !rng.To.Equal(now) {
				t.Errorf("range = [%s, %s], want [%s, %s]", rng.From, rng.To, tt.wantFrom, now)
			}
		})
	}
}

func TestResolvePeriodAllTime(t *testing.T) {
	for _, name := range []string{"", PeriodAllTime, " ALL-TIME "} {
		rng, err := ResolvePeriod(name, time.Now(), time.Time{}, time.Time{})
		if err != nil || !rng.IsUnbounded() {
			t.Errorf("ResolvePeriod(%q) = %+v, %v", name, rng, err)
		}
	}
}

func TestResolvePeriodCustom(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	rng, err := ResolvePeriod(PeriodCustom, time.Now(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rng.Contains(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("bare end date should cover the whole day")
	}
	if rng.Contains(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range leaks into the next day")
	}

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"missing start", time.Time{}, end},
		{"missing end", start, time.Time{}},
		{"end before start", end, start.Add(-48 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolvePeriod(PeriodCustom, time.Now(), tt.start, tt.end)
			if !errors.Is(err, core.ErrInvalidPeriod) {
				t.Errorf("expected ErrInvalidPeriod, got %v", err)
			}
		})
	}
}

func TestResolvePeriodUnknown(t *testing.T) {
	if _, err := ResolvePeriod("fortnight", time.Now(), time.Time{}, time.Time{}); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestRegisterPeriodResolver(t *testing.T) {
	RegisterPeriodResolver("last-fortnight", RelativeResolver{Days: 14})
	defer delete(periodStrategies, "last-fortnight")

	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	rng, err := ResolvePeriod("last-fortnight", now, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rng.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("From = %s", rng.From)
	}
}

func TestParseDateField(t *testing.T) {
	tests := []struct {
		in      string
		want    DateField
		wantErr bool
	}{
		{"", DateFieldCreated, false},
		{"createdAt", DateFieldCreated, false},
		{"updated", DateFieldUpdated, false},
		{"deletedAt", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDateField(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDateField(%q) = %q, %v", tt.in, got, err)
		}
	}
}
