package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"agencycrm/internal/core"
	"agencycrm/internal/services"
)

func TestParseListQuery(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   string
		check   func(t *testing.T, q services.ListQuery)
		wantErr error
	}{
		{
			name:  "defaults",
			query: "",
			check: func(t *testing.T, q services.ListQuery) {
				if q.Page != 1 || q.PageSize != services.DefaultPageSize {
					t.Errorf("paging = %d/%d", q.Page, q.PageSize)
				}
				if q.SortBy != services.SortCreatedAt || !q.Desc {
					t.Errorf("sort = %s desc=%v", q.SortBy, q.Desc)
				}
				if q.Dates != nil || q.Status != "" {
					t.Errorf("unexpected filters: %+v", q)
				}
			},
		},
		{
			name:  "filters and paging",
			query: "author=a@x&country=Nepal&status=accepted&q=ram&sort=dueAmount&order=asc&page=3&pageSize=500",
			check: func(t *testing.T, q services.ListQuery) {
				if q.Author != "a@x" || q.Country != "Nepal" || q.Search != "ram" {
					t.Errorf("filters = %+v", q)
				}
				if q.Status != core.StatusAccepted {
					t.Errorf("status = %s", q.Status)
				}
				if q.SortBy != services.SortDueAmount || q.Desc {
					t.Errorf("sort = %s desc=%v", q.SortBy, q.Desc)
				}
				if q.Page != 3 || q.PageSize != services.MaxPageSize {
					t.Errorf("paging = %d/%d", q.Page, q.PageSize)
				}
			},
		},
		{
			name:  "custom period",
			query: "period=custom&start=2024-01-01&end=2024-01-31&dateField=updatedAt",
			check: func(t *testing.T, q services.ListQuery) {
				if q.Dates == nil || q.Dates.Field != services.DateFieldUpdated {
					t.Fatalf("dates = %+v", q.Dates)
				}
				if !q.Dates.Range.To.After(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)) {
					t.Errorf("end day not widened: %v", q.Dates.Range.To)
				}
			},
		},
		{name: "bad status", query: "status=paid", wantErr: core.ErrInvalidStatus},
		{name: "bad period", query: "period=yesterday", wantErr: core.ErrInvalidPeriod},
		{name: "custom without end", query: "period=custom&start=2024-01-01", wantErr: core.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			q, err := ParseListQuery(values, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseListQuery: %v", err)
			}
			tt.check(t, q)
		})
	}
}

func TestParseListQuery_BadRequestErrors(t *testing.T) {
	for _, query := range []string{"sort=price", "order=up", "page=two", "period=custom&start=01/02/2024&end=2024-02-02"} {
		t.Run(query, func(t *testing.T) {
			values, _ := url.ParseQuery(query)
			_, err := ParseListQuery(values, time.Now())
			if statusFor(err) != http.StatusBadRequest {
				t.Errorf("status for %v = %d, want 400", err, statusFor(err))
			}
		})
	}
}

func TestParseReportQuery(t *testing.T) {
	values, _ := url.ParseQuery("kind=lead&groupBy=author&period=custom&start=2024-01-01&end=2024-03-31&dateField=updated")
	q, err := ParseReportQuery(values)
	if err != nil {
		t.Fatalf("ParseReportQuery: %v", err)
	}
	if q.Kind != core.KindLead || q.Grouping != "author" || q.Period != "custom" || q.DateField != services.DateFieldUpdated {
		t.Errorf("query = %+v", q)
	}
	if q.Start.Month() != time.January || q.End.Month() != time.March {
		t.Errorf("dates = %v..%v", q.Start, q.End)
	}

	values, _ = url.ParseQuery("kind=invoices")
	if _, err := ParseReportQuery(values); !errors.Is(err, core.ErrInvalidKind) {
		t.Errorf("error = %v, want ErrInvalidKind", err)
	}
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"student":"Asha"}`, false},
		{"empty", ``, true},
		{"malformed", `{"student":`, true},
		{"too large", `{"note":"` + strings.Repeat("x", maxBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(tt.body))
			var rec core.Record
			err := decodeJSONBody(httptest.NewRecorder(), req, &rec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && statusFor(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", statusFor(err))
			}
		})
	}
}

func TestActorFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "  agent@agency.test\x00 ")
	if got := actorFrom(req); got != "agent@agency.test" {
		t.Errorf("actorFrom = %q", got)
	}
}
