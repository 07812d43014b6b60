// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, table queries and report queries.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agencycrm/internal/core"
	"agencycrm/internal/services"
)

const (
	// ActorHeader carries the email of the authenticated caller, set by the
	// upstream auth proxy.
	ActorHeader = "X-User-Email"

	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// badRequestError marks malformed input; it maps to 400.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// actorFrom returns the caller email, or "" when absent.
func actorFrom(r *http.Request) string {
	return strings.TrimSpace(sanitizeInput(r.Header.Get(ActorHeader)))
}

// decodeJSONBody reads at most maxBodyBytes of JSON into v.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body larger than %d bytes", maxErr.Limit)
		default:
			return badRequest("invalid JSON body: %v", err)
		}
	}
	return nil
}

// ParseListQuery reads table filters, sorting and paging from the query
// string. Period names resolve against now.
func ParseListQuery(q url.Values, now time.Time) (services.ListQuery, error) {
	lq := services.ListQuery{
		Author:  sanitizeInput(q.Get("author")),
		Country: sanitizeInput(q.Get("country")),
		Search:  sanitizeInput(q.Get("q")),
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status, err := core.ParsePaymentStatus(v)
		if err != nil {
			return services.ListQuery{}, err
		}
		lq.Status = status
	}

	sortBy, err := services.ParseSortField(q.Get("sort"))
	if err != nil {
		return services.ListQuery{}, badRequest("%v", err)
	}
	lq.SortBy = sortBy
	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "", "desc":
		lq.Desc = true
	case "asc":
		lq.Desc = false
	default:
		return services.ListQuery{}, badRequest("invalid order %q: must be asc or desc", q.Get("order"))
	}

	if lq.Page, err = optionalInt(q, "page"); err != nil {
		return services.ListQuery{}, err
	}
	if lq.PageSize, err = optionalInt(q, "pageSize"); err != nil {
		return services.ListQuery{}, err
	}

	filter, err := parseDateFilter(q, now)
	if err != nil {
		return services.ListQuery{}, err
	}
	lq.Dates = filter
	return lq.Normalize(), nil
}

// ParseReportQuery reads a progress report selection from the query string.
func ParseReportQuery(q url.Values) (services.ReportQuery, error) {
	rq := services.ReportQuery{
		Grouping: strings.TrimSpace(q.Get("groupBy")),
		Period:   strings.TrimSpace(q.Get("period")),
	}
	if rq.Grouping == "" {
		rq.Grouping = services.ByCountry.Name
	}
	if v := strings.TrimSpace(q.Get("kind")); v != "" {
		kind, err := core.ParseRecordKind(v)
		if err != nil {
			return services.ReportQuery{}, err
		}
		rq.Kind = kind
	}

	field, err := services.ParseDateField(q.Get("dateField"))
	if err != nil {
		return services.ReportQuery{}, err
	}
	rq.DateField = field

	if rq.Start, err = optionalDate(q, "start"); err != nil {
		return services.ReportQuery{}, err
	}
	if rq.End, err = optionalDate(q, "end"); err != nil {
		return services.ReportQuery{}, err
	}
	return rq, nil
}

func parseDateFilter(q url.Values, now time.Time) (*services.DateFilter, error) {
	period := strings.TrimSpace(q.Get("period"))
	if period == "" {
		return nil, nil
	}
	start, err := optionalDate(q, "start")
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(q, "end")
	if err != nil {
		return nil, err
	}
	rng, err := services.ResolvePeriod(period, now, start, end)
	if err != nil {
		return nil, err
	}
	field, err := services.ParseDateField(q.Get("dateField"))
	if err != nil {
		return nil, err
	}
	return &services.DateFilter{Range: rng, Field: field}, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s %q: must be a number", key, v)
	}
	return n, nil
}

// optionalDate parses a YYYY-MM-DD value in UTC.
func optionalDate(q url.Values, key string) (time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, badRequest("invalid %s %q: want YYYY-MM-DD", key, v)
	}
	return t, nil
}
