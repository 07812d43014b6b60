package services

import (
	"fmt"
	"sort"
	"strings"

	"agencycrm/internal/core"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortField names a sortable table column.
type SortField string

const (
	SortCreatedAt  SortField = "createdAt"
	SortUpdatedAt  SortField = "updatedAt"
	SortStudent    SortField = "student"
	SortGrandTotal SortField = "grandTotal"
	SortDueAmount  SortField = "dueAmount"
)

// ParseSortField defaults to createdAt.
func ParseSortField(s string) (SortField, error) {
	switch SortField(strings.TrimSpace(s)) {
	case "":
		return SortCreatedAt, nil
	case SortCreatedAt, SortUpdatedAt, SortStudent, SortGrandTotal, SortDueAmount:
		return SortField(strings.TrimSpace(s)), nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// ListQuery is the filter, sort and pagination state of a records table.
type ListQuery struct {
	Author  string
	Country string
	Status  core.PaymentStatus // empty matches every status
	Search  string             // case-insensitive, student name or email
	Dates   *DateFilter

	SortBy SortField
	Desc   bool

	Page     int
	PageSize int
}

// RecordView is a record plus its computed financials, as listed in tables.
type RecordView struct {
	core.Record
	Financials core.Financials `json:"financials"`
}

// Page is one page of a table.
type Page struct {
	Items    []RecordView `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Pages    int          `json:"pages"`
}

// Normalize clamps pagination and fills defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = SortCreatedAt
		q.Desc = true
	}
	return q
}

func (q ListQuery) matches(r core.Record) bool {
	if q.Author != "" && !strings.EqualFold(r.Author, q.Author) {
		return false
	}
	if q.Country != "" && !strings.EqualFold(r.Home.Country, q.Country) {
		return false
	}
	if q.Status != "" && r.PaymentStatus.String() != q.Status.String() {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(r.Student), needle) &&
			!strings.Contains(strings.ToLower(r.Email), needle) {
			return false
		}
	}
	return q.Dates.Matches(r)
}

// ApplyQuery filters, sorts and paginates records in memory. The sort is
// stable, so equal keys keep store order.
func ApplyQuery(records []core.Record, q ListQuery) Page {
	q = q.Normalize()

	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		if q.matches(r) {
			views = append(views, RecordView{Record: r, Financials: core.ComputeFinancials(r)})
		}
	}

	less := lessFor(q.SortBy)
	sort.SliceStable(views, func(i, j int) bool {
		if q.Desc {
			return less(views[j], views[i])
		}
		return less(views[i], views[j])
	})

	page := Page{Total: len(views), Page: q.Page, PageSize: q.PageSize}
	page.Pages = (page.Total + q.PageSize - 1) / q.PageSize
	if q.Page > page.Pages {
		page.Items = []RecordView{}
		return page
	}
	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize
	if end > len(views) {
		end = len(views)
	}
	page.Items = views[start:end]
	return page
}

func lessFor(field SortField) func(a, b RecordView) bool {
	switch field {
	case SortUpdatedAt:
		return func(a, b RecordView) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case SortStudent:
		return func(a, b RecordView) bool { return strings.ToLower(a.Student) < strings.ToLower(b.Student) }
	case SortGrandTotal:
		return func(a, b RecordView) bool { return a.Financials.GrandTotal.LessThan(b.Financials.GrandTotal) }
	case SortDueAmount:
		return func(a, b RecordView) bool { return a.Financials.DueAmount.LessThan(b.Financials.DueAmount) }
	default:
		return func(a, b RecordView) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
