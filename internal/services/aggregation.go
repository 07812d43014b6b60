package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"agencycrm/internal/core"
)

// KeyFunc extracts the group key of a record.
type KeyFunc func(core.Record) string

// ProfileKeyFunc extracts the group key a profile's sales target counts toward.
type ProfileKeyFunc func(core.Profile) string

// Grouping pairs the record key with the matching profile key so targets and
// sales land in the same bucket.
type Grouping struct {
	Name       string
	RecordKey  KeyFunc
	ProfileKey ProfileKeyFunc
}

// Built-in groupings.
var (
	ByCountry = Grouping{
		Name:       "country",
		RecordKey:  func(r core.Record) string { return r.Home.Country },
		ProfileKey: func(p core.Profile) string { return p.Country },
	}
	ByAuthor = Grouping{
		Name:       "author",
		RecordKey:  func(r core.Record) string { return r.Author },
		ProfileKey: func(p core.Profile) string { return p.Email },
	}
)

var groupings = map[string]Grouping{
	ByCountry.Name: ByCountry,
	ByAuthor.Name:  ByAuthor,
	"agent":        ByAuthor,
}

// GetGrouping looks up a grouping by name.
func GetGrouping(name string) (Grouping, error) {
	g, ok := groupings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Grouping{}, fmt.Errorf("%w: %q", core.ErrInvalidGrouping, name)
	}
	return g, nil
}

// RegisterGrouping adds or replaces a named grouping.
func RegisterGrouping(g Grouping) {
	groupings[g.Name] = g
}

// foldKey is the bucket identity of a group key: emails and countries
// compare case-insensitively, as in Scope.
func foldKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// ProfileTargets sums the configured sales targets of profiles per key, in
// order of first appearance. Keys differing only in case or surrounding
// space share one target, labelled by the first spelling seen.
func ProfileTargets(profiles []core.Profile, key ProfileKeyFunc) []core.GroupTarget {
	index := make(map[string]int)
	var out []core.GroupTarget
	for _, p := range profiles {
		k := key(p)
		i, ok := index[foldKey(k)]
		if !ok {
			i = len(out)
			index[foldKey(k)] = i
			out = append(out, core.GroupTarget{Key: strings.TrimSpace(k)})
		}
		out[i].Target = out[i].Target.Add(p.SalesTarget.Decimal())
	}
	return out
}

// AggregateByGroup buckets records by key and sums their financials.
//
// Records failing filter are skipped. Keys are matched ignoring case and
// surrounding space; a group shows the first spelling seen. Sales is the grand total of records
// whose payment is Accepted. Targets are matched by key; a target without any
// matching record still yields a (zero-sales) group. Groups appear in order
// of first appearance (records first, then target-only keys) and are then
// sorted by progress, highest first, keeping that order for ties.
func AggregateByGroup(records []core.Record, key KeyFunc, filter *DateFilter, targets []core.GroupTarget) []core.GroupSummary {
	index := make(map[string]int)
	var groups []core.GroupSummary

	bucket := func(k string) *core.GroupSummary {
		i, ok := index[foldKey(k)]
		if !ok {
			i = len(groups)
			index[foldKey(k)] = i
			groups = append(groups, core.GroupSummary{Key: strings.TrimSpace(k)})
		}
		return &groups[i]
	}

	for _, r := range records {
		if !filter.Matches(r) {
			continue
		}
		g := bucket(key(r))
		f := core.ComputeFinancials(r)
		g.Records++
		g.Totals = g.Totals.Add(f)
		if r.PaymentStatus == core.StatusAccepted {
			g.Sales = g.Sales.Add(f.GrandTotal)
		}
	}

	for _, t := range targets {
		g := bucket(t.Key)
		g.Target = g.Target.Add(t.Target)
	}

	for i := range groups {
		groups[i].Progress = core.ProgressPercent(groups[i].Sales, groups[i].Target)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Progress > groups[j].Progress
	})
	return groups
}

// TotalOf sums every group's totals, target and sales into one summary.
func TotalOf(groups []core.GroupSummary) core.GroupSummary {
	total := core.GroupSummary{Key: "total", Target: decimal.Zero, Sales: decimal.Zero}
	for _, g := range groups {
		total.Records += g.Records
		total.Totals = total.Totals.Add(g.Totals)
		total.Target = total.Target.Add(g.Target)
		total.Sales = total.Sales.Add(g.Sales)
	}
	total.Progress = core.ProgressPercent(total.Sales, total.Target)
	return total
}
