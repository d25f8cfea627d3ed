/*
Package report builds read-only aggregation views over contract entries.

PURPOSE:
  Three independent views over a caller-filtered collection of entries:

  - Monthly series:  commission per trailing calendar month (rolling 6-month
                     window, zero months included, oldest first)
  - Category distribution: commission per product category, descending,
                     zero categories omitted
  - Leaderboard:     per-operator total + entry count, descending, ties
                     broken by first-seen order in the input

  Every view is a pure function of its input slice. Nothing is cached
  between calls; views are rebuilt on every read. All sums use the
  PERSISTED commission amounts - the views never recompute commissions.

TIE-BREAK:
  Leaderboard ties go to the operator seen first in the input collection.
  This is explicit and tested, not left to map iteration order.

SEE ALSO:
  - export.go: CSV and paginated consumers of the same figures
*/
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/contract"
	"github.com/warp/commission-engine/product"
)

// WindowMonths is the size of the rolling monthly series.
const WindowMonths = 6

// =============================================================================
// MONTHLY SERIES - Rolling six-month revenue window
// =============================================================================

// MonthBucket is one calendar month of summed commission.
type MonthBucket struct {
	Year       int
	Month      time.Month
	Commission decimal.Decimal
}

// MonthlySeries sums commission per submission month over the trailing
// WindowMonths calendar months including ref's month. Months without
// entries report zero rather than being omitted. Oldest month first.
func MonthlySeries(entries []contract.Entry, ref time.Time) []MonthBucket {
	buckets := make([]MonthBucket, WindowMonths)
	index := make(map[[2]int]int, WindowMonths)

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(WindowMonths - 1), 0)
	for i := 0; i < WindowMonths; i++ {
		m := first.AddDate(0, i, 0)
		buckets[i] = MonthBucket{Year: m.Year(), Month: m.Month(), Commission: decimal.Zero}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, e := range entries {
		key := [2]int{e.SubmittedAt.Year(), int(e.SubmittedAt.Month())}
		if i, ok := index[key]; ok {
			buckets[i].Commission = buckets[i].Commission.Add(e.Derived.Commission)
		}
	}

	return buckets
}

// =============================================================================
// CATEGORY DISTRIBUTION - Commission per product category
// =============================================================================

// CategorySlice is one category's share of the summed commission.
type CategorySlice struct {
	Category   product.Category
	Commission decimal.Decimal
}

// CategoryDistribution groups by category (not sub-category), sums
// commission, and sorts descending by amount. Categories totaling zero are
// omitted. Equal totals order by first appearance in the input.
func CategoryDistribution(entries []contract.Entry) []CategorySlice {
	totals := make(map[product.Category]decimal.Decimal)
	var order []product.Category

	for _, e := range entries {
		cat := e.Selection.Category
		if _, seen := totals[cat]; !seen {
			order = append(order, cat)
		}
		totals[cat] = totals[cat].Add(e.Derived.Commission)
	}

	slices := make([]CategorySlice, 0, len(order))
	for _, cat := range order {
		if totals[cat].IsZero() {
			continue
		}
		slices = append(slices, CategorySlice{Category: cat, Commission: totals[cat]})
	}

	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Commission.GreaterThan(slices[j].Commission)
	})

	return slices
}

// =============================================================================
// LEADERBOARD - Ranked per-operator production
// =============================================================================

// Rank is one operator's position on the leaderboard.
type Rank struct {
	Operator   commission.OperatorID
	Commission decimal.Decimal
	Entries    int
}

// Leaderboard groups by owning operator, sums commission and counts
// entries, and sorts descending by total. Ties keep first-seen order: the
// operator whose first entry appears earlier in the input ranks higher.
func Leaderboard(entries []contract.Entry) []Rank {
	totals := make(map[commission.OperatorID]*Rank)
	var order []commission.OperatorID

	for _, e := range entries {
		r, seen := totals[e.Owner]
		if !seen {
			r = &Rank{Operator: e.Owner, Commission: decimal.Zero}
			totals[e.Owner] = r
			order = append(order, e.Owner)
		}
		r.Commission = r.Commission.Add(e.Derived.Commission)
		r.Entries++
	}

	ranks := make([]Rank, 0, len(order))
	for _, op := range order {
		ranks = append(ranks, *totals[op])
	}

	// Stable sort preserves first-seen order among equal totals.
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Commission.GreaterThan(ranks[j].Commission)
	})

	return ranks
}
