package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/contract"
	"github.com/warp/commission-engine/product"
	"github.com/warp/commission-engine/report"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// entry builds a minimal finalized record; reports only read owner,
// selection, submission date, and the persisted commission.
func entry(owner commission.OperatorID, sub product.SubCategory, submitted time.Time, commissionAmt string) contract.Entry {
	sel, _ := product.Select(sub)
	return contract.Entry{
		Owner:       owner,
		Selection:   sel,
		SubmittedAt: submitted,
		Derived:     contract.Derived{Commission: dec(commissionAmt)},
	}
}

func march(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// MONTHLY SERIES
// =============================================================================

func TestMonthlySeries_AlwaysSixBuckets(t *testing.T) {
	// GIVEN: no entries at all
	// THEN: the series still reports all 6 months, each at zero

	buckets := report.MonthlySeries(nil, march(15))
	if len(buckets) != report.WindowMonths {
		t.Fatalf("got %d buckets, want %d", len(buckets), report.WindowMonths)
	}
	for i, b := range buckets {
		if !b.Commission.IsZero() {
			t.Errorf("bucket %d (%d-%s): %v, want 0", i, b.Year, b.Month, b.Commission)
		}
	}
}

func TestMonthlySeries_WindowAndOrdering(t *testing.T) {
	// GIVEN: reference date in March 2026
	// THEN: window is Oct 2025 .. Mar 2026, oldest first

	buckets := report.MonthlySeries(nil, march(15))

	want := []struct {
		year  int
		month time.Month
	}{
		{2025, time.October}, {2025, time.November}, {2025, time.December},
		{2026, time.January}, {2026, time.February}, {2026, time.March},
	}
	for i, w := range want {
		if buckets[i].Year != w.year || buckets[i].Month != w.month {
			t.Errorf("bucket %d = %d-%s, want %d-%s", i, buckets[i].Year, buckets[i].Month, w.year, w.month)
		}
	}
}

func TestMonthlySeries_SumsPerSubmissionMonth(t *testing.T) {
	entries := []contract.Entry{
		entry("op-1", product.SubLeben, march(1), "48"),
		entry("op-1", product.SubPHV, march(20), "13.50"),
		entry("op-2", product.SubKFZ, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), "30"),
		// Outside the window: ignored
		entry("op-2", product.SubKFZ, time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC), "999"),
	}

	buckets := report.MonthlySeries(entries, march(15))

	if !buckets[5].Commission.Equal(dec("61.5")) {
		t.Errorf("March total = %v, want 61.5", buckets[5].Commission)
	}
	if !buckets[3].Commission.Equal(dec("30")) {
		t.Errorf("January total = %v, want 30", buckets[3].Commission)
	}
	if !buckets[0].Commission.IsZero() {
		t.Errorf("October total = %v, want 0", buckets[0].Commission)
	}
}

// =============================================================================
// CATEGORY DISTRIBUTION
// =============================================================================

func TestCategoryDistribution_GroupsByCategoryDescending(t *testing.T) {
	// GIVEN: two life sub-categories and one vehicle entry
	// THEN: grouping is per CATEGORY, sorted by summed commission,
	// categories without entries omitted

	entries := []contract.Entry{
		entry("op-1", product.SubLeben, march(1), "48"),
		entry("op-1", product.SubBU, march(2), "20"),
		entry("op-2", product.SubKFZ, march(3), "100"),
	}

	slices := report.CategoryDistribution(entries)
	if len(slices) != 2 {
		t.Fatalf("got %d categories, want 2", len(slices))
	}
	if slices[0].Category != product.CategoryVehicle || !slices[0].Commission.Equal(dec("100")) {
		t.Errorf("first slice = %+v, want vehicle/100", slices[0])
	}
	if slices[1].Category != product.CategoryLife || !slices[1].Commission.Equal(dec("68")) {
		t.Errorf("second slice = %+v, want life/68", slices[1])
	}
}

func TestCategoryDistribution_OmitsZeroTotals(t *testing.T) {
	// A category whose entries sum to zero drops out of the distribution.
	entries := []contract.Entry{
		entry("op-1", product.SubLeben, march(1), "48"),
		entry("op-1", product.SubKFZ, march(2), "0"),
	}

	slices := report.CategoryDistribution(entries)
	if len(slices) != 1 {
		t.Fatalf("got %d categories, want 1", len(slices))
	}
	if slices[0].Category != product.CategoryLife {
		t.Errorf("remaining category = %s, want life", slices[0].Category)
	}
}

func TestCategoryDistribution_EmptyInput(t *testing.T) {
	if got := report.CategoryDistribution(nil); len(got) != 0 {
		t.Errorf("expected empty distribution, got %d slices", len(got))
	}
}

// =============================================================================
// LEADERBOARD
// =============================================================================

func TestLeaderboard_RanksByTotalWithCounts(t *testing.T) {
	entries := []contract.Entry{
		entry("op-a", product.SubLeben, march(1), "40"),
		entry("op-b", product.SubKFZ, march(2), "70"),
		entry("op-a", product.SubPHV, march(3), "50"),
	}

	ranks := report.Leaderboard(entries)
	if len(ranks) != 2 {
		t.Fatalf("got %d ranks, want 2", len(ranks))
	}
	if ranks[0].Operator != "op-a" || !ranks[0].Commission.Equal(dec("90")) || ranks[0].Entries != 2 {
		t.Errorf("rank 1 = %+v, want op-a/90/2", ranks[0])
	}
	if ranks[1].Operator != "op-b" || !ranks[1].Commission.Equal(dec("70")) || ranks[1].Entries != 1 {
		t.Errorf("rank 2 = %+v, want op-b/70/1", ranks[1])
	}
}

func TestLeaderboard_TieBrokenByFirstSeenOrder(t *testing.T) {
	// GIVEN: A totals 100 over two entries, B totals 100 over one entry,
	// A's first entry precedes B's
	// THEN: A ranks first - tie-break is first-seen, not incidental order

	entries := []contract.Entry{
		entry("op-a", product.SubLeben, march(1), "60"),
		entry("op-b", product.SubKFZ, march(2), "100"),
		entry("op-a", product.SubPHV, march(3), "40"),
	}

	ranks := report.Leaderboard(entries)
	if ranks[0].Operator != "op-a" {
		t.Errorf("tie winner = %s, want op-a (first seen)", ranks[0].Operator)
	}

	// Reversing the input reverses the tie.
	reversed := []contract.Entry{entries[1], entries[0], entries[2]}
	ranks = report.Leaderboard(reversed)
	if ranks[0].Operator != "op-b" {
		t.Errorf("tie winner = %s, want op-b (first seen)", ranks[0].Operator)
	}
}

func TestLeaderboardAndDistribution_AgreeOnGrandTotal(t *testing.T) {
	// Both views sum the same persisted figures; their grand totals must
	// match for any shared input.
	entries := []contract.Entry{
		entry("op-a", product.SubLeben, march(1), "48"),
		entry("op-b", product.SubKVVoll, march(2), "600"),
		entry("op-a", product.SubKFZ, march(3), "13.50"),
		entry("op-c", product.SubRechtsschutz, march(4), "7.25"),
	}

	leaderTotal := decimal.Zero
	for _, r := range report.Leaderboard(entries) {
		leaderTotal = leaderTotal.Add(r.Commission)
	}
	categoryTotal := decimal.Zero
	for _, s := range report.CategoryDistribution(entries) {
		categoryTotal = categoryTotal.Add(s.Commission)
	}

	if !leaderTotal.Equal(categoryTotal) {
		t.Errorf("grand totals differ: leaderboard %v vs distribution %v", leaderTotal, categoryTotal)
	}
}
