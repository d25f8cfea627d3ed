/*
export.go - Tabular and paginated export of contract entries

PURPOSE:
  Read-only consumers of the figures the engine computed. Both exports use
  the PERSISTED derived fields; they never recompute a commission, so an
  export always matches what the dashboard showed.

FORMATS:
  - WriteCSV: semicolon-delimited text (spreadsheet import)
  - Paginate: fixed-size row pages for document rendering downstream
*/
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/contract"
)

var csvHeader = []string{
	"id", "owner", "supervisor", "customer", "policy_number",
	"category", "sub_category", "status", "submitted_at",
	"payment_frequency", "duration_years",
	"net_premium", "gross_premium", "net_yearly", "gross_yearly",
	"valuation_sum", "rate", "commission", "reserve",
}

// WriteCSV writes entries as semicolon-delimited text. Amounts are rounded
// to the currency's minor unit here, at the presentation boundary only.
func WriteCSV(w io.Writer, entries []contract.Entry) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(csvRow(e)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(e contract.Entry) []string {
	return []string{
		e.ID,
		string(e.Owner),
		string(e.Supervisor),
		e.Customer,
		e.PolicyNumber,
		string(e.Selection.Category),
		string(e.Selection.Sub),
		string(e.Status),
		e.SubmittedAt.Format("2006-01-02"),
		string(e.Frequency),
		strconv.Itoa(e.DurationYears),
		money(e.NetPremium),
		money(e.GrossPremium),
		money(e.Derived.NetYearly),
		money(e.Derived.GrossYearly),
		money(e.Derived.ValuationSum),
		e.Derived.Rate.String(),
		money(e.Derived.Commission),
		money(e.Derived.Reserve),
	}
}

// money renders a decimal at two fractional digits.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// =============================================================================
// PAGINATED EXPORT - Fixed-size pages for document rendering
// =============================================================================

// Page is one page of export rows plus the running commission total up to
// and including this page.
type Page struct {
	Number       int
	Rows         []contract.Entry
	RunningTotal decimal.Decimal
}

// Paginate chunks entries into pages of perPage rows, carrying a running
// commission total for page footers. perPage < 1 yields a single page.
func Paginate(entries []contract.Entry, perPage int) []Page {
	if perPage < 1 {
		perPage = len(entries)
		if perPage == 0 {
			return nil
		}
	}

	var pages []Page
	total := decimal.Zero
	for start := 0; start < len(entries); start += perPage {
		end := start + perPage
		if end > len(entries) {
			end = len(entries)
		}
		rows := entries[start:end]
		for _, e := range rows {
			total = total.Add(e.Derived.Commission)
		}
		pages = append(pages, Page{
			Number:       len(pages) + 1,
			Rows:         rows,
			RunningTotal: total,
		})
	}
	return pages
}
