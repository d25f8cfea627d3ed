/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Amounts cross the wire
  as strings rendered at two fractional digits; rounding happens HERE, at
  the presentation boundary, never inside the engine.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  DTOs are pure data carriers. Parsing errors (bad decimals, bad dates)
  surface as 400s in toEntry; domain validation lives in the engine.

SEE ALSO:
  - handlers.go: Uses these types
  - contract/: the Entry these convert to and from
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/contract"
	"github.com/warp/commission-engine/product"
	"github.com/warp/commission-engine/report"
)

// =============================================================================
// CONTRACT TYPES
// =============================================================================

// ContractRequest is the request body for create, update, and preview.
type ContractRequest struct {
	Supervisor   string `json:"supervisor,omitempty"`
	Customer     string `json:"customer"`
	PolicyNumber string `json:"policy_number,omitempty"`
	SubCategory  string `json:"sub_category"`
	Status       string `json:"status,omitempty"`

	SubmittedAt string  `json:"submitted_at"` // YYYY-MM-DD
	StartAt     *string `json:"start_at,omitempty"`
	ReceivedAt  *string `json:"received_at,omitempty"`

	PaymentFrequency string `json:"payment_frequency"`
	DurationYears    int    `json:"duration_years"`

	NetPremium   string `json:"net_premium"`
	GrossPremium string `json:"gross_premium"`

	ReserveActive  bool   `json:"reserve_active"`
	ReservePercent string `json:"reserve_percent,omitempty"`

	Note string `json:"note,omitempty"`
}

// ContractDTO is a contract entry in API responses.
type ContractDTO struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	Supervisor   string `json:"supervisor"`
	Customer     string `json:"customer"`
	PolicyNumber string `json:"policy_number,omitempty"`
	Category     string `json:"category"`
	SubCategory  string `json:"sub_category"`
	Status       string `json:"status"`

	SubmittedAt string  `json:"submitted_at"`
	StartAt     *string `json:"start_at,omitempty"`
	PolicedAt   *string `json:"policed_at,omitempty"`
	ReceivedAt  *string `json:"received_at,omitempty"`

	PaymentFrequency string `json:"payment_frequency"`
	DurationYears    int    `json:"duration_years"`

	NetPremium   string `json:"net_premium"`
	GrossPremium string `json:"gross_premium"`

	ReserveActive  bool   `json:"reserve_active"`
	ReservePercent string `json:"reserve_percent"`

	Note string `json:"note,omitempty"`

	// Derived fields, as persisted. Never hand-entered.
	NetYearly    string `json:"net_yearly"`
	GrossYearly  string `json:"gross_yearly"`
	ValuationSum string `json:"valuation_sum"`
	Rate         string `json:"rate"`
	Commission   string `json:"commission"`
	Reserve      string `json:"reserve"`
}

// =============================================================================
// RATE TYPES
// =============================================================================

// RateDTO is one effective rate in the operator's settings view.
type RateDTO struct {
	SubCategory string `json:"sub_category"`
	Rate        string `json:"rate"`
	IsDefault   bool   `json:"is_default"` // true when no operator override exists
}

// SaveRatesRequest replaces the operator's whole rate set.
type SaveRatesRequest struct {
	Rates []RateEntryRequest `json:"rates"`
}

type RateEntryRequest struct {
	SubCategory string `json:"sub_category"`
	Rate        string `json:"rate"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// MonthBucketDTO is one month of the rolling revenue series.
type MonthBucketDTO struct {
	Month      string `json:"month"` // YYYY-MM
	Commission string `json:"commission"`
}

// CategorySliceDTO is one category's share of the distribution.
type CategorySliceDTO struct {
	Category   string `json:"category"`
	Commission string `json:"commission"`
}

// RankDTO is one leaderboard row.
type RankDTO struct {
	Position   int    `json:"position"`
	Operator   string `json:"operator"`
	Commission string `json:"commission"`
	Entries    int    `json:"entries"`
}

// ProductDTO enumerates one category with its sub-categories for pickers.
type ProductDTO struct {
	Category      string   `json:"category"`
	SubCategories []string `json:"sub_categories"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

const dateLayout = "2006-01-02"

func toContractDTO(e contract.Entry) ContractDTO {
	return ContractDTO{
		ID:               e.ID,
		Owner:            string(e.Owner),
		Supervisor:       string(e.Supervisor),
		Customer:         e.Customer,
		PolicyNumber:     e.PolicyNumber,
		Category:         string(e.Selection.Category),
		SubCategory:      string(e.Selection.Sub),
		Status:           string(e.Status),
		SubmittedAt:      e.SubmittedAt.Format(dateLayout),
		StartAt:          formatDatePtr(e.StartAt),
		PolicedAt:        formatDatePtr(e.PolicedAt),
		ReceivedAt:       formatDatePtr(e.ReceivedAt),
		PaymentFrequency: string(e.Frequency),
		DurationYears:    e.DurationYears,
		NetPremium:       e.NetPremium.StringFixed(2),
		GrossPremium:     e.GrossPremium.StringFixed(2),
		ReserveActive:    e.ReserveActive,
		ReservePercent:   e.ReservePercent.String(),
		Note:             e.Note,
		NetYearly:        e.Derived.NetYearly.StringFixed(2),
		GrossYearly:      e.Derived.GrossYearly.StringFixed(2),
		ValuationSum:     e.Derived.ValuationSum.StringFixed(2),
		Rate:             e.Derived.Rate.String(),
		Commission:       e.Derived.Commission.StringFixed(2),
		Reserve:          e.Derived.Reserve.StringFixed(2),
	}
}

func toContractDTOs(entries []contract.Entry) []ContractDTO {
	dtos := make([]ContractDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toContractDTO(e)
	}
	return dtos
}

// toEntry parses a request body into a draft entry. The owner comes from
// the identity header, not the body.
func toEntry(req ContractRequest, owner commission.OperatorID) (contract.Entry, error) {
	// Unknown sub-categories pass through here with a zero category and
	// are rejected by the calculator with a field-level ValidationError.
	sel, _ := product.Select(product.SubCategory(req.SubCategory))
	if sel.Sub == "" {
		sel.Sub = product.SubCategory(req.SubCategory)
	}

	submittedAt, err := time.Parse(dateLayout, req.SubmittedAt)
	if err != nil {
		return contract.Entry{}, badField("submitted_at", "use YYYY-MM-DD")
	}
	startAt, err := parseDatePtr(req.StartAt)
	if err != nil {
		return contract.Entry{}, badField("start_at", "use YYYY-MM-DD")
	}
	receivedAt, err := parseDatePtr(req.ReceivedAt)
	if err != nil {
		return contract.Entry{}, badField("received_at", "use YYYY-MM-DD")
	}

	netPremium, err := decimal.NewFromString(req.NetPremium)
	if err != nil {
		return contract.Entry{}, badField("net_premium", "not a decimal amount")
	}
	grossPremium, err := decimal.NewFromString(req.GrossPremium)
	if err != nil {
		return contract.Entry{}, badField("gross_premium", "not a decimal amount")
	}

	reservePercent := decimal.Zero
	if req.ReservePercent != "" {
		reservePercent, err = decimal.NewFromString(req.ReservePercent)
		if err != nil {
			return contract.Entry{}, badField("reserve_percent", "not a decimal amount")
		}
	}

	return contract.Entry{
		Owner:          owner,
		Supervisor:     commission.OperatorID(req.Supervisor),
		Customer:       req.Customer,
		PolicyNumber:   req.PolicyNumber,
		Selection:      sel,
		Status:         contract.Status(req.Status),
		SubmittedAt:    submittedAt,
		StartAt:        startAt,
		ReceivedAt:     receivedAt,
		Frequency:      product.PaymentFrequency(req.PaymentFrequency),
		DurationYears:  req.DurationYears,
		NetPremium:     netPremium,
		GrossPremium:   grossPremium,
		ReserveActive:  req.ReserveActive,
		ReservePercent: reservePercent,
		Note:           req.Note,
	}, nil
}

func toMonthBucketDTOs(buckets []report.MonthBucket) []MonthBucketDTO {
	dtos := make([]MonthBucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = MonthBucketDTO{
			Month:      time.Date(b.Year, b.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			Commission: b.Commission.StringFixed(2),
		}
	}
	return dtos
}

func parseRate(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func badField(field, reason string) error {
	return &commission.ValidationError{Field: field, Reason: reason}
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
