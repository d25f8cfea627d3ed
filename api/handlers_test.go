/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Preview vs. create sharing one calculation path
- Operator identity enforcement
- Rate overrides flowing into calculations
- Contract lifecycle over HTTP
- Report endpoints
*/
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/warp/commission-engine/store/sqlite"
)

func setupTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewHandler(store)
}

func do(t *testing.T, router http.Handler, method, path, operator, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if operator != "" {
		req.Header.Set(operatorHeader, operator)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeContract(t *testing.T, rec *httptest.ResponseRecorder) ContractDTO {
	t.Helper()
	var dto ContractDTO
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("Failed to decode contract response: %v", err)
	}
	return dto
}

const lifeContractJSON = `{
	"customer": "Muster, Max",
	"sub_category": "Leben",
	"submitted_at": "2026-03-10",
	"payment_frequency": "monthly",
	"duration_years": 10,
	"net_premium": "45.00",
	"gross_premium": "50.00",
	"reserve_active": true
}`

func TestPreviewMatchesCreate(t *testing.T) {
	// GIVEN: A life contract request
	h := setupTestHandler(t)
	router := NewRouter(h)

	// WHEN: Previewing and then creating with the same body
	preview := do(t, router, http.MethodPost, "/api/contracts/preview", "op-1", lifeContractJSON)
	if preview.Code != http.StatusOK {
		t.Fatalf("Preview returned %d: %s", preview.Code, preview.Body)
	}
	created := do(t, router, http.MethodPost, "/api/contracts", "op-1", lifeContractJSON)
	if created.Code != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", created.Code, created.Body)
	}

	// THEN: Both produce identical derived figures
	p := decodeContract(t, preview)
	c := decodeContract(t, created)
	if p.Commission != c.Commission || p.ValuationSum != c.ValuationSum || p.Rate != c.Rate {
		t.Errorf("Preview and create disagree: preview %s/%s/%s, create %s/%s/%s",
			p.Commission, p.ValuationSum, p.Rate, c.Commission, c.ValuationSum, c.Rate)
	}
	if c.Commission != "48.00" {
		t.Errorf("Expected commission 48.00, got %s", c.Commission)
	}
	if c.GrossYearly != "600.00" {
		t.Errorf("Expected gross yearly 600.00, got %s", c.GrossYearly)
	}
	if c.ValuationSum != "6000.00" {
		t.Errorf("Expected valuation sum 6000.00, got %s", c.ValuationSum)
	}
	if c.Reserve != "4.80" {
		t.Errorf("Expected reserve 4.80, got %s", c.Reserve)
	}
	if c.Supervisor != "op-1" {
		t.Errorf("Expected supervisor defaulted to op-1, got %s", c.Supervisor)
	}
	if c.Category != "life" {
		t.Errorf("Expected derived category life, got %s", c.Category)
	}

	// AND: Only the create persisted anything
	list := do(t, router, http.MethodGet, "/api/contracts", "op-1", "")
	var entries []ContractDTO
	if err := json.NewDecoder(list.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 persisted contract, got %d", len(entries))
	}
}

func TestMissingOperatorHeader(t *testing.T) {
	h := setupTestHandler(t)
	router := NewRouter(h)

	rec := do(t, router, http.MethodPost, "/api/contracts", "", lifeContractJSON)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without identity header, got %d", rec.Code)
	}
}

func TestCreate_UnknownSubCategory(t *testing.T) {
	// GIVEN: A request naming a sub-category outside the closed set
	h := setupTestHandler(t)
	router := NewRouter(h)

	body := strings.Replace(lifeContractJSON, `"Leben"`, `"Drohnen"`, 1)

	// WHEN: Creating
	rec := do(t, router, http.MethodPost, "/api/contracts", "op-1", body)

	// THEN: Rejected with the offending field named, nothing persisted
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", rec.Code, rec.Body)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if resp.Field != "sub_category" {
		t.Errorf("Expected field sub_category, got %q", resp.Field)
	}

	list := do(t, router, http.MethodGet, "/api/contracts", "op-1", "")
	var entries []ContractDTO
	if err := json.NewDecoder(list.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no persisted contracts, got %d", len(entries))
	}
}

func TestRateOverrideFlowsIntoPreview(t *testing.T) {
	// GIVEN: An operator override for Leben
	h := setupTestHandler(t)
	router := NewRouter(h)

	saved := do(t, router, http.MethodPut, "/api/rates", "op-1",
		`{"rates": [{"sub_category": "Leben", "rate": "12"}]}`)
	if saved.Code != http.StatusNoContent {
		t.Fatalf("Save rates returned %d: %s", saved.Code, saved.Body)
	}

	// THEN: The settings view marks the override and keeps the rest on defaults
	rates := do(t, router, http.MethodGet, "/api/rates", "op-1", "")
	var dtos []RateDTO
	if err := json.NewDecoder(rates.Body).Decode(&dtos); err != nil {
		t.Fatalf("Failed to decode rates: %v", err)
	}
	byName := make(map[string]RateDTO, len(dtos))
	for _, d := range dtos {
		byName[d.SubCategory] = d
	}
	if got := byName["Leben"]; got.Rate != "12" || got.IsDefault {
		t.Errorf("Expected Leben override 12, got %+v", got)
	}
	if got := byName["KFZ"]; got.Rate != "3" || !got.IsDefault {
		t.Errorf("Expected KFZ default 3, got %+v", got)
	}

	// AND: The operator's calculations use the override
	rec := do(t, router, http.MethodPost, "/api/contracts/preview", "op-1", lifeContractJSON)
	dto := decodeContract(t, rec)
	if dto.Rate != "12" {
		t.Errorf("Expected rate 12, got %s", dto.Rate)
	}
	if dto.Commission != "72.00" {
		t.Errorf("Expected commission 72.00 under override, got %s", dto.Commission)
	}

	// AND: Another operator still gets the default
	other := do(t, router, http.MethodPost, "/api/contracts/preview", "op-2", lifeContractJSON)
	if dto := decodeContract(t, other); dto.Commission != "48.00" {
		t.Errorf("Expected default commission 48.00 for op-2, got %s", dto.Commission)
	}
}

func TestUpdateLifecycleOverHTTP(t *testing.T) {
	// GIVEN: A persisted submitted contract
	h := setupTestHandler(t)
	router := NewRouter(h)

	created := decodeContract(t, do(t, router, http.MethodPost, "/api/contracts", "op-1", lifeContractJSON))
	if created.Status != "submitted" {
		t.Fatalf("Expected status submitted, got %s", created.Status)
	}

	policeBody := strings.Replace(lifeContractJSON, `"reserve_active": true`,
		`"reserve_active": true, "status": "policed"`, 1)

	// WHEN: Moving it to policed
	rec := do(t, router, http.MethodPut, "/api/contracts/"+created.ID, "op-1", policeBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("Update returned %d: %s", rec.Code, rec.Body)
	}
	policed := decodeContract(t, rec)
	if policed.Status != "policed" {
		t.Errorf("Expected status policed, got %s", policed.Status)
	}
	if policed.PolicedAt == nil {
		t.Error("Expected policed_at stamped on transition")
	}

	// AND: Cancelling it afterwards
	cancelBody := strings.Replace(lifeContractJSON, `"reserve_active": true`,
		`"reserve_active": true, "status": "cancelled"`, 1)
	rec = do(t, router, http.MethodPut, "/api/contracts/"+created.ID, "op-1", cancelBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("Cancel returned %d: %s", rec.Code, rec.Body)
	}

	// THEN: Cancelled is terminal
	rec = do(t, router, http.MethodPut, "/api/contracts/"+created.ID, "op-1", policeBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 reviving a cancelled contract, got %d", rec.Code)
	}
}

func TestGetContract_NotFound(t *testing.T) {
	h := setupTestHandler(t)
	router := NewRouter(h)

	rec := do(t, router, http.MethodGet, "/api/contracts/missing", "op-1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestMonthlyReport_AlwaysSixBuckets(t *testing.T) {
	// GIVEN: Two contracts inside the rolling window and a pinned clock
	h := setupTestHandler(t)
	h.now = func() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) }
	router := NewRouter(h)

	if rec := do(t, router, http.MethodPost, "/api/contracts", "op-1", lifeContractJSON); rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", rec.Code, rec.Body)
	}
	january := strings.Replace(lifeContractJSON, "2026-03-10", "2026-01-05", 1)
	if rec := do(t, router, http.MethodPost, "/api/contracts", "op-1", january); rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", rec.Code, rec.Body)
	}

	// WHEN: Fetching the monthly series
	rec := do(t, router, http.MethodGet, "/api/reports/monthly", "op-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Report returned %d: %s", rec.Code, rec.Body)
	}
	var buckets []MonthBucketDTO
	if err := json.NewDecoder(rec.Body).Decode(&buckets); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}

	// THEN: Six buckets oldest-first, zero months included
	if len(buckets) != 6 {
		t.Fatalf("Expected 6 buckets, got %d", len(buckets))
	}
	if buckets[0].Month != "2025-10" || buckets[5].Month != "2026-03" {
		t.Errorf("Expected window 2025-10..2026-03, got %s..%s", buckets[0].Month, buckets[5].Month)
	}
	if buckets[5].Commission != "48.00" {
		t.Errorf("Expected March commission 48.00, got %s", buckets[5].Commission)
	}
	if buckets[1].Commission != "0.00" {
		t.Errorf("Expected empty November bucket 0.00, got %s", buckets[1].Commission)
	}
}

func TestLeaderboardReport(t *testing.T) {
	// GIVEN: Contracts from two operators
	h := setupTestHandler(t)
	router := NewRouter(h)

	do(t, router, http.MethodPost, "/api/contracts", "op-1", lifeContractJSON)
	do(t, router, http.MethodPost, "/api/contracts", "op-1", lifeContractJSON)
	do(t, router, http.MethodPost, "/api/contracts", "op-2", lifeContractJSON)

	// WHEN: Fetching the leaderboard
	rec := do(t, router, http.MethodGet, "/api/reports/leaderboard", "op-1", "")
	var ranks []RankDTO
	if err := json.NewDecoder(rec.Body).Decode(&ranks); err != nil {
		t.Fatalf("Failed to decode leaderboard: %v", err)
	}

	// THEN: op-1 leads with twice the volume
	if len(ranks) != 2 {
		t.Fatalf("Expected 2 ranks, got %d", len(ranks))
	}
	if ranks[0].Operator != "op-1" || ranks[0].Position != 1 || ranks[0].Entries != 2 {
		t.Errorf("Expected op-1 first with 2 entries, got %+v", ranks[0])
	}
	if ranks[0].Commission != "96.00" {
		t.Errorf("Expected op-1 commission 96.00, got %s", ranks[0].Commission)
	}
}

func TestExportCSV(t *testing.T) {
	h := setupTestHandler(t)
	router := NewRouter(h)

	do(t, router, http.MethodPost, "/api/contracts", "op-1", lifeContractJSON)

	rec := do(t, router, http.MethodGet, "/api/reports/export.csv", "op-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Export returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv content type, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header plus one row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "48.00") {
		t.Errorf("Expected persisted commission in the export, got %s", lines[1])
	}
}
