/*
handlers.go - HTTP handlers for the commission engine

PURPOSE:
  Exposes the engine via REST. Handlers parse HTTP, establish the operator
  identity, and delegate to the lifecycle manager, the stores, and the
  report views. The preview handler and the create/update handlers share
  the EXACT same calculation path (Manager.Prepare); preview simply skips
  the store write.

IDENTITY:
  The authenticated operator arrives as the X-Operator-ID header, supplied
  by the fronting auth layer. The engine never authenticates anyone; a
  missing header is a 400.

ERROR HANDLING:
  - 400: ValidationError (field named in the response), bad identity
  - 404: unknown contract id
  - 500: store failures

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/contract"
	"github.com/warp/commission-engine/product"
	"github.com/warp/commission-engine/report"
	"github.com/warp/commission-engine/store/sqlite"
)

const operatorHeader = "X-Operator-ID"

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Manager *contract.Manager

	// now is swapped in tests to pin the rolling report window.
	now func() time.Time
}

// NewHandler creates a handler backed by the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Manager: contract.NewManager(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func operatorFrom(r *http.Request) (commission.OperatorID, bool) {
	op := r.Header.Get(operatorHeader)
	return commission.OperatorID(op), op != ""
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// CreateContract validates, calculates, and persists a new entry.
// POST /api/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+operatorHeader+" header", nil)
		return
	}

	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.prepare(r, req, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.SaveContract(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save contract", err)
		return
	}

	writeJSON(w, http.StatusCreated, toContractDTO(entry))
}

// PreviewContract runs the full calculation without persisting anything.
// POST /api/contracts/preview
func (h *Handler) PreviewContract(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+operatorHeader+" header", nil)
		return
	}

	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.prepare(r, req, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Discarded previews need no cleanup; nothing was written.
	writeJSON(w, http.StatusOK, toContractDTO(entry))
}

// prepare is the single calculation path shared by preview and persistence.
func (h *Handler) prepare(r *http.Request, req ContractRequest, op commission.OperatorID) (contract.Entry, error) {
	draft, err := toEntry(req, op)
	if err != nil {
		return contract.Entry{}, err
	}
	rates, err := h.Store.SnapshotRates(r.Context(), op)
	if err != nil {
		return contract.Entry{}, err
	}
	return h.Manager.Prepare(draft, rates)
}

// GetContract returns a single contract.
// GET /api/contracts/{id}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.Store.GetContract(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}

	writeJSON(w, http.StatusOK, toContractDTO(entry))
}

// UpdateContract recomputes and replaces an existing entry, enforcing the
// status machine against the stored record.
// PUT /api/contracts/{id}
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+operatorHeader+" header", nil)
		return
	}
	id := chi.URLParam(r, "id")

	existing, err := h.Store.GetContract(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}

	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	draft, err := toEntry(req, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Derived fields follow the credited owner's rates, which stay with
	// the original submitter unless the edit reassigns them.
	rates, err := h.Store.SnapshotRates(r.Context(), existing.Owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rates", err)
		return
	}
	draft.Owner = existing.Owner

	entry, err := h.Manager.PrepareUpdate(existing, draft, rates)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.SaveContract(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save contract", err)
		return
	}

	writeJSON(w, http.StatusOK, toContractDTO(entry))
}

// DeleteContract removes an entry.
// DELETE /api/contracts/{id}
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.DeleteContract(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete contract", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListContracts returns contracts matching the query filter.
// GET /api/contracts?owner=...&category=...&from=...&to=...
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.Store.ListContracts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	writeJSON(w, http.StatusOK, toContractDTOs(entries))
}

func filterFrom(r *http.Request) (sqlite.Filter, error) {
	q := r.URL.Query()
	f := sqlite.Filter{
		Owner:    commission.OperatorID(q.Get("owner")),
		Category: product.Category(q.Get("category")),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, badField("from", "use YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, badField("to", "use YYYY-MM-DD")
		}
		f.To = &t
	}
	return f, nil
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// GetRates returns the operator's effective rate per sub-category, marking
// which entries fall back to the system default.
// GET /api/rates
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+operatorHeader+" header", nil)
		return
	}

	snapshot, err := h.Store.SnapshotRates(r.Context(), op)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rates", err)
		return
	}

	var dtos []RateDTO
	for _, cat := range product.Categories() {
		for _, sub := range product.SubCategoriesOf(cat) {
			dtos = append(dtos, RateDTO{
				SubCategory: string(sub),
				Rate:        snapshot.Resolve(op, sub).String(),
				IsDefault:   !snapshot.Has(op, sub),
			})
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// SaveRates replaces the operator's whole rate set.
// PUT /api/rates
func (h *Handler) SaveRates(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+operatorHeader+" header", nil)
		return
	}

	var req SaveRatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entries := make([]commission.RateEntry, 0, len(req.Rates))
	for _, e := range req.Rates {
		sub := product.SubCategory(e.SubCategory)
		if !sub.Known() {
			writeDomainError(w, badField("sub_category", "unknown sub-category "+e.SubCategory))
			return
		}
		rate, err := parseRate(e.Rate)
		if err != nil {
			writeDomainError(w, badField("rate", "not a decimal amount"))
			return
		}
		entries = append(entries, commission.RateEntry{Operator: op, Sub: sub, Rate: rate})
	}

	if err := h.Store.ReplaceRates(r.Context(), op, entries); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rates", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// MonthlyReport returns the rolling six-month commission series.
// GET /api/reports/monthly
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.listForReport(w, r)
	if entries == nil || err != nil {
		return
	}
	writeJSON(w, http.StatusOK, toMonthBucketDTOs(report.MonthlySeries(entries, h.now())))
}

// CategoryReport returns the commission distribution per category.
// GET /api/reports/categories
func (h *Handler) CategoryReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.listForReport(w, r)
	if entries == nil || err != nil {
		return
	}

	slices := report.CategoryDistribution(entries)
	dtos := make([]CategorySliceDTO, len(slices))
	for i, s := range slices {
		dtos[i] = CategorySliceDTO{
			Category:   string(s.Category),
			Commission: s.Commission.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LeaderboardReport returns the ranked per-operator summary.
// GET /api/reports/leaderboard
func (h *Handler) LeaderboardReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.listForReport(w, r)
	if entries == nil || err != nil {
		return
	}

	ranks := report.Leaderboard(entries)
	dtos := make([]RankDTO, len(ranks))
	for i, rank := range ranks {
		dtos[i] = RankDTO{
			Position:   i + 1,
			Operator:   string(rank.Operator),
			Commission: rank.Commission.StringFixed(2),
			Entries:    rank.Entries,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportCSV streams the filtered listing as semicolon-delimited text.
// GET /api/reports/export.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.Store.ListContracts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contracts.csv"`)
	if err := report.WriteCSV(w, entries); err != nil {
		// Headers are already gone; nothing better to do than log upstream.
		return
	}
}

// listForReport loads the filtered entries for the report views, writing
// the error response itself. A nil slice with nil error means "handled".
func (h *Handler) listForReport(w http.ResponseWriter, r *http.Request) ([]contract.Entry, error) {
	filter, err := filterFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return nil, err
	}

	entries, err := h.Store.ListContracts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return nil, err
	}
	if entries == nil {
		entries = []contract.Entry{}
	}
	return entries, nil
}

// =============================================================================
// PRODUCT HANDLER
// =============================================================================

// ListProducts enumerates categories with their sub-categories so pickers
// render the same closed set the selector validates against.
// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ProductDTO, 0, len(product.Categories()))
	for _, cat := range product.Categories() {
		subs := product.SubCategoriesOf(cat)
		names := make([]string, len(subs))
		for i, s := range subs {
			names[i] = string(s)
		}
		dtos = append(dtos, ProductDTO{Category: string(cat), SubCategories: names})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *commission.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: vErr.Error(), Field: vErr.Field})
		return
	}
	if commission.IsValidation(err) {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal error", err)
}
