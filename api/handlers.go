/*
handlers.go - HTTP handlers for the benefit ledger

PURPOSE:
  Exposes the ledger core via REST. Handles HTTP request/response and
  JSON serialization, and delegates to the engine; no business logic
  lives here.

ENDPOINTS:
  Ledger:
    POST   /api/transactions                   Apply a debit/credit
    POST   /api/claims/events                  Claim lifecycle webhook

  Employees:
    GET    /api/employees/{id}/balances        Balance summary for a year
    GET    /api/employees/{id}/transactions    Transaction history

  Alerts:
    GET    /api/alerts/low-balance             Low-balance/overdraft scan

  Admin:
    POST   /api/admin/initialize               Seed balances for a year
    POST   /api/admin/recalculate              Reconcile against claims
    POST   /api/admin/budgets                  Create a budget
    POST   /api/admin/employees                Register an employee
    POST   /api/admin/benefit-types            Register a benefit type
    POST   /api/admin/marriage-statuses        Register a status row

ERROR HANDLING:
  Domain errors map onto HTTP status codes:
  - 404: Not-found family (no entitlement, unknown employee/type)
  - 409: Concurrency conflict (retry the whole operation)
  - 422: Overdraft rejection (body carries shortage/limit)
  - 400: Precondition/validation failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian/benefit-ledger/benefit"
	"github.com/meridian/benefit-ledger/metrics"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      benefit.TxStore
	Ledger     *benefit.Ledger
	Claims     *benefit.ClaimProcessor
	Init       *benefit.Initializer
	Reconciler *benefit.ReconciliationEngine
	Alerts     *benefit.AlertEngine
	Summaries  *benefit.SummaryReader
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ApplyTransaction posts one debit/credit.
// POST /api/transactions
func (h *Handler) ApplyTransaction(w http.ResponseWriter, r *http.Request) {
	var req ApplyTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.Ledger.Apply(r.Context(), benefit.ApplyInput{
		EmployeeID:        benefit.EmployeeID(req.EmployeeID),
		BenefitTypeID:     benefit.BenefitTypeID(req.BenefitTypeID),
		Year:              req.Year,
		Type:              benefit.TransactionType(req.Type),
		Amount:            req.Amount,
		ReferenceType:     benefit.ReferenceType(req.ReferenceType),
		ReferenceID:       req.ReferenceID,
		Description:       req.Description,
		ActorID:           req.ActorID,
		OverrideOverdraft: req.OverrideOverdraft,
		IsEmergency:       req.IsEmergency,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	metrics.TransactionsTotal.WithLabelValues(string(tx.Type)).Inc()
	writeJSON(w, http.StatusCreated, tx)
}

// HandleClaimEvent is the claim workflow webhook.
// POST /api/claims/events
func (h *Handler) HandleClaimEvent(w http.ResponseWriter, r *http.Request) {
	var ev benefit.ClaimEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Keep the reconciliation read model current regardless of status;
	// only approved claims produce ledger effects.
	if ev.Claim.ID != "" {
		if err := h.Store.SaveClaim(r.Context(), ev.Claim); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to record claim", err)
			return
		}
	}

	txs, err := h.Claims.HandleEvent(r.Context(), ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	for _, tx := range txs {
		metrics.TransactionsTotal.WithLabelValues(string(tx.Type)).Inc()
	}
	if txs == nil {
		txs = []benefit.BalanceTransaction{}
	}
	writeJSON(w, http.StatusOK, ClaimEventResponse{Applied: txs, Transactions: len(txs)})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// GetBalances returns the employee's balance summary for a year.
// GET /api/employees/{id}/balances?year=2025
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := benefit.EmployeeID(chi.URLParam(r, "id"))
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	summary, err := h.Summaries.Summary(r.Context(), id, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetTransactions returns the employee's transaction history, newest
// first. Optional benefit_type and year filters narrow it.
// GET /api/employees/{id}/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id := benefit.EmployeeID(chi.URLParam(r, "id"))

	typeID := r.URL.Query().Get("benefit_type")
	yearStr := r.URL.Query().Get("year")

	var txs []benefit.BalanceTransaction
	var err error
	if typeID != "" && yearStr != "" {
		year, convErr := strconv.Atoi(yearStr)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", convErr)
			return
		}
		txs, err = h.Store.TransactionsFor(r.Context(), id, benefit.BenefitTypeID(typeID), year)
	} else {
		txs, err = h.Store.TransactionsByEmployee(r.Context(), id)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}
	if txs == nil {
		txs = []benefit.BalanceTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// GetLowBalanceAlerts runs (or serves from cache) a low-balance scan.
// GET /api/alerts/low-balance?threshold=20&year=2025
func (h *Handler) GetLowBalanceAlerts(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	threshold := 20.0
	if t := r.URL.Query().Get("threshold"); t != "" {
		var err error
		if threshold, err = strconv.ParseFloat(t, 64); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid threshold", err)
			return
		}
	}

	report, err := h.Alerts.LowBalanceAlerts(r.Context(), threshold, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to scan balances", err)
		return
	}

	metrics.ActiveAlerts.Set(float64(report.TotalAlerts))
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Initialize seeds balance rows for a year/cohort.
// POST /api/admin/initialize
func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ids := make([]benefit.EmployeeID, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		ids[i] = benefit.EmployeeID(id)
	}

	result, err := h.Init.Initialize(r.Context(), req.Year, ids)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Recalculate reconciles balances against claims history.
// POST /api/admin/recalculate
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	empIDs := make([]benefit.EmployeeID, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		empIDs[i] = benefit.EmployeeID(id)
	}
	typeIDs := make([]benefit.BenefitTypeID, len(req.BenefitTypeIDs))
	for i, id := range req.BenefitTypeIDs {
		typeIDs[i] = benefit.BenefitTypeID(id)
	}

	result, err := h.Reconciler.Recalculate(r.Context(), req.Year, empIDs, typeIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	metrics.ReconciliationDiscrepancies.Add(float64(len(result.Discrepancies)))
	writeJSON(w, http.StatusOK, result)
}

// CreateBudget registers one budget row.
// POST /api/admin/budgets
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.BenefitTypeID == "" || req.Year == 0 {
		writeError(w, http.StatusBadRequest, "id, benefit_type_id and year are required", nil)
		return
	}

	budget := benefit.BenefitBudget{
		ID:               benefit.BudgetID(req.ID),
		BenefitTypeID:    benefit.BenefitTypeID(req.BenefitTypeID),
		Level:            benefit.EmployeeLevel(req.Level),
		MarriageStatusID: req.MarriageStatusID,
		Year:             req.Year,
		Allocation:       req.Allocation,
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.Store.SaveBudget(r.Context(), budget); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

// CreateEmployee registers a directory record.
// POST /api/admin/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	emp := benefit.Employee{
		ID:               benefit.EmployeeID(req.ID),
		Name:             req.Name,
		Level:            benefit.EmployeeLevel(req.Level),
		MarriageStatusID: req.MarriageStatusID,
		Gender:           benefit.Gender(req.Gender),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

// CreateBenefitType registers a benefit category.
// POST /api/admin/benefit-types
func (h *Handler) CreateBenefitType(w http.ResponseWriter, r *http.Request) {
	var req CreateBenefitTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	bt := benefit.BenefitType{ID: benefit.BenefitTypeID(req.ID), Name: req.Name}
	if err := h.Store.SaveBenefitType(r.Context(), bt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save benefit type", err)
		return
	}
	writeJSON(w, http.StatusCreated, bt)
}

// CreateMarriageStatus registers a lookup row.
// POST /api/admin/marriage-statuses
func (h *Handler) CreateMarriageStatus(w http.ResponseWriter, r *http.Request) {
	var req CreateMarriageStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ms := benefit.MarriageStatus{ID: req.ID, Name: req.Name, Single: req.Single}
	if err := h.Store.SaveMarriageStatus(r.Context(), ms); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save marriage status", err)
		return
	}
	writeJSON(w, http.StatusCreated, ms)
}

// Health is the liveness probe.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	yearStr := r.URL.Query().Get("year")
	if yearStr == "" {
		writeError(w, http.StatusBadRequest, "year query parameter is required", nil)
		return 0, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

// writeDomainError maps engine errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var od *benefit.OverdraftExceededError
	if errors.As(err, &od) {
		metrics.OverdraftRejections.Inc()
		writeJSON(w, http.StatusUnprocessableEntity, OverdraftErrorResponse{
			Error:        "overdraft limit exceeded",
			Shortage:     od.Shortage,
			Limit:        od.Limit,
			BalanceAfter: od.BalanceAfter,
		})
		return
	}

	switch {
	case benefit.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case benefit.IsRetryable(err):
		writeError(w, http.StatusConflict, "Conflict, retry the operation", err)
	case benefit.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Request rejected", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

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
