package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/domain"
	"github.com/aristath/escrow/internal/services"
)

// Handlers provides HTTP handlers for the escrow API
type Handlers struct {
	escrow         *services.EscrowService
	reconciliation *services.ReconciliationService
	log            zerolog.Logger
}

// NewHandlers creates new escrow API handlers
func NewHandlers(
	escrow *services.EscrowService,
	reconciliation *services.ReconciliationService,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		escrow:         escrow,
		reconciliation: reconciliation,
		log:            log.With().Str("component", "handlers").Logger(),
	}
}

// principal extracts the caller identity from the request. The service sits
// behind a gateway that authenticates callers and stamps this header.
func principal(r *http.Request) string {
	return r.Header.Get("X-Principal")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a domain error to an HTTP status and writes it
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNoDeposit):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateDeposit):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientAllowance),
		errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrDateTooEarly),
		errors.Is(err, domain.ErrDateTooLate),
		errors.Is(err, domain.ErrInvalidStartDate),
		errors.Is(err, domain.ErrZeroAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidSchedule):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// HandleGetSchedule returns the current default refund schedule
// GET /api/schedule
func (h *Handlers) HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.escrow.CurrentSchedule()
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"steps": sched.Steps()})
}

// HandleUpdateSchedule replaces the default refund schedule
// POST /api/schedule
func (h *Handlers) HandleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Steps []int64 `json:"steps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.escrow.UpdateSchedule(principal(r), req.Steps); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"steps": req.Steps})
}

// HandleGetWindow returns the current deposit start window
// GET /api/window
func (h *Handlers) HandleGetWindow(w http.ResponseWriter, r *http.Request) {
	win, err := h.escrow.CurrentWindow()
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"starts_at": win.Timestamps()})
}

// HandleUpdateWindow replaces the deposit start window
// POST /api/window
func (h *Handlers) HandleUpdateWindow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartsAt []int64 `json:"starts_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.escrow.UpdateWindow(principal(r), req.StartsAt); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"starts_at": req.StartsAt})
}

// HandleDeposit records a deposit and pulls the price from the buyer
// POST /api/deposits
func (h *Handlers) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account     string `json:"account"`
		Dollars     int64  `json:"dollars"`
		CohortStart int64  `json:"cohort_start"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Account == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account is required"})
		return
	}

	cohortStart := time.Unix(req.CohortStart, 0).UTC()
	if err := h.escrow.Deposit(req.Account, req.Dollars, cohortStart, time.Now().UTC()); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"account":      req.Account,
		"dollars":      req.Dollars,
		"cohort_start": req.CohortStart,
	})
}

// HandleEntitlement returns the current refund and withdrawal entitlements
// GET /api/deposits/{account}/entitlement
func (h *Handlers) HandleEntitlement(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	ent, err := h.escrow.Entitlement(account, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ent)
}

// HandleBuyerClaim refunds the schedule-determined portion to the buyer and
// closes the deposit
// POST /api/deposits/{account}/claim
func (h *Handlers) HandleBuyerClaim(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	refund, err := h.escrow.BuyerClaim(account, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":        account,
		"refund_dollars": refund,
	})
}

// HandleSellerWithdraw collects the earned portion of a batch of deposits
// POST /api/withdrawals
func (h *Handlers) HandleSellerWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accounts []string `json:"accounts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Accounts) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "accounts is required"})
		return
	}

	total, err := h.escrow.SellerWithdraw(principal(r), req.Accounts, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts":      req.Accounts,
		"total_dollars": total,
	})
}

// HandleSellerTerminate refunds the buyer their current entitlement and
// collects the rest immediately
// POST /api/deposits/{account}/terminate
func (h *Handlers) HandleSellerTerminate(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	refund, leftover, err := h.escrow.SellerTerminate(principal(r), account, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":          account,
		"refund_dollars":   refund,
		"leftover_dollars": leftover,
	})
}

// HandleExcess returns the custodied balance in excess of the tracked total
// GET /api/excess
func (h *Handlers) HandleExcess(w http.ResponseWriter, r *http.Request) {
	excess, err := h.reconciliation.Excess()
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"excess_units": excess})
}

// HandleRescue sweeps stray value to the caller
// POST /api/rescue
func (h *Handlers) HandleRescue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Asset  string `json:"asset"`
		Amount int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Asset == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "asset is required"})
		return
	}

	units, err := h.reconciliation.Rescue(principal(r), req.Asset, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":             req.Asset,
		"transferred_units": units,
	})
}
