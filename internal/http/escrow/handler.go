package escrow

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/auth"
	"github.com/anshimpay/anshim/internal/escrow"
)

type Handler struct {
	ledger *escrow.Ledger
}

func NewHandler(ledger *escrow.Ledger) *Handler {
	return &Handler{ledger: ledger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.deposit)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/request-approval", h.requestApproval)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/refund", h.refund)
}

// writeError maps the ledger's typed failures to HTTP statuses.
// IllegalTransition and MissingReason are actionable validation messages
// for the user, not generic server faults.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, escrow.ErrNotFound):
		http.Error(w, "payment not found", http.StatusNotFound)
	case errors.Is(err, escrow.ErrUnauthorized):
		http.Error(w, "not allowed", http.StatusForbidden)
	case errors.Is(err, escrow.ErrIllegalTransition):
		http.Error(w, "payment status changed, reload and try again", http.StatusConflict)
	case errors.Is(err, escrow.ErrInvalidContract),
		errors.Is(err, escrow.ErrInvalidAmount),
		errors.Is(err, escrow.ErrInvalidKind),
		errors.Is(err, escrow.ErrMissingReason):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func principalOr401(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
	}

	return principal, ok
}

type depositRequest struct {
	ContractID uuid.UUID   `json:"contract_id"`
	Amount     int64       `json:"amount"`
	Kind       escrow.Kind `json:"kind"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.ledger.Deposit(r.Context(), principal, escrow.DepositParams{
		ContractID: req.ContractID,
		Amount:     req.Amount,
		Kind:       req.Kind,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := escrow.ListFilter{}

	if s := r.URL.Query().Get("contract_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid contract_id", http.StatusBadRequest)
			return
		}

		filter.ContractID = &id
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(escrow.Status(s))
	}

	ps, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(ps)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) requestApproval(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledger.RequestApproval)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledger.Approve)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledger.Refund)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.ledger.Reject(r.Context(), principal, id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type transitionFunc func(ctx context.Context, principal auth.Principal, id uuid.UUID) (*escrow.Payment, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op transitionFunc) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := op(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
