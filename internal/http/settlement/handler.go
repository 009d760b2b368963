package settlement

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/auth"
	"github.com/anshimpay/anshim/internal/settlement"
)

type Handler struct {
	svc *settlement.Service
}

func NewHandler(svc *settlement.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{partnerID}", h.statement)
}

type statementResponse struct {
	PartnerID uuid.UUID        `json:"partner_id"`
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	Grade     settlement.Grade `json:"grade"`
	Volume    int64            `json:"volume"`
	Fee       int64            `json:"fee"`
	VAT       int64            `json:"vat"`
	Net       int64            `json:"net"`
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	partnerID, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		http.Error(w, "invalid partner id", http.StatusBadRequest)
		return
	}

	// Contractors may only read their own statements.
	if !principal.IsAdmin() && principal.UserID != partnerID {
		http.Error(w, "not allowed", http.StatusForbidden)
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "year query parameter is required", http.StatusBadRequest)
		return
	}

	monthNum, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		http.Error(w, "month query parameter must be 1-12", http.StatusBadRequest)
		return
	}

	grade := settlement.Grade(r.URL.Query().Get("grade"))

	st, err := h.svc.MonthlyStatement(r.Context(), partnerID, grade, year, time.Month(monthNum))
	if err != nil {
		if errors.Is(err, settlement.ErrInvalidGrade) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(statementResponse{
		PartnerID: st.PartnerID,
		Year:      st.Year,
		Month:     int(st.Month),
		Grade:     st.Grade,
		Volume:    st.Volume,
		Fee:       st.Fee,
		VAT:       st.VAT,
		Net:       st.Net,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
