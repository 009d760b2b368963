package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/auth"
	"github.com/anshimpay/anshim/internal/escrow"
	"github.com/anshimpay/anshim/internal/importer"
	"github.com/anshimpay/anshim/internal/reconcile"
)

type Handler struct {
	importSvc    *importer.Service
	reconcileSvc *reconcile.Service
	ledger       *escrow.Ledger
}

func NewHandler(importSvc *importer.Service, reconcileSvc *reconcile.Service, ledger *escrow.Ledger) *Handler {
	return &Handler{
		importSvc:    importSvc,
		reconcileSvc: reconcileSvc,
		ledger:       ledger,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importTransfers)
	r.Post("/confirm", h.confirmImport)
}

type transferDTO struct {
	Date   time.Time `json:"date"`
	Payer  string    `json:"payer"`
	Memo   string    `json:"memo"`
	Amount int64     `json:"amount"`
}

type matchDTO struct {
	Transfer      transferDTO `json:"transfer"`
	ContractID    *uuid.UUID  `json:"contract_id,omitempty"`
	ContractTitle string      `json:"contract_title,omitempty"`
}

type importPreviewResponse struct {
	Matched   []matchDTO `json:"matched"`
	Unmatched []matchDTO `json:"unmatched"`
}

// importTransfers parses an uploaded bank transfer log and previews which
// rows could be matched to a contract deposit code. Nothing is written.
func (h *Handler) importTransfers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := h.importSvc.Import(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := importPreviewResponse{}

	for _, row := range rows {
		dto := matchDTO{
			Transfer: transferDTO{
				Date:   row.Date,
				Payer:  row.Payer,
				Memo:   row.Memo,
				Amount: row.Amount,
			},
		}

		c, err := h.reconcileSvc.Match(r.Context(), row.Memo)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if c == nil {
			resp.Unmatched = append(resp.Unmatched, dto)
			continue
		}

		dto.ContractID = &c.ID
		dto.ContractTitle = c.Title
		resp.Matched = append(resp.Matched, dto)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type confirmDepositDTO struct {
	ContractID uuid.UUID   `json:"contract_id"`
	Amount     int64       `json:"amount"`
	Kind       escrow.Kind `json:"kind"`
}

type confirmRequest struct {
	Deposits []confirmDepositDTO `json:"deposits"`
}

type confirmFailureDTO struct {
	ContractID uuid.UUID `json:"contract_id"`
	Error      string    `json:"error"`
}

type confirmResponse struct {
	Created  int                 `json:"created"`
	Failures []confirmFailureDTO `json:"failures,omitempty"`
}

// confirmImport creates held deposits for the reviewed matches. Each row
// goes through the ledger individually so one bad row does not block the
// rest of the batch.
func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := confirmResponse{}

	for _, d := range req.Deposits {
		kind := d.Kind
		if kind == "" {
			kind = escrow.KindDeposit
		}

		_, err := h.ledger.Deposit(r.Context(), principal, escrow.DepositParams{
			ContractID: d.ContractID,
			Amount:     d.Amount,
			Kind:       kind,
		})
		if err != nil {
			resp.Failures = append(resp.Failures, confirmFailureDTO{
				ContractID: d.ContractID,
				Error:      err.Error(),
			})

			continue
		}

		resp.Created++
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
