package escrow

import (
	"time"

	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/escrow"
)

type paymentResponse struct {
	ID           uuid.UUID     `json:"id"`
	ContractID   uuid.UUID     `json:"contract_id"`
	Amount       int64         `json:"amount"`
	Kind         escrow.Kind   `json:"kind"`
	Status       escrow.Status `json:"status"`
	RejectReason string        `json:"reject_reason,omitempty"`
	ReleasedAt   *time.Time    `json:"released_at,omitempty"`
	RefundedAt   *time.Time    `json:"refunded_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

func toResponse(p *escrow.Payment) paymentResponse {
	return paymentResponse{
		ID:           p.ID,
		ContractID:   p.ContractID,
		Amount:       p.Amount,
		Kind:         p.Kind,
		Status:       p.Status,
		RejectReason: p.RejectReason,
		ReleasedAt:   p.ReleasedAt,
		RefundedAt:   p.RefundedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toResponseList(ps []*escrow.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(ps))
	for i, p := range ps {
		resp[i] = toResponse(p)
	}

	return resp
}
