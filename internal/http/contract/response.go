package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/contract"
)

type contractResponse struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	PartnerID   *uuid.UUID      `json:"partner_id,omitempty"`
	Title       string          `json:"title"`
	Status      contract.Status `json:"status"`
	TotalAmount int64           `json:"total_amount"`
	DepositCode string          `json:"deposit_code"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

func toResponse(c *contract.Contract) contractResponse {
	return contractResponse{
		ID:          c.ID,
		CustomerID:  c.CustomerID,
		PartnerID:   c.PartnerID,
		Title:       c.Title,
		Status:      c.Status,
		TotalAmount: c.TotalAmount,
		DepositCode: c.DepositCode,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toResponseList(cs []*contract.Contract) []contractResponse {
	resp := make([]contractResponse, len(cs))
	for i, c := range cs {
		resp[i] = toResponse(c)
	}

	return resp
}
