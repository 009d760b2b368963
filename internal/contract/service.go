package contract

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/auth"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=contract
type Repository interface {
	CreateContract(ctx context.Context, c *Contract) error
	GetContract(ctx context.Context, id uuid.UUID) (*Contract, error)
	ListContracts(ctx context.Context, filter ListFilter) ([]*Contract, error)

	// CancelContract performs the conditional update pending → cancelled.
	// It reports false when the contract was not in pending, so a deposit
	// landing concurrently can never be cancelled out from under.
	CancelContract(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	CustomerID  uuid.UUID
	PartnerID   *uuid.UUID
	Title       string
	TotalAmount int64
}

type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *Status
}

func (s *Service) Create(ctx context.Context, principal auth.Principal, params CreateParams) (*Contract, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrMissingTitle
	}

	if params.TotalAmount < 0 {
		return nil, ErrInvalidAmount
	}

	if !principal.IsAdmin() && principal.UserID != params.CustomerID {
		return nil, ErrUnauthorized
	}

	c := &Contract{
		CustomerID:  params.CustomerID,
		PartnerID:   params.PartnerID,
		Title:       params.Title,
		Status:      StatusPending,
		TotalAmount: params.TotalAmount,
		DepositCode: newDepositCode(),
	}
	if err := s.repo.CreateContract(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contract, error) {
	return s.repo.GetContract(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Contract, error) {
	return s.repo.ListContracts(ctx, filter)
}

// Cancel moves a pending contract to cancelled. Contracts with escrow
// activity must be unwound through the ledger instead.
func (s *Service) Cancel(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Contract, error) {
	c, err := s.repo.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() && principal.UserID != c.CustomerID {
		return nil, ErrUnauthorized
	}

	if c.Status != StatusPending {
		return nil, ErrNotCancellable
	}

	cancelled, err := s.repo.CancelContract(ctx, id)
	if err != nil {
		return nil, err
	}

	if !cancelled {
		// Lost the race against a deposit activating the contract.
		return nil, ErrNotCancellable
	}

	return s.repo.GetContract(ctx, id)
}

// newDepositCode derives a short uppercase code payers can copy into a
// bank transfer memo.
func newDepositCode() string {
	id := uuid.New()
	return "AS-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
