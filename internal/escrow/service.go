package escrow

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/auth"
	"github.com/anshimpay/anshim/internal/contract"
)

// Repository is the conditional-update contract the underlying data store
// must supply. Every transition method writes the new status only where
// the stored status still equals the expected prior status, and returns
// ErrIllegalTransition when the conditional update matched no row (or
// ErrNotFound when the payment does not exist at all).
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=escrow
type Repository interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
	ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// CreateDeposit inserts a held payment and, when activateContract is
	// set, performs the contract's pending → in_progress conditional update
	// in the same database transaction.
	CreateDeposit(ctx context.Context, p *Payment, activateContract bool) error

	// MarkPendingApproval is the held → pending_approval conditional update.
	MarkPendingApproval(ctx context.Context, id uuid.UUID) (*Payment, error)

	// Release is the pending_approval → released conditional update. It
	// stamps released_at and, under a per-contract lock in the same
	// transaction, sets the contract to completed when every sibling
	// payment is released. The completion check is re-entrant.
	Release(ctx context.Context, id uuid.UUID) (*Payment, error)

	// ReturnToHeld is the pending_approval → held conditional update,
	// persisting the rejection reason.
	ReturnToHeld(ctx context.Context, id uuid.UUID, reason string) (*Payment, error)

	// Refund is the held → refunded conditional update, stamping refunded_at.
	Refund(ctx context.Context, id uuid.UUID) (*Payment, error)
}

// Ledger owns the payment state machine and the owning contract's
// aggregate status. It is the sole writer of Payment.status,
// released_at/refunded_at and of Contract.status transitions past pending.
//
// Operations are safe under concurrent access from multiple processes:
// conflicting requests on one payment resolve so exactly one wins and the
// rest observe ErrIllegalTransition. The ledger never retries internally.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

type DepositParams struct {
	ContractID uuid.UUID
	Amount     int64
	Kind       Kind
}

type ListFilter struct {
	ContractID *uuid.UUID
	Status     *Status
}

// Deposit creates a payment in held. A deposit-kind payment on a pending
// contract atomically activates the contract.
func (l *Ledger) Deposit(ctx context.Context, principal auth.Principal, params DepositParams) (*Payment, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if !params.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	c, err := l.repo.GetContract(ctx, params.ContractID)
	if err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return nil, ErrInvalidContract
		}

		return nil, err
	}

	if c.Status == contract.StatusCancelled {
		return nil, ErrInvalidContract
	}

	if !principal.IsAdmin() && principal.UserID != c.CustomerID {
		return nil, ErrUnauthorized
	}

	p := &Payment{
		ContractID: params.ContractID,
		Amount:     params.Amount,
		Kind:       params.Kind,
		Status:     StatusHeld,
	}

	activate := params.Kind == KindDeposit && c.Status == contract.StatusPending
	if err := l.repo.CreateDeposit(ctx, p, activate); err != nil {
		return nil, err
	}

	return p, nil
}

// RequestApproval moves a held payment into review.
func (l *Ledger) RequestApproval(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Payment, error) {
	p, err := l.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.authorizePayer(ctx, principal, p); err != nil {
		return nil, err
	}

	if p.Status != StatusHeld {
		return nil, ErrIllegalTransition
	}

	return l.repo.MarkPendingApproval(ctx, id)
}

// Approve releases a payment under review and completes the contract once
// every sibling payment is released. Admin only.
func (l *Ledger) Approve(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Payment, error) {
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	p, err := l.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusPendingApproval {
		return nil, ErrIllegalTransition
	}

	return l.repo.Release(ctx, id)
}

// Reject returns a payment under review to held with a reason the payer
// will see. Admin only.
func (l *Ledger) Reject(ctx context.Context, principal auth.Principal, id uuid.UUID, reason string) (*Payment, error) {
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	if strings.TrimSpace(reason) == "" {
		return nil, ErrMissingReason
	}

	p, err := l.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusPendingApproval {
		return nil, ErrIllegalTransition
	}

	return l.repo.ReturnToHeld(ctx, id, reason)
}

// Refund returns a held payment to the payer. A payment already in review
// or already settled cannot be unilaterally refunded.
func (l *Ledger) Refund(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Payment, error) {
	p, err := l.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.authorizePayer(ctx, principal, p); err != nil {
		return nil, err
	}

	if p.Status != StatusHeld {
		return nil, ErrIllegalTransition
	}

	return l.repo.Refund(ctx, id)
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return l.repo.GetPayment(ctx, id)
}

func (l *Ledger) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	return l.repo.ListPayments(ctx, filter)
}

// authorizePayer allows the owning contract's customer, or an admin.
func (l *Ledger) authorizePayer(ctx context.Context, principal auth.Principal, p *Payment) error {
	if principal.IsAdmin() {
		return nil
	}

	c, err := l.repo.GetContract(ctx, p.ContractID)
	if err != nil {
		return err
	}

	if principal.UserID != c.CustomerID {
		return ErrUnauthorized
	}

	return nil
}
