package contract

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a contract. The pending →
// in_progress and in_progress → completed transitions are owned by the
// escrow ledger; cancellation is only legal from pending.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Contract is an agreement between a customer and a contractor for a
// renovation project.
type Contract struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	PartnerID   *uuid.UUID
	Title       string
	Status      Status
	TotalAmount int64 // smallest currency unit (KRW)
	// DepositCode is a short code the payer writes in the bank transfer
	// memo so incoming transfers can be matched back to the contract.
	DepositCode string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

var (
	ErrNotFound = errors.New("contract not found")
	// ErrNotCancellable means the contract has already left pending.
	ErrNotCancellable = errors.New("contract can no longer be cancelled")
	ErrInvalidAmount  = errors.New("total amount must not be negative")
	ErrMissingTitle   = errors.New("title is required")
	ErrUnauthorized   = errors.New("principal not allowed to perform this operation")
)
