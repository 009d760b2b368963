package escrow

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies which stage of the contract a payment funds. A deposit
// is the distinguished kind that activates a pending contract.
type Kind string

const (
	KindDeposit Kind = "deposit"
	KindMid     Kind = "mid"
	KindFinal   Kind = "final"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindMid, KindFinal:
		return true
	}

	return false
}

// Status represents the lifecycle state of an escrow payment.
//
//	held ──(request approval)──► pending_approval ──(approve)──► released
//	held ──(refund)──► refunded
//	pending_approval ──(reject)──► held
//
// released and refunded are terminal; no transition leaves them.
type Status string

const (
	StatusHeld            Status = "held"
	StatusPendingApproval Status = "pending_approval"
	StatusReleased        Status = "released"
	StatusRefunded        Status = "refunded"
)

func (s Status) Terminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// Payment is a held sum of money earmarked for a contract stage. Rows are
// never deleted; terminal payments are immutable (audit trail).
type Payment struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	Amount     int64 // smallest currency unit (KRW)
	Kind       Kind
	Status     Status
	// RejectReason holds the most recent rejection note, surfaced to the
	// payer when the payment returns to held.
	RejectReason string
	ReleasedAt   *time.Time
	RefundedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
