package escrow

import "errors"

// Typed failures returned by ledger operations. Anything else coming out
// of an operation is a transport-level failure: the write may or may not
// have committed, so callers must re-query current state before retrying.
var (
	ErrNotFound = errors.New("payment not found")

	// ErrInvalidContract means the contract is missing or cancelled, so it
	// cannot accept new deposits.
	ErrInvalidContract = errors.New("contract missing or not accepting deposits")

	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidKind   = errors.New("unknown payment kind")

	// ErrIllegalTransition means the requested transition is not legal from
	// the payment's current status. It covers double approvals, refunds of
	// settled payments and rejections of payments not under review, whether
	// caused by a user mistake or a lost race.
	ErrIllegalTransition = errors.New("illegal payment status transition")

	ErrMissingReason = errors.New("rejection reason is required")
	ErrUnauthorized  = errors.New("principal not allowed to perform this operation")
)
