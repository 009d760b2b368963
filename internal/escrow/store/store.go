package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/anshimpay/anshim/internal/contract"
	"github.com/anshimpay/anshim/internal/escrow"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPayment reads a payment row from the scanner.
// Expected column order: id, contract_id, amount, kind, status, reject_reason, released_at, refunded_at, created_at, updated_at
func scanPayment(s scanner) (*escrow.Payment, error) {
	var p escrow.Payment

	var kindStr, statusStr string

	var reason sql.NullString

	if err := s.Scan(
		&p.ID, &p.ContractID, &p.Amount, &kindStr, &statusStr, &reason,
		&p.ReleasedAt, &p.RefundedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Kind = escrow.Kind(kindStr)
	p.Status = escrow.Status(statusStr)
	p.RejectReason = reason.String

	return &p, nil
}

const selectPaymentColumns = `
	id, contract_id, amount, kind, status, reject_reason, released_at, refunded_at, created_at, updated_at
`

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*escrow.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, escrow.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

func (s *Store) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	query := `
		SELECT id, customer_id, partner_id, title, status, total_amount, deposit_code, created_at, updated_at
		FROM contracts
		WHERE id = $1
	`

	var c contract.Contract

	var statusStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.CustomerID, &c.PartnerID, &c.Title, &statusStr,
		&c.TotalAmount, &c.DepositCode, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contract.ErrNotFound
		}

		return nil, fmt.Errorf("getting contract: %w", err)
	}

	c.Status = contract.Status(statusStr)

	return &c, nil
}

func (s *Store) ListPayments(ctx context.Context, filter escrow.ListFilter) ([]*escrow.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.ContractID != nil {
		query += fmt.Sprintf(" AND contract_id = $%d", argIdx)

		args = append(args, *filter.ContractID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var ps []*escrow.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		ps = append(ps, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return ps, nil
}

// CreateDeposit inserts a held payment and, when activateContract is set,
// flips the contract pending → in_progress in the same transaction. The
// contract row is re-checked under lock so a cancellation committing just
// before the insert still rejects the deposit.
func (s *Store) CreateDeposit(ctx context.Context, p *escrow.Payment, activateContract bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning deposit tx: %w", err)
	}
	defer tx.Rollback()

	var contractStatus string

	err = tx.QueryRowContext(ctx,
		`SELECT status FROM contracts WHERE id = $1 FOR UPDATE`, p.ContractID,
	).Scan(&contractStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return escrow.ErrInvalidContract
		}

		return fmt.Errorf("locking contract: %w", err)
	}

	if contract.Status(contractStatus) == contract.StatusCancelled {
		return escrow.ErrInvalidContract
	}

	insert := `
		INSERT INTO payments (contract_id, amount, kind, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowContext(ctx, insert,
		p.ContractID,
		p.Amount,
		p.Kind,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}

	if activateContract {
		// Zero rows is fine: a sibling deposit already activated it.
		activate := `
			UPDATE contracts
			SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3
		`
		if _, err := tx.ExecContext(ctx, activate,
			contract.StatusInProgress, p.ContractID, contract.StatusPending,
		); err != nil {
			return fmt.Errorf("activating contract: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing deposit: %w", err)
	}

	return nil
}

func (s *Store) MarkPendingApproval(ctx context.Context, id uuid.UUID) (*escrow.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + selectPaymentColumns

	p, err := scanPayment(s.db.QueryRowContext(ctx, query,
		escrow.StatusPendingApproval, id, escrow.StatusHeld,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.classifyConflict(ctx, s.db, id)
		}

		return nil, fmt.Errorf("requesting approval: %w", err)
	}

	return p, nil
}

// Release performs the pending_approval → released conditional update and
// the "all siblings released ⇒ contract completed" check atomically. The
// per-contract advisory lock serializes concurrent approvals on siblings
// of the same contract, so the aggregate is always computed from a
// consistent read taken after the local write.
func (s *Store) Release(ctx context.Context, id uuid.UUID) (*escrow.Payment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning release tx: %w", err)
	}
	defer tx.Rollback()

	var contractID uuid.UUID

	err = tx.QueryRowContext(ctx,
		`SELECT contract_id FROM payments WHERE id = $1`, id,
	).Scan(&contractID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, escrow.ErrNotFound
		}

		return nil, fmt.Errorf("looking up payment: %w", err)
	}

	lockKey := contractLockKey(contractID)
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		return nil, fmt.Errorf("acquiring contract lock: %w", err)
	}

	cas := `
		UPDATE payments
		SET status = $1, released_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + selectPaymentColumns

	p, err := scanPayment(tx.QueryRowContext(ctx, cas,
		escrow.StatusReleased, id, escrow.StatusPendingApproval,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, escrow.ErrIllegalTransition
		}

		return nil, fmt.Errorf("releasing payment: %w", err)
	}

	var unreleased int

	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE contract_id = $1 AND status <> $2`,
		contractID, escrow.StatusReleased,
	).Scan(&unreleased)
	if err != nil {
		return nil, fmt.Errorf("counting unreleased siblings: %w", err)
	}

	if unreleased == 0 {
		complete := `
			UPDATE contracts
			SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3
		`
		if _, err := tx.ExecContext(ctx, complete,
			contract.StatusCompleted, contractID, contract.StatusInProgress,
		); err != nil {
			return nil, fmt.Errorf("completing contract: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing release: %w", err)
	}

	return p, nil
}

func (s *Store) ReturnToHeld(ctx context.Context, id uuid.UUID, reason string) (*escrow.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, reject_reason = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING ` + selectPaymentColumns

	p, err := scanPayment(s.db.QueryRowContext(ctx, query,
		escrow.StatusHeld, reason, id, escrow.StatusPendingApproval,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.classifyConflict(ctx, s.db, id)
		}

		return nil, fmt.Errorf("rejecting payment: %w", err)
	}

	return p, nil
}

func (s *Store) Refund(ctx context.Context, id uuid.UUID) (*escrow.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, refunded_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + selectPaymentColumns

	p, err := scanPayment(s.db.QueryRowContext(ctx, query,
		escrow.StatusRefunded, id, escrow.StatusHeld,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.classifyConflict(ctx, s.db, id)
		}

		return nil, fmt.Errorf("refunding payment: %w", err)
	}

	return p, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// classifyConflict distinguishes a missing payment from one whose status
// no longer matches the expected prior state of a conditional update.
func (s *Store) classifyConflict(ctx context.Context, q querier, id uuid.UUID) error {
	var exists bool

	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("classifying update conflict: %w", err)
	}

	if !exists {
		return escrow.ErrNotFound
	}

	return escrow.ErrIllegalTransition
}

// contractLockKey derives the advisory lock key serializing aggregate
// status checks for one contract.
func contractLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(id[:])

	return int64(h.Sum64())
}
