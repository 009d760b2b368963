package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anshimpay/anshim/internal/contract"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindContractByMemo matches a transfer memo against contract deposit
// codes. The longest matching code wins so a code that happens to be a
// prefix of another never shadows it.
func (s *Store) FindContractByMemo(ctx context.Context, memo string) (*contract.Contract, error) {
	query := `
		SELECT id, customer_id, partner_id, title, status, total_amount, deposit_code, created_at, updated_at
		FROM contracts
		WHERE $1 ILIKE '%' || deposit_code || '%'
		  AND status IN ('pending', 'in_progress')
		ORDER BY LENGTH(deposit_code) DESC, created_at DESC
		LIMIT 1
	`

	var c contract.Contract

	var statusStr string

	err := s.db.QueryRowContext(ctx, query, memo).Scan(
		&c.ID, &c.CustomerID, &c.PartnerID, &c.Title, &statusStr,
		&c.TotalAmount, &c.DepositCode, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("matching transfer memo: %w", err)
	}

	c.Status = contract.Status(statusStr)

	return &c, nil
}
