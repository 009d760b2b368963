package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) MonthlyVolume(ctx context.Context, partnerID uuid.UUID, year int, month time.Month) (int64, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN contracts c ON p.contract_id = c.id
		WHERE c.partner_id = $1
		  AND p.status = 'released'
		  AND p.released_at >= $2
		  AND p.released_at < $3
	`

	var volume int64
	if err := s.db.QueryRowContext(ctx, query, partnerID, start, end).Scan(&volume); err != nil {
		return 0, fmt.Errorf("summing monthly volume: %w", err)
	}

	return volume, nil
}
