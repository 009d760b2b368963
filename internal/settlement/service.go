package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=settlement
type Repository interface {
	// MonthlyVolume sums the released payment amounts on the contractor's
	// contracts for the given month.
	MonthlyVolume(ctx context.Context, partnerID uuid.UUID, year int, month time.Month) (int64, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// MonthlyStatement aggregates a contractor's released volume and computes
// the payout breakdown for their grade.
func (s *Service) MonthlyStatement(ctx context.Context, partnerID uuid.UUID, grade Grade, year int, month time.Month) (*Statement, error) {
	if !grade.Valid() {
		return nil, ErrInvalidGrade
	}

	volume, err := s.repo.MonthlyVolume(ctx, partnerID, year, month)
	if err != nil {
		return nil, err
	}

	fee, vat, net := Compute(volume, grade)

	return &Statement{
		PartnerID: partnerID,
		Year:      year,
		Month:     month,
		Grade:     grade,
		Volume:    volume,
		Fee:       fee,
		VAT:       vat,
		Net:       net,
	}, nil
}
