package reconcile

import (
	"context"

	"github.com/anshimpay/anshim/internal/contract"
)

type Repository interface {
	FindContractByMemo(ctx context.Context, memo string) (*contract.Contract, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Match tries to find the contract whose deposit code appears in the
// transfer memo. Returns nil if no contract matches.
func (s *Service) Match(ctx context.Context, memo string) (*contract.Contract, error) {
	if memo == "" {
		return nil, nil
	}

	return s.repo.FindContractByMemo(ctx, memo)
}
