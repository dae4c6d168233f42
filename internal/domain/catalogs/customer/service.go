package customer

import (
	"context"
	"fmt"
	"time"

	"everpack/internal/core/id"
	"everpack/internal/core/numerator"
	"everpack/internal/core/tx"
	"everpack/internal/domain"
)

// Service provides business logic for the Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Customer service.
func NewService(repo Repository, txManager tx.Manager, numerator numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "customer",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a code when none is provided.
func (s *Service) prepareForCreate(ctx context.Context, c *Customer) error {
	if c.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CUS"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		c.Code = code
	}
	return nil
}

// GetBalances returns the customer's derived financial position.
func (s *Service) GetBalances(ctx context.Context, customerID id.ID) (Balances, error) {
	if _, err := s.GetByID(ctx, customerID); err != nil {
		return Balances{}, err
	}
	return s.repo.GetBalances(ctx, customerID)
}
