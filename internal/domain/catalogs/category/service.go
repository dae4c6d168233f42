package category

import (
	"context"
	"fmt"
	"time"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/numerator"
	"everpack/internal/core/tx"
	"everpack/internal/domain"
)

// Service provides business logic for the Category catalog.
type Service struct {
	*domain.CatalogService[*Category]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Category service.
func NewService(repo Repository, txManager tx.Manager, numerator numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "category",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and name uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, c *Category) error {
	if c.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CAT"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		c.Code = code
	}

	if exists, err := s.checkNameExists(ctx, c.Name, c.ID); err != nil {
		return err
	} else if exists {
		return apperror.NewDuplicate("category", "name", c.Name)
	}

	return nil
}

// prepareForUpdate handles name uniqueness.
func (s *Service) prepareForUpdate(ctx context.Context, c *Category) error {
	if exists, err := s.checkNameExists(ctx, c.Name, c.ID); err != nil {
		return err
	} else if exists {
		return apperror.NewDuplicate("category", "name", c.Name)
	}

	return nil
}

// FindByName retrieves a category by name.
func (s *Service) FindByName(ctx context.Context, name string) (*Category, error) {
	return s.repo.FindByName(ctx, name)
}

func (s *Service) checkNameExists(ctx context.Context, name string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}
