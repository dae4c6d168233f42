package product

import (
	"context"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/tx"
	"everpack/internal/domain"
)

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles uniqueness checks before create.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	// SKU is unique across the catalog
	if exists, err := s.checkSKUExists(ctx, p.Code, p.ID); err != nil {
		return err
	} else if exists {
		return apperror.NewDuplicate("product", "sku", p.Code)
	}

	if p.Barcode != nil && *p.Barcode != "" {
		if exists, err := s.checkBarcodeExists(ctx, *p.Barcode, p.ID); err != nil {
			return err
		} else if exists {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
	}

	return nil
}

// prepareForUpdate enforces SKU immutability and barcode uniqueness.
func (s *Service) prepareForUpdate(ctx context.Context, p *Product) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}

	// SKU never changes after creation
	if existing.Code != p.Code {
		return apperror.NewValidation("sku cannot be changed").
			WithDetail("field", "sku").
			WithDetail("current", existing.Code)
	}

	if p.Barcode != nil && *p.Barcode != "" {
		if exists, err := s.checkBarcodeExists(ctx, *p.Barcode, p.ID); err != nil {
			return err
		} else if exists {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
	}

	return nil
}

// --- Entity-specific methods ---

// FindBySKU retrieves a product by SKU.
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.FindBySKU(ctx, sku)
}

// FindByBarcode retrieves a product by barcode.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	return s.repo.FindByBarcode(ctx, barcode)
}

// FindLowStock retrieves products with stock at or below minimum.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, filter)
}

// ListActive retrieves every active product.
func (s *Service) ListActive(ctx context.Context) ([]*Product, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) checkSKUExists(ctx context.Context, sku string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		// Not found is OK; other errors must be propagated (DB errors, timeouts, etc.).
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}

func (s *Service) checkBarcodeExists(ctx context.Context, barcode string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}
