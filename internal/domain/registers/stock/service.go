package stock

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/security"
	"everpack/internal/core/tx"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/catalogs/product"
	"everpack/pkg/logger"
)

// ProductSource supplies product data for movement validation.
type ProductSource interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// AlertEvaluator reconciles a product's alerts after its stock changed.
// Satisfied by the alerts service.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, productID id.ID) (*entity.StockAlert, int64, error)
}

// MovementInput describes one ledger entry to record.
type MovementInput struct {
	ProductID    id.ID
	MovementType entity.MovementType
	Quantity     types.Quantity
	Reason       entity.MovementReason
	Reference    string
	Notes        string
}

// Service is the only write path into the ledger. Every recorded movement
// re-evaluates the product's alerts inside the same transaction.
type Service struct {
	repo      Repository
	products  ProductSource
	alerts    AlertEvaluator
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, products ProductSource, alerts AlertEvaluator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		alerts:    alerts,
		txManager: txManager,
	}
}

// RecordMovement validates and appends one ledger entry, then evaluates
// alerts for the product. Runs in its own transaction unless the caller
// already opened one.
func (s *Service) RecordMovement(ctx context.Context, input MovementInput) (entity.StockMovement, error) {
	if err := validateInput(input); err != nil {
		return entity.StockMovement{}, err
	}

	var movement entity.StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		movement, err = s.recordInTx(ctx, input)
		return err
	})
	if err != nil {
		return entity.StockMovement{}, err
	}

	logger.Info(ctx, "recorded stock movement",
		"product_id", movement.ProductID,
		"type", movement.MovementType,
		"quantity", movement.Quantity,
		"reason", movement.Reason,
	)

	return movement, nil
}

// RecordMovements appends several entries in one transaction, evaluating
// alerts once per affected product. Document services call this from
// inside their own transaction.
func (s *Service) RecordMovements(ctx context.Context, inputs []MovementInput) ([]entity.StockMovement, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	for i, input := range inputs {
		if err := validateInput(input); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, apperror.NewValidation(fmt.Sprintf("movement %d: %s", i, appErr.Message))
			}
			return nil, err
		}
	}

	var movements []entity.StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		userID := security.GetUserID(ctx)
		affected := make(map[id.ID]struct{})

		movements = movements[:0]
		for _, input := range inputs {
			p, err := s.activeProduct(ctx, input.ProductID)
			if err != nil {
				return err
			}

			m := entity.NewStockMovement(p.ID, input.MovementType, input.Quantity, input.Reason)
			m.Reference = input.Reference
			m.Notes = input.Notes
			m.CreatedBy = userID
			movements = append(movements, m)
			affected[p.ID] = struct{}{}
		}

		if err := s.repo.CreateMovements(ctx, movements); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}

		for productID := range affected {
			if _, _, err := s.alerts.Evaluate(ctx, productID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return movements, nil
}

func (s *Service) recordInTx(ctx context.Context, input MovementInput) (entity.StockMovement, error) {
	p, err := s.activeProduct(ctx, input.ProductID)
	if err != nil {
		return entity.StockMovement{}, err
	}

	m := entity.NewStockMovement(p.ID, input.MovementType, input.Quantity, input.Reason)
	m.Reference = input.Reference
	m.Notes = input.Notes
	m.CreatedBy = security.GetUserID(ctx)

	if err := s.repo.CreateMovement(ctx, &m); err != nil {
		return entity.StockMovement{}, fmt.Errorf("create movement: %w", err)
	}

	if _, _, err := s.alerts.Evaluate(ctx, p.ID); err != nil {
		return entity.StockMovement{}, err
	}

	return m, nil
}

func (s *Service) activeProduct(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.DeletionMark || !p.IsActive {
		return nil, apperror.NewValidation("product is not active").
			WithDetail("productId", productID.String())
	}
	return p, nil
}

func validateInput(input MovementInput) error {
	if id.IsNil(input.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if !entity.ValidMovementType(input.MovementType) {
		return apperror.NewValidation("invalid movement type").
			WithDetail("field", "movementType").
			WithDetail("value", string(input.MovementType))
	}
	if !entity.ValidMovementReason(input.Reason) {
		return apperror.NewValidation("invalid movement reason").
			WithDetail("field", "reason").
			WithDetail("value", string(input.Reason))
	}
	if !input.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	return nil
}

// GetStock derives current stock for a product.
func (s *Service) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.repo.GetStock(ctx, productID)
}

// GetStockValue returns current stock times the product's cost price.
func (s *Service) GetStockValue(ctx context.Context, productID id.ID) (types.Money, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return types.Zero(), err
	}

	qty, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		return types.Zero(), err
	}

	return p.CostPrice.Mul(decimal.NewFromInt(qty.Int64())), nil
}

// CheckAvailability verifies the product has at least the required stock,
// locking its row so a concurrent sale cannot consume the same units.
func (s *Service) CheckAvailability(ctx context.Context, productID id.ID, required types.Quantity) error {
	available, err := s.repo.GetStockForUpdate(ctx, productID)
	if err != nil {
		return fmt.Errorf("get stock for %s: %w", productID, err)
	}

	if available < required {
		return apperror.NewInsufficientStock(productID.String(), required.Int64(), available.Int64())
	}

	return nil
}

// GetStocksBulk derives stock for many products at once.
func (s *Service) GetStocksBulk(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	return s.repo.GetStocksBulk(ctx, productIDs)
}

// GetStockLevels returns per-product balances.
func (s *Service) GetStockLevels(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error) {
	return s.repo.GetBalances(ctx, filter)
}

// GetMovementHistory returns ledger rows matching the filter.
func (s *Service) GetMovementHistory(ctx context.Context, filter MovementFilter) (domain.ListResult[entity.StockMovement], error) {
	return s.repo.GetMovementHistory(ctx, filter)
}

// GetTurnover totals receipts and expenses for a period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}
