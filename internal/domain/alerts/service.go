package alerts

import (
	"context"
	"fmt"
	"time"

	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/catalogs/product"
	"everpack/pkg/logger"
)

// ProductSource supplies product data to the evaluator.
type ProductSource interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
	ListActive(ctx context.Context) ([]*product.Product, error)
}

// StockSource derives current stock from the movement ledger.
type StockSource interface {
	GetStock(ctx context.Context, productID id.ID) (types.Quantity, error)
}

// thresholdTypes are the alert types the evaluator produces and resolves.
var thresholdTypes = []entity.AlertType{entity.AlertLowStock, entity.AlertOutOfStock}

// SweepResult summarizes a full evaluation pass.
type SweepResult struct {
	Checked  int   `json:"checked"`
	Created  int   `json:"created"`
	Resolved int64 `json:"resolved"`
}

// Service evaluates stock levels against product thresholds and keeps
// the alert table consistent with the ledger.
type Service struct {
	repo     Repository
	products ProductSource
	stocks   StockSource
	events   domain.EventPublisher

	now func() time.Time
}

// NewService creates a new alert service. events may be nil.
func NewService(repo Repository, products ProductSource, stocks StockSource, events domain.EventPublisher) *Service {
	return &Service{
		repo:     repo,
		products: products,
		stocks:   stocks,
		events:   events,
		now:      time.Now,
	}
}

// Evaluate derives the product's stock and reconciles its alerts:
// at or below the minimum it opens an OUT_OF_STOCK (stock zero) or
// LOW_STOCK alert unless one is already open; above the minimum it
// resolves every open threshold alert. Repeated calls with unchanged
// stock change nothing.
//
// Callers invoke this inside the transaction that recorded the movement,
// so the alert state always matches the ledger.
func (s *Service) Evaluate(ctx context.Context, productID id.ID) (*entity.StockAlert, int64, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, 0, err
	}
	return s.evaluateProduct(ctx, p)
}

func (s *Service) evaluateProduct(ctx context.Context, p *product.Product) (*entity.StockAlert, int64, error) {
	stock, err := s.stocks.GetStock(ctx, p.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("get stock for %s: %w", p.ID, err)
	}

	if stock.Int64() > p.MinimumStock {
		resolved, err := s.repo.ResolveForProduct(ctx, p.ID, thresholdTypes, s.now().UTC())
		if err != nil {
			return nil, 0, fmt.Errorf("resolve alerts for %s: %w", p.ID, err)
		}
		return nil, resolved, nil
	}

	alertType, message := classify(p.Name, stock.Int64(), p.MinimumStock)

	exists, err := s.repo.ExistsUnresolved(ctx, p.ID, alertType)
	if err != nil {
		return nil, 0, fmt.Errorf("check open alerts for %s: %w", p.ID, err)
	}
	if exists {
		return nil, 0, nil
	}

	alert := entity.NewStockAlert(p.ID, alertType, message)
	if err := s.repo.Create(ctx, &alert); err != nil {
		return nil, 0, fmt.Errorf("create alert: %w", err)
	}

	if s.events != nil {
		event := domain.Event{
			AggregateType: "StockAlert",
			AggregateID:   alert.ID,
			EventType:     domain.EventAlertCreated,
			Payload: map[string]any{
				"productId": p.ID,
				"alertType": alertType,
				"message":   message,
			},
		}
		if err := s.events.Publish(ctx, event); err != nil {
			return nil, 0, fmt.Errorf("publish alert event: %w", err)
		}
	}

	return &alert, 0, nil
}

// classify picks the alert type and message for a breached threshold.
// Message wording is relied on by the UI; do not rephrase.
func classify(name string, stock, minimum int64) (entity.AlertType, string) {
	if stock == 0 {
		return entity.AlertOutOfStock,
			fmt.Sprintf("%s is out of stock. Current stock: %d, Minimum required: %d", name, stock, minimum)
	}
	return entity.AlertLowStock,
		fmt.Sprintf("%s is running low on stock. Current stock: %d, Minimum required: %d", name, stock, minimum)
}

// Sweep evaluates every active product. The worker runs it on a schedule
// to catch products whose thresholds changed without a movement.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list active products: %w", err)
	}

	var result SweepResult
	for _, p := range products {
		created, resolved, err := s.evaluateProduct(ctx, p)
		if err != nil {
			return result, fmt.Errorf("evaluate %s: %w", p.Code, err)
		}
		result.Checked++
		if created != nil {
			result.Created++
		}
		result.Resolved += resolved
	}

	logger.Info(ctx, "stock alert sweep completed",
		"checked", result.Checked,
		"created", result.Created,
		"resolved", result.Resolved,
	)

	return result, nil
}

// ResolveAlert marks one alert resolved. Resolving an already resolved
// alert is a no-op.
func (s *Service) ResolveAlert(ctx context.Context, alertID id.ID) (entity.StockAlert, error) {
	alert, err := s.repo.GetByID(ctx, alertID)
	if err != nil {
		return entity.StockAlert{}, err
	}

	if alert.IsResolved {
		return alert, nil
	}

	at := s.now().UTC()
	if _, err := s.repo.Resolve(ctx, alertID, at); err != nil {
		return entity.StockAlert{}, err
	}
	alert.Resolve(at)

	return alert, nil
}

// List retrieves alerts matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[entity.StockAlert], error) {
	return s.repo.List(ctx, filter)
}
