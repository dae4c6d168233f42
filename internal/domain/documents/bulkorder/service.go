package bulkorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/numerator"
	"everpack/internal/core/tx"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/audit"
	"everpack/internal/domain/documents"
	"everpack/internal/domain/documents/sale"
	"everpack/pkg/logger"
)

// SaleCreator turns a converted order into a persisted sale. Satisfied by
// the sale service; creating through it assigns the invoice number, posts
// the ledger entries and evaluates alerts inside the ambient transaction.
type SaleCreator interface {
	Create(ctx context.Context, s *sale.Sale) error
}

// ItemInput describes an order line to add or change.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity

	// UnitPrice overrides the product's selling price when set
	UnitPrice *types.Money

	Notes string
}

// Service provides business operations for bulk orders.
type Service struct {
	repo      Repository
	pricing   *documents.PriceResolver
	sales     SaleCreator
	numerator numerator.Generator
	txManager tx.Manager
	events    domain.EventPublisher
	auditor   audit.Recorder
	now       func() time.Time
}

// ServiceConfig wires the bulk order service dependencies.
type ServiceConfig struct {
	Repo      Repository
	Pricing   *documents.PriceResolver
	Sales     SaleCreator
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    domain.EventPublisher // optional
	Audit     audit.Recorder        // optional
}

// NewService creates a new bulk order service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		pricing:   cfg.Pricing,
		sales:     cfg.Sales,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		events:    cfg.Events,
		auditor:   cfg.Audit,
		now:       time.Now,
	}
}

// Create validates and persists a new draft order. A zero unit price on a
// line means "use the product's selling price"; stock does not move until
// conversion.
func (svc *Service) Create(ctx context.Context, b *BulkOrder) error {
	b.Status = StatusDraft

	for i := range b.Items {
		if b.Items[i].UnitPrice.IsZero() {
			price, err := svc.pricing.ResolveUnitPrice(ctx, b.Items[i].ProductID, nil)
			if err != nil {
				return err
			}
			b.Items[i].UnitPrice = price
		}
	}
	b.Recalculate()

	if err := b.Validate(ctx); err != nil {
		return err
	}

	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if b.Number == "" {
			number, err := svc.numerator.GetNextNumber(ctx, numerator.BulkOrderConfig(),
				&numerator.Options{Strategy: NumeratorStrategy}, b.Date)
			if err != nil {
				return fmt.Errorf("generate order number: %w", err)
			}
			b.Number = number
		}

		if err := audit.EnrichCreatedBy(ctx, b); err != nil {
			return err
		}

		if err := svc.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create bulk order: %w", err)
		}
		if err := svc.repo.SaveItems(ctx, b.ID, b.Items); err != nil {
			return err
		}
		return svc.record(ctx, audit.ActionCreate, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bulk order created",
		"id", b.ID,
		"number", b.Number,
		"items", len(b.Items),
	)

	return nil
}

// GetByID retrieves an order with its lines.
func (svc *Service) GetByID(ctx context.Context, orderID id.ID) (*BulkOrder, error) {
	b, err := svc.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return svc.withItems(ctx, b)
}

// GetByNumber retrieves an order by number, with lines.
func (svc *Service) GetByNumber(ctx context.Context, number string) (*BulkOrder, error) {
	b, err := svc.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return svc.withItems(ctx, b)
}

// Update changes the order header (customer, notes). Drafts only.
func (svc *Service) Update(ctx context.Context, b *BulkOrder) error {
	return svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := svc.repo.GetForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}

		if existing.Status != StatusDraft {
			return draftOnly(existing.Status)
		}

		// Number, date and lifecycle state are not header edits
		b.Number = existing.Number
		b.Date = existing.Date
		b.Status = existing.Status
		b.SubmittedAt = existing.SubmittedAt

		if err := b.Validate(ctx); err != nil {
			return err
		}

		if err := audit.EnrichUpdatedBy(ctx, b); err != nil {
			return err
		}
		if err := svc.repo.Update(ctx, b); err != nil {
			return err
		}
		return svc.record(ctx, audit.ActionUpdate, b)
	})
}

// AddItem appends a line to a draft order.
func (svc *Service) AddItem(ctx context.Context, orderID id.ID, input ItemInput) (*BulkOrder, error) {
	var result *BulkOrder
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := svc.loadForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if b.Status != StatusDraft {
			return draftOnly(b.Status)
		}

		if _, exists := b.ItemByProduct(input.ProductID); exists {
			return apperror.NewValidation("product is already on this order").
				WithDetail("productId", input.ProductID.String())
		}

		price, err := svc.pricing.ResolveUnitPrice(ctx, input.ProductID, input.UnitPrice)
		if err != nil {
			return err
		}

		b.AddItem(input.ProductID, input.Quantity, price, input.Notes)
		if err := b.Validate(ctx); err != nil {
			return err
		}

		result = b
		return svc.saveOrder(ctx, b)
	})
	return result, err
}

// UpdateItem changes a line's quantity, price or notes on a draft order.
func (svc *Service) UpdateItem(ctx context.Context, orderID, itemID id.ID, input ItemInput) (*BulkOrder, error) {
	var result *BulkOrder
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := svc.loadForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if b.Status != StatusDraft {
			return draftOnly(b.Status)
		}

		item, ok := b.ItemByID(itemID)
		if !ok {
			return apperror.NewNotFound("bulk order item", itemID.String())
		}

		item.Quantity = input.Quantity
		if input.UnitPrice != nil {
			item.UnitPrice = *input.UnitPrice
		}
		if input.Notes != "" {
			item.Notes = input.Notes
		}

		b.Recalculate()
		if err := b.Validate(ctx); err != nil {
			return err
		}

		result = b
		return svc.saveOrder(ctx, b)
	})
	return result, err
}

// RemoveItem deletes a line from a draft order.
func (svc *Service) RemoveItem(ctx context.Context, orderID, itemID id.ID) (*BulkOrder, error) {
	var result *BulkOrder
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := svc.loadForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if b.Status != StatusDraft {
			return draftOnly(b.Status)
		}

		if _, ok := b.ItemByID(itemID); !ok {
			return apperror.NewNotFound("bulk order item", itemID.String())
		}

		kept := make([]Item, 0, len(b.Items)-1)
		for _, item := range b.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		b.Items = kept
		b.Recalculate()

		result = b
		return svc.saveOrder(ctx, b)
	})
	return result, err
}

// Submit freezes a draft order for conversion. Empty orders stay drafts.
func (svc *Service) Submit(ctx context.Context, orderID id.ID) (*BulkOrder, error) {
	var result *BulkOrder
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := svc.loadForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if b.Status != StatusDraft {
			return apperror.NewInvalidStateTransition("bulk order", string(b.Status), string(StatusSubmitted))
		}
		if len(b.Items) == 0 {
			return apperror.NewValidation("cannot submit an empty order").
				WithDetail("number", b.Number)
		}

		now := svc.now().UTC()
		b.Status = StatusSubmitted
		b.SubmittedAt = &now

		if err := audit.EnrichUpdatedBy(ctx, b); err != nil {
			return err
		}
		if err := svc.repo.Update(ctx, b); err != nil {
			return err
		}

		result = b
		return svc.record(ctx, audit.ActionUpdate, b)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk order submitted", "id", orderID, "number", result.Number)
	return result, nil
}

// MarkProcessing flags a submitted order as being fulfilled.
func (svc *Service) MarkProcessing(ctx context.Context, orderID id.ID) (*BulkOrder, error) {
	return svc.transition(ctx, orderID, StatusProcessing)
}

// Cancel abandons an order. Completed orders cannot be cancelled.
func (svc *Service) Cancel(ctx context.Context, orderID id.ID) (*BulkOrder, error) {
	b, err := svc.transition(ctx, orderID, StatusCancelled)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk order cancelled", "id", orderID, "number", b.Number)
	return b, nil
}

func (svc *Service) transition(ctx context.Context, orderID id.ID, next Status) (*BulkOrder, error) {
	var result *BulkOrder
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := svc.loadForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !b.Status.CanTransitionTo(next) {
			return apperror.NewInvalidStateTransition("bulk order", string(b.Status), string(next))
		}

		b.Status = next
		if err := audit.EnrichUpdatedBy(ctx, b); err != nil {
			return err
		}
		if err := svc.repo.Update(ctx, b); err != nil {
			return err
		}

		result = b
		return svc.record(ctx, audit.ActionUpdate, b)
	})
	return result, err
}

// Convert turns a submitted order into a sale: one sale with the order's
// customer and lines, OUT/SALE ledger entries, alert evaluation and the
// COMPLETED transition, all in one transaction. Not reversible; converting
// again fails because the order is no longer submitted.
func (svc *Service) Convert(ctx context.Context, orderID id.ID) (*sale.Sale, error) {
	var created *sale.Sale
	var orderNumber string
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := svc.loadForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if b.Status != StatusSubmitted {
			return apperror.NewValidation("only submitted orders can be converted").
				WithDetail("number", b.Number).
				WithDetail("status", string(b.Status))
		}
		if len(b.Items) == 0 {
			return apperror.NewValidation("cannot convert an empty order").
				WithDetail("number", b.Number)
		}

		s := sale.NewSale(b.CustomerID)
		s.Notes = strings.TrimSpace(fmt.Sprintf("Converted from bulk order %s. %s", b.Number, b.Notes))
		for _, item := range b.Items {
			s.AddItem(item.ProductID, item.Quantity, item.UnitPrice)
		}

		if err := svc.sales.Create(ctx, s); err != nil {
			return fmt.Errorf("create sale from order %s: %w", b.Number, err)
		}

		b.Status = StatusCompleted
		if err := audit.EnrichUpdatedBy(ctx, b); err != nil {
			return err
		}
		if err := svc.repo.Update(ctx, b); err != nil {
			return err
		}

		created = s
		orderNumber = b.Number
		if err := svc.publishConverted(ctx, b, s); err != nil {
			return err
		}
		return svc.record(ctx, audit.ActionConvert, b)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk order converted",
		"order", orderNumber,
		"sale_id", created.ID,
		"invoice", created.Number,
	)

	return created, nil
}

// Delete removes a draft or cancelled order. Submitted and completed orders
// are kept for the audit trail.
func (svc *Service) Delete(ctx context.Context, orderID id.ID) error {
	return svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := svc.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if b.Status != StatusDraft && b.Status != StatusCancelled {
			return apperror.NewValidation("only draft or cancelled orders can be deleted").
				WithDetail("status", string(b.Status))
		}

		if err := svc.repo.Delete(ctx, orderID); err != nil {
			return err
		}
		return svc.record(ctx, audit.ActionDelete, b)
	})
}

// List retrieves orders matching the filter.
func (svc *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*BulkOrder], error) {
	return svc.repo.List(ctx, filter)
}

func (svc *Service) withItems(ctx context.Context, b *BulkOrder) (*BulkOrder, error) {
	items, err := svc.repo.GetItems(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	b.Items = items
	return b, nil
}

func (svc *Service) loadForUpdate(ctx context.Context, orderID id.ID) (*BulkOrder, error) {
	b, err := svc.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return svc.withItems(ctx, b)
}

func (svc *Service) saveOrder(ctx context.Context, b *BulkOrder) error {
	if err := audit.EnrichUpdatedBy(ctx, b); err != nil {
		return err
	}
	if err := svc.repo.Update(ctx, b); err != nil {
		return fmt.Errorf("update bulk order: %w", err)
	}
	if err := svc.repo.SaveItems(ctx, b.ID, b.Items); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	return svc.record(ctx, audit.ActionUpdate, b)
}

func (svc *Service) record(ctx context.Context, action audit.Action, b *BulkOrder) error {
	if svc.auditor == nil {
		return nil
	}
	return svc.auditor.Record(ctx, "bulk_order", b.ID, action, b)
}

func (svc *Service) publishConverted(ctx context.Context, b *BulkOrder, s *sale.Sale) error {
	if svc.events == nil {
		return nil
	}
	return svc.events.Publish(ctx, domain.Event{
		AggregateType: "BulkOrder",
		AggregateID:   b.ID,
		EventType:     domain.EventBulkOrderConverted,
		Payload: map[string]any{
			"number":        b.Number,
			"saleId":        s.ID,
			"invoiceNumber": s.Number,
			"total":         s.TotalAmount,
		},
	})
}

func draftOnly(current Status) error {
	return apperror.NewValidation("only draft orders can be modified").
		WithDetail("status", string(current))
}
