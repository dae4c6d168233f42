package sale

import (
	"context"
	"fmt"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/numerator"
	"everpack/internal/core/security"
	"everpack/internal/core/tx"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/audit"
	"everpack/internal/domain/catalogs/customer"
	"everpack/internal/domain/catalogs/product"
	"everpack/internal/domain/registers/stock"
	"everpack/pkg/logger"
)

// CustomerSource supplies customer data (names go into movement notes).
type CustomerSource interface {
	GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error)
}

// ProductSource supplies product data for pricing and profit.
type ProductSource interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// Ledger posts the stock movements that mirror invoice lines.
// Satisfied by the stock service; movements recorded through it
// re-evaluate alerts inside the ambient transaction.
type Ledger interface {
	RecordMovement(ctx context.Context, input stock.MovementInput) (entity.StockMovement, error)
	RecordMovements(ctx context.Context, inputs []stock.MovementInput) ([]entity.StockMovement, error)
}

// ItemInput describes an invoice line to add or change.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity

	// UnitPrice overrides the product's selling price when set
	UnitPrice *types.Money
}

// PaymentInput describes a settlement to record.
type PaymentInput struct {
	Amount    types.Money
	Method    PaymentMethod
	Reference string
	Notes     string
}

// Service provides business operations for sales.
//
// Every mutating operation runs in one transaction covering the document,
// its lines, the compensating ledger entries and the alert evaluation, so
// a failure anywhere leaves no partial state.
type Service struct {
	repo      Repository
	customers CustomerSource
	products  ProductSource
	ledger    Ledger
	numerator numerator.Generator
	policy    security.SalePolicy
	txManager tx.Manager
	events    domain.EventPublisher
	auditor   audit.Recorder
}

// ServiceConfig wires the sale service dependencies.
type ServiceConfig struct {
	Repo      Repository
	Customers CustomerSource
	Products  ProductSource
	Ledger    Ledger
	Numerator numerator.Generator
	Policy    security.SalePolicy
	TxManager tx.Manager
	Events    domain.EventPublisher // optional
	Audit     audit.Recorder        // optional
}

// NewService creates a new sale service.
func NewService(cfg ServiceConfig) *Service {
	policy := cfg.Policy
	if policy == nil {
		policy = security.NewSameDayPolicy()
	}
	return &Service{
		repo:      cfg.Repo,
		customers: cfg.Customers,
		products:  cfg.Products,
		ledger:    cfg.Ledger,
		numerator: cfg.Numerator,
		policy:    policy,
		txManager: cfg.TxManager,
		events:    cfg.Events,
		auditor:   cfg.Audit,
	}
}

// Create validates and persists a new sale: assigns the invoice number,
// stores header and lines, posts one OUT/SALE movement per line and
// leaves alert state consistent, all in one transaction.
// Lines with a zero unit price are priced at the product's current
// selling price.
func (svc *Service) Create(ctx context.Context, s *Sale) error {
	for i := range s.Items {
		if s.Items[i].UnitPrice.IsZero() {
			p, err := svc.products.GetByID(ctx, s.Items[i].ProductID)
			if err != nil {
				return err
			}
			s.Items[i].UnitPrice = p.SellingPrice
		}
	}
	s.Recalculate()

	if err := s.Validate(ctx); err != nil {
		return err
	}

	if err := svc.policy.CanCreate(ctx, s.Date); err != nil {
		return err
	}

	cust, err := svc.customers.GetByID(ctx, s.CustomerID)
	if err != nil {
		return err
	}

	err = svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if s.Number == "" {
			number, err := svc.numerator.GetNextNumber(ctx, numerator.InvoiceConfig(),
				&numerator.Options{Strategy: NumeratorStrategy}, s.Date)
			if err != nil {
				return fmt.Errorf("generate invoice number: %w", err)
			}
			s.Number = number
		}

		if err := audit.EnrichCreatedBy(ctx, s); err != nil {
			return err
		}

		if err := svc.repo.Create(ctx, s); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		if err := svc.repo.SaveItems(ctx, s.ID, s.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		if len(s.Items) > 0 {
			inputs := make([]stock.MovementInput, 0, len(s.Items))
			for _, item := range s.Items {
				inputs = append(inputs, stock.MovementInput{
					ProductID:    item.ProductID,
					MovementType: entity.MovementOut,
					Quantity:     item.Quantity,
					Reason:       entity.ReasonSale,
					Reference:    s.Number,
					Notes:        fmt.Sprintf("Sale to %s", cust.Name),
				})
			}
			if _, err := svc.ledger.RecordMovements(ctx, inputs); err != nil {
				return err
			}
		}

		if err := svc.publish(ctx, domain.EventSaleCreated, s); err != nil {
			return err
		}
		return svc.record(ctx, audit.ActionCreate, s)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale created",
		"id", s.ID,
		"number", s.Number,
		"total", s.TotalAmount,
		"items", len(s.Items),
	)

	return nil
}

// GetByID retrieves a sale with its lines.
func (svc *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	s, err := svc.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	items, err := svc.repo.GetItems(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	s.Items = items

	return s, nil
}

// GetByNumber retrieves a sale by invoice number, with lines.
func (svc *Service) GetByNumber(ctx context.Context, number string) (*Sale, error) {
	s, err := svc.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	items, err := svc.repo.GetItems(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	s.Items = items

	return s, nil
}

// Update changes the sale header (customer, method, discount, tax, notes,
// amount paid). Lines are changed through the item operations only.
//
// Historical sales accept payment field changes and nothing else.
func (svc *Service) Update(ctx context.Context, s *Sale) error {
	return svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := svc.repo.GetForUpdate(ctx, s.ID)
		if err != nil {
			return err
		}

		// Number and date are assigned once
		s.Number = existing.Number
		s.Date = existing.Date

		if lockErr := svc.policy.CanModify(ctx, existing.Number, existing.Date); lockErr != nil {
			if !svc.onlyPaymentFieldsChanged(s, existing) {
				return lockErr
			}
		}

		items, err := svc.repo.GetItems(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		s.Items = items
		s.Recalculate()

		if err := s.Validate(ctx); err != nil {
			return err
		}

		if err := audit.EnrichUpdatedBy(ctx, s); err != nil {
			return err
		}
		if err := svc.repo.Update(ctx, s); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		return svc.record(ctx, audit.ActionUpdate, s)
	})
}

// onlyPaymentFieldsChanged reports whether s differs from existing in
// payment fields alone (amount paid and the status derived from it).
func (svc *Service) onlyPaymentFieldsChanged(s, existing *Sale) bool {
	return s.CustomerID == existing.CustomerID &&
		s.PaymentMethod == existing.PaymentMethod &&
		s.DiscountAmount.Equal(existing.DiscountAmount) &&
		s.TaxAmount.Equal(existing.TaxAmount) &&
		s.Notes == existing.Notes
}

// AddItem appends a line to the sale, posting OUT/SALE for its quantity.
func (svc *Service) AddItem(ctx context.Context, saleID id.ID, input ItemInput) (*Sale, error) {
	var result *Sale
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := svc.loadForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if err := svc.policy.CanModify(ctx, s.Number, s.Date); err != nil {
			return err
		}

		if _, exists := s.ItemByProduct(input.ProductID); exists {
			return apperror.NewValidation("product is already on this invoice").
				WithDetail("productId", input.ProductID.String())
		}

		p, err := svc.products.GetByID(ctx, input.ProductID)
		if err != nil {
			return err
		}

		price := p.SellingPrice
		if input.UnitPrice != nil {
			price = *input.UnitPrice
		}

		s.AddItem(p.ID, input.Quantity, price)
		if err := s.Validate(ctx); err != nil {
			return err
		}

		cust, err := svc.customers.GetByID(ctx, s.CustomerID)
		if err != nil {
			return err
		}

		if _, err := svc.ledger.RecordMovement(ctx, stock.MovementInput{
			ProductID:    p.ID,
			MovementType: entity.MovementOut,
			Quantity:     input.Quantity,
			Reason:       entity.ReasonSale,
			Reference:    s.Number,
			Notes:        fmt.Sprintf("Sale to %s", cust.Name),
		}); err != nil {
			return err
		}

		result = s
		return svc.saveSale(ctx, s)
	})
	return result, err
}

// UpdateItem changes a line's quantity or price, posting the compensating
// movement for the quantity delta.
func (svc *Service) UpdateItem(ctx context.Context, saleID, itemID id.ID, input ItemInput) (*Sale, error) {
	if !input.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	var result *Sale
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := svc.loadForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if err := svc.policy.CanModify(ctx, s.Number, s.Date); err != nil {
			return err
		}

		item, ok := s.ItemByID(itemID)
		if !ok {
			return apperror.NewNotFound("sale item", itemID.String())
		}

		delta := input.Quantity - item.Quantity
		item.Quantity = input.Quantity
		if input.UnitPrice != nil {
			item.UnitPrice = *input.UnitPrice
		}

		s.Recalculate()
		if err := s.Validate(ctx); err != nil {
			return err
		}

		if delta != 0 {
			cust, err := svc.customers.GetByID(ctx, s.CustomerID)
			if err != nil {
				return err
			}

			movement := stock.MovementInput{
				ProductID: item.ProductID,
				Reference: s.Number,
			}
			if delta > 0 {
				movement.MovementType = entity.MovementOut
				movement.Quantity = delta
				movement.Reason = entity.ReasonSale
				movement.Notes = fmt.Sprintf("Sale adjustment to %s", cust.Name)
			} else {
				movement.MovementType = entity.MovementIn
				movement.Quantity = delta.Abs()
				movement.Reason = entity.ReasonReturn
				movement.Notes = fmt.Sprintf("Sale return from %s", cust.Name)
			}

			if _, err := svc.ledger.RecordMovement(ctx, movement); err != nil {
				return err
			}
		}

		result = s
		return svc.saveSale(ctx, s)
	})
	return result, err
}

// RemoveItem deletes a line and returns its quantity to stock.
func (svc *Service) RemoveItem(ctx context.Context, saleID, itemID id.ID) (*Sale, error) {
	var result *Sale
	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := svc.loadForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if err := svc.policy.CanModify(ctx, s.Number, s.Date); err != nil {
			return err
		}

		removed, ok := s.ItemByID(itemID)
		if !ok {
			return apperror.NewNotFound("sale item", itemID.String())
		}
		returned := *removed

		kept := make([]Item, 0, len(s.Items)-1)
		for _, item := range s.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		s.Items = kept
		s.Recalculate()

		if _, err := svc.ledger.RecordMovement(ctx, stock.MovementInput{
			ProductID:    returned.ProductID,
			MovementType: entity.MovementIn,
			Quantity:     returned.Quantity,
			Reason:       entity.ReasonReturn,
			Reference:    s.Number,
			Notes:        "Sale item deleted - return to stock",
		}); err != nil {
			return err
		}

		result = s
		return svc.saveSale(ctx, s)
	})
	return result, err
}

// RecordPayment inserts a settlement and re-derives the sale's paid
// amount and status from the payment sum. Historical sales accept
// payments; the edit lock covers everything else.
func (svc *Service) RecordPayment(ctx context.Context, saleID id.ID, input PaymentInput) (*Payment, error) {
	p := NewPayment(saleID, input.Amount, input.Method)
	p.Reference = input.Reference
	p.Notes = input.Notes
	p.ReceivedBy = security.GetUserID(ctx)

	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err := svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := svc.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if err := svc.repo.CreatePayment(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		paid, err := svc.repo.SumPayments(ctx, saleID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}

		s.AmountPaid = paid
		s.PaymentStatus = DerivePaymentStatus(s.TotalAmount, paid)

		if err := audit.EnrichUpdatedBy(ctx, s); err != nil {
			return err
		}
		if err := svc.repo.Update(ctx, s); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		return svc.record(ctx, audit.ActionPayment, s)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"sale_id", saleID,
		"amount", p.Amount,
		"method", p.Method,
	)

	return p, nil
}

// GetPayments lists a sale's payments, newest first.
func (svc *Service) GetPayments(ctx context.Context, saleID id.ID) ([]Payment, error) {
	if _, err := svc.repo.GetByID(ctx, saleID); err != nil {
		return nil, err
	}
	return svc.repo.GetPayments(ctx, saleID)
}

// Delete removes a same-day sale, returning every line's quantity to
// stock first. Ledger rows survive the deletion.
func (svc *Service) Delete(ctx context.Context, saleID id.ID) error {
	return svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := svc.loadForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if err := svc.policy.CanDelete(ctx, s.Number, s.Date); err != nil {
			return err
		}

		for _, item := range s.Items {
			if _, err := svc.ledger.RecordMovement(ctx, stock.MovementInput{
				ProductID:    item.ProductID,
				MovementType: entity.MovementIn,
				Quantity:     item.Quantity,
				Reason:       entity.ReasonReturn,
				Reference:    s.Number,
				Notes:        "Sale item deleted - return to stock",
			}); err != nil {
				return err
			}
		}

		if err := svc.repo.Delete(ctx, saleID); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		if err := svc.record(ctx, audit.ActionDelete, s); err != nil {
			return err
		}

		logger.Info(ctx, "sale deleted", "id", saleID, "number", s.Number)
		return nil
	})
}

// TotalProfit sums (unit price - current cost price) * quantity over the
// sale's lines. Cost prices are read at call time, so the figure drifts
// when costs change after the sale.
func (svc *Service) TotalProfit(ctx context.Context, saleID id.ID) (types.Money, error) {
	s, err := svc.GetByID(ctx, saleID)
	if err != nil {
		return types.Zero(), err
	}

	total := types.Zero()
	for _, item := range s.Items {
		p, err := svc.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return types.Zero(), err
		}
		total = total.Add(item.Profit(p.CostPrice))
	}

	return total, nil
}

// List retrieves sales matching the filter.
func (svc *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return svc.repo.List(ctx, filter)
}

func (svc *Service) loadForUpdate(ctx context.Context, saleID id.ID) (*Sale, error) {
	s, err := svc.repo.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}

	items, err := svc.repo.GetItems(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	s.Items = items

	return s, nil
}

func (svc *Service) saveSale(ctx context.Context, s *Sale) error {
	if err := audit.EnrichUpdatedBy(ctx, s); err != nil {
		return err
	}
	if err := svc.repo.Update(ctx, s); err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if err := svc.repo.SaveItems(ctx, s.ID, s.Items); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	return svc.record(ctx, audit.ActionUpdate, s)
}

func (svc *Service) record(ctx context.Context, action audit.Action, s *Sale) error {
	if svc.auditor == nil {
		return nil
	}
	return svc.auditor.Record(ctx, "sale", s.ID, action, s)
}

func (svc *Service) publish(ctx context.Context, eventType string, s *Sale) error {
	if svc.events == nil {
		return nil
	}
	return svc.events.Publish(ctx, domain.Event{
		AggregateType: "Sale",
		AggregateID:   s.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number":     s.Number,
			"customerId": s.CustomerID,
			"total":      s.TotalAmount,
			"status":     s.PaymentStatus,
		},
	})
}
