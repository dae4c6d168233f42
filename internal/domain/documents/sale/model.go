// Package sale provides the Sale document (point-of-sale invoice).
package sale

import (
	"context"

	"github.com/shopspring/decimal"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

// PaymentMethod defines how a sale is settled.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCredit       PaymentMethod = "CREDIT"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodMobileMoney, MethodBankTransfer, MethodCheque, MethodCredit:
		return true
	}
	return false
}

// PaymentStatus reflects how much of the invoice is settled.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "PAID"
	StatusPending PaymentStatus = "PENDING"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusOverdue PaymentStatus = "OVERDUE"
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case StatusPaid, StatusPending, StatusPartial, StatusOverdue:
		return true
	}
	return false
}

// DerivePaymentStatus is the single source of truth for payment status.
// A zero-total invoice counts as paid.
func DerivePaymentStatus(total, paid types.Money) PaymentStatus {
	if total.IsPositive() {
		switch {
		case paid.GreaterThanOrEqual(total):
			return StatusPaid
		case paid.IsPositive():
			return StatusPartial
		default:
			return StatusPending
		}
	}
	return StatusPaid
}

// Sale represents a point-of-sale invoice.
// Number holds the invoice number (INV-NNNNNN), Date the sale date.
type Sale struct {
	entity.Document
	entity.CustomerAware

	// PaymentMethod defines how the invoice is settled
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`

	// PaymentStatus is derived from (AmountPaid, TotalAmount); never set directly
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	// Subtotal is the sum of line totals
	Subtotal types.Money `db:"subtotal" json:"subtotal"`

	// DiscountAmount reduces the total
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`

	// TaxAmount increases the total
	TaxAmount types.Money `db:"tax_amount" json:"taxAmount"`

	// TotalAmount = Subtotal - DiscountAmount + TaxAmount
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// AmountPaid is the settled amount (kept equal to the payment sum)
	AmountPaid types.Money `db:"amount_paid" json:"amountPaid"`

	// Table part: sold items
	Items []Item `db:"-" json:"items"`
}

// Item represents one invoice line. A product appears at most once per sale.
type Item struct {
	ID id.ID `db:"id" json:"id"`

	ProductID  id.ID          `db:"product_id" json:"productId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice  types.Money    `db:"unit_price" json:"unitPrice"`
	TotalPrice types.Money    `db:"total_price" json:"totalPrice"`
}

// Profit returns (unit price - cost) * quantity for the given cost price.
func (i *Item) Profit(costPrice types.Money) types.Money {
	return i.UnitPrice.Sub(costPrice).Mul(decimal.NewFromInt(i.Quantity.Int64()))
}

// NewSale creates a new sale dated now for the given customer.
func NewSale(customerID id.ID) *Sale {
	return &Sale{
		Document:       entity.NewDocument(),
		CustomerAware:  entity.CustomerAware{CustomerID: customerID},
		PaymentMethod:  MethodCash,
		PaymentStatus:  StatusPending,
		Subtotal:       types.Zero(),
		DiscountAmount: types.Zero(),
		TaxAmount:      types.Zero(),
		TotalAmount:    types.Zero(),
		AmountPaid:     types.Zero(),
		Items:          make([]Item, 0),
	}
}

// AddItem appends a line and recalculates totals.
func (s *Sale) AddItem(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	s.Items = append(s.Items, Item{
		ID:        id.New(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	s.Recalculate()
}

// Recalculate recomputes line totals, subtotal, total and payment status.
// Calling it twice with unchanged items changes nothing.
func (s *Sale) Recalculate() {
	subtotal := types.Zero()
	for i := range s.Items {
		s.Items[i].TotalPrice = s.Items[i].UnitPrice.Mul(decimal.NewFromInt(s.Items[i].Quantity.Int64()))
		subtotal = subtotal.Add(s.Items[i].TotalPrice)
	}
	s.Subtotal = subtotal
	s.TotalAmount = subtotal.Sub(s.DiscountAmount).Add(s.TaxAmount)
	s.PaymentStatus = DerivePaymentStatus(s.TotalAmount, s.AmountPaid)
}

// BalanceDue returns the unsettled amount.
func (s *Sale) BalanceDue() types.Money {
	return s.TotalAmount.Sub(s.AmountPaid)
}

// TotalItems returns the summed quantity across lines.
func (s *Sale) TotalItems() types.Quantity {
	var total types.Quantity
	for i := range s.Items {
		total += s.Items[i].Quantity
	}
	return total
}

// ItemByProduct finds the line for a product.
func (s *Sale) ItemByProduct(productID id.ID) (*Item, bool) {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// ItemByID finds a line by its id.
func (s *Sale) ItemByID(itemID id.ID) (*Item, bool) {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// Validate implements entity.Validatable.
// A sale with no items is valid (zero-total invoices count as paid).
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if err := s.ValidateCustomer(ctx); err != nil {
		return err
	}

	if !ValidPaymentMethod(s.PaymentMethod) {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(s.PaymentMethod))
	}

	if s.DiscountAmount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "discountAmount")
	}

	if s.TaxAmount.IsNegative() {
		return apperror.NewValidation("tax cannot be negative").
			WithDetail("field", "taxAmount")
	}

	if s.AmountPaid.IsNegative() {
		return apperror.NewValidation("amount paid cannot be negative").
			WithDetail("field", "amountPaid")
	}

	seen := make(map[id.ID]struct{}, len(s.Items))
	for i, item := range s.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("line", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("line", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("line", i+1)
		}
		if _, dup := seen[item.ProductID]; dup {
			return apperror.NewValidation("product appears more than once").
				WithDetail("field", "items").
				WithDetail("productId", item.ProductID.String())
		}
		seen[item.ProductID] = struct{}{}
	}

	return nil
}
