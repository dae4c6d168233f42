// Package bulkorder provides the BulkOrder document (staged multi-line
// orders converted into sales).
package bulkorder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

// Status is the bulk order lifecycle state.
type Status string

const (
	// StatusDraft: items mutable, order editable
	StatusDraft Status = "DRAFT"
	// StatusSubmitted: items frozen, awaiting conversion
	StatusSubmitted Status = "SUBMITTED"
	// StatusProcessing: fulfillment hold; exits via cancellation
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted: converted into a sale (terminal)
	StatusCompleted Status = "COMPLETED"
	// StatusCancelled: abandoned (terminal)
	StatusCancelled Status = "CANCELLED"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusDraft:      {StatusSubmitted, StatusCancelled},
	StatusSubmitted:  {StatusProcessing, StatusCompleted, StatusCancelled},
	StatusProcessing: {StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether the move from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// BulkOrder stages a multi-line order for one customer before it becomes
// a sale. Number holds the order number (BULK-NNNNNN).
type BulkOrder struct {
	entity.Document
	entity.CustomerAware

	// Status is the lifecycle state (see transitions)
	Status Status `db:"status" json:"status"`

	// SubmittedAt is when the order left DRAFT
	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`

	// Table part: ordered items. Header totals are computed, never stored.
	Items []Item `db:"-" json:"items"`
}

// Item represents one order line. A product appears at most once per order.
type Item struct {
	ID id.ID `db:"id" json:"id"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// UnitPrice defaults to the product's selling price when omitted
	UnitPrice  types.Money `db:"unit_price" json:"unitPrice"`
	TotalPrice types.Money `db:"total_price" json:"totalPrice"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// New creates a draft order dated now for the given customer.
func New(customerID id.ID) *BulkOrder {
	return &BulkOrder{
		Document:      entity.NewDocument(),
		CustomerAware: entity.CustomerAware{CustomerID: customerID},
		Status:        StatusDraft,
		Items:         make([]Item, 0),
	}
}

// AddItem appends a line and refreshes its total.
func (b *BulkOrder) AddItem(productID id.ID, quantity types.Quantity, unitPrice types.Money, notes string) {
	b.Items = append(b.Items, Item{
		ID:        id.New(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Notes:     notes,
	})
	b.Recalculate()
}

// Recalculate refreshes every line's total price.
func (b *BulkOrder) Recalculate() {
	for i := range b.Items {
		b.Items[i].TotalPrice = b.Items[i].UnitPrice.Mul(decimal.NewFromInt(b.Items[i].Quantity.Int64()))
	}
}

// TotalItems returns the summed quantity across lines.
func (b *BulkOrder) TotalItems() types.Quantity {
	var total types.Quantity
	for i := range b.Items {
		total += b.Items[i].Quantity
	}
	return total
}

// TotalAmount returns the summed line totals.
func (b *BulkOrder) TotalAmount() types.Money {
	total := types.Zero()
	for i := range b.Items {
		total = total.Add(b.Items[i].TotalPrice)
	}
	return total
}

// ItemByProduct finds the line for a product.
func (b *BulkOrder) ItemByProduct(productID id.ID) (*Item, bool) {
	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			return &b.Items[i], true
		}
	}
	return nil, false
}

// ItemByID finds a line by its id.
func (b *BulkOrder) ItemByID(itemID id.ID) (*Item, bool) {
	for i := range b.Items {
		if b.Items[i].ID == itemID {
			return &b.Items[i], true
		}
	}
	return nil, false
}

// Validate implements entity.Validatable.
func (b *BulkOrder) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if err := b.ValidateCustomer(ctx); err != nil {
		return err
	}

	if !ValidStatus(b.Status) {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(b.Status))
	}

	seen := make(map[id.ID]struct{}, len(b.Items))
	for i, item := range b.Items {
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
