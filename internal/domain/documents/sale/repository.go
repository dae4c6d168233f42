package sale

import (
	"context"
	"time"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
)

// Repository defines operations for sale persistence.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	GetByNumber(ctx context.Context, number string) (*Sale, error)
	Update(ctx context.Context, s *Sale) error

	// Delete removes the sale with its items and payments.
	// Ledger rows referencing the invoice stay untouched.
	Delete(ctx context.Context, saleID id.ID) error

	GetItems(ctx context.Context, saleID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, saleID id.ID, items []Item) error

	GetPayments(ctx context.Context, saleID id.ID) ([]Payment, error)
	CreatePayment(ctx context.Context, p *Payment) error

	// SumPayments totals all payments recorded against the sale.
	SumPayments(ctx context.Context, saleID id.ID) (types.Money, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)
}

// ListFilter for filtering sales.
type ListFilter struct {
	domain.ListFilter

	CustomerID    *id.ID
	PaymentStatus *PaymentStatus
	PaymentMethod *PaymentMethod
	CreatedBy     string
	DateFrom      *time.Time
	DateTo        *time.Time
}
