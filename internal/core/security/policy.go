package security

import (
	"context"
	"time"

	"everpack/internal/core/apperror"
)

// SalePolicy defines when invoices may be created, changed or removed.
// Payments are exempt: settling an old invoice is always allowed.
type SalePolicy interface {
	// CanCreate checks if a sale may be created with the given date
	CanCreate(ctx context.Context, saleDate time.Time) error

	// CanModify checks if a sale dated saleDate may still be edited
	CanModify(ctx context.Context, invoiceNumber string, saleDate time.Time) error

	// CanDelete checks if a sale dated saleDate may be removed
	CanDelete(ctx context.Context, invoiceNumber string, saleDate time.Time) error
}

// SameDayPolicy freezes invoices once their business day has passed.
// New invoices can only be dated today; older invoices accept payment
// updates only.
type SameDayPolicy struct {
	now func() time.Time
}

// NewSameDayPolicy creates the production policy.
func NewSameDayPolicy() *SameDayPolicy {
	return &SameDayPolicy{now: time.Now}
}

// NewSameDayPolicyAt creates the policy with a fixed clock, for tests.
func NewSameDayPolicyAt(now func() time.Time) *SameDayPolicy {
	return &SameDayPolicy{now: now}
}

func (p *SameDayPolicy) today() time.Time {
	return p.now().UTC().Truncate(24 * time.Hour)
}

func (p *SameDayPolicy) CanCreate(ctx context.Context, saleDate time.Time) error {
	day := saleDate.UTC().Truncate(24 * time.Hour)
	if !day.Equal(p.today()) {
		return apperror.NewValidation("new invoices can only be created for today").
			WithDetail("sale_date", saleDate.Format("2006-01-02")).
			WithDetail("today", p.today().Format("2006-01-02"))
	}
	return nil
}

func (p *SameDayPolicy) CanModify(ctx context.Context, invoiceNumber string, saleDate time.Time) error {
	if saleDate.UTC().Truncate(24 * time.Hour).Before(p.today()) {
		return apperror.NewSaleLocked(invoiceNumber)
	}
	return nil
}

func (p *SameDayPolicy) CanDelete(ctx context.Context, invoiceNumber string, saleDate time.Time) error {
	return p.CanModify(ctx, invoiceNumber, saleDate)
}

// OpenPolicy allows all operations (for development/testing).
type OpenPolicy struct{}

func (OpenPolicy) CanCreate(ctx context.Context, saleDate time.Time) error { return nil }
func (OpenPolicy) CanModify(ctx context.Context, invoiceNumber string, saleDate time.Time) error {
	return nil
}
func (OpenPolicy) CanDelete(ctx context.Context, invoiceNumber string, saleDate time.Time) error {
	return nil
}
