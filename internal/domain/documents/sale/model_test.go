package sale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		name  string
		total string
		paid  string
		want  PaymentStatus
	}{
		{"nothing paid", "100", "0", StatusPending},
		{"half paid", "100", "50", StatusPartial},
		{"smallest payment counts", "100", "0.01", StatusPartial},
		{"exactly paid", "100", "100", StatusPaid},
		{"overpaid", "100", "150", StatusPaid},
		{"zero total", "0", "0", StatusPaid},
		{"negative total", "-10", "0", StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePaymentStatus(types.MustMoney(tt.total), types.MustMoney(tt.paid))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSale_Recalculate(t *testing.T) {
	s := NewSale(id.New())
	s.AddItem(id.New(), 10, types.MustMoney("6.00"))
	s.AddItem(id.New(), 5, types.MustMoney("12.50"))
	s.DiscountAmount = types.MustMoney("2.50")
	s.TaxAmount = types.MustMoney("1.00")

	s.Recalculate()

	assert.True(t, s.Items[0].TotalPrice.Equal(types.MustMoney("60.00")))
	assert.True(t, s.Items[1].TotalPrice.Equal(types.MustMoney("62.50")))
	assert.True(t, s.Subtotal.Equal(types.MustMoney("122.50")))
	assert.True(t, s.TotalAmount.Equal(types.MustMoney("121.00")))
	assert.Equal(t, StatusPending, s.PaymentStatus)

	// Idempotent: a second pass over unchanged items moves nothing.
	s.Recalculate()
	assert.True(t, s.Subtotal.Equal(types.MustMoney("122.50")))
	assert.True(t, s.TotalAmount.Equal(types.MustMoney("121.00")))
}

func TestSale_Recalculate_DerivesStatus(t *testing.T) {
	s := NewSale(id.New())
	s.AddItem(id.New(), 2, types.MustMoney("50"))

	s.AmountPaid = types.MustMoney("40")
	s.Recalculate()
	assert.Equal(t, StatusPartial, s.PaymentStatus)

	s.AmountPaid = types.MustMoney("100")
	s.Recalculate()
	assert.Equal(t, StatusPaid, s.PaymentStatus)
}

func TestSale_Defaults(t *testing.T) {
	customerID := id.New()
	s := NewSale(customerID)

	assert.Equal(t, customerID, s.CustomerID)
	assert.Equal(t, MethodCash, s.PaymentMethod)
	assert.Equal(t, StatusPending, s.PaymentStatus)
	assert.True(t, s.TotalAmount.IsZero())
	assert.False(t, s.Date.IsZero())
	assert.Empty(t, s.Items)
}

func TestSale_BalanceDue(t *testing.T) {
	s := NewSale(id.New())
	s.AddItem(id.New(), 4, types.MustMoney("25"))
	s.AmountPaid = types.MustMoney("30")
	s.Recalculate()

	assert.True(t, s.BalanceDue().Equal(types.MustMoney("70")))
	assert.Equal(t, types.Quantity(4), s.TotalItems())
}

func TestItem_Profit(t *testing.T) {
	item := Item{Quantity: 10, UnitPrice: types.MustMoney("6.00")}

	profit := item.Profit(types.MustMoney("4.50"))
	assert.True(t, profit.Equal(types.MustMoney("15.00")))
}

func TestSale_Validate(t *testing.T) {
	ctx := context.Background()
	productID := id.New()

	valid := func() *Sale {
		s := NewSale(id.New())
		s.AddItem(productID, 10, types.MustMoney("6.00"))
		return s
	}

	tests := []struct {
		name    string
		mutate  func(s *Sale)
		wantErr string
	}{
		{"valid", func(s *Sale) {}, ""},
		{"empty items allowed", func(s *Sale) { s.Items = nil; s.Recalculate() }, ""},
		{"missing customer", func(s *Sale) { s.CustomerID = id.Nil() }, "customer is required"},
		{"invalid payment method", func(s *Sale) { s.PaymentMethod = "BARTER" }, "invalid payment method"},
		{"negative discount", func(s *Sale) { s.DiscountAmount = types.MustMoney("-1") }, "discount cannot be negative"},
		{"negative tax", func(s *Sale) { s.TaxAmount = types.MustMoney("-1") }, "tax cannot be negative"},
		{"negative paid", func(s *Sale) { s.AmountPaid = types.MustMoney("-1") }, "amount paid cannot be negative"},
		{"zero quantity line", func(s *Sale) { s.Items[0].Quantity = 0 }, "quantity must be positive"},
		{"negative price line", func(s *Sale) { s.Items[0].UnitPrice = types.MustMoney("-5") }, "unit price cannot be negative"},
		{"duplicate product", func(s *Sale) { s.AddItem(productID, 1, types.MustMoney("6.00")) }, "product appears more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)

			err := s.Validate(ctx)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Message, tt.wantErr)
		})
	}
}

func TestPayment_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		p := NewPayment(id.New(), types.MustMoney("50"), MethodMobileMoney)
		assert.NoError(t, p.Validate(ctx))
	})

	t.Run("zero amount", func(t *testing.T) {
		p := NewPayment(id.New(), types.Zero(), MethodCash)
		err := p.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "amount must be positive")
	})

	t.Run("credit is not a settlement", func(t *testing.T) {
		p := NewPayment(id.New(), types.MustMoney("50"), MethodCredit)
		err := p.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credit is not a payment method")
	})

	t.Run("missing sale", func(t *testing.T) {
		p := NewPayment(id.Nil(), types.MustMoney("50"), MethodCash)
		err := p.Validate(ctx)
		require.Error(t, err)
	})
}
