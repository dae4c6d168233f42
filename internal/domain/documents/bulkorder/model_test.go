package bulkorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusCompleted, false},
		{StatusDraft, StatusProcessing, false},
		{StatusSubmitted, StatusProcessing, true},
		{StatusSubmitted, StatusCompleted, true},
		{StatusSubmitted, StatusCancelled, true},
		{StatusSubmitted, StatusDraft, false},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusSubmitted.Terminal())
}

func TestBulkOrder_Totals(t *testing.T) {
	b := New(id.New())
	b.AddItem(id.New(), 3, types.MustMoney("10.00"), "")
	b.AddItem(id.New(), 1, types.MustMoney("5.00"), "")

	assert.Equal(t, types.Quantity(4), b.TotalItems())
	assert.True(t, b.TotalAmount().Equal(types.MustMoney("35.00")))
	assert.True(t, b.Items[0].TotalPrice.Equal(types.MustMoney("30.00")))
}

func TestBulkOrder_Defaults(t *testing.T) {
	customerID := id.New()
	b := New(customerID)

	assert.Equal(t, StatusDraft, b.Status)
	assert.Equal(t, customerID, b.CustomerID)
	assert.Nil(t, b.SubmittedAt)
	assert.Empty(t, b.Items)
	assert.True(t, b.TotalAmount().IsZero())
}

func TestBulkOrder_Validate(t *testing.T) {
	ctx := context.Background()
	productID := id.New()

	valid := func() *BulkOrder {
		b := New(id.New())
		b.AddItem(productID, 3, types.MustMoney("10.00"), "")
		return b
	}

	tests := []struct {
		name    string
		mutate  func(b *BulkOrder)
		wantErr string
	}{
		{"valid", func(b *BulkOrder) {}, ""},
		{"empty draft allowed", func(b *BulkOrder) { b.Items = nil }, ""},
		{"missing customer", func(b *BulkOrder) { b.CustomerID = id.Nil() }, "customer is required"},
		{"invalid status", func(b *BulkOrder) { b.Status = "SHIPPED" }, "invalid status"},
		{"zero quantity", func(b *BulkOrder) { b.Items[0].Quantity = 0 }, "quantity must be positive"},
		{"duplicate product", func(b *BulkOrder) { b.AddItem(productID, 1, types.MustMoney("1"), "") }, "product appears more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(b)

			err := b.Validate(ctx)
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
