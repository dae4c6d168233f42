package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

func validProduct() *Product {
	p := New("PKG-001", "Brown Carrier Bag", id.New(), id.New())
	p.CostPrice = types.MustMoney("4.50")
	p.SellingPrice = types.MustMoney("6.00")
	return p
}

func TestProduct_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid product passes", func(t *testing.T) {
		require.NoError(t, validProduct().Validate(ctx))
	})

	t.Run("missing sku", func(t *testing.T) {
		p := validProduct()
		p.Code = ""
		err := p.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sku is required")
	})

	t.Run("missing name", func(t *testing.T) {
		p := validProduct()
		p.Name = ""
		require.Error(t, p.Validate(ctx))
	})

	t.Run("invalid unit", func(t *testing.T) {
		p := validProduct()
		p.Unit = Unit("CRATE")
		err := p.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid unit")
	})

	t.Run("missing category", func(t *testing.T) {
		p := validProduct()
		p.CategoryID = id.Nil()
		require.Error(t, p.Validate(ctx))
	})

	t.Run("missing supplier", func(t *testing.T) {
		p := validProduct()
		p.SupplierID = id.Nil()
		require.Error(t, p.Validate(ctx))
	})

	t.Run("negative selling price", func(t *testing.T) {
		p := validProduct()
		p.SellingPrice = types.MustMoney("-1")
		require.Error(t, p.Validate(ctx))
	})

	t.Run("negative minimum stock", func(t *testing.T) {
		p := validProduct()
		p.MinimumStock = -5
		require.Error(t, p.Validate(ctx))
	})
}

func TestProduct_Defaults(t *testing.T) {
	p := New("PKG-002", "Clear Tape Roll", id.New(), id.New())

	assert.Equal(t, UnitPack, p.Unit)
	assert.Equal(t, int64(DefaultMinimumStock), p.MinimumStock)
	assert.True(t, p.IsActive)
	assert.Equal(t, "PKG-002", p.SKU())
}

func TestProduct_IsLowStock(t *testing.T) {
	p := validProduct()
	p.MinimumStock = 10

	assert.True(t, p.IsLowStock(0))
	assert.True(t, p.IsLowStock(10)) // at the threshold counts as low
	assert.False(t, p.IsLowStock(11))
}

func TestProduct_StockValue(t *testing.T) {
	p := validProduct()

	got := p.StockValue(20)
	assert.True(t, got.Equal(types.MustMoney("90.00")), "got %s", got)
}

func TestProduct_ProfitMargin(t *testing.T) {
	t.Run("normal margin", func(t *testing.T) {
		p := validProduct()
		p.CostPrice = types.MustMoney("4.00")
		p.SellingPrice = types.MustMoney("6.00")

		got := p.ProfitMargin()
		assert.True(t, got.Equal(decimal.NewFromInt(50)), "got %s", got)
	})

	t.Run("zero cost returns zero", func(t *testing.T) {
		p := validProduct()
		p.CostPrice = types.Zero()

		assert.True(t, p.ProfitMargin().IsZero())
	})
}
