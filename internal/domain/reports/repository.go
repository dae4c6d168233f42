package reports

import (
	"context"
	"time"

	"everpack/internal/core/types"
)

// Repository defines report data access.
type Repository interface {
	// Dashboard counters
	CountActiveProducts(ctx context.Context) (int64, error)
	CountActiveCustomers(ctx context.Context) (int64, error)
	CountLowStockProducts(ctx context.Context) (int64, error)

	// SumPaidSalesOn sums PAID sale totals for one business day
	SumPaidSalesOn(ctx context.Context, day time.Time) (types.Money, error)

	// GetPaidTotalsByDay returns per-day PAID totals for [from, to);
	// quiet days are absent from the result
	GetPaidTotalsByDay(ctx context.Context, from, to time.Time) ([]DayTotal, error)

	// GetRecentSales returns the newest invoices with customer names
	GetRecentSales(ctx context.Context, limit int) ([]RecentSale, error)

	// GetSalesSummary aggregates count/revenue/collected/profit over a range
	GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummary, error)

	// GetProductPerformance returns per-product sold quantity/revenue/profit
	GetProductPerformance(ctx context.Context, filter SalesSummaryFilter) ([]ProductPerformance, error)

	// GetSalesExportRows returns one row per sale for the XLSX export,
	// newest sale date first
	GetSalesExportRows(ctx context.Context, filter SalesSummaryFilter) ([]SalesExportRow, error)

	// GetInventoryReport returns per-product stock rows for active products,
	// ordered by name
	GetInventoryReport(ctx context.Context) (*InventoryReport, error)
}
