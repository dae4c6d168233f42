// Package reports provides dashboard and report generation services.
package reports

import (
	"time"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

// --- Dashboard ---

// RecentSale is a dashboard row for the latest invoices.
type RecentSale struct {
	ID            id.ID       `json:"id"`
	Number        string      `json:"number"`
	CustomerName  string      `json:"customerName"`
	TotalAmount   types.Money `json:"totalAmount"`
	PaymentStatus string      `json:"paymentStatus"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Dashboard is the landing-page snapshot.
type Dashboard struct {
	// ActiveProducts is the count of active catalog products
	ActiveProducts int64 `json:"activeProducts"`

	// TodaySales is the summed total of PAID sales dated today
	TodaySales types.Money `json:"todaySales"`

	// LowStockCount is the number of active products at or below threshold
	LowStockCount int64 `json:"lowStockCount"`

	// ActiveCustomers is the count of active customers
	ActiveCustomers int64 `json:"activeCustomers"`

	// RecentSales holds the five newest invoices
	RecentSales []RecentSale `json:"recentSales"`
}

// --- Sales chart ---

// DayTotal is one settled-revenue data point.
type DayTotal struct {
	Day   time.Time   `json:"day"`
	Total types.Money `json:"total"`
}

// SalesChart feeds the dashboard revenue chart: one point per day over
// the seven days before today, zero-filled for quiet days.
type SalesChart struct {
	Labels []string      `json:"labels"`
	Data   []types.Money `json:"data"`
}

// --- Sales summary ---

// SalesSummaryFilter bounds the sales summary report.
type SalesSummaryFilter struct {
	// FromDate and ToDate bound sale dates (inclusive)
	FromDate time.Time
	ToDate   time.Time

	// CreatedBy narrows to one sales rep when set
	CreatedBy string
}

// ProductPerformance is a per-product row of the sales summary.
type ProductPerformance struct {
	ProductID    id.ID          `json:"productId"`
	SKU          string         `json:"sku"`
	Name         string         `json:"name"`
	QuantitySold types.Quantity `json:"quantitySold"`
	Revenue      types.Money    `json:"revenue"`
	Profit       types.Money    `json:"profit"`
}

// SalesSummary aggregates sales over a date range. Profit uses each
// product's current cost price, matching the per-sale profit figure.
type SalesSummary struct {
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`

	SalesCount  int64       `json:"salesCount"`
	Revenue     types.Money `json:"revenue"`
	Collected   types.Money `json:"collected"`
	Outstanding types.Money `json:"outstanding"`
	Profit      types.Money `json:"profit"`

	Products []ProductPerformance `json:"products"`
}

// SalesExportRow is one invoice line of the sales XLSX export.
type SalesExportRow struct {
	Number        string      `json:"number"`
	CustomerName  string      `json:"customerName"`
	Date          time.Time   `json:"date"`
	TotalAmount   types.Money `json:"totalAmount"`
	PaymentStatus string      `json:"paymentStatus"`
	Profit        types.Money `json:"profit"`
}

// --- Inventory report ---

// Stock status labels shown in reports and exports.
const (
	StockStatusNormal     = "Normal"
	StockStatusLow        = "Low Stock"
	StockStatusOutOfStock = "Out of Stock"
)

// InventoryReportItem is a per-product stock row.
type InventoryReportItem struct {
	ProductID    id.ID          `json:"productId"`
	SKU          string         `json:"sku"`
	Name         string         `json:"name"`
	CategoryName string         `json:"categoryName"`
	CurrentStock types.Quantity `json:"currentStock"`
	CostPrice    types.Money    `json:"costPrice"`
	SellingPrice types.Money    `json:"sellingPrice"`
	StockValue   types.Money    `json:"stockValue"`
	Status       string         `json:"status"`
}

// InventoryReport lists every active product with derived stock figures.
type InventoryReport struct {
	GeneratedAt     time.Time             `json:"generatedAt"`
	Items           []InventoryReportItem `json:"items"`
	TotalStockValue types.Money           `json:"totalStockValue"`
	LowStockCount   int64                 `json:"lowStockCount"`
}

// StockStatusFor labels a stock level against its threshold.
func StockStatusFor(stock, minimum types.Quantity) string {
	switch {
	case stock.IsZero() || stock.IsNegative():
		return StockStatusOutOfStock
	case stock <= minimum:
		return StockStatusLow
	default:
		return StockStatusNormal
	}
}
