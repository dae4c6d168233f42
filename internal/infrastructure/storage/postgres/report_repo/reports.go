// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"everpack/internal/core/types"
	"everpack/internal/domain/reports"
	"everpack/internal/infrastructure/storage/postgres"
)

// currentStockExpr derives the ledger stock for the products row "p".
// ADJUSTMENT rows document corrections but do not move the balance.
const currentStockExpr = `COALESCE((
	SELECT SUM(CASE m.movement_type WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity ELSE 0 END)
	FROM reg_stock_movements m
	WHERE m.product_id = p.id
), 0)`

// saleProfitExpr computes the profit of the sales row "s" against current
// product cost prices, matching the per-sale profit shown in the UI.
const saleProfitExpr = `COALESCE((
	SELECT SUM((i.unit_price - p.cost_price) * i.quantity)
	FROM doc_sale_items i
	JOIN cat_products p ON i.product_id = p.id
	WHERE i.sale_id = s.id
), 0)`

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// CountActiveProducts counts sellable catalog products.
func (r *ReportRepo) CountActiveProducts(ctx context.Context) (int64, error) {
	return r.scalarCount(ctx, `
		SELECT COUNT(*) FROM cat_products
		WHERE is_active = true AND deletion_mark = false
	`)
}

// CountActiveCustomers counts customers able to place orders.
func (r *ReportRepo) CountActiveCustomers(ctx context.Context) (int64, error) {
	return r.scalarCount(ctx, `
		SELECT COUNT(*) FROM cat_customers
		WHERE is_active = true AND deletion_mark = false
	`)
}

// CountLowStockProducts counts active products at or below their threshold.
func (r *ReportRepo) CountLowStockProducts(ctx context.Context) (int64, error) {
	return r.scalarCount(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM cat_products p
		WHERE p.is_active = true AND p.deletion_mark = false
		  AND %s <= p.minimum_stock
	`, currentStockExpr))
}

func (r *ReportRepo) scalarCount(ctx context.Context, query string) (int64, error) {
	var count int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

// SumPaidSalesOn sums PAID sale totals for one business day.
func (r *ReportRepo) SumPaidSalesOn(ctx context.Context, day time.Time) (types.Money, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM doc_sales
		WHERE payment_status = 'PAID'
		  AND deletion_mark = false
		  AND date >= $1 AND date < $2
	`

	var total types.Money
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, query, day, day.AddDate(0, 0, 1)).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return types.Zero(), fmt.Errorf("sum paid sales: %w", err)
	}

	return total, nil
}

// GetPaidTotalsByDay returns per-day PAID totals for [from, to).
// Quiet days are absent from the result.
func (r *ReportRepo) GetPaidTotalsByDay(ctx context.Context, from, to time.Time) ([]reports.DayTotal, error) {
	query := `
		SELECT
			date_trunc('day', date) AS day,
			SUM(total_amount) AS total
		FROM doc_sales
		WHERE payment_status = 'PAID'
		  AND deletion_mark = false
		  AND date >= $1 AND date < $2
		GROUP BY 1
		ORDER BY 1
	`

	var totals []reports.DayTotal
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &totals, query, from, to); err != nil {
		return nil, fmt.Errorf("paid totals by day: %w", err)
	}

	return totals, nil
}

// GetRecentSales returns the newest invoices with customer names.
func (r *ReportRepo) GetRecentSales(ctx context.Context, limit int) ([]reports.RecentSale, error) {
	query := `
		SELECT
			s.id AS id,
			s.number AS number,
			c.name AS customer_name,
			s.total_amount AS total_amount,
			s.payment_status AS payment_status,
			s.created_at AS created_at
		FROM doc_sales s
		JOIN cat_customers c ON s.customer_id = c.id
		WHERE s.deletion_mark = false
		ORDER BY s.created_at DESC
		LIMIT $1
	`

	var sales []reports.RecentSale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sales, query, limit); err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}

	return sales, nil
}

// saleRangeConditions appends date and creator conditions for the filter.
// ToDate is inclusive, so the upper bound is the start of the next day.
func saleRangeConditions(filter reports.SalesSummaryFilter) (string, []any) {
	conditions := "s.deletion_mark = false AND s.date >= $1 AND s.date < $2"
	args := []any{filter.FromDate, filter.ToDate.AddDate(0, 0, 1)}

	if filter.CreatedBy != "" {
		conditions += fmt.Sprintf(" AND s.created_by = $%d", len(args)+1)
		args = append(args, filter.CreatedBy)
	}

	return conditions, args
}

// GetSalesSummary aggregates count/revenue/collected/profit over a range.
func (r *ReportRepo) GetSalesSummary(ctx context.Context, filter reports.SalesSummaryFilter) (*reports.SalesSummary, error) {
	conditions, args := saleRangeConditions(filter)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS sales_count,
			COALESCE(SUM(s.total_amount), 0) AS revenue,
			COALESCE(SUM(s.amount_paid), 0) AS collected,
			COALESCE(SUM(s.total_amount - s.amount_paid), 0) AS outstanding,
			COALESCE(SUM(%s), 0) AS profit
		FROM doc_sales s
		WHERE %s
	`, saleProfitExpr, conditions)

	var summary reports.SalesSummary
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &summary, query, args...); err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}

	return &summary, nil
}

// GetProductPerformance returns per-product sold quantity/revenue/profit,
// best revenue first.
func (r *ReportRepo) GetProductPerformance(ctx context.Context, filter reports.SalesSummaryFilter) ([]reports.ProductPerformance, error) {
	conditions, args := saleRangeConditions(filter)

	query := fmt.Sprintf(`
		SELECT
			p.id AS product_id,
			p.code AS sku,
			p.name AS name,
			COALESCE(SUM(i.quantity), 0) AS quantity_sold,
			COALESCE(SUM(i.total_price), 0) AS revenue,
			COALESCE(SUM((i.unit_price - p.cost_price) * i.quantity), 0) AS profit
		FROM doc_sale_items i
		JOIN doc_sales s ON i.sale_id = s.id
		JOIN cat_products p ON i.product_id = p.id
		WHERE %s
		GROUP BY p.id, p.code, p.name
		ORDER BY revenue DESC
	`, conditions)

	var items []reports.ProductPerformance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, fmt.Errorf("product performance: %w", err)
	}

	return items, nil
}

// GetSalesExportRows returns one row per sale for the XLSX export,
// newest sale date first.
func (r *ReportRepo) GetSalesExportRows(ctx context.Context, filter reports.SalesSummaryFilter) ([]reports.SalesExportRow, error) {
	conditions, args := saleRangeConditions(filter)

	query := fmt.Sprintf(`
		SELECT
			s.number AS number,
			c.name AS customer_name,
			s.date AS date,
			s.total_amount AS total_amount,
			s.payment_status AS payment_status,
			%s AS profit
		FROM doc_sales s
		JOIN cat_customers c ON s.customer_id = c.id
		WHERE %s
		ORDER BY s.date DESC, s.number DESC
	`, saleProfitExpr, conditions)

	var rows []reports.SalesExportRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sales export rows: %w", err)
	}

	return rows, nil
}

// GetInventoryReport returns per-product stock rows for active products,
// ordered by name. GeneratedAt is stamped by the service.
func (r *ReportRepo) GetInventoryReport(ctx context.Context) (*reports.InventoryReport, error) {
	query := fmt.Sprintf(`
		SELECT
			product_id, sku, name, category_name, current_stock,
			cost_price, selling_price,
			cost_price * current_stock AS stock_value,
			CASE
				WHEN current_stock <= 0 THEN '%s'
				WHEN current_stock <= minimum_stock THEN '%s'
				ELSE '%s'
			END AS status
		FROM (
			SELECT
				p.id AS product_id,
				p.code AS sku,
				p.name AS name,
				COALESCE(c.name, '') AS category_name,
				p.minimum_stock AS minimum_stock,
				p.cost_price AS cost_price,
				p.selling_price AS selling_price,
				%s AS current_stock
			FROM cat_products p
			LEFT JOIN cat_categories c ON p.category_id = c.id
			WHERE p.is_active = true AND p.deletion_mark = false
		) t
		ORDER BY name
	`, reports.StockStatusOutOfStock, reports.StockStatusLow, reports.StockStatusNormal, currentStockExpr)

	var items []reports.InventoryReportItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query); err != nil {
		return nil, fmt.Errorf("inventory report: %w", err)
	}

	report := &reports.InventoryReport{
		Items:           items,
		TotalStockValue: types.Zero(),
	}
	for _, item := range items {
		report.TotalStockValue = report.TotalStockValue.Add(item.StockValue)
		if item.Status != reports.StockStatusNormal {
			report.LowStockCount++
		}
	}

	return report, nil
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)
