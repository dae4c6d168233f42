package reports

import (
	"context"
	"fmt"
	"time"

	"everpack/internal/core/apperror"
	"everpack/internal/core/types"
)

const recentSalesLimit = 5

// Service provides report generation operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetDashboard assembles the landing-page snapshot.
func (svc *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	products, err := svc.repo.CountActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	todaySales, err := svc.repo.SumPaidSalesOn(ctx, svc.today())
	if err != nil {
		return nil, fmt.Errorf("sum today's sales: %w", err)
	}

	lowStock, err := svc.repo.CountLowStockProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}

	customers, err := svc.repo.CountActiveCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	recent, err := svc.repo.GetRecentSales(ctx, recentSalesLimit)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}

	return &Dashboard{
		ActiveProducts:  products,
		TodaySales:      todaySales,
		LowStockCount:   lowStock,
		ActiveCustomers: customers,
		RecentSales:     recent,
	}, nil
}

// GetSalesChart returns settled revenue for the seven days before today,
// one labelled point per day with quiet days zero-filled.
func (svc *Service) GetSalesChart(ctx context.Context) (*SalesChart, error) {
	today := svc.today()
	from := today.AddDate(0, 0, -7)

	totals, err := svc.repo.GetPaidTotalsByDay(ctx, from, today)
	if err != nil {
		return nil, fmt.Errorf("paid totals by day: %w", err)
	}

	byDay := make(map[string]types.Money, len(totals))
	for _, dt := range totals {
		byDay[dt.Day.Format("2006-01-02")] = dt.Total
	}

	chart := &SalesChart{
		Labels: make([]string, 0, 7),
		Data:   make([]types.Money, 0, 7),
	}
	for i := 0; i < 7; i++ {
		day := from.AddDate(0, 0, i)
		chart.Labels = append(chart.Labels, day.Format("Mon"))

		total, ok := byDay[day.Format("2006-01-02")]
		if !ok {
			total = types.Zero()
		}
		chart.Data = append(chart.Data, total)
	}

	return chart, nil
}

// GetSalesSummary aggregates sales over a date range, with per-product
// performance attached. An empty range defaults to the last 30 days.
func (svc *Service) GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummary, error) {
	filter = svc.normalizeRange(filter)
	if filter.ToDate.Before(filter.FromDate) {
		return nil, apperror.NewValidation("end date cannot precede start date").
			WithDetail("fromDate", filter.FromDate.Format("2006-01-02")).
			WithDetail("toDate", filter.ToDate.Format("2006-01-02"))
	}

	summary, err := svc.repo.GetSalesSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}

	products, err := svc.repo.GetProductPerformance(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("product performance: %w", err)
	}
	summary.Products = products
	summary.FromDate = filter.FromDate
	summary.ToDate = filter.ToDate

	return summary, nil
}

// GetInventoryReport returns the per-product stock report.
func (svc *Service) GetInventoryReport(ctx context.Context) (*InventoryReport, error) {
	report, err := svc.repo.GetInventoryReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory report: %w", err)
	}
	report.GeneratedAt = svc.now().UTC()
	return report, nil
}

// ExportSalesXLSX renders the sales report workbook. Returns the file
// bytes and the download filename.
func (svc *Service) ExportSalesXLSX(ctx context.Context, filter SalesSummaryFilter) ([]byte, string, error) {
	filter = svc.normalizeRange(filter)

	rows, err := svc.repo.GetSalesExportRows(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("sales export rows: %w", err)
	}

	data, err := buildSalesWorkbook(rows, svc.now())
	if err != nil {
		return nil, "", fmt.Errorf("build sales workbook: %w", err)
	}

	filename := fmt.Sprintf("sales_report_%s.xlsx", svc.now().Format("20060102"))
	return data, filename, nil
}

// ExportInventoryXLSX renders the inventory report workbook.
func (svc *Service) ExportInventoryXLSX(ctx context.Context) ([]byte, string, error) {
	report, err := svc.GetInventoryReport(ctx)
	if err != nil {
		return nil, "", err
	}

	data, err := buildInventoryWorkbook(report, svc.now())
	if err != nil {
		return nil, "", fmt.Errorf("build inventory workbook: %w", err)
	}

	filename := fmt.Sprintf("inventory_report_%s.xlsx", svc.now().Format("20060102"))
	return data, filename, nil
}

func (svc *Service) today() time.Time {
	return svc.now().UTC().Truncate(24 * time.Hour)
}

// normalizeRange fills an empty range with the last 30 days.
func (svc *Service) normalizeRange(filter SalesSummaryFilter) SalesSummaryFilter {
	if filter.FromDate.IsZero() && filter.ToDate.IsZero() {
		today := svc.today()
		filter.FromDate = today.AddDate(0, 0, -30)
		filter.ToDate = today
		return filter
	}
	if filter.ToDate.IsZero() {
		filter.ToDate = svc.today()
	}
	if filter.FromDate.IsZero() {
		filter.FromDate = filter.ToDate.AddDate(0, 0, -30)
	}
	return filter
}
