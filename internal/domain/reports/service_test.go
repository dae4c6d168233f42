package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

type repoMock struct {
	products    int64
	customers   int64
	lowStock    int64
	todayTotal  types.Money
	dayTotals   []DayTotal
	recent      []RecentSale
	summary     *SalesSummary
	performance []ProductPerformance
	exportRows  []SalesExportRow
	inventory   *InventoryReport

	gotDay    time.Time
	gotFrom   time.Time
	gotTo     time.Time
	gotLimit  int
	gotFilter SalesSummaryFilter

	err error
}

func (m *repoMock) CountActiveProducts(_ context.Context) (int64, error) {
	return m.products, m.err
}

func (m *repoMock) CountActiveCustomers(_ context.Context) (int64, error) {
	return m.customers, m.err
}

func (m *repoMock) CountLowStockProducts(_ context.Context) (int64, error) {
	return m.lowStock, m.err
}

func (m *repoMock) SumPaidSalesOn(_ context.Context, day time.Time) (types.Money, error) {
	m.gotDay = day
	return m.todayTotal, m.err
}

func (m *repoMock) GetPaidTotalsByDay(_ context.Context, from, to time.Time) ([]DayTotal, error) {
	m.gotFrom, m.gotTo = from, to
	return m.dayTotals, m.err
}

func (m *repoMock) GetRecentSales(_ context.Context, limit int) ([]RecentSale, error) {
	m.gotLimit = limit
	return m.recent, m.err
}

func (m *repoMock) GetSalesSummary(_ context.Context, filter SalesSummaryFilter) (*SalesSummary, error) {
	m.gotFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	if m.summary == nil {
		return &SalesSummary{}, nil
	}
	cp := *m.summary
	return &cp, nil
}

func (m *repoMock) GetProductPerformance(_ context.Context, filter SalesSummaryFilter) ([]ProductPerformance, error) {
	return m.performance, m.err
}

func (m *repoMock) GetSalesExportRows(_ context.Context, filter SalesSummaryFilter) ([]SalesExportRow, error) {
	m.gotFilter = filter
	return m.exportRows, m.err
}

func (m *repoMock) GetInventoryReport(_ context.Context) (*InventoryReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.inventory == nil {
		return &InventoryReport{}, nil
	}
	cp := *m.inventory
	return &cp, nil
}

// March 14th 2025 is a Friday.
var testNow = time.Date(2025, 3, 14, 10, 33, 0, 0, time.UTC)

func newTestService(repo *repoMock) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return testNow }
	return svc
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetDashboard(t *testing.T) {
	repo := &repoMock{
		products:   42,
		customers:  17,
		lowStock:   3,
		todayTotal: types.MustMoney("1250.50"),
		recent: []RecentSale{
			{ID: id.New(), Number: "INV-000009", CustomerName: "Kofi Mensah", TotalAmount: types.MustMoney("60.00"), PaymentStatus: "PAID"},
			{ID: id.New(), Number: "INV-000008", CustomerName: "Ama Serwaa", TotalAmount: types.MustMoney("125.00"), PaymentStatus: "PENDING"},
		},
	}
	svc := newTestService(repo)

	dash, err := svc.GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), dash.ActiveProducts)
	assert.Equal(t, int64(17), dash.ActiveCustomers)
	assert.Equal(t, int64(3), dash.LowStockCount)
	assert.True(t, dash.TodaySales.Equal(types.MustMoney("1250.50")))
	require.Len(t, dash.RecentSales, 2)
	assert.Equal(t, "INV-000009", dash.RecentSales[0].Number)

	// Today's total is asked for the truncated business day.
	assert.Equal(t, day(2025, 3, 14), repo.gotDay)
	assert.Equal(t, 5, repo.gotLimit)
}

func TestGetDashboard_RepoError(t *testing.T) {
	repo := &repoMock{err: assert.AnError}
	svc := newTestService(repo)

	_, err := svc.GetDashboard(context.Background())
	require.Error(t, err)
}

func TestGetSalesChart(t *testing.T) {
	repo := &repoMock{
		dayTotals: []DayTotal{
			{Day: day(2025, 3, 8), Total: types.MustMoney("150.00")},
			{Day: day(2025, 3, 12), Total: types.MustMoney("80.25")},
		},
	}
	svc := newTestService(repo)

	chart, err := svc.GetSalesChart(context.Background())
	require.NoError(t, err)

	// Window covers the seven days before today and excludes today.
	assert.Equal(t, day(2025, 3, 7), repo.gotFrom)
	assert.Equal(t, day(2025, 3, 14), repo.gotTo)

	require.Len(t, chart.Labels, 7)
	require.Len(t, chart.Data, 7)
	assert.Equal(t, []string{"Fri", "Sat", "Sun", "Mon", "Tue", "Wed", "Thu"}, chart.Labels)

	// Quiet days zero-filled, planted days carried through.
	assert.True(t, chart.Data[0].IsZero())
	assert.True(t, chart.Data[1].Equal(types.MustMoney("150.00")))
	assert.True(t, chart.Data[2].IsZero())
	assert.True(t, chart.Data[5].Equal(types.MustMoney("80.25")))
	assert.True(t, chart.Data[6].IsZero())
}

func TestGetSalesSummary_DefaultRange(t *testing.T) {
	repo := &repoMock{
		summary: &SalesSummary{
			SalesCount:  12,
			Revenue:     types.MustMoney("3400.00"),
			Collected:   types.MustMoney("2100.00"),
			Outstanding: types.MustMoney("1300.00"),
			Profit:      types.MustMoney("900.00"),
		},
		performance: []ProductPerformance{
			{SKU: "PKG-001", Name: "Carrier Bag Large", QuantitySold: 40, Revenue: types.MustMoney("240.00")},
		},
	}
	svc := newTestService(repo)

	summary, err := svc.GetSalesSummary(context.Background(), SalesSummaryFilter{})
	require.NoError(t, err)

	assert.Equal(t, day(2025, 2, 12), summary.FromDate)
	assert.Equal(t, day(2025, 3, 14), summary.ToDate)
	assert.Equal(t, day(2025, 2, 12), repo.gotFilter.FromDate)

	assert.Equal(t, int64(12), summary.SalesCount)
	assert.True(t, summary.Outstanding.Equal(types.MustMoney("1300.00")))
	require.Len(t, summary.Products, 1)
	assert.Equal(t, "PKG-001", summary.Products[0].SKU)
}

func TestGetSalesSummary_OpenStart(t *testing.T) {
	repo := &repoMock{summary: &SalesSummary{}}
	svc := newTestService(repo)

	to := day(2025, 3, 10)
	summary, err := svc.GetSalesSummary(context.Background(), SalesSummaryFilter{ToDate: to})
	require.NoError(t, err)

	assert.Equal(t, to.AddDate(0, 0, -30), summary.FromDate)
	assert.Equal(t, to, summary.ToDate)
}

func TestGetSalesSummary_InvertedRange(t *testing.T) {
	svc := newTestService(&repoMock{})

	_, err := svc.GetSalesSummary(context.Background(), SalesSummaryFilter{
		FromDate: day(2025, 3, 10),
		ToDate:   day(2025, 3, 1),
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestStockStatusFor(t *testing.T) {
	tests := []struct {
		name    string
		stock   types.Quantity
		minimum types.Quantity
		want    string
	}{
		{"above threshold", 50, 10, StockStatusNormal},
		{"at threshold", 10, 10, StockStatusLow},
		{"below threshold", 4, 10, StockStatusLow},
		{"zero", 0, 10, StockStatusOutOfStock},
		{"negative", -2, 10, StockStatusOutOfStock},
		{"zero threshold", 1, 0, StockStatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StockStatusFor(tt.stock, tt.minimum))
		})
	}
}

func TestGetInventoryReport_StampsGeneratedAt(t *testing.T) {
	repo := &repoMock{inventory: &InventoryReport{
		Items:           []InventoryReportItem{{SKU: "PKG-001", Name: "Carrier Bag Large"}},
		TotalStockValue: types.MustMoney("500.00"),
	}}
	svc := newTestService(repo)

	report, err := svc.GetInventoryReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testNow, report.GeneratedAt)
	require.Len(t, report.Items, 1)
}

func TestExportSalesXLSX(t *testing.T) {
	repo := &repoMock{
		exportRows: []SalesExportRow{
			{
				Number:        "INV-000002",
				CustomerName:  "Ama Serwaa",
				Date:          day(2025, 3, 13),
				TotalAmount:   types.MustMoney("150.75"),
				PaymentStatus: "PAID",
				Profit:        types.MustMoney("42.25"),
			},
			{
				Number:        "INV-000001",
				CustomerName:  "Kofi Mensah",
				Date:          day(2025, 3, 12),
				TotalAmount:   types.MustMoney("60.5"),
				PaymentStatus: "PENDING",
				Profit:        types.MustMoney("15.5"),
			},
		},
	}
	svc := newTestService(repo)

	data, filename, err := svc.ExportSalesXLSX(context.Background(), SalesSummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "sales_report_20250314.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	const sheet = "Sales Report"
	assert.Equal(t, sheet, f.GetSheetName(0))

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "EverPack System - Sales Report", title)

	stamp, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Generated on: 2025-03-14 10:33", stamp)

	header, err := f.GetCellValue(sheet, "D4")
	require.NoError(t, err)
	assert.Equal(t, "Total Amount (GHS)", header)

	number, err := f.GetCellValue(sheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "INV-000002", number)

	saleDate, err := f.GetCellValue(sheet, "C6")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", saleDate)

	amount, err := f.GetCellValue(sheet, "D5")
	require.NoError(t, err)
	assert.Equal(t, "150.75", amount)

	// Data ends at row 6; row 7 stays blank and row 8 carries totals.
	label, err := f.GetCellValue(sheet, "C8")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL:", label)

	total, err := f.GetCellValue(sheet, "D8")
	require.NoError(t, err)
	assert.Equal(t, "211.25", total)

	profit, err := f.GetCellValue(sheet, "F8")
	require.NoError(t, err)
	assert.Equal(t, "57.75", profit)
}

func TestExportInventoryXLSX(t *testing.T) {
	repo := &repoMock{inventory: &InventoryReport{
		Items: []InventoryReportItem{
			{
				SKU:          "PKG-001",
				Name:         "Carrier Bag Large",
				CategoryName: "Bags",
				CurrentStock: 120,
				CostPrice:    types.MustMoney("4.5"),
				SellingPrice: types.MustMoney("6.25"),
				StockValue:   types.MustMoney("540.5"),
				Status:       StockStatusNormal,
			},
			{
				SKU:          "PKG-002",
				Name:         "Takeaway Pack",
				CategoryName: "Food Packaging",
				CurrentStock: 0,
				CostPrice:    types.MustMoney("8"),
				SellingPrice: types.MustMoney("12.5"),
				StockValue:   types.Zero(),
				Status:       StockStatusOutOfStock,
			},
		},
		TotalStockValue: types.MustMoney("540.5"),
	}}
	svc := newTestService(repo)

	data, filename, err := svc.ExportInventoryXLSX(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "inventory_report_20250314.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	const sheet = "Inventory Report"
	assert.Equal(t, sheet, f.GetSheetName(0))

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "EverPack System - Inventory Report", title)

	sku, err := f.GetCellValue(sheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "PKG-001", sku)

	stock, err := f.GetCellValue(sheet, "D5")
	require.NoError(t, err)
	assert.Equal(t, "120", stock)

	status, err := f.GetCellValue(sheet, "H6")
	require.NoError(t, err)
	assert.Equal(t, StockStatusOutOfStock, status)

	label, err := f.GetCellValue(sheet, "F8")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL STOCK VALUE:", label)

	value, err := f.GetCellValue(sheet, "G8")
	require.NoError(t, err)
	assert.Equal(t, "540.5", value)
}
