package reports

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// Workbook layout shared by both exports: merged title in row 1,
// generation stamp in row 2, styled header in row 4, data from row 5.
const (
	exportHeaderRow = 4
	exportDataRow   = 5
)

var salesExportWidths = []float64{20, 25, 15, 18, 18, 15}
var inventoryExportWidths = []float64{15, 30, 15, 12, 15, 15, 18, 12}

func buildSalesWorkbook(rows []SalesExportRow, generatedAt time.Time) ([]byte, error) {
	const sheet = "Sales Report"

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newExportStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := writeExportTitle(f, sheet, "EverPack System - Sales Report", 6, generatedAt, styles); err != nil {
		return nil, err
	}

	headers := []any{"Invoice Number", "Customer", "Sale Date", "Total Amount (GHS)", "Payment Status", "Profit (GHS)"}
	if err := setRow(f, sheet, exportHeaderRow, headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A4", "F4", styles.header); err != nil {
		return nil, err
	}

	totalAmount := 0.0
	totalProfit := 0.0
	row := exportDataRow
	for _, r := range rows {
		values := []any{
			r.Number,
			r.CustomerName,
			r.Date.Format("2006-01-02"),
			r.TotalAmount.InexactFloat64(),
			r.PaymentStatus,
			r.Profit.InexactFloat64(),
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return nil, err
		}
		totalAmount += r.TotalAmount.InexactFloat64()
		totalProfit += r.Profit.InexactFloat64()
		row++
	}

	// Summary line below the data
	row++
	if err := setCells(f, sheet, row, map[int]any{3: "TOTAL:", 4: totalAmount, 6: totalProfit}); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), styles.bold); err != nil {
		return nil, err
	}

	if err := setColWidths(f, sheet, salesExportWidths); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildInventoryWorkbook(report *InventoryReport, generatedAt time.Time) ([]byte, error) {
	const sheet = "Inventory Report"

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newExportStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := writeExportTitle(f, sheet, "EverPack System - Inventory Report", 8, generatedAt, styles); err != nil {
		return nil, err
	}

	headers := []any{"SKU", "Product Name", "Category", "Current Stock", "Cost Price (GHS)", "Selling Price (GHS)", "Stock Value (GHS)", "Status"}
	if err := setRow(f, sheet, exportHeaderRow, headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A4", "H4", styles.header); err != nil {
		return nil, err
	}

	row := exportDataRow
	for _, item := range report.Items {
		values := []any{
			item.SKU,
			item.Name,
			item.CategoryName,
			item.CurrentStock.Int64(),
			item.CostPrice.InexactFloat64(),
			item.SellingPrice.InexactFloat64(),
			item.StockValue.InexactFloat64(),
			item.Status,
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return nil, err
		}
		row++
	}

	row++
	summary := map[int]any{6: "TOTAL STOCK VALUE:", 7: report.TotalStockValue.InexactFloat64()}
	if err := setCells(f, sheet, row, summary); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), styles.bold); err != nil {
		return nil, err
	}

	if err := setColWidths(f, sheet, inventoryExportWidths); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type exportStyles struct {
	title  int
	header int
	bold   int
}

func newExportStyles(f *excelize.File) (exportStyles, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return exportStyles{}, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return exportStyles{}, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return exportStyles{}, err
	}

	return exportStyles{title: title, header: header, bold: bold}, nil
}

func writeExportTitle(f *excelize.File, sheet, title string, cols int, generatedAt time.Time, styles exportStyles) error {
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", last+"1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", styles.title); err != nil {
		return err
	}

	stamp := fmt.Sprintf("Generated on: %s", generatedAt.Format("2006-01-02 15:04"))
	if err := f.SetCellValue(sheet, "A2", stamp); err != nil {
		return err
	}
	return f.MergeCell(sheet, "A2", last+"2")
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func setCells(f *excelize.File, sheet string, row int, values map[int]any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func setColWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return err
		}
	}
	return nil
}
