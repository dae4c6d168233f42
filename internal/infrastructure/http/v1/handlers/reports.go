package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/domain/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler handles HTTP requests for reports and exports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Dashboard handles GET /reports/dashboard - the landing-page snapshot.
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.GetDashboard(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// SalesChart handles GET /reports/sales-chart - daily PAID totals for the
// seven days before today.
func (h *ReportsHandler) SalesChart(c *gin.Context) {
	chart, err := h.service.GetSalesChart(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// SalesSummary handles GET /reports/sales?from=YYYY-MM-DD&to=YYYY-MM-DD.
// An empty range defaults to the last 30 days.
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	filter, ok := h.parseSalesFilter(c)
	if !ok {
		return
	}

	summary, err := h.service.GetSalesSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Inventory handles GET /reports/inventory - per-product stock and value.
func (h *ReportsHandler) Inventory(c *gin.Context) {
	report, err := h.service.GetInventoryReport(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportSales handles GET /reports/sales/export - streams the sales
// report workbook as a download.
func (h *ReportsHandler) ExportSales(c *gin.Context) {
	filter, ok := h.parseSalesFilter(c)
	if !ok {
		return
	}

	data, filename, err := h.service.ExportSalesXLSX(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	writeAttachment(c, filename, data)
}

// ExportInventory handles GET /reports/inventory/export.
func (h *ReportsHandler) ExportInventory(c *gin.Context) {
	data, filename, err := h.service.ExportInventoryXLSX(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	writeAttachment(c, filename, data)
}

// parseSalesFilter reads the optional from/to/createdBy query parameters.
func (h *ReportsHandler) parseSalesFilter(c *gin.Context) (reports.SalesSummaryFilter, bool) {
	var filter reports.SalesSummaryFilter

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date, expected YYYY-MM-DD").WithDetail("from", fromStr))
			return filter, false
		}
		filter.FromDate = parsed
	}

	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date, expected YYYY-MM-DD").WithDetail("to", toStr))
			return filter, false
		}
		filter.ToDate = parsed
	}

	filter.CreatedBy = c.Query("createdBy")
	return filter, true
}

func writeAttachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
