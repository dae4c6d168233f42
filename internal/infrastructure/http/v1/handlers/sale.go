package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/domain"
	"everpack/internal/domain/documents/sale"
	"everpack/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles HTTP requests for sale documents.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /sales - list with filtering.
func (h *SaleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := sale.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.CreatedBy = c.Query("createdBy")

	if custStr := c.Query("customerId"); custStr != "" {
		parsed, err := id.Parse(custStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customerId format"))
			return
		}
		filter.CustomerID = &parsed
	}

	if statusStr := c.Query("paymentStatus"); statusStr != "" {
		status := sale.PaymentStatus(statusStr)
		if !sale.ValidPaymentStatus(status) {
			h.Error(c, apperror.NewValidation("invalid paymentStatus"))
			return
		}
		filter.PaymentStatus = &status
	}

	if methodStr := c.Query("paymentMethod"); methodStr != "" {
		method := sale.PaymentMethod(methodStr)
		if !sale.ValidPaymentMethod(method) {
			h.Error(c, apperror.NewValidation("invalid paymentMethod"))
			return
		}
		filter.PaymentMethod = &method
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /sales/:id - single sale with lines.
func (h *SaleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	s, err := h.service.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// GetByNumber handles GET /sales/by-number/:number - lookup by document number.
func (h *SaleHandler) GetByNumber(c *gin.Context) {
	ctx := c.Request.Context()

	s, err := h.service.GetByNumber(ctx, c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// Create handles POST /sales - create a sale, optionally with lines.
func (h *SaleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToEntity()

	if err := h.service.Create(ctx, s); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", s)

	c.JSON(http.StatusCreated, s)
}

// Update handles PUT /sales/:id - update header fields.
func (h *SaleHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(s)

	if err := h.service.Update(ctx, s); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", s)

	c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /sales/:id - void the sale and restock its lines.
func (h *SaleHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, saleID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// AddItem handles POST /sales/:id/items - add an invoice line.
func (h *SaleHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SaleItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.AddItem(ctx, saleID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", s)

	c.JSON(http.StatusCreated, s)
}

// UpdateItem handles PUT /sales/:id/items/:itemId - change quantity or price.
func (h *SaleHandler) UpdateItem(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	var req dto.SaleItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.UpdateItem(ctx, saleID, itemID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// RemoveItem handles DELETE /sales/:id/items/:itemId - remove a line and restock it.
func (h *SaleHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	s, err := h.service.RemoveItem(ctx, saleID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// RecordPayment handles POST /sales/:id/payments - record a settlement.
func (h *SaleHandler) RecordPayment(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, err := h.service.RecordPayment(ctx, saleID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", payment)

	c.JSON(http.StatusCreated, payment)
}

// GetPayments handles GET /sales/:id/payments - settlement history.
func (h *SaleHandler) GetPayments(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	payments, err := h.service.GetPayments(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      payments,
		TotalCount: int64(len(payments)),
	})
}

// GetProfit handles GET /sales/:id/profit - invoice profit at current cost prices.
func (h *SaleHandler) GetProfit(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	profit, err := h.service.TotalProfit(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SaleProfitResponse{
		SaleID: saleID.String(),
		Profit: profit,
	})
}
