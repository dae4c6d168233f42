package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/domain"
	"everpack/internal/domain/documents/bulkorder"
	"everpack/internal/infrastructure/http/v1/dto"
)

// BulkOrderHandler handles HTTP requests for bulk order documents.
type BulkOrderHandler struct {
	*BaseHandler
	service *bulkorder.Service
}

// NewBulkOrderHandler creates a new bulk order handler.
func NewBulkOrderHandler(base *BaseHandler, service *bulkorder.Service) *BulkOrderHandler {
	return &BulkOrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /bulk-orders - list with filtering.
func (h *BulkOrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := bulkorder.ListFilter{
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

	if statusStr := c.Query("status"); statusStr != "" {
		status := bulkorder.Status(statusStr)
		if !bulkorder.ValidStatus(status) {
			h.Error(c, apperror.NewValidation("invalid status"))
			return
		}
		filter.Status = &status
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

// Get handles GET /bulk-orders/:id - single order with lines.
func (h *BulkOrderHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	b, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// Create handles POST /bulk-orders - create a draft order.
func (h *BulkOrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBulkOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b := req.ToEntity()

	if err := h.service.Create(ctx, b); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", b)

	c.JSON(http.StatusCreated, b)
}

// Update handles PUT /bulk-orders/:id - update header fields while draft.
func (h *BulkOrderHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateBulkOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(b)

	if err := h.service.Update(ctx, b); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", b)

	c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /bulk-orders/:id - soft delete a draft or cancelled order.
func (h *BulkOrderHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// AddItem handles POST /bulk-orders/:id/items - add an order line.
func (h *BulkOrderHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.BulkOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.AddItem(ctx, orderID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", b)

	c.JSON(http.StatusCreated, b)
}

// UpdateItem handles PUT /bulk-orders/:id/items/:itemId - change a line.
func (h *BulkOrderHandler) UpdateItem(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	var req dto.BulkOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.UpdateItem(ctx, orderID, itemID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// RemoveItem handles DELETE /bulk-orders/:id/items/:itemId - remove a line.
func (h *BulkOrderHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	b, err := h.service.RemoveItem(ctx, orderID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// Submit handles POST /bulk-orders/:id/submit - DRAFT to SUBMITTED.
func (h *BulkOrderHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.Submit)
}

// MarkProcessing handles POST /bulk-orders/:id/process - SUBMITTED to PROCESSING.
func (h *BulkOrderHandler) MarkProcessing(c *gin.Context) {
	h.transition(c, h.service.MarkProcessing)
}

// Cancel handles POST /bulk-orders/:id/cancel.
func (h *BulkOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *BulkOrderHandler) transition(c *gin.Context, op func(ctx context.Context, orderID id.ID) (*bulkorder.BulkOrder, error)) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	b, err := op(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", b)

	c.JSON(http.StatusOK, b)
}

// Convert handles POST /bulk-orders/:id/convert - create a sale from the order.
func (h *BulkOrderHandler) Convert(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	s, err := h.service.Convert(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.ConvertResponse{
		OrderID: orderID.String(),
		SaleID:  s.ID.String(),
		Number:  s.Number,
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)

	c.JSON(http.StatusCreated, response)
}
