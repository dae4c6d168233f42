package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/domain/registers/stock"
	"everpack/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RecordMovement handles POST /stock/movements - append one ledger entry.
func (h *StockHandler) RecordMovement(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	movement, err := h.service.RecordMovement(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", movement)

	c.JSON(http.StatusCreated, movement)
}

// GetMovements handles GET /stock/movements - ledger history with filters.
func (h *StockHandler) GetMovements(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.MovementFilter{
		Reference: c.Query("reference"),
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}

	if pStr := c.Query("productId"); pStr != "" {
		parsed, err := id.Parse(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &parsed
	}

	if mtStr := c.Query("movementType"); mtStr != "" {
		mt := entity.MovementType(mtStr)
		if !entity.ValidMovementType(mt) {
			h.Error(c, apperror.NewValidation("invalid movementType"))
			return
		}
		filter.MovementType = &mt
	}

	if rStr := c.Query("reason"); rStr != "" {
		reason := entity.MovementReason(rStr)
		if !entity.ValidMovementReason(reason) {
			h.Error(c, apperror.NewValidation("invalid reason"))
			return
		}
		filter.Reason = &reason
	}

	if fromStr := c.Query("fromDate"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.FromDate = &parsed
		}
	}

	if toStr := c.Query("toDate"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.ToDate = &parsed
		}
	}

	result, err := h.service.GetMovementHistory(ctx, filter)
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

// GetLevels handles GET /stock/levels - current balances per product.
func (h *StockHandler) GetLevels(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.BalanceFilter{
		ExcludeZero: c.Query("excludeZero") == "true",
	}

	for _, pStr := range c.QueryArray("productId") {
		parsed, err := id.Parse(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductIDs = append(filter.ProductIDs, parsed)
	}

	balances, err := h.service.GetStockLevels(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      balances,
		TotalCount: int64(len(balances)),
	})
}

// GetTurnover handles GET /stock/turnover - receipt/expense totals for a period.
func (h *StockHandler) GetTurnover(c *gin.Context) {
	ctx := c.Request.Context()

	fromStr := c.Query("fromDate")
	toStr := c.Query("toDate")

	if fromStr == "" || toStr == "" {
		h.Error(c, apperror.NewValidation("fromDate and toDate are required"))
		return
	}

	fromDate, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
		return
	}

	toDate, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
		return
	}

	filter := stock.TurnoverFilter{
		FromDate: fromDate,
		ToDate:   toDate,
	}

	if pStr := c.Query("productId"); pStr != "" {
		parsed, err := id.Parse(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &parsed
	}

	turnover, err := h.service.GetTurnover(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, turnover)
}
