package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/domain/alerts"
	"everpack/internal/infrastructure/http/v1/dto"
)

// AlertHandler handles HTTP requests for stock alerts.
type AlertHandler struct {
	*BaseHandler
	service *alerts.Service
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(base *BaseHandler, service *alerts.Service) *AlertHandler {
	return &AlertHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /alerts - list alerts with filters.
// Unresolved alerts only unless resolved= is given.
func (h *AlertHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := alerts.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if pStr := c.Query("productId"); pStr != "" {
		parsed, err := id.Parse(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &parsed
	}

	if tStr := c.Query("alertType"); tStr != "" {
		alertType := entity.AlertType(tStr)
		if !entity.ValidAlertType(alertType) {
			h.Error(c, apperror.NewValidation("invalid alertType"))
			return
		}
		filter.AlertType = &alertType
	}

	if rStr := c.Query("resolved"); rStr != "" {
		val := rStr == "true"
		filter.Resolved = &val
	} else {
		unresolved := false
		filter.Resolved = &unresolved
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

// Resolve handles POST /alerts/:id/resolve - manually resolve an alert.
// Resolving an already resolved alert is a no-op.
func (h *AlertHandler) Resolve(c *gin.Context) {
	ctx := c.Request.Context()

	alertID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	alert, err := h.service.ResolveAlert(ctx, alertID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", alert)

	c.JSON(http.StatusOK, alert)
}

// Sweep handles POST /alerts/sweep - re-evaluate every active product.
func (h *AlertHandler) Sweep(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.service.Sweep(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", result)

	c.JSON(http.StatusOK, result)
}
