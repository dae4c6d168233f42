package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/domain/targets"
	"everpack/internal/infrastructure/http/v1/dto"
)

// TargetHandler handles HTTP requests for sales targets.
type TargetHandler struct {
	*BaseHandler
	service *targets.Service
}

// NewTargetHandler creates a new sales target handler.
func NewTargetHandler(base *BaseHandler, service *targets.Service) *TargetHandler {
	return &TargetHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *TargetHandler) parseFilter(c *gin.Context) (targets.Filter, bool) {
	filter := targets.Filter{
		AssignedTo: c.Query("assignedTo"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	if pStr := c.Query("period"); pStr != "" {
		period := targets.Period(pStr)
		if !targets.ValidPeriod(period) {
			h.Error(c, apperror.NewValidation("invalid period"))
			return filter, false
		}
		filter.Period = &period
	}

	if aStr := c.Query("isActive"); aStr != "" {
		val := aStr == "true"
		filter.IsActive = &val
	}

	return filter, true
}

// List handles GET /targets - list targets with filters.
// With progress=true each target carries its achievement figures.
func (h *TargetHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	if c.Query("progress") == "true" {
		items, err := h.service.ListWithProgress(ctx, filter)
		if err != nil {
			h.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.ListResponse{
			Items:      items,
			TotalCount: int64(len(items)),
			Limit:      filter.Limit,
			Offset:     filter.Offset,
		})
		return
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

// Get handles GET /targets/:id.
func (h *TargetHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	targetID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	t, err := h.service.GetByID(ctx, targetID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

// Create handles POST /targets.
func (h *TargetHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTargetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := req.ToEntity()

	if err := h.service.Create(ctx, t); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", t)

	c.JSON(http.StatusCreated, t)
}

// Update handles PUT /targets/:id.
func (h *TargetHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	targetID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateTargetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.GetByID(ctx, targetID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(t)

	if err := h.service.Update(ctx, t); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", t)

	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /targets/:id.
func (h *TargetHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	targetID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, targetID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// GetAchievement handles GET /targets/:id/achievement - actual sales against
// the target for its period.
func (h *TargetHandler) GetAchievement(c *gin.Context) {
	ctx := c.Request.Context()

	targetID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	progress, err := h.service.GetProgress(ctx, targetID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
