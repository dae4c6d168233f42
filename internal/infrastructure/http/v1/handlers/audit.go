package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/infrastructure/storage/postgres"
)

// auditEntityTypes are the entity types the audit trail records.
var auditEntityTypes = map[string]bool{
	"category":   true,
	"supplier":   true,
	"customer":   true,
	"product":    true,
	"sale":       true,
	"bulk_order": true,
}

// AuditHandler exposes the audit trail read surface.
type AuditHandler struct {
	*BaseHandler
	service *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, service *postgres.AuditService) *AuditHandler {
	return &AuditHandler{
		BaseHandler: base,
		service:     service,
	}
}

// History handles GET /audit/:entityType/:entityId - entity change history,
// newest first.
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("entityType")
	if !auditEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").
			WithDetail("entityType", entityType))
		return
	}

	entityID, err := id.Parse(c.Param("entityId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entityId format"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := h.service.GetEntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}
