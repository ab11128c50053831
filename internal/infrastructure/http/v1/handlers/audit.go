package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/infrastructure/http/v1/dto"
	"beneficio/internal/infrastructure/storage/postgres"
)

// AuditHandler exposes the change history of any audited entity.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates the audit handler.
func NewAuditHandler(audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: NewBaseHandler(), audit: audit}
}

// History returns an entity's audit trail, newest first. Admin only.
// GET /api/v1/audit/:entityType/:id
func (h *AuditHandler) History(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 100)

	rows, err := h.audit.GetEntityHistory(c.Request.Context(), c.Param("entityType"), entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(rows))
}
