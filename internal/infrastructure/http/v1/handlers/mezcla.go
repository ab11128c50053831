package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/domain/mezcla"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// MezclaHandler serves blends and their lote components.
type MezclaHandler struct {
	*BaseHandler
	service *mezcla.Service
}

// NewMezclaHandler creates the mezcla handler.
func NewMezclaHandler(service *mezcla.Service) *MezclaHandler {
	return &MezclaHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create opens an empty blend.
// POST /api/v1/mezclas
func (h *MezclaHandler) Create(c *gin.Context) {
	var req dto.CreateMezclaRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.CreateMezcla(c.Request.Context(), mezcla.CreateMezclaInput{
		Fecha:       req.Fecha,
		Descripcion: req.Descripcion,
		Destino:     req.Destino,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, m)
}

// List returns blends.
// GET /api/v1/mezclas
func (h *MezclaHandler) List(c *gin.Context) {
	mezclas, err := h.service.ListMezclas(c.Request.Context(), h.BoolQuery(c, "soloActivas"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(mezclas))
}

// Get returns a blend with its components.
// GET /api/v1/mezclas/:id
func (h *MezclaHandler) Get(c *gin.Context) {
	mezclaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	m, detalles, err := h.service.GetMezcla(c.Request.Context(), mezclaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.MezclaDetailResponse{Mezcla: m, Detalles: detalles})
}

// Deactivate soft-deletes a blend, releasing its components' weight.
// POST /api/v1/mezclas/:id/deactivate
func (h *MezclaHandler) Deactivate(c *gin.Context) {
	mezclaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateMezcla(c.Request.Context(), mezclaID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AddDetalle adds a lote component to a blend.
// POST /api/v1/mezclas/:id/detalles
func (h *MezclaHandler) AddDetalle(c *gin.Context) {
	mezclaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddDetalleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	loteID, ok := h.ParseOptionalID(c, "loteId", &req.LoteID)
	if !ok || loteID == nil {
		return
	}

	d, err := h.service.AddDetalle(c.Request.Context(), mezcla.AddDetalleInput{
		MezclaID: mezclaID,
		LoteID:   *loteID,
		PesoKg:   req.PesoKg,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, d)
}

// ResizeDetalle changes a component's weight and rebalances percentages.
// PATCH /api/v1/detalles/:id
func (h *MezclaHandler) ResizeDetalle(c *gin.Context) {
	detalleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ResizeDetalleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.ResizeDetalle(c.Request.Context(), detalleID, req.PesoKg)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// RemoveDetalle drops a component and rebalances percentages.
// DELETE /api/v1/detalles/:id
func (h *MezclaHandler) RemoveDetalle(c *gin.Context) {
	detalleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.RemoveDetalle(c.Request.Context(), detalleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
