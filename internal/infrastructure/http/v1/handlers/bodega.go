package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/domain/bodega"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// BodegaHandler serves warehouses.
type BodegaHandler struct {
	*BaseHandler
	service *bodega.Service
}

// NewBodegaHandler creates the bodega handler.
func NewBodegaHandler(service *bodega.Service) *BodegaHandler {
	return &BodegaHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create registers a warehouse.
// POST /api/v1/bodegas
func (h *BodegaHandler) Create(c *gin.Context) {
	var req dto.CreateBodegaRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateBodega(c.Request.Context(), bodega.CreateBodegaInput{
		Codigo:      req.Codigo,
		Nombre:      req.Nombre,
		CapacidadKg: req.CapacidadKg,
		Ubicacion:   req.Ubicacion,
		Responsable: req.Responsable,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, b)
}

// List returns warehouses.
// GET /api/v1/bodegas
func (h *BodegaHandler) List(c *gin.Context) {
	bodegas, err := h.service.ListBodegas(c.Request.Context(), h.BoolQuery(c, "soloActivas"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(bodegas))
}

// Get returns a warehouse with its derived fill level.
// GET /api/v1/bodegas/:id
func (h *BodegaHandler) Get(c *gin.Context) {
	bodegaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	b, ocupacion, err := h.service.GetBodega(c.Request.Context(), bodegaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BodegaDetailResponse{Bodega: b, Ocupacion: ocupacion})
}

// Update edits a warehouse.
// PATCH /api/v1/bodegas/:id
func (h *BodegaHandler) Update(c *gin.Context) {
	bodegaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBodegaRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.UpdateBodega(c.Request.Context(), bodegaID, bodega.UpdateBodegaPatch{
		Nombre:      req.Nombre,
		CapacidadKg: req.CapacidadKg,
		Ubicacion:   req.Ubicacion,
		Responsable: req.Responsable,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}
