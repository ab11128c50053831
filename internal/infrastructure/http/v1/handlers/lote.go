package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/core/apperror"
	"beneficio/internal/domain/lote"
	"beneficio/internal/domain/units"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// LoteHandler serves pergamino lotes and their intake receipts.
type LoteHandler struct {
	*BaseHandler
	service *lote.Service
}

// NewLoteHandler creates the lote handler.
func NewLoteHandler(service *lote.Service) *LoteHandler {
	return &LoteHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create registers a lote.
// POST /api/v1/lotes
func (h *LoteHandler) Create(c *gin.Context) {
	var req dto.CreateLoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	bodegaID, ok := h.ParseOptionalID(c, "bodegaId", &req.BodegaID)
	if !ok {
		return
	}
	if bodegaID == nil {
		h.Error(c, apperror.NewValidation("bodegaId is required").WithDetail("field", "bodegaId"))
		return
	}

	l, err := h.service.CreateLote(c.Request.Context(), lote.CreateLoteInput{
		Codigo:        req.Codigo,
		TipoCafe:      req.TipoCafe,
		BodegaID:      *bodegaID,
		PesoKg:        req.PesoKg,
		Humedad:       req.Humedad,
		FechaIngreso:  req.FechaIngreso,
		Proveedor:     req.Proveedor,
		PrecioQuintal: req.PrecioQuintal,
		Observaciones: req.Observaciones,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, l)
}

// List returns lotes matching the filter.
// GET /api/v1/lotes
func (h *LoteHandler) List(c *gin.Context) {
	filter := lote.Filter{
		SoloActivos: h.BoolQuery(c, "soloActivos"),
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("bodegaId"); v != "" {
		bodegaID, ok := h.ParseOptionalID(c, "bodegaId", &v)
		if !ok {
			return
		}
		filter.BodegaID = bodegaID
	}
	if v := c.Query("tipoCafe"); v != "" {
		filter.TipoCafe = &v
	}

	lotes, err := h.service.ListLotes(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(lotes))
}

// Get returns a lote with its derived processing balance.
// GET /api/v1/lotes/:id
func (h *LoteHandler) Get(c *gin.Context) {
	loteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	l, balance, err := h.service.GetLote(c.Request.Context(), loteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.LoteDetailResponse{Lote: l, Balance: balance})
}

// Update edits a lote's descriptive fields.
// PATCH /api/v1/lotes/:id
func (h *LoteHandler) Update(c *gin.Context) {
	loteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	l, err := h.service.UpdateLote(c.Request.Context(), loteID, lote.UpdateLotePatch{
		TipoCafe:      req.TipoCafe,
		Humedad:       req.Humedad,
		Proveedor:     req.Proveedor,
		PrecioQuintal: req.PrecioQuintal,
		Observaciones: req.Observaciones,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, l)
}

// Deactivate soft-deletes a lote.
// POST /api/v1/lotes/:id/deactivate
func (h *LoteHandler) Deactivate(c *gin.Context) {
	loteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateLote(c.Request.Context(), loteID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AddRecibo records an intake against a lote.
// POST /api/v1/lotes/:id/recibos
func (h *LoteHandler) AddRecibo(c *gin.Context) {
	loteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddReciboRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.AddRecibo(c.Request.Context(), lote.AddReciboInput{
		LoteID:        loteID,
		FechaRecibo:   req.FechaRecibo,
		Peso:          req.Peso,
		Unidad:        units.Unit(req.Unidad),
		KilosPorBolsa: req.KilosPorBolsa,
		Proveedor:     req.Proveedor,
		Observaciones: req.Observaciones,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, rec)
}

// ListRecibos returns a lote's intake receipts.
// GET /api/v1/lotes/:id/recibos
func (h *LoteHandler) ListRecibos(c *gin.Context) {
	loteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	recibos, err := h.service.ListRecibos(c.Request.Context(), loteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(recibos))
}

// DeleteRecibo removes an intake and subtracts its weight from the lote.
// DELETE /api/v1/recibos/:id
func (h *LoteHandler) DeleteRecibo(c *gin.Context) {
	reciboID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRecibo(c.Request.Context(), reciboID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
