package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/domain/units"
	"beneficio/internal/domain/venta"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// VentaHandler serves sales.
type VentaHandler struct {
	*BaseHandler
	service *venta.Service
}

// NewVentaHandler creates the venta handler.
func NewVentaHandler(service *venta.Service) *VentaHandler {
	return &VentaHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create records a sale against a finished-stage source.
// POST /api/v1/ventas
func (h *VentaHandler) Create(c *gin.Context) {
	var req dto.CreateVentaRequest
	if !h.BindJSON(c, &req) {
		return
	}
	fuenteID, ok := h.ParseOptionalID(c, "fuenteId", &req.FuenteID)
	if !ok || fuenteID == nil {
		return
	}

	v, err := h.service.CreateVenta(c.Request.Context(), venta.CreateVentaInput{
		Tipo:             venta.TipoVenta(req.Tipo),
		TipoFuente:       venta.TipoFuente(req.TipoFuente),
		FuenteID:         *fuenteID,
		Cliente:          req.Cliente,
		Fecha:            req.Fecha,
		Cantidad:         req.Cantidad,
		Unidad:           units.Unit(req.Unidad),
		KilosPorBolsa:    req.KilosPorBolsa,
		PrecioTotal:      req.PrecioTotal,
		PaisDestino:      req.PaisDestino,
		NumeroContenedor: req.NumeroContenedor,
		Observaciones:    req.Observaciones,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, v)
}

// List returns sales matching the filter.
// GET /api/v1/ventas
func (h *VentaHandler) List(c *gin.Context) {
	filter := venta.Filter{
		SoloActivas: h.BoolQuery(c, "soloActivas"),
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("tipo"); v != "" {
		tipo := venta.TipoVenta(v)
		filter.Tipo = &tipo
	}
	if v := c.Query("tipoFuente"); v != "" {
		tf := venta.TipoFuente(v)
		filter.TipoFuente = &tf
	}
	if v := c.Query("fuenteId"); v != "" {
		fuenteID, ok := h.ParseOptionalID(c, "fuenteId", &v)
		if !ok {
			return
		}
		filter.FuenteID = fuenteID
	}

	ventas, err := h.service.ListVentas(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(ventas))
}

// ListExportaciones returns export sales only. Same filter surface as List
// minus the tipo parameter.
// GET /api/v1/exportaciones
func (h *VentaHandler) ListExportaciones(c *gin.Context) {
	tipo := venta.VentaExportacion
	filter := venta.Filter{
		Tipo:        &tipo,
		SoloActivas: h.BoolQuery(c, "soloActivas"),
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("tipoFuente"); v != "" {
		tf := venta.TipoFuente(v)
		filter.TipoFuente = &tf
	}

	ventas, err := h.service.ListVentas(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(ventas))
}

// Get returns one sale.
// GET /api/v1/ventas/:id
func (h *VentaHandler) Get(c *gin.Context) {
	ventaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	v, err := h.service.GetVenta(c.Request.Context(), ventaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Deactivate soft-deletes a sale, returning its weight to the source.
// POST /api/v1/ventas/:id/deactivate
func (h *VentaHandler) Deactivate(c *gin.Context) {
	ventaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateVenta(c.Request.Context(), ventaID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
