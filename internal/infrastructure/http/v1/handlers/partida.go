package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/domain/partida"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// PartidaHandler serves partidas, subpartidas and their movement ledger.
type PartidaHandler struct {
	*BaseHandler
	service *partida.Service
}

// NewPartidaHandler creates the partida handler.
func NewPartidaHandler(service *partida.Service) *PartidaHandler {
	return &PartidaHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create opens a partida container.
// POST /api/v1/partidas
func (h *PartidaHandler) Create(c *gin.Context) {
	var req dto.CreatePartidaRequest
	if !h.BindJSON(c, &req) {
		return
	}
	bodegaID, ok := h.ParseOptionalID(c, "bodegaId", req.BodegaID)
	if !ok {
		return
	}

	p, err := h.service.CreatePartida(c.Request.Context(), partida.CreatePartidaInput{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		BodegaID:    bodegaID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, p)
}

// List returns partidas matching the filter.
// GET /api/v1/partidas
func (h *PartidaHandler) List(c *gin.Context) {
	filter := partida.PartidaFilter{
		SoloActivas: h.BoolQuery(c, "soloActivas"),
		Nombre:      c.Query("nombre"),
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	partidas, err := h.service.ListPartidas(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(partidas))
}

// Get returns one partida.
// GET /api/v1/partidas/:id
func (h *PartidaHandler) Get(c *gin.Context) {
	partidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetPartida(c.Request.Context(), partidaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Deactivate soft-deletes a partida and everything under it.
// POST /api/v1/partidas/:id/deactivate
func (h *PartidaHandler) Deactivate(c *gin.Context) {
	partidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivatePartida(c.Request.Context(), partidaID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreateSubPartida adds a stock unit under a partida.
// POST /api/v1/partidas/:id/subpartidas
func (h *PartidaHandler) CreateSubPartida(c *gin.Context) {
	partidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateSubPartidaRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sp, err := h.service.CreateSubPartida(c.Request.Context(), partida.CreateSubPartidaInput{
		PartidaID:    partidaID,
		Nombre:       req.Nombre,
		TipoProceso:  partida.TipoProceso(req.TipoProceso),
		Quintales:    req.Quintales,
		PesoBrutoKg:  req.PesoBrutoKg,
		TaraKg:       req.TaraKg,
		NumeroSacos:  req.NumeroSacos,
		FechaIngreso: req.FechaIngreso,
		Calidad:      req.Calidad.ToCalidad(),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, sp)
}

// ListSubPartidas returns a partida's stock units.
// GET /api/v1/partidas/:id/subpartidas
func (h *PartidaHandler) ListSubPartidas(c *gin.Context) {
	partidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	subpartidas, err := h.service.ListSubPartidas(c.Request.Context(), partidaID, h.BoolQuery(c, "soloActivas"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(subpartidas))
}

// GetSubPartida returns a stock unit with its ledger-derived availability.
// GET /api/v1/subpartidas/:id
func (h *PartidaHandler) GetSubPartida(c *gin.Context) {
	subPartidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	sp, disponibles, err := h.service.GetSubPartida(c.Request.Context(), subPartidaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SubPartidaDetailResponse{SubPartida: sp, Disponibles: disponibles})
}

// UpdateSubPartida edits a stock unit's declared fields.
// PATCH /api/v1/subpartidas/:id
func (h *PartidaHandler) UpdateSubPartida(c *gin.Context) {
	subPartidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSubPartidaRequest
	if !h.BindJSON(c, &req) {
		return
	}

	patch := partida.SubPartidaPatch{
		Nombre:       req.Nombre,
		Quintales:    req.Quintales,
		PesoBrutoKg:  req.PesoBrutoKg,
		TaraKg:       req.TaraKg,
		NumeroSacos:  req.NumeroSacos,
		FechaIngreso: req.FechaIngreso,
	}
	if req.TipoProceso != nil {
		tp := partida.TipoProceso(*req.TipoProceso)
		patch.TipoProceso = &tp
	}
	if req.Calidad != nil {
		cal := req.Calidad.ToCalidad()
		patch.Calidad = &cal
	}

	sp, err := h.service.UpdateSubPartida(c.Request.Context(), subPartidaID, patch)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sp)
}

// DeactivateSubPartida soft-deletes a stock unit.
// POST /api/v1/subpartidas/:id/deactivate
func (h *PartidaHandler) DeactivateSubPartida(c *gin.Context) {
	subPartidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateSubPartida(c.Request.Context(), subPartidaID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreateMovimiento appends a consumption entry to a subpartida's ledger.
// POST /api/v1/subpartidas/:id/movimientos
func (h *PartidaHandler) CreateMovimiento(c *gin.Context) {
	subPartidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateMovimientoRequest
	if !h.BindJSON(c, &req) {
		return
	}
	destinoID, ok := h.ParseOptionalID(c, "destinoId", req.DestinoID)
	if !ok {
		return
	}

	result, err := h.service.ApplyMovimiento(c.Request.Context(), partida.ApplyMovimientoInput{
		SubPartidaID:  subPartidaID,
		TipoDestino:   partida.TipoDestino(req.TipoDestino),
		DestinoID:     destinoID,
		Quintales:     req.Quintales,
		Observaciones: req.Observaciones,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.MovimientoResponse{
		Movimiento:  result.Movimiento,
		Disponibles: result.Disponibles,
		Estado:      result.Estado,
	})
}

// ListMovimientos returns a subpartida's ledger, oldest first.
// GET /api/v1/subpartidas/:id/movimientos
func (h *PartidaHandler) ListMovimientos(c *gin.Context) {
	subPartidaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	movimientos, err := h.service.ListMovimientos(c.Request.Context(), subPartidaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movimientos))
}

// DeleteMovimiento removes a ledger entry and re-derives the state.
// DELETE /api/v1/movimientos/:id
func (h *PartidaHandler) DeleteMovimiento(c *gin.Context) {
	movimientoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.DeleteMovimiento(c.Request.Context(), movimientoID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.MovimientoResponse{
		Movimiento:  result.Movimiento,
		Disponibles: result.Disponibles,
		Estado:      result.Estado,
	})
}
