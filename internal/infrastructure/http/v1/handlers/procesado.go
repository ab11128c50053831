package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/domain/procesado"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// ProcesadoHandler serves trilla runs and their reworks.
type ProcesadoHandler struct {
	*BaseHandler
	service *procesado.Service
}

// NewProcesadoHandler creates the procesado handler.
func NewProcesadoHandler(service *procesado.Service) *ProcesadoHandler {
	return &ProcesadoHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create starts a trilla run against a lote.
// POST /api/v1/lotes/:id/procesados
func (h *ProcesadoHandler) Create(c *gin.Context) {
	loteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateProcesadoRequest
	if !h.BindJSON(c, &req) {
		return
	}
	reciboID, ok := h.ParseOptionalID(c, "reciboId", req.ReciboID)
	if !ok {
		return
	}

	result, err := h.service.CreateProcesado(c.Request.Context(), procesado.CreateProcesadoInput{
		LoteID:        loteID,
		Fecha:         req.Fecha,
		Pesos:         req.Pesos.ToPesos(),
		CafePrimeraKg: req.CafePrimeraKg,
		CafeSegundaKg: req.CafeSegundaKg,
		Mermas:        req.Mermas.ToMermas(),
		ReciboID:      reciboID,
		Observaciones: req.Observaciones,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.ProcesadoResponse{
		Procesado:        result.Procesado,
		LoteDisponibleKg: result.LoteDisponibleKg,
	})
}

// ListByLote returns a lote's trilla runs.
// GET /api/v1/lotes/:id/procesados
func (h *ProcesadoHandler) ListByLote(c *gin.Context) {
	loteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	procesados, err := h.service.ListProcesados(c.Request.Context(), loteID, h.BoolQuery(c, "soloActivos"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(procesados))
}

// Get returns a trilla run with its remaining reworkable weight.
// GET /api/v1/procesados/:id
func (h *ProcesadoHandler) Get(c *gin.Context) {
	procesadoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, disponibleKg, err := h.service.GetProcesado(c.Request.Context(), procesadoID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"procesado":    p,
		"disponibleKg": disponibleKg,
	})
}

// Deactivate soft-deletes a trilla run, returning its weight to the lote.
// POST /api/v1/procesados/:id/deactivate
func (h *ProcesadoHandler) Deactivate(c *gin.Context) {
	procesadoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateProcesado(c.Request.Context(), procesadoID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreateReproceso starts a rework pass over a procesado's output.
// POST /api/v1/procesados/:id/reprocesos
func (h *ProcesadoHandler) CreateReproceso(c *gin.Context) {
	procesadoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateReprocesoRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateReproceso(c.Request.Context(), procesado.CreateReprocesoInput{
		ProcesadoID:   procesadoID,
		Nombre:        req.Nombre,
		Fecha:         req.Fecha,
		Pesos:         req.Pesos.ToPesos(),
		CafePrimeraKg: req.CafePrimeraKg,
		CafeSegundaKg: req.CafeSegundaKg,
		Mermas:        req.Mermas.ToMermas(),
		Motivo:        req.Motivo,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.ReprocesoResponse{
		Reproceso:             result.Reproceso,
		ProcesadoDisponibleKg: result.ProcesadoDisponibleKg,
	})
}

// ListReprocesos returns a procesado's rework passes.
// GET /api/v1/procesados/:id/reprocesos
func (h *ProcesadoHandler) ListReprocesos(c *gin.Context) {
	procesadoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	reprocesos, err := h.service.ListReprocesos(c.Request.Context(), procesadoID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(reprocesos))
}

// DeactivateReproceso soft-deletes a rework, returning its weight to the
// procesado.
// POST /api/v1/reprocesos/:id/deactivate
func (h *ProcesadoHandler) DeactivateReproceso(c *gin.Context) {
	reprocesoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateReproceso(c.Request.Context(), reprocesoID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
