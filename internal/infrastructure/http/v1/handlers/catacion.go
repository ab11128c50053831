package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/core/apperror"
	"beneficio/internal/domain/catacion"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// CatacionHandler serves cupping evaluations.
type CatacionHandler struct {
	*BaseHandler
	service *catacion.Service
}

// NewCatacionHandler creates the catacion handler.
func NewCatacionHandler(service *catacion.Service) *CatacionHandler {
	return &CatacionHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create records a cupping evaluation of any sample stage.
// POST /api/v1/cataciones
func (h *CatacionHandler) Create(c *gin.Context) {
	var req dto.CreateCatacionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	muestraID, ok := h.ParseOptionalID(c, "muestraId", &req.MuestraID)
	if !ok || muestraID == nil {
		return
	}

	cat, err := h.service.CreateCatacion(c.Request.Context(), catacion.CreateCatacionInput{
		TipoMuestra:     catacion.TipoMuestra(req.TipoMuestra),
		MuestraID:       *muestraID,
		CodigoMuestra:   req.CodigoMuestra,
		FechaCatacion:   req.FechaCatacion,
		PesoMuestraG:    req.PesoMuestraG,
		TemperaturaAgua: req.TemperaturaAgua,
		TiempoInfusion:  req.TiempoInfusion,
		TipoTueste:      catacion.TipoTueste(req.TipoTueste),
		HumedadGrano:    req.HumedadGrano,
		Puntajes:        req.Puntajes.ToPuntajes(),
		NotasPositivas:  req.NotasPositivas,
		NotasNegativas:  req.NotasNegativas,
		Comentarios:     req.Comentarios,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, cat)
}

// Get returns an evaluation with its recorded defects.
// GET /api/v1/cataciones/:id
func (h *CatacionHandler) Get(c *gin.Context) {
	catacionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	cat, defectos, err := h.service.GetCatacion(c.Request.Context(), catacionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CatacionDetailResponse{Catacion: cat, Defectos: defectos})
}

// ListByMuestra returns a sample's evaluations, newest first.
// GET /api/v1/cataciones
func (h *CatacionHandler) ListByMuestra(c *gin.Context) {
	tipo := c.Query("tipoMuestra")
	muestraParam := c.Query("muestraId")
	if tipo == "" || muestraParam == "" {
		h.Error(c, apperror.NewValidation("tipoMuestra and muestraId are required"))
		return
	}
	muestraID, ok := h.ParseOptionalID(c, "muestraId", &muestraParam)
	if !ok || muestraID == nil {
		return
	}

	cataciones, err := h.service.ListByMuestra(c.Request.Context(), catacion.TipoMuestra(tipo), *muestraID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(cataciones))
}

// UpdatePuntajes rescores an evaluation and re-derives its total and band.
// PUT /api/v1/cataciones/:id/puntajes
func (h *CatacionHandler) UpdatePuntajes(c *gin.Context) {
	catacionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PuntajesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cat, err := h.service.UpdatePuntajes(c.Request.Context(), catacionID, req.ToPuntajes())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cat)
}

// AddDefecto records a defect count against an evaluation.
// POST /api/v1/cataciones/:id/defectos
func (h *CatacionHandler) AddDefecto(c *gin.Context) {
	catacionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddDefectoRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.AddDefecto(c.Request.Context(), catacionID,
		catacion.CategoriaDefecto(req.Categoria), req.TipoDefecto, req.Cantidad, req.Equivalente)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, d)
}
