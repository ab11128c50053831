package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/domain/mezcla"
)

// CreateMezclaRequest opens an empty blend.
type CreateMezclaRequest struct {
	Fecha       time.Time `json:"fecha" binding:"required"`
	Descripcion string    `json:"descripcion"`
	Destino     string    `json:"destino"`
}

// AddDetalleRequest adds a lote component to a blend.
type AddDetalleRequest struct {
	LoteID string          `json:"loteId" binding:"required"`
	PesoKg decimal.Decimal `json:"pesoKg" binding:"required"`
}

// ResizeDetalleRequest changes a component's weight.
type ResizeDetalleRequest struct {
	PesoKg decimal.Decimal `json:"pesoKg" binding:"required"`
}

// MezclaDetailResponse pairs a blend with its components.
type MezclaDetailResponse struct {
	Mezcla   *mezcla.Mezcla   `json:"mezcla"`
	Detalles []mezcla.Detalle `json:"detalles"`
}
