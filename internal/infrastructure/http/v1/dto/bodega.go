package dto

import (
	"github.com/shopspring/decimal"

	"beneficio/internal/domain/bodega"
)

// CreateBodegaRequest registers a warehouse.
type CreateBodegaRequest struct {
	Codigo      string          `json:"codigo" binding:"required"`
	Nombre      string          `json:"nombre" binding:"required"`
	CapacidadKg decimal.Decimal `json:"capacidadKg" binding:"required"`
	Ubicacion   string          `json:"ubicacion"`
	Responsable string          `json:"responsable"`
}

// UpdateBodegaRequest edits a warehouse; nil means unchanged.
type UpdateBodegaRequest struct {
	Nombre      *string          `json:"nombre"`
	CapacidadKg *decimal.Decimal `json:"capacidadKg"`
	Ubicacion   *string          `json:"ubicacion"`
	Responsable *string          `json:"responsable"`
}

// BodegaDetailResponse pairs a warehouse with its derived fill level.
type BodegaDetailResponse struct {
	Bodega    *bodega.Bodega   `json:"bodega"`
	Ocupacion bodega.Ocupacion `json:"ocupacion"`
}
