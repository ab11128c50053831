package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/domain/lote"
)

// CreateLoteRequest registers a pergamino lote.
type CreateLoteRequest struct {
	Codigo        string          `json:"codigo" binding:"required"`
	TipoCafe      string          `json:"tipoCafe" binding:"required"`
	BodegaID      string          `json:"bodegaId" binding:"required"`
	PesoKg        decimal.Decimal `json:"pesoKg" binding:"required"`
	Humedad       decimal.Decimal `json:"humedad"`
	FechaIngreso  time.Time       `json:"fechaIngreso" binding:"required"`
	Proveedor     string          `json:"proveedor"`
	PrecioQuintal decimal.Decimal `json:"precioQuintal"`
	Observaciones *string         `json:"observaciones"`
}

// UpdateLoteRequest edits descriptive fields; nil means unchanged.
type UpdateLoteRequest struct {
	TipoCafe      *string          `json:"tipoCafe"`
	Humedad       *decimal.Decimal `json:"humedad"`
	Proveedor     *string          `json:"proveedor"`
	PrecioQuintal *decimal.Decimal `json:"precioQuintal"`
	Observaciones *string          `json:"observaciones"`
}

// AddReciboRequest records an intake against a lote.
type AddReciboRequest struct {
	FechaRecibo   time.Time       `json:"fechaRecibo" binding:"required"`
	Peso          decimal.Decimal `json:"peso" binding:"required"`
	Unidad        string          `json:"unidad" binding:"required"`
	KilosPorBolsa decimal.Decimal `json:"kilosPorBolsa"`
	Proveedor     string          `json:"proveedor"`
	Observaciones *string         `json:"observaciones"`
}

// LoteDetailResponse pairs a lote with its derived processing balance.
type LoteDetailResponse struct {
	Lote    *lote.Lote   `json:"lote"`
	Balance lote.Balance `json:"balance"`
}
