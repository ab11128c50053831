package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateVentaRequest records a sale against a finished-stage source.
type CreateVentaRequest struct {
	Tipo          string           `json:"tipo" binding:"required"`
	TipoFuente    string           `json:"tipoFuente" binding:"required"`
	FuenteID      string           `json:"fuenteId" binding:"required"`
	Cliente       string           `json:"cliente" binding:"required"`
	Fecha         time.Time        `json:"fecha" binding:"required"`
	Cantidad      decimal.Decimal  `json:"cantidad" binding:"required"`
	Unidad        string           `json:"unidad" binding:"required"`
	KilosPorBolsa *decimal.Decimal `json:"kilosPorBolsa"`
	PrecioTotal   *decimal.Decimal `json:"precioTotal"`

	PaisDestino      *string `json:"paisDestino"`
	NumeroContenedor *string `json:"numeroContenedor"`
	Observaciones    *string `json:"observaciones"`
}
