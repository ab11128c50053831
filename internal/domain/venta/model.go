// Package venta implements the terminal consumers of the chain: local sales
// and exports drawn from a procesado, reproceso or mezcla. Quantities are
// entered in any of the six floor units and normalized to kilograms with the
// international factors (1 lb = 0.453592 kg, 1 qq = 45.36 kg), which differ
// from the 46 kg trade convention the rest of the chain persists under. Both
// conventions are load-bearing in stored data; they are not interchangeable.
package venta

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
	"beneficio/internal/domain/units"
)

// TipoVenta distinguishes local sales from exports.
type TipoVenta string

const (
	VentaLocal       TipoVenta = "LOCAL"
	VentaExportacion TipoVenta = "EXPORTACION"
)

// TipoFuente names the chain stage a sale draws from.
type TipoFuente string

const (
	FuenteProcesado TipoFuente = "PROCESADO"
	FuenteReproceso TipoFuente = "REPROCESO"
	FuenteMezcla    TipoFuente = "MEZCLA"
)

// ValidFuente reports whether t is a known source stage.
func ValidFuente(t TipoFuente) bool {
	switch t {
	case FuenteProcesado, FuenteReproceso, FuenteMezcla:
		return true
	}
	return false
}

// Venta is a sale or export. Cantidad and Unidad preserve the operator's
// entry verbatim; PesoKg is the stored canonical quantity.
type Venta struct {
	entity.BaseRecord

	Tipo       TipoVenta  `db:"tipo" json:"tipo"`
	TipoFuente TipoFuente `db:"tipo_fuente" json:"tipoFuente"`
	FuenteID   id.ID      `db:"fuente_id" json:"fuenteId"`
	Cliente    string     `db:"cliente" json:"cliente"`
	Fecha      time.Time  `db:"fecha" json:"fecha"`

	Cantidad      decimal.Decimal  `db:"cantidad" json:"cantidad"`
	Unidad        units.Unit       `db:"unidad" json:"unidad"`
	KilosPorBolsa *decimal.Decimal `db:"kilos_por_bolsa" json:"kilosPorBolsa,omitempty"`
	PesoKg        decimal.Decimal  `db:"peso_kg" json:"pesoKg"`

	PrecioTotal *decimal.Decimal `db:"precio_total" json:"precioTotal,omitempty"`

	// Export-only fields.
	PaisDestino      *string `db:"pais_destino" json:"paisDestino,omitempty"`
	NumeroContenedor *string `db:"numero_contenedor" json:"numeroContenedor,omitempty"`

	Observaciones *string `db:"observaciones" json:"observaciones,omitempty"`
}

// Validate implements entity.Validatable.
func (v *Venta) Validate(ctx context.Context) error {
	if v.Tipo != VentaLocal && v.Tipo != VentaExportacion {
		return apperror.NewInvalidInput("tipo", "must be LOCAL or EXPORTACION")
	}
	if !ValidFuente(v.TipoFuente) {
		return apperror.NewInvalidInput("tipo_fuente", "unknown source stage")
	}
	if id.IsNil(v.FuenteID) {
		return apperror.NewInvalidInput("fuente_id", "is required")
	}
	if v.Cliente == "" {
		return apperror.NewInvalidInput("cliente", "is required")
	}
	if !v.Cantidad.IsPositive() {
		return apperror.NewInvalidInput("cantidad", "must be positive")
	}
	if v.Tipo == VentaExportacion && (v.PaisDestino == nil || *v.PaisDestino == "") {
		return apperror.NewInvalidInput("pais_destino", "is required for exports")
	}
	return nil
}
