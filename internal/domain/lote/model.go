// Package lote implements the subtractive-balance inventory chain for green
// coffee lots. Unlike the partida ledger, availability here is never stored:
// it is derived on read as the declared weight minus the sum consumed by the
// lot's processing runs.
package lote

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
	"beneficio/internal/domain/units"
)

// EstadoProcesamiento is the derived processing status of a lote.
type EstadoProcesamiento string

const (
	ProcesamientoDisponible EstadoProcesamiento = "DISPONIBLE"
	ProcesamientoParcial    EstadoProcesamiento = "PARCIAL"
	ProcesamientoCompleto   EstadoProcesamiento = "COMPLETO"
	// ProcesamientoError marks a lote whose children already consume more
	// than its declared weight. It comes from historical data loaded before
	// the availability check existed; it is a queryable state, not a fault,
	// and is never auto-corrected.
	ProcesamientoError EstadoProcesamiento = "ERROR"
)

// Lote is a received batch of green coffee. PesoKg is a mutable running
// total: every recibo adds to it on save and subtracts on delete.
type Lote struct {
	entity.BaseRecord

	Codigo        string          `db:"codigo" json:"codigo"`
	TipoCafe      string          `db:"tipo_cafe" json:"tipoCafe"`
	BodegaID      id.ID           `db:"bodega_id" json:"bodegaId"`
	PesoKg        decimal.Decimal `db:"peso_kg" json:"pesoKg"`
	Humedad       decimal.Decimal `db:"humedad" json:"humedad"`
	FechaIngreso  time.Time       `db:"fecha_ingreso" json:"fechaIngreso"`
	Proveedor     string          `db:"proveedor" json:"proveedor"`
	PrecioQuintal decimal.Decimal `db:"precio_quintal" json:"precioQuintal"`
	Observaciones *string         `db:"observaciones" json:"observaciones,omitempty"`
}

// Validate implements entity.Validatable.
func (l *Lote) Validate(ctx context.Context) error {
	if l.Codigo == "" {
		return apperror.NewInvalidInput("codigo", "is required")
	}
	if l.TipoCafe == "" {
		return apperror.NewInvalidInput("tipo_cafe", "is required")
	}
	if id.IsNil(l.BodegaID) {
		return apperror.NewInvalidInput("bodega_id", "is required")
	}
	if l.PesoKg.IsNegative() {
		return apperror.NewInvalidInput("peso_kg", "must not be negative")
	}
	if l.PrecioQuintal.IsNegative() {
		return apperror.NewInvalidInput("precio_quintal", "must not be negative")
	}
	return nil
}

// Recibo is an intake receipt. Saving one adds its weight to the owning
// lote's running total; deleting one subtracts it again.
type Recibo struct {
	ID            id.ID           `db:"id" json:"id"`
	LoteID        id.ID           `db:"lote_id" json:"loteId"`
	Numero        int64           `db:"numero" json:"numero"`
	NumeroRecibo  string          `db:"numero_recibo" json:"numeroRecibo"`
	FechaRecibo   time.Time       `db:"fecha_recibo" json:"fechaRecibo"`
	Peso          decimal.Decimal `db:"peso" json:"peso"`
	Unidad        units.Unit      `db:"unidad" json:"unidad"`
	PesoKg        decimal.Decimal `db:"peso_kg" json:"pesoKg"`
	Proveedor     string          `db:"proveedor" json:"proveedor"`
	MontoTotal    decimal.Decimal `db:"monto_total" json:"montoTotal"`
	Observaciones *string         `db:"observaciones" json:"observaciones,omitempty"`
	CreadoPor     string          `db:"creado_por" json:"creadoPor,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// Balance is the derived availability of a lote against its processing runs.
type Balance struct {
	ConsumidoKg  decimal.Decimal     `json:"consumidoKg"`
	DisponibleKg decimal.Decimal     `json:"disponibleKg"`
	ExcesoKg     decimal.Decimal     `json:"excesoKg"`
	Estado       EstadoProcesamiento `json:"estado"`
}

// Sobreprocesado reports whether consumption already exceeds the declared
// weight.
func (b Balance) Sobreprocesado() bool {
	return b.DisponibleKg.IsNegative()
}

// ComputeBalance derives a lote's availability from its declared weight and
// the total weight its active procesados consumed. Negative availability
// is reported as the ERROR state with the computed excess; downstream
// consumers treat it the same as zero available, never as a failure.
func ComputeBalance(pesoKg, consumidoKg decimal.Decimal) Balance {
	disponible := pesoKg.Sub(consumidoKg)

	b := Balance{
		ConsumidoKg:  consumidoKg,
		DisponibleKg: disponible,
		ExcesoKg:     decimal.Zero,
	}
	switch {
	case disponible.IsNegative():
		b.Estado = ProcesamientoError
		b.ExcesoKg = consumidoKg.Sub(pesoKg)
	case disponible.IsZero():
		b.Estado = ProcesamientoCompleto
	case consumidoKg.IsZero():
		b.Estado = ProcesamientoDisponible
	default:
		b.Estado = ProcesamientoParcial
	}
	return b
}
