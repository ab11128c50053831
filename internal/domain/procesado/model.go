// Package procesado implements the trilla (hulling) stage of the chain and
// its reprocesos. Each stage consumes weight from the previous one;
// availability is derived on read, never stored.
package procesado

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
	"beneficio/internal/domain/units"
)

// Procesado is one trilla run against a lote. All weights are stored in
// kilograms; the unit tags record what the operator typed.
type Procesado struct {
	entity.BaseRecord

	LoteID       id.ID     `db:"lote_id" json:"loteId"`
	NumeroTrilla int64     `db:"numero_trilla" json:"numeroTrilla"`
	CodigoTrilla string    `db:"codigo_trilla" json:"codigoTrilla"`
	Fecha        time.Time `db:"fecha" json:"fecha"`

	PesoInicialKg     decimal.Decimal `db:"peso_inicial_kg" json:"pesoInicialKg"`
	UnidadPesoInicial units.Unit      `db:"unidad_peso_inicial" json:"unidadPesoInicial"`
	PesoFinalKg       decimal.Decimal `db:"peso_final_kg" json:"pesoFinalKg"`
	UnidadPesoFinal   units.Unit      `db:"unidad_peso_final" json:"unidadPesoFinal"`

	CafePrimeraKg decimal.Decimal `db:"cafe_primera_kg" json:"cafePrimeraKg"`
	CafeSegundaKg decimal.Decimal `db:"cafe_segunda_kg" json:"cafeSegundaKg"`

	Catadura           decimal.Decimal `db:"catadura" json:"catadura"`
	RechazoElectronica decimal.Decimal `db:"rechazo_electronica" json:"rechazoElectronica"`
	BajoZaranda        decimal.Decimal `db:"bajo_zaranda" json:"bajoZaranda"`
	Barridos           decimal.Decimal `db:"barridos" json:"barridos"`

	ReciboID      *id.ID  `db:"recibo_id" json:"reciboId,omitempty"`
	Observaciones *string `db:"observaciones" json:"observaciones,omitempty"`
	Operador      string  `db:"operador" json:"operador,omitempty"`
}

// Rendimiento is the yield percentage, peso_final over peso_inicial.
func (p *Procesado) Rendimiento() decimal.Decimal {
	if !p.PesoInicialKg.IsPositive() {
		return decimal.Zero
	}
	return p.PesoFinalKg.DivRound(p.PesoInicialKg, 6).Mul(decimal.NewFromInt(100))
}

// MermaTotal sums the four loss buckets.
func (p *Procesado) MermaTotal() decimal.Decimal {
	return p.Catadura.Add(p.RechazoElectronica).Add(p.BajoZaranda).Add(p.Barridos)
}

// Validate implements entity.Validatable.
func (p *Procesado) Validate(ctx context.Context) error {
	if id.IsNil(p.LoteID) {
		return apperror.NewInvalidInput("lote_id", "is required")
	}
	if !p.PesoInicialKg.IsPositive() {
		return apperror.NewInvalidInput("peso_inicial", "must be positive")
	}
	if p.PesoFinalKg.IsNegative() {
		return apperror.NewInvalidInput("peso_final", "must not be negative")
	}
	for _, m := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"catadura", p.Catadura},
		{"rechazo_electronica", p.RechazoElectronica},
		{"bajo_zaranda", p.BajoZaranda},
		{"barridos", p.Barridos},
	} {
		if m.value.IsNegative() {
			return apperror.NewInvalidInput(m.name, "must not be negative")
		}
	}
	return nil
}

// Reproceso is a rework pass over a procesado's output, numbered per parent.
// A re-reproceso (rework of rework output) stays under the same parent and
// keeps the per-procesado numbering.
type Reproceso struct {
	entity.BaseRecord

	ProcesadoID id.ID     `db:"procesado_id" json:"procesadoId"`
	Numero      int64     `db:"numero" json:"numero"`
	Codigo      string    `db:"codigo" json:"codigo"`
	Nombre      *string   `db:"nombre" json:"nombre,omitempty"`
	Fecha       time.Time `db:"fecha" json:"fecha"`

	PesoInicialKg     decimal.Decimal `db:"peso_inicial_kg" json:"pesoInicialKg"`
	UnidadPesoInicial units.Unit      `db:"unidad_peso_inicial" json:"unidadPesoInicial"`
	PesoFinalKg       decimal.Decimal `db:"peso_final_kg" json:"pesoFinalKg"`
	UnidadPesoFinal   units.Unit      `db:"unidad_peso_final" json:"unidadPesoFinal"`

	CafePrimeraKg decimal.Decimal `db:"cafe_primera_kg" json:"cafePrimeraKg"`
	CafeSegundaKg decimal.Decimal `db:"cafe_segunda_kg" json:"cafeSegundaKg"`

	Catadura           decimal.Decimal `db:"catadura" json:"catadura"`
	RechazoElectronica decimal.Decimal `db:"rechazo_electronica" json:"rechazoElectronica"`
	BajoZaranda        decimal.Decimal `db:"bajo_zaranda" json:"bajoZaranda"`
	Barridos           decimal.Decimal `db:"barridos" json:"barridos"`

	Motivo   string `db:"motivo" json:"motivo"`
	Operador string `db:"operador" json:"operador,omitempty"`
}

// Rendimiento is the yield percentage of the rework pass.
func (r *Reproceso) Rendimiento() decimal.Decimal {
	if !r.PesoInicialKg.IsPositive() {
		return decimal.Zero
	}
	return r.PesoFinalKg.DivRound(r.PesoInicialKg, 6).Mul(decimal.NewFromInt(100))
}

// Validate implements entity.Validatable.
func (r *Reproceso) Validate(ctx context.Context) error {
	if id.IsNil(r.ProcesadoID) {
		return apperror.NewInvalidInput("procesado_id", "is required")
	}
	if !r.PesoInicialKg.IsPositive() {
		return apperror.NewInvalidInput("peso_inicial", "must be positive")
	}
	if r.PesoFinalKg.IsNegative() {
		return apperror.NewInvalidInput("peso_final", "must not be negative")
	}
	if r.Motivo == "" {
		return apperror.NewInvalidInput("motivo", "is required")
	}
	return nil
}

// DisponibleReproceso derives how much of a procesado's output is still
// available for rework: peso_final minus what its active reprocesos already
// took. Negative values surface as-is; consumers treat them as nothing left.
func DisponibleReproceso(pesoFinalKg decimal.Decimal, reprocesos []Reproceso) decimal.Decimal {
	disponible := pesoFinalKg
	for _, r := range reprocesos {
		if !r.Activo {
			continue
		}
		disponible = disponible.Sub(r.PesoInicialKg)
	}
	return disponible
}
