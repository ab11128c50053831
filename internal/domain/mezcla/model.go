// Package mezcla implements blends of lotes. A blend's component
// percentages are derived from the component weights; they are recomputed
// for every component on any change and never normalized to an exact 100%.
package mezcla

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
)

// Mezcla is a blend of coffee drawn from one or more lotes.
type Mezcla struct {
	entity.BaseRecord

	Numero      int64     `db:"numero" json:"numero"`
	Codigo      string    `db:"codigo" json:"codigo"`
	Fecha       time.Time `db:"fecha" json:"fecha"`
	Descripcion string    `db:"descripcion" json:"descripcion"`
	Destino     string    `db:"destino" json:"destino"`
	Responsable string    `db:"responsable" json:"responsable,omitempty"`

	// PesoTotalKg is derived from the detalles on every mutation.
	PesoTotalKg decimal.Decimal `db:"peso_total_kg" json:"pesoTotalKg"`
}

// Validate implements entity.Validatable.
func (m *Mezcla) Validate(ctx context.Context) error {
	if m.Descripcion == "" {
		return apperror.NewInvalidInput("descripcion", "is required")
	}
	return nil
}

// Detalle is one blend component: a weight taken from a lote. Porcentaje is
// derived, peso over the blend's total.
type Detalle struct {
	ID         id.ID           `db:"id" json:"id"`
	MezclaID   id.ID           `db:"mezcla_id" json:"mezclaId"`
	LoteID     id.ID           `db:"lote_id" json:"loteId"`
	PesoKg     decimal.Decimal `db:"peso_kg" json:"pesoKg"`
	Porcentaje decimal.Decimal `db:"porcentaje" json:"porcentaje"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// RecomputePorcentajes rewrites every detalle's percentage as its weight over
// the sum of all weights, times 100, and returns the total. Rounding is not
// adjusted to force the percentages to sum to exactly 100.
func RecomputePorcentajes(detalles []Detalle) decimal.Decimal {
	total := decimal.Zero
	for _, d := range detalles {
		total = total.Add(d.PesoKg)
	}
	for i := range detalles {
		if total.IsPositive() {
			detalles[i].Porcentaje = detalles[i].PesoKg.DivRound(total, 6).Mul(decimal.NewFromInt(100))
		} else {
			detalles[i].Porcentaje = decimal.Zero
		}
	}
	return total
}
