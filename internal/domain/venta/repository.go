package venta

import (
	"context"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/id"
)

// Filter narrows venta listings.
type Filter struct {
	Tipo        *TipoVenta
	TipoFuente  *TipoFuente
	FuenteID    *id.ID
	SoloActivas bool
	Limit       int
	Offset      int
}

// Repository persists ventas.
type Repository interface {
	Create(ctx context.Context, v *Venta) error
	GetByID(ctx context.Context, ventaID id.ID) (*Venta, error)
	Update(ctx context.Context, v *Venta) error
	List(ctx context.Context, filter Filter) ([]Venta, error)
}

// FuenteReader reads a source stage's remaining weight under its row lock.
// The returned kilograms already discount the stage's active ventas, so the
// availability gate and the insert serialize on the source row. A negative
// or zero result means nothing left to allocate; it is never an error.
type FuenteReader interface {
	DisponibleForUpdate(ctx context.Context, tipo TipoFuente, fuenteID id.ID) (decimal.Decimal, error)
}
