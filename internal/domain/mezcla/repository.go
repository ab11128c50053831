package mezcla

import (
	"context"

	"beneficio/internal/core/id"
)

// Repository persists mezclas.
type Repository interface {
	Create(ctx context.Context, m *Mezcla) error
	GetByID(ctx context.Context, mezclaID id.ID) (*Mezcla, error)
	// GetByIDForUpdate locks the mezcla row; it is the lock scope for
	// detalle mutations and the percentage recompute.
	GetByIDForUpdate(ctx context.Context, mezclaID id.ID) (*Mezcla, error)
	Update(ctx context.Context, m *Mezcla) error
	List(ctx context.Context, soloActivas bool) ([]Mezcla, error)
}

// DetalleRepository persists blend components.
type DetalleRepository interface {
	Create(ctx context.Context, d *Detalle) error
	GetByID(ctx context.Context, detalleID id.ID) (*Detalle, error)
	Update(ctx context.Context, d *Detalle) error
	Delete(ctx context.Context, detalleID id.ID) error
	ListByMezcla(ctx context.Context, mezclaID id.ID) ([]Detalle, error)
}
