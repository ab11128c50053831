package procesado

import (
	"context"

	"beneficio/internal/core/id"
)

// Repository persists procesados.
type Repository interface {
	Create(ctx context.Context, p *Procesado) error
	GetByID(ctx context.Context, procesadoID id.ID) (*Procesado, error)
	// GetByIDForUpdate locks the procesado row; it is the lock scope for
	// reproceso numbering and the rework availability check.
	GetByIDForUpdate(ctx context.Context, procesadoID id.ID) (*Procesado, error)
	Update(ctx context.Context, p *Procesado) error
	ListByLote(ctx context.Context, loteID id.ID, soloActivos bool) ([]Procesado, error)
}

// ReprocesoRepository persists reprocesos.
type ReprocesoRepository interface {
	Create(ctx context.Context, r *Reproceso) error
	GetByID(ctx context.Context, reprocesoID id.ID) (*Reproceso, error)
	Update(ctx context.Context, r *Reproceso) error
	ListByProcesado(ctx context.Context, procesadoID id.ID) ([]Reproceso, error)
}
