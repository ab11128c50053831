package partida

import (
	"context"

	"beneficio/internal/core/id"
)

// PartidaRepository persists partidas.
type PartidaRepository interface {
	Create(ctx context.Context, p *Partida) error
	GetByID(ctx context.Context, partidaID id.ID) (*Partida, error)
	// GetByIDForUpdate locks the partida row for the rest of the
	// transaction. The partida row is the lock scope for its children:
	// subpartida numbering, ledger checks and totals recompute all run
	// under it.
	GetByIDForUpdate(ctx context.Context, partidaID id.ID) (*Partida, error)
	Update(ctx context.Context, p *Partida) error
	List(ctx context.Context, filter PartidaFilter) ([]Partida, error)
}

// PartidaFilter narrows List results.
type PartidaFilter struct {
	SoloActivas bool
	Nombre      string
	Limit       int
	Offset      int
}

// SubPartidaRepository persists subpartidas.
type SubPartidaRepository interface {
	Create(ctx context.Context, s *SubPartida) error
	GetByID(ctx context.Context, subPartidaID id.ID) (*SubPartida, error)
	Update(ctx context.Context, s *SubPartida) error
	// ListByPartida returns the partida's subpartidas; when soloActivas is
	// set, deactivated ones are excluded (they never count toward totals).
	ListByPartida(ctx context.Context, partidaID id.ID, soloActivas bool) ([]SubPartida, error)
}

// MovimientoRepository persists the consumption ledger. Movimientos are
// append-only: Create and Delete only, no update.
type MovimientoRepository interface {
	Create(ctx context.Context, m *Movimiento) error
	GetByID(ctx context.Context, movimientoID id.ID) (*Movimiento, error)
	Delete(ctx context.Context, movimientoID id.ID) error
	ListBySubPartida(ctx context.Context, subPartidaID id.ID) ([]Movimiento, error)
}
