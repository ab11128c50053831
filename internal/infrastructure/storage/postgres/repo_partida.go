package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"beneficio/internal/core/id"
	"beneficio/internal/domain/partida"
)

// Compile-time checks.
var (
	_ partida.PartidaRepository    = (*PartidaRepo)(nil)
	_ partida.SubPartidaRepository = (*SubPartidaRepo)(nil)
	_ partida.MovimientoRepository = (*MovimientoRepo)(nil)
)

// PartidaRepo persists partidas.
type PartidaRepo struct {
	baseRepo[partida.Partida]
}

// NewPartidaRepo creates the partida repository.
func NewPartidaRepo(txm *TxManager) *PartidaRepo {
	return &PartidaRepo{baseRepo: newBaseRepo[partida.Partida](txm, "partidas")}
}

func (r *PartidaRepo) Create(ctx context.Context, p *partida.Partida) error {
	return r.insert(ctx, p)
}

func (r *PartidaRepo) GetByID(ctx context.Context, partidaID id.ID) (*partida.Partida, error) {
	return r.getByID(ctx, partidaID)
}

func (r *PartidaRepo) GetByIDForUpdate(ctx context.Context, partidaID id.ID) (*partida.Partida, error) {
	return r.getForUpdate(ctx, partidaID)
}

func (r *PartidaRepo) Update(ctx context.Context, p *partida.Partida) error {
	return r.update(ctx, p)
}

func (r *PartidaRepo) List(ctx context.Context, filter partida.PartidaFilter) ([]partida.Partida, error) {
	q := r.baseSelect().OrderBy("numero ASC")

	if filter.SoloActivas {
		q = q.Where(squirrel.Eq{"activo": true})
	}
	if filter.Nombre != "" {
		q = q.Where(squirrel.ILike{"nombre": "%" + filter.Nombre + "%"})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMany(ctx, q)
}

// SubPartidaRepo persists subpartidas.
type SubPartidaRepo struct {
	baseRepo[partida.SubPartida]
}

// NewSubPartidaRepo creates the subpartida repository.
func NewSubPartidaRepo(txm *TxManager) *SubPartidaRepo {
	return &SubPartidaRepo{baseRepo: newBaseRepo[partida.SubPartida](txm, "subpartidas")}
}

func (r *SubPartidaRepo) Create(ctx context.Context, s *partida.SubPartida) error {
	return r.insert(ctx, s)
}

func (r *SubPartidaRepo) GetByID(ctx context.Context, subPartidaID id.ID) (*partida.SubPartida, error) {
	return r.getByID(ctx, subPartidaID)
}

func (r *SubPartidaRepo) Update(ctx context.Context, s *partida.SubPartida) error {
	return r.update(ctx, s)
}

func (r *SubPartidaRepo) ListByPartida(ctx context.Context, partidaID id.ID, soloActivas bool) ([]partida.SubPartida, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"partida_id": partidaID}).
		OrderBy("numero ASC")

	if soloActivas {
		q = q.Where(squirrel.Eq{"activo": true})
	}

	return r.selectMany(ctx, q)
}

// MovimientoRepo persists the append-only consumption ledger. There is
// no Update: edits are modeled as delete+recreate under the partida lock.
type MovimientoRepo struct {
	baseRepo[partida.Movimiento]
}

// NewMovimientoRepo creates the movimiento repository.
func NewMovimientoRepo(txm *TxManager) *MovimientoRepo {
	return &MovimientoRepo{baseRepo: newBaseRepo[partida.Movimiento](txm, "movimientos")}
}

func (r *MovimientoRepo) Create(ctx context.Context, m *partida.Movimiento) error {
	return r.insert(ctx, m)
}

func (r *MovimientoRepo) GetByID(ctx context.Context, movimientoID id.ID) (*partida.Movimiento, error) {
	return r.getByID(ctx, movimientoID)
}

// Delete removes the ledger entry physically. Movimientos are the one
// record kind without a soft-delete flag.
func (r *MovimientoRepo) Delete(ctx context.Context, movimientoID id.ID) error {
	return r.deleteByID(ctx, movimientoID)
}

func (r *MovimientoRepo) ListBySubPartida(ctx context.Context, subPartidaID id.ID) ([]partida.Movimiento, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"subpartida_id": subPartidaID}).
		OrderBy("fecha ASC", "id ASC")

	return r.selectMany(ctx, q)
}
