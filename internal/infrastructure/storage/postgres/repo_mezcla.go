package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
	"beneficio/internal/domain/mezcla"
)

// Compile-time checks.
var (
	_ mezcla.Repository        = (*MezclaRepo)(nil)
	_ mezcla.DetalleRepository = (*DetalleRepo)(nil)
)

// MezclaRepo persists mezclas.
type MezclaRepo struct {
	baseRepo[mezcla.Mezcla]
}

// NewMezclaRepo creates the mezcla repository.
func NewMezclaRepo(txm *TxManager) *MezclaRepo {
	return &MezclaRepo{baseRepo: newBaseRepo[mezcla.Mezcla](txm, "mezclas")}
}

func (r *MezclaRepo) Create(ctx context.Context, m *mezcla.Mezcla) error {
	return r.insert(ctx, m)
}

func (r *MezclaRepo) GetByID(ctx context.Context, mezclaID id.ID) (*mezcla.Mezcla, error) {
	return r.getByID(ctx, mezclaID)
}

func (r *MezclaRepo) GetByIDForUpdate(ctx context.Context, mezclaID id.ID) (*mezcla.Mezcla, error) {
	return r.getForUpdate(ctx, mezclaID)
}

func (r *MezclaRepo) Update(ctx context.Context, m *mezcla.Mezcla) error {
	return r.update(ctx, m)
}

func (r *MezclaRepo) List(ctx context.Context, soloActivas bool) ([]mezcla.Mezcla, error) {
	q := r.baseSelect().OrderBy("numero ASC")

	if soloActivas {
		q = q.Where(squirrel.Eq{"activo": true})
	}

	return r.selectMany(ctx, q)
}

// DetalleRepo persists blend components. Detalles carry no version
// column; they are only ever mutated under the mezcla row lock, which
// serializes writers without optimistic locking.
type DetalleRepo struct {
	baseRepo[mezcla.Detalle]
}

// NewDetalleRepo creates the detalle repository.
func NewDetalleRepo(txm *TxManager) *DetalleRepo {
	return &DetalleRepo{baseRepo: newBaseRepo[mezcla.Detalle](txm, "mezcla_detalles")}
}

func (r *DetalleRepo) Create(ctx context.Context, d *mezcla.Detalle) error {
	return r.insert(ctx, d)
}

func (r *DetalleRepo) GetByID(ctx context.Context, detalleID id.ID) (*mezcla.Detalle, error) {
	return r.getByID(ctx, detalleID)
}

func (r *DetalleRepo) Update(ctx context.Context, d *mezcla.Detalle) error {
	q := r.builder().
		Update(r.tableName).
		Set("lote_id", d.LoteID).
		Set("peso_kg", d.PesoKg).
		Set("porcentaje", d.Porcentaje).
		Where(squirrel.Eq{"id": d.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, d.ID.String())
	}

	return nil
}

func (r *DetalleRepo) Delete(ctx context.Context, detalleID id.ID) error {
	return r.deleteByID(ctx, detalleID)
}

func (r *DetalleRepo) ListByMezcla(ctx context.Context, mezclaID id.ID) ([]mezcla.Detalle, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"mezcla_id": mezclaID}).
		OrderBy("created_at ASC", "id ASC")

	return r.selectMany(ctx, q)
}
