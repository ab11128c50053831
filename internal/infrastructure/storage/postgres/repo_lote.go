package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"beneficio/internal/core/id"
	"beneficio/internal/domain/bodega"
	"beneficio/internal/domain/lote"
)

// Compile-time checks.
var (
	_ lote.Repository        = (*LoteRepo)(nil)
	_ lote.ReciboRepository  = (*ReciboRepo)(nil)
	_ bodega.OcupacionReader = (*LoteRepo)(nil)
)

// LoteRepo persists lotes. It also implements bodega.OcupacionReader:
// warehouse occupancy is the sum of active lote weights, derived here
// instead of being stored on the bodega row.
type LoteRepo struct {
	baseRepo[lote.Lote]
}

// NewLoteRepo creates the lote repository.
func NewLoteRepo(txm *TxManager) *LoteRepo {
	return &LoteRepo{baseRepo: newBaseRepo[lote.Lote](txm, "lotes")}
}

func (r *LoteRepo) Create(ctx context.Context, l *lote.Lote) error {
	return r.insert(ctx, l)
}

func (r *LoteRepo) GetByID(ctx context.Context, loteID id.ID) (*lote.Lote, error) {
	return r.getByID(ctx, loteID)
}

func (r *LoteRepo) GetByIDForUpdate(ctx context.Context, loteID id.ID) (*lote.Lote, error) {
	return r.getForUpdate(ctx, loteID)
}

func (r *LoteRepo) GetByCodigo(ctx context.Context, codigo string) (*lote.Lote, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"codigo": codigo}).
		Limit(1)

	return r.findOne(ctx, q, codigo)
}

func (r *LoteRepo) Update(ctx context.Context, l *lote.Lote) error {
	return r.update(ctx, l)
}

func (r *LoteRepo) List(ctx context.Context, filter lote.Filter) ([]lote.Lote, error) {
	q := r.baseSelect().OrderBy("fecha_ingreso DESC", "codigo ASC")

	if filter.SoloActivos {
		q = q.Where(squirrel.Eq{"activo": true})
	}
	if filter.BodegaID != nil {
		q = q.Where(squirrel.Eq{"bodega_id": *filter.BodegaID})
	}
	if filter.TipoCafe != nil {
		q = q.Where(squirrel.Eq{"tipo_cafe": *filter.TipoCafe})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMany(ctx, q)
}

// PesoOcupado implements bodega.OcupacionReader: total weight of the
// bodega's active lotes.
func (r *LoteRepo) PesoOcupado(ctx context.Context, bodegaID id.ID) (decimal.Decimal, error) {
	q := r.builder().
		Select("COALESCE(SUM(peso_kg), 0)").
		From(r.tableName).
		Where(squirrel.Eq{"bodega_id": bodegaID}).
		Where(squirrel.Eq{"activo": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}

	var total decimal.Decimal
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum bodega occupancy: %w", err)
	}

	return total, nil
}

// ReciboRepo persists intake receipts.
type ReciboRepo struct {
	baseRepo[lote.Recibo]
}

// NewReciboRepo creates the recibo repository.
func NewReciboRepo(txm *TxManager) *ReciboRepo {
	return &ReciboRepo{baseRepo: newBaseRepo[lote.Recibo](txm, "recibos")}
}

func (r *ReciboRepo) Create(ctx context.Context, rec *lote.Recibo) error {
	return r.insert(ctx, rec)
}

func (r *ReciboRepo) GetByID(ctx context.Context, reciboID id.ID) (*lote.Recibo, error) {
	return r.getByID(ctx, reciboID)
}

// Delete removes the receipt physically; the caller subtracts its weight
// from the lote total under the lote row lock.
func (r *ReciboRepo) Delete(ctx context.Context, reciboID id.ID) error {
	return r.deleteByID(ctx, reciboID)
}

func (r *ReciboRepo) ListByLote(ctx context.Context, loteID id.ID) ([]lote.Recibo, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"lote_id": loteID}).
		OrderBy("numero ASC")

	return r.selectMany(ctx, q)
}
