package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"beneficio/internal/core/id"
	"beneficio/internal/domain/lote"
	"beneficio/internal/domain/procesado"
)

// Compile-time checks.
var (
	_ procesado.Repository          = (*ProcesadoRepo)(nil)
	_ procesado.ReprocesoRepository = (*ReprocesoRepo)(nil)
	_ lote.ConsumoReader            = (*ProcesadoRepo)(nil)
)

// ProcesadoRepo persists procesados (trillas). It also implements
// lote.ConsumoReader: a lote's consumed weight is the sum of the initial
// weights of its active procesados, derived here on every read.
type ProcesadoRepo struct {
	baseRepo[procesado.Procesado]
}

// NewProcesadoRepo creates the procesado repository.
func NewProcesadoRepo(txm *TxManager) *ProcesadoRepo {
	return &ProcesadoRepo{baseRepo: newBaseRepo[procesado.Procesado](txm, "procesados")}
}

func (r *ProcesadoRepo) Create(ctx context.Context, p *procesado.Procesado) error {
	return r.insert(ctx, p)
}

func (r *ProcesadoRepo) GetByID(ctx context.Context, procesadoID id.ID) (*procesado.Procesado, error) {
	return r.getByID(ctx, procesadoID)
}

func (r *ProcesadoRepo) GetByIDForUpdate(ctx context.Context, procesadoID id.ID) (*procesado.Procesado, error) {
	return r.getForUpdate(ctx, procesadoID)
}

func (r *ProcesadoRepo) Update(ctx context.Context, p *procesado.Procesado) error {
	return r.update(ctx, p)
}

func (r *ProcesadoRepo) ListByLote(ctx context.Context, loteID id.ID, soloActivos bool) ([]procesado.Procesado, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"lote_id": loteID}).
		OrderBy("numero_trilla ASC")

	if soloActivos {
		q = q.Where(squirrel.Eq{"activo": true})
	}

	return r.selectMany(ctx, q)
}

// ConsumoTotal implements lote.ConsumoReader. Deactivated procesados do
// not count: deactivating one frees the lote availability it consumed.
func (r *ProcesadoRepo) ConsumoTotal(ctx context.Context, loteID id.ID) (decimal.Decimal, error) {
	q := r.builder().
		Select("COALESCE(SUM(peso_inicial_kg), 0)").
		From(r.tableName).
		Where(squirrel.Eq{"lote_id": loteID}).
		Where(squirrel.Eq{"activo": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}

	var total decimal.Decimal
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum lote consumption: %w", err)
	}

	return total, nil
}

// ReprocesoRepo persists reprocesos.
type ReprocesoRepo struct {
	baseRepo[procesado.Reproceso]
}

// NewReprocesoRepo creates the reproceso repository.
func NewReprocesoRepo(txm *TxManager) *ReprocesoRepo {
	return &ReprocesoRepo{baseRepo: newBaseRepo[procesado.Reproceso](txm, "reprocesos")}
}

func (r *ReprocesoRepo) Create(ctx context.Context, rep *procesado.Reproceso) error {
	return r.insert(ctx, rep)
}

func (r *ReprocesoRepo) GetByID(ctx context.Context, reprocesoID id.ID) (*procesado.Reproceso, error) {
	return r.getByID(ctx, reprocesoID)
}

func (r *ReprocesoRepo) Update(ctx context.Context, rep *procesado.Reproceso) error {
	return r.update(ctx, rep)
}

func (r *ReprocesoRepo) ListByProcesado(ctx context.Context, procesadoID id.ID) ([]procesado.Reproceso, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"procesado_id": procesadoID}).
		OrderBy("numero ASC")

	return r.selectMany(ctx, q)
}
