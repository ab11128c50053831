package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
	"beneficio/internal/domain/venta"
)

// Compile-time checks.
var (
	_ venta.Repository   = (*VentaRepo)(nil)
	_ venta.FuenteReader = (*FuenteRepo)(nil)
)

// VentaRepo persists ventas.
type VentaRepo struct {
	baseRepo[venta.Venta]
}

// NewVentaRepo creates the venta repository.
func NewVentaRepo(txm *TxManager) *VentaRepo {
	return &VentaRepo{baseRepo: newBaseRepo[venta.Venta](txm, "ventas")}
}

func (r *VentaRepo) Create(ctx context.Context, v *venta.Venta) error {
	return r.insert(ctx, v)
}

func (r *VentaRepo) GetByID(ctx context.Context, ventaID id.ID) (*venta.Venta, error) {
	return r.getByID(ctx, ventaID)
}

func (r *VentaRepo) Update(ctx context.Context, v *venta.Venta) error {
	return r.update(ctx, v)
}

func (r *VentaRepo) List(ctx context.Context, filter venta.Filter) ([]venta.Venta, error) {
	q := r.baseSelect().OrderBy("fecha DESC", "created_at DESC")

	if filter.Tipo != nil {
		q = q.Where(squirrel.Eq{"tipo": *filter.Tipo})
	}
	if filter.TipoFuente != nil {
		q = q.Where(squirrel.Eq{"tipo_fuente": *filter.TipoFuente})
	}
	if filter.FuenteID != nil {
		q = q.Where(squirrel.Eq{"fuente_id": *filter.FuenteID})
	}
	if filter.SoloActivas {
		q = q.Where(squirrel.Eq{"activo": true})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMany(ctx, q)
}

// FuenteRepo reads a sale source's remaining weight. The source row is
// locked FOR UPDATE first, so the availability check and the venta insert
// that follows serialize on it. A negative result is returned as-is:
// historical rows may already be oversold and read paths must surface
// that, not fail on it.
type FuenteRepo struct {
	txm *TxManager
}

// NewFuenteRepo creates the sale source reader.
func NewFuenteRepo(txm *TxManager) *FuenteRepo {
	return &FuenteRepo{txm: txm}
}

// DisponibleForUpdate implements venta.FuenteReader.
func (r *FuenteRepo) DisponibleForUpdate(ctx context.Context, tipo venta.TipoFuente, fuenteID id.ID) (decimal.Decimal, error) {
	base, err := r.lockSource(ctx, tipo, fuenteID)
	if err != nil {
		return decimal.Zero, err
	}

	vendido, err := r.vendido(ctx, tipo, fuenteID)
	if err != nil {
		return decimal.Zero, err
	}

	return base.Sub(vendido), nil
}

// lockSource locks the source row and returns its sellable base weight.
// For procesados the base already discounts active reprocesos: weight
// pulled into rework is not sellable from the parent.
func (r *FuenteRepo) lockSource(ctx context.Context, tipo venta.TipoFuente, fuenteID id.ID) (decimal.Decimal, error) {
	var sql string
	switch tipo {
	case venta.FuenteProcesado:
		sql = `
			SELECT p.peso_final_kg - COALESCE((
				SELECT SUM(rp.peso_inicial_kg)
				FROM reprocesos rp
				WHERE rp.procesado_id = p.id AND rp.activo
			), 0)
			FROM procesados p
			WHERE p.id = $1
			FOR UPDATE OF p
		`
	case venta.FuenteReproceso:
		sql = `SELECT peso_final_kg FROM reprocesos WHERE id = $1 FOR UPDATE`
	case venta.FuenteMezcla:
		sql = `SELECT peso_total_kg FROM mezclas WHERE id = $1 FOR UPDATE`
	default:
		return decimal.Zero, apperror.NewInvalidInput("tipo_fuente", fmt.Sprintf("unknown source kind %q", tipo))
	}

	var base decimal.Decimal
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, fuenteID).Scan(&base); err != nil {
		if pgxscan.NotFound(err) {
			return decimal.Zero, apperror.NewNotFound(string(tipo), fuenteID.String())
		}
		return decimal.Zero, fmt.Errorf("lock sale source: %w", err)
	}

	return base, nil
}

// vendido sums the source's active sales.
func (r *FuenteRepo) vendido(ctx context.Context, tipo venta.TipoFuente, fuenteID id.ID) (decimal.Decimal, error) {
	sql := `
		SELECT COALESCE(SUM(peso_kg), 0)
		FROM ventas
		WHERE tipo_fuente = $1 AND fuente_id = $2 AND activo
	`

	var total decimal.Decimal
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, tipo, fuenteID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum sold weight: %w", err)
	}

	return total, nil
}
