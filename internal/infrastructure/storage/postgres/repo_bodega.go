package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"beneficio/internal/core/id"
	"beneficio/internal/domain/bodega"
)

// Compile-time check.
var _ bodega.Repository = (*BodegaRepo)(nil)

// BodegaRepo persists the warehouse catalog.
type BodegaRepo struct {
	baseRepo[bodega.Bodega]
}

// NewBodegaRepo creates the bodega repository.
func NewBodegaRepo(txm *TxManager) *BodegaRepo {
	return &BodegaRepo{baseRepo: newBaseRepo[bodega.Bodega](txm, "bodegas")}
}

func (r *BodegaRepo) Create(ctx context.Context, b *bodega.Bodega) error {
	return r.insert(ctx, b)
}

func (r *BodegaRepo) GetByID(ctx context.Context, bodegaID id.ID) (*bodega.Bodega, error) {
	return r.getByID(ctx, bodegaID)
}

func (r *BodegaRepo) GetByCodigo(ctx context.Context, codigo string) (*bodega.Bodega, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"codigo": codigo}).
		Limit(1)

	return r.findOne(ctx, q, codigo)
}

func (r *BodegaRepo) Update(ctx context.Context, b *bodega.Bodega) error {
	return r.update(ctx, b)
}

func (r *BodegaRepo) List(ctx context.Context, soloActivas bool) ([]bodega.Bodega, error) {
	q := r.baseSelect().OrderBy("codigo ASC")

	if soloActivas {
		q = q.Where(squirrel.Eq{"activo": true})
	}

	return r.selectMany(ctx, q)
}
