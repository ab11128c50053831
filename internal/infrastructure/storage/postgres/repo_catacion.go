package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"beneficio/internal/core/id"
	"beneficio/internal/domain/catacion"
)

// Compile-time checks.
var (
	_ catacion.Repository        = (*CatacionRepo)(nil)
	_ catacion.DefectoRepository = (*DefectoRepo)(nil)
)

// CatacionRepo persists cupping evaluations.
type CatacionRepo struct {
	baseRepo[catacion.Catacion]
}

// NewCatacionRepo creates the catacion repository.
func NewCatacionRepo(txm *TxManager) *CatacionRepo {
	return &CatacionRepo{baseRepo: newBaseRepo[catacion.Catacion](txm, "cataciones")}
}

func (r *CatacionRepo) Create(ctx context.Context, c *catacion.Catacion) error {
	return r.insert(ctx, c)
}

func (r *CatacionRepo) GetByID(ctx context.Context, catacionID id.ID) (*catacion.Catacion, error) {
	return r.getByID(ctx, catacionID)
}

func (r *CatacionRepo) GetByCodigoMuestra(ctx context.Context, codigo string) (*catacion.Catacion, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"codigo_muestra": codigo}).
		Limit(1)

	return r.findOne(ctx, q, codigo)
}

func (r *CatacionRepo) Update(ctx context.Context, c *catacion.Catacion) error {
	return r.update(ctx, c)
}

func (r *CatacionRepo) ListByMuestra(ctx context.Context, tipo catacion.TipoMuestra, muestraID id.ID) ([]catacion.Catacion, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tipo_muestra": tipo}).
		Where(squirrel.Eq{"muestra_id": muestraID}).
		OrderBy("fecha_catacion DESC", "created_at DESC")

	return r.selectMany(ctx, q)
}

// DefectoRepo persists cupping defect records.
type DefectoRepo struct {
	baseRepo[catacion.Defecto]
}

// NewDefectoRepo creates the defecto repository.
func NewDefectoRepo(txm *TxManager) *DefectoRepo {
	return &DefectoRepo{baseRepo: newBaseRepo[catacion.Defecto](txm, "catacion_defectos")}
}

func (r *DefectoRepo) Create(ctx context.Context, d *catacion.Defecto) error {
	return r.insert(ctx, d)
}

func (r *DefectoRepo) Delete(ctx context.Context, defectoID id.ID) error {
	return r.deleteByID(ctx, defectoID)
}

func (r *DefectoRepo) ListByCatacion(ctx context.Context, catacionID id.ID) ([]catacion.Defecto, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"catacion_id": catacionID}).
		OrderBy("categoria ASC", "tipo_defecto ASC")

	return r.selectMany(ctx, q)
}
