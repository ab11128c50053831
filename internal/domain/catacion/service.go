package catacion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/audit"
	appctx "beneficio/internal/core/context"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
	"beneficio/internal/core/tx"
)

// Repository persists cataciones.
type Repository interface {
	Create(ctx context.Context, c *Catacion) error
	GetByID(ctx context.Context, catacionID id.ID) (*Catacion, error)
	GetByCodigoMuestra(ctx context.Context, codigo string) (*Catacion, error)
	Update(ctx context.Context, c *Catacion) error
	ListByMuestra(ctx context.Context, tipo TipoMuestra, muestraID id.ID) ([]Catacion, error)
}

// DefectoRepository persists defect records.
type DefectoRepository interface {
	Create(ctx context.Context, d *Defecto) error
	Delete(ctx context.Context, defectoID id.ID) error
	ListByCatacion(ctx context.Context, catacionID id.ID) ([]Defecto, error)
}

// Service manages cupping evaluations.
type Service struct {
	cataciones Repository
	defectos   DefectoRepository
	txm        tx.Manager
	audit      audit.Recorder
}

// NewService creates the catacion service.
func NewService(cataciones Repository, defectos DefectoRepository, txm tx.Manager, auditRec audit.Recorder) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{cataciones: cataciones, defectos: defectos, txm: txm, audit: auditRec}
}

// CreateCatacionInput carries the fields for a new evaluation. Brewing
// parameters left zero take the SCA defaults.
type CreateCatacionInput struct {
	TipoMuestra   TipoMuestra
	MuestraID     id.ID
	CodigoMuestra string
	FechaCatacion time.Time

	PesoMuestraG    decimal.Decimal
	TemperaturaAgua decimal.Decimal
	TiempoInfusion  int
	TipoTueste      TipoTueste
	HumedadGrano    *decimal.Decimal

	Puntajes Puntajes

	NotasPositivas *string
	NotasNegativas *string
	Comentarios    *string
}

// CreateCatacion records an evaluation, computing the total score and the
// quality band from the attributes.
func (s *Service) CreateCatacion(ctx context.Context, in CreateCatacionInput) (*Catacion, error) {
	c := &Catacion{
		BaseRecord:      entity.NewBaseRecord(),
		TipoMuestra:     in.TipoMuestra,
		MuestraID:       in.MuestraID,
		CodigoMuestra:   in.CodigoMuestra,
		FechaCatacion:   in.FechaCatacion,
		Catador:         appctx.GetUsername(ctx),
		PesoMuestraG:    in.PesoMuestraG,
		TemperaturaAgua: in.TemperaturaAgua,
		TiempoInfusion:  in.TiempoInfusion,
		TipoTueste:      in.TipoTueste,
		HumedadGrano:    in.HumedadGrano,
		Puntajes:        in.Puntajes,
		NotasPositivas:  in.NotasPositivas,
		NotasNegativas:  in.NotasNegativas,
		Comentarios:     in.Comentarios,
	}
	c.CreatedBy = appctx.GetUserID(ctx)
	applyDefaults(c)
	c.Recalcular()
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.cataciones.GetByCodigoMuestra(ctx, c.CodigoMuestra); err == nil && existing != nil {
			return apperror.NewDuplicate("catacion", "codigo_muestra", c.CodigoMuestra)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if err := s.cataciones.Create(ctx, c); err != nil {
			return fmt.Errorf("create catacion: %w", err)
		}
		return s.logAudit(ctx, c.ID, audit.ActionCreate, map[string]any{
			"codigo_muestra": c.CodigoMuestra,
			"puntaje_total":  c.PuntajeTotal.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdatePuntajes replaces the attribute scores and re-derives the total and
// classification.
func (s *Service) UpdatePuntajes(ctx context.Context, catacionID id.ID, puntajes Puntajes) (*Catacion, error) {
	var c *Catacion
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.cataciones.GetByID(ctx, catacionID)
		if err != nil {
			return err
		}
		existing.Puntajes = puntajes
		existing.Recalcular()
		if err := existing.Validate(ctx); err != nil {
			return err
		}
		existing.UpdatedBy = appctx.GetUserID(ctx)
		existing.Touch()
		if err := s.cataciones.Update(ctx, existing); err != nil {
			return err
		}
		c = existing
		return s.logAudit(ctx, existing.ID, audit.ActionUpdate, map[string]any{
			"codigo_muestra": existing.CodigoMuestra,
			"puntaje_total":  existing.PuntajeTotal.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddDefecto records a defect count on an evaluation.
func (s *Service) AddDefecto(ctx context.Context, catacionID id.ID, categoria CategoriaDefecto, tipoDefecto string, cantidad int, equivalente decimal.Decimal) (*Defecto, error) {
	if categoria != DefectoPrimario && categoria != DefectoSecundario {
		return nil, apperror.NewInvalidInput("categoria", "must be PRIMARIO or SECUNDARIO")
	}
	if cantidad <= 0 {
		return nil, apperror.NewInvalidInput("cantidad", "must be positive")
	}

	var d *Defecto
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.cataciones.GetByID(ctx, catacionID); err != nil {
			return err
		}
		d = &Defecto{
			ID:                  id.New(),
			CatacionID:          catacionID,
			Categoria:           categoria,
			TipoDefecto:         tipoDefecto,
			Cantidad:            cantidad,
			EquivalenteDefectos: equivalente,
		}
		return s.defectos.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetCatacion returns an evaluation with its defects.
func (s *Service) GetCatacion(ctx context.Context, catacionID id.ID) (*Catacion, []Defecto, error) {
	c, err := s.cataciones.GetByID(ctx, catacionID)
	if err != nil {
		return nil, nil, err
	}
	defectos, err := s.defectos.ListByCatacion(ctx, c.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list defectos: %w", err)
	}
	return c, defectos, nil
}

// ListByMuestra returns the evaluations of one sample source.
func (s *Service) ListByMuestra(ctx context.Context, tipo TipoMuestra, muestraID id.ID) ([]Catacion, error) {
	return s.cataciones.ListByMuestra(ctx, tipo, muestraID)
}

// applyDefaults fills the SCA brewing defaults and the three attributes that
// start at a full score.
func applyDefaults(c *Catacion) {
	if c.PesoMuestraG.IsZero() {
		c.PesoMuestraG = decimal.RequireFromString("8.25")
	}
	if c.TemperaturaAgua.IsZero() {
		c.TemperaturaAgua = decimal.RequireFromString("93.0")
	}
	if c.TiempoInfusion == 0 {
		c.TiempoInfusion = 4
	}
	if c.TipoTueste == "" {
		c.TipoTueste = TuesteMedio
	}
	ten := decimal.NewFromInt(10)
	if c.Uniformidad.IsZero() {
		c.Uniformidad = ten
	}
	if c.TazaLimpia.IsZero() {
		c.TazaLimpia = ten
	}
	if c.Dulzor.IsZero() {
		c.Dulzor = ten
	}
}

func (s *Service) logAudit(ctx context.Context, entityID id.ID, action audit.Action, changes map[string]any) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}
	return s.audit.Log(ctx, audit.Entry{
		EntityType: "catacion",
		EntityID:   entityID,
		Action:     action,
		Changes:    payload,
		OccurredAt: time.Now().UTC(),
	})
}
