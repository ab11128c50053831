// Package bodega is the warehouse catalog. Occupancy is derived from the
// active lotes stored in each warehouse.
package bodega

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

// Bodega is a physical warehouse (A, B, C, D on this facility).
type Bodega struct {
	entity.BaseRecord

	Codigo      string          `db:"codigo" json:"codigo"`
	Nombre      string          `db:"nombre" json:"nombre"`
	CapacidadKg decimal.Decimal `db:"capacidad_kg" json:"capacidadKg"`
	Ubicacion   string          `db:"ubicacion" json:"ubicacion"`
	Responsable string          `db:"responsable" json:"responsable,omitempty"`
}

// Validate implements entity.Validatable.
func (b *Bodega) Validate(ctx context.Context) error {
	if b.Codigo == "" {
		return apperror.NewInvalidInput("codigo", "is required")
	}
	if !b.CapacidadKg.IsPositive() {
		return apperror.NewInvalidInput("capacidad_kg", "must be positive")
	}
	return nil
}

// Ocupacion is a warehouse's derived fill level.
type Ocupacion struct {
	OcupadoKg         decimal.Decimal `json:"ocupadoKg"`
	EspacioDisponible decimal.Decimal `json:"espacioDisponibleKg"`
	PorcentajeOcupado decimal.Decimal `json:"porcentajeOcupado"`
}

// ComputeOcupacion derives the fill level from the capacity and the summed
// weight of active lotes.
func ComputeOcupacion(capacidadKg, ocupadoKg decimal.Decimal) Ocupacion {
	o := Ocupacion{
		OcupadoKg:         ocupadoKg,
		EspacioDisponible: capacidadKg.Sub(ocupadoKg),
	}
	if capacidadKg.IsPositive() {
		o.PorcentajeOcupado = ocupadoKg.DivRound(capacidadKg, 6).Mul(decimal.NewFromInt(100))
	}
	return o
}

// Repository persists bodegas.
type Repository interface {
	Create(ctx context.Context, b *Bodega) error
	GetByID(ctx context.Context, bodegaID id.ID) (*Bodega, error)
	GetByCodigo(ctx context.Context, codigo string) (*Bodega, error)
	Update(ctx context.Context, b *Bodega) error
	List(ctx context.Context, soloActivas bool) ([]Bodega, error)
}

// OcupacionReader reports the summed weight of a bodega's active lotes.
// Implemented by the lote storage.
type OcupacionReader interface {
	PesoOcupado(ctx context.Context, bodegaID id.ID) (decimal.Decimal, error)
}

// Service manages the warehouse catalog.
type Service struct {
	bodegas   Repository
	ocupacion OcupacionReader
	txm       tx.Manager
	audit     audit.Recorder
}

// NewService creates the bodega service.
func NewService(bodegas Repository, ocupacion OcupacionReader, txm tx.Manager, auditRec audit.Recorder) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{bodegas: bodegas, ocupacion: ocupacion, txm: txm, audit: auditRec}
}

// CreateBodegaInput carries the fields for a new warehouse.
type CreateBodegaInput struct {
	Codigo      string
	Nombre      string
	CapacidadKg decimal.Decimal
	Ubicacion   string
	Responsable string
}

// CreateBodega registers a warehouse. Codigos are unique.
func (s *Service) CreateBodega(ctx context.Context, in CreateBodegaInput) (*Bodega, error) {
	b := &Bodega{
		BaseRecord:  entity.NewBaseRecord(),
		Codigo:      in.Codigo,
		Nombre:      in.Nombre,
		CapacidadKg: in.CapacidadKg,
		Ubicacion:   in.Ubicacion,
		Responsable: in.Responsable,
	}
	b.CreatedBy = appctx.GetUserID(ctx)
	if err := b.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.bodegas.GetByCodigo(ctx, b.Codigo); err == nil && existing != nil {
			return apperror.NewDuplicate("bodega", "codigo", b.Codigo)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if err := s.bodegas.Create(ctx, b); err != nil {
			return fmt.Errorf("create bodega: %w", err)
		}
		return s.logAudit(ctx, b.ID, audit.ActionCreate, map[string]any{"codigo": b.Codigo})
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBodega returns a warehouse with its derived fill level.
func (s *Service) GetBodega(ctx context.Context, bodegaID id.ID) (*Bodega, Ocupacion, error) {
	b, err := s.bodegas.GetByID(ctx, bodegaID)
	if err != nil {
		return nil, Ocupacion{}, err
	}
	ocupado, err := s.ocupacion.PesoOcupado(ctx, b.ID)
	if err != nil {
		return nil, Ocupacion{}, fmt.Errorf("read bodega occupancy: %w", err)
	}
	return b, ComputeOcupacion(b.CapacidadKg, ocupado), nil
}

// ListBodegas returns warehouses.
func (s *Service) ListBodegas(ctx context.Context, soloActivas bool) ([]Bodega, error) {
	return s.bodegas.List(ctx, soloActivas)
}

// UpdateBodegaPatch holds the editable fields; nil means unchanged.
type UpdateBodegaPatch struct {
	Nombre      *string
	CapacidadKg *decimal.Decimal
	Ubicacion   *string
	Responsable *string
}

// UpdateBodega applies an edit.
func (s *Service) UpdateBodega(ctx context.Context, bodegaID id.ID, patch UpdateBodegaPatch) (*Bodega, error) {
	var b *Bodega
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.bodegas.GetByID(ctx, bodegaID)
		if err != nil {
			return err
		}
		if patch.Nombre != nil {
			existing.Nombre = *patch.Nombre
		}
		if patch.CapacidadKg != nil {
			existing.CapacidadKg = *patch.CapacidadKg
		}
		if patch.Ubicacion != nil {
			existing.Ubicacion = *patch.Ubicacion
		}
		if patch.Responsable != nil {
			existing.Responsable = *patch.Responsable
		}
		if err := existing.Validate(ctx); err != nil {
			return err
		}
		existing.UpdatedBy = appctx.GetUserID(ctx)
		existing.Touch()
		if err := s.bodegas.Update(ctx, existing); err != nil {
			return err
		}
		b = existing
		return s.logAudit(ctx, existing.ID, audit.ActionUpdate, map[string]any{"codigo": existing.Codigo})
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) logAudit(ctx context.Context, entityID id.ID, action audit.Action, changes map[string]any) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}
	return s.audit.Log(ctx, audit.Entry{
		EntityType: "bodega",
		EntityID:   entityID,
		Action:     action,
		Changes:    payload,
		OccurredAt: time.Now().UTC(),
	})
}
