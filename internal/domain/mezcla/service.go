package mezcla

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
	"beneficio/internal/core/sequence"
	"beneficio/internal/core/tx"
	"beneficio/internal/domain/lote"
	"beneficio/pkg/logger"
)

// Service manages blends. Every detalle mutation locks the mezcla row and
// rewrites all percentages plus the derived total in the same transaction,
// so a component can never be changed without the recompute running.
type Service struct {
	mezclas  Repository
	detalles DetalleRepository
	lotes    lote.Repository
	consumo  lote.ConsumoReader
	alloc    sequence.Allocator
	txm      tx.Manager
	audit    audit.Recorder
}

// NewService creates the mezcla service.
func NewService(
	mezclas Repository,
	detalles DetalleRepository,
	lotes lote.Repository,
	consumo lote.ConsumoReader,
	alloc sequence.Allocator,
	txm tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{
		mezclas:  mezclas,
		detalles: detalles,
		lotes:    lotes,
		consumo:  consumo,
		alloc:    alloc,
		txm:      txm,
		audit:    auditRec,
	}
}

// CreateMezclaInput carries the fields for a new blend.
type CreateMezclaInput struct {
	Fecha       time.Time
	Descripcion string
	Destino     string
}

// CreateMezcla allocates the next global blend number and creates an empty
// blend.
func (s *Service) CreateMezcla(ctx context.Context, in CreateMezclaInput) (*Mezcla, error) {
	m := &Mezcla{
		BaseRecord:  entity.NewBaseRecord(),
		Fecha:       in.Fecha,
		Descripcion: in.Descripcion,
		Destino:     in.Destino,
		Responsable: appctx.GetUsername(ctx),
		PesoTotalKg: decimal.Zero,
	}
	m.CreatedBy = appctx.GetUserID(ctx)
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		numero, err := s.alloc.Next(ctx, sequence.GlobalScope(sequence.ScopeMezcla))
		if err != nil {
			return fmt.Errorf("allocate mezcla number: %w", err)
		}
		m.Numero = numero
		m.Codigo = sequence.FormatCode("MZ", numero, 4)

		if err := s.mezclas.Create(ctx, m); err != nil {
			return fmt.Errorf("create mezcla: %w", err)
		}
		return s.logAudit(ctx, "mezcla", m.ID, audit.ActionCreate, map[string]any{
			"codigo": m.Codigo,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "mezcla created", "id", m.ID, "codigo", m.Codigo)
	return m, nil
}

// AddDetalleInput describes a blend component to add.
type AddDetalleInput struct {
	MezclaID id.ID
	LoteID   id.ID
	PesoKg   decimal.Decimal
}

// AddDetalle adds a component from a lote, validates its weight against the
// lote's remaining availability and recomputes every component's percentage.
func (s *Service) AddDetalle(ctx context.Context, in AddDetalleInput) (*Detalle, error) {
	if !in.PesoKg.IsPositive() {
		return nil, apperror.NewInvalidInput("peso_kg", "must be positive")
	}

	var det *Detalle
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.mezclas.GetByIDForUpdate(ctx, in.MezclaID)
		if err != nil {
			return err
		}
		if !m.Activo {
			return apperror.NewParentInactive("mezcla", m.ID)
		}

		l, err := s.lotes.GetByIDForUpdate(ctx, in.LoteID)
		if err != nil {
			return err
		}
		if !l.Activo {
			return apperror.NewParentInactive("lote", l.ID)
		}

		existing, err := s.detalles.ListByMezcla(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("list detalles: %w", err)
		}
		for _, d := range existing {
			if d.LoteID == l.ID {
				return apperror.NewDuplicate("detalle_mezcla", "lote", l.Codigo)
			}
		}

		consumido, err := s.consumo.ConsumoTotal(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("read lote consumption: %w", err)
		}
		disponible := l.PesoKg.Sub(consumido)
		if in.PesoKg.GreaterThan(disponible) {
			return apperror.NewExceedsAvailable("lote "+l.Codigo, in.PesoKg, disponible)
		}

		det = &Detalle{
			ID:        id.New(),
			MezclaID:  m.ID,
			LoteID:    l.ID,
			PesoKg:    in.PesoKg,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.detalles.Create(ctx, det); err != nil {
			return fmt.Errorf("create detalle: %w", err)
		}

		all := append(existing, *det)
		if err := s.recomputeDetalles(ctx, m, all); err != nil {
			return err
		}
		det = findDetalle(all, det.ID)
		return s.logAudit(ctx, "detalle_mezcla", det.ID, audit.ActionCreate, map[string]any{
			"mezcla":  m.Codigo,
			"lote":    l.Codigo,
			"peso_kg": in.PesoKg.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "detalle added", "mezcla_id", in.MezclaID, "lote_id", in.LoteID, "peso_kg", in.PesoKg)
	return det, nil
}

// ResizeDetalle changes a component's weight and recomputes all percentages.
func (s *Service) ResizeDetalle(ctx context.Context, detalleID id.ID, pesoKg decimal.Decimal) (*Detalle, error) {
	if !pesoKg.IsPositive() {
		return nil, apperror.NewInvalidInput("peso_kg", "must be positive")
	}

	var det *Detalle
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.detalles.GetByID(ctx, detalleID)
		if err != nil {
			return err
		}
		m, err := s.mezclas.GetByIDForUpdate(ctx, existing.MezclaID)
		if err != nil {
			return err
		}
		l, err := s.lotes.GetByIDForUpdate(ctx, existing.LoteID)
		if err != nil {
			return err
		}

		consumido, err := s.consumo.ConsumoTotal(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("read lote consumption: %w", err)
		}
		// The component's own current weight is not held against it.
		disponible := l.PesoKg.Sub(consumido).Add(existing.PesoKg)
		if pesoKg.GreaterThan(disponible) {
			return apperror.NewExceedsAvailable("lote "+l.Codigo, pesoKg, disponible)
		}

		detalles, err := s.detalles.ListByMezcla(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("list detalles: %w", err)
		}
		for i := range detalles {
			if detalles[i].ID == existing.ID {
				detalles[i].PesoKg = pesoKg
			}
		}

		if err := s.recomputeDetalles(ctx, m, detalles); err != nil {
			return err
		}
		det = findDetalle(detalles, existing.ID)
		if det == nil {
			return apperror.NewNotFound("detalle_mezcla", detalleID)
		}
		return s.logAudit(ctx, "detalle_mezcla", detalleID, audit.ActionUpdate, map[string]any{
			"mezcla":  m.Codigo,
			"peso_kg": pesoKg.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return det, nil
}

// RemoveDetalle deletes a component and recomputes the remaining ones.
func (s *Service) RemoveDetalle(ctx context.Context, detalleID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.detalles.GetByID(ctx, detalleID)
		if err != nil {
			return err
		}
		m, err := s.mezclas.GetByIDForUpdate(ctx, existing.MezclaID)
		if err != nil {
			return err
		}

		if err := s.detalles.Delete(ctx, existing.ID); err != nil {
			return fmt.Errorf("delete detalle: %w", err)
		}
		remaining, err := s.detalles.ListByMezcla(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("list detalles: %w", err)
		}
		if err := s.recomputeDetalles(ctx, m, remaining); err != nil {
			return err
		}
		return s.logAudit(ctx, "detalle_mezcla", existing.ID, audit.ActionDelete, map[string]any{
			"mezcla":  m.Codigo,
			"peso_kg": existing.PesoKg.String(),
		})
	})
}

// GetMezcla returns a blend with its components.
func (s *Service) GetMezcla(ctx context.Context, mezclaID id.ID) (*Mezcla, []Detalle, error) {
	m, err := s.mezclas.GetByID(ctx, mezclaID)
	if err != nil {
		return nil, nil, err
	}
	detalles, err := s.detalles.ListByMezcla(ctx, m.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list detalles: %w", err)
	}
	return m, detalles, nil
}

// ListMezclas returns blends.
func (s *Service) ListMezclas(ctx context.Context, soloActivas bool) ([]Mezcla, error) {
	return s.mezclas.List(ctx, soloActivas)
}

// DeactivateMezcla soft-deletes a blend; its detalles stay for traceability.
func (s *Service) DeactivateMezcla(ctx context.Context, mezclaID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.mezclas.GetByIDForUpdate(ctx, mezclaID)
		if err != nil {
			return err
		}
		m.Deactivate()
		m.UpdatedBy = appctx.GetUserID(ctx)
		m.Touch()
		if err := s.mezclas.Update(ctx, m); err != nil {
			return err
		}
		return s.logAudit(ctx, "mezcla", m.ID, audit.ActionDeactivate, map[string]any{
			"codigo": m.Codigo,
		})
	})
}

// recomputeDetalles rewrites every component's percentage and the blend's
// total, persisting all of them.
func (s *Service) recomputeDetalles(ctx context.Context, m *Mezcla, detalles []Detalle) error {
	total := RecomputePorcentajes(detalles)

	for i := range detalles {
		if err := s.detalles.Update(ctx, &detalles[i]); err != nil {
			return fmt.Errorf("update detalle: %w", err)
		}
	}

	m.PesoTotalKg = total
	m.Touch()
	if err := s.mezclas.Update(ctx, m); err != nil {
		return fmt.Errorf("update mezcla total: %w", err)
	}
	return nil
}

func findDetalle(detalles []Detalle, detalleID id.ID) *Detalle {
	for i := range detalles {
		if detalles[i].ID == detalleID {
			cp := detalles[i]
			return &cp
		}
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}
	return s.audit.Log(ctx, audit.Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    payload,
		OccurredAt: time.Now().UTC(),
	})
}
