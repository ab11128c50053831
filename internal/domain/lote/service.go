package lote

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
	"beneficio/internal/domain/units"
	"beneficio/pkg/logger"
)

// Service manages lotes and their intake receipts. Recibo mutations run
// under the lote row lock so the running weight total cannot race.
type Service struct {
	lotes   Repository
	recibos ReciboRepository
	consumo ConsumoReader
	alloc   sequence.Allocator
	txm     tx.Manager
	audit   audit.Recorder
}

// NewService creates the lote service.
func NewService(
	lotes Repository,
	recibos ReciboRepository,
	consumo ConsumoReader,
	alloc sequence.Allocator,
	txm tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{
		lotes:   lotes,
		recibos: recibos,
		consumo: consumo,
		alloc:   alloc,
		txm:     txm,
		audit:   auditRec,
	}
}

// CreateLoteInput carries the fields for a new lote. Codigo is chosen by the
// operator, not allocated.
type CreateLoteInput struct {
	Codigo        string
	TipoCafe      string
	BodegaID      id.ID
	PesoKg        decimal.Decimal
	Humedad       decimal.Decimal
	FechaIngreso  time.Time
	Proveedor     string
	PrecioQuintal decimal.Decimal
	Observaciones *string
}

// CreateLote registers a new lote.
func (s *Service) CreateLote(ctx context.Context, in CreateLoteInput) (*Lote, error) {
	l := &Lote{
		BaseRecord:    entity.NewBaseRecord(),
		Codigo:        in.Codigo,
		TipoCafe:      in.TipoCafe,
		BodegaID:      in.BodegaID,
		PesoKg:        in.PesoKg,
		Humedad:       in.Humedad,
		FechaIngreso:  in.FechaIngreso,
		Proveedor:     in.Proveedor,
		PrecioQuintal: in.PrecioQuintal,
		Observaciones: in.Observaciones,
	}
	l.CreatedBy = appctx.GetUserID(ctx)
	if err := l.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.lotes.GetByCodigo(ctx, l.Codigo); err == nil && existing != nil {
			return apperror.NewDuplicate("lote", "codigo", l.Codigo)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if err := s.lotes.Create(ctx, l); err != nil {
			return fmt.Errorf("create lote: %w", err)
		}
		return s.logAudit(ctx, "lote", l.ID, audit.ActionCreate, map[string]any{
			"codigo":  l.Codigo,
			"peso_kg": l.PesoKg.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "lote created", "id", l.ID, "codigo", l.Codigo)
	return l, nil
}

// AddReciboInput describes an intake receipt. Peso is in the entered unit;
// KilosPorBolsa is required when Unidad is bolsa.
type AddReciboInput struct {
	LoteID        id.ID
	FechaRecibo   time.Time
	Peso          decimal.Decimal
	Unidad        units.Unit
	KilosPorBolsa decimal.Decimal
	Proveedor     string
	Observaciones *string
}

// AddRecibo records an intake and adds its weight to the lote's running
// total. The receipt amount is priced at the lote's quintal price under the
// trade convention.
func (s *Service) AddRecibo(ctx context.Context, in AddReciboInput) (*Recibo, error) {
	if !in.Peso.IsPositive() {
		return nil, apperror.NewInvalidInput("peso", "must be positive")
	}
	pesoKg, err := units.ToKilograms(in.Peso, in.Unidad, units.Trade, units.Options{KilosPorBolsa: in.KilosPorBolsa})
	if err != nil {
		return nil, err
	}

	var rec *Recibo
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		l, err := s.lotes.GetByIDForUpdate(ctx, in.LoteID)
		if err != nil {
			return err
		}
		if !l.Activo {
			return apperror.NewParentInactive("lote", l.ID)
		}

		numero, err := s.alloc.Next(ctx, sequence.GlobalScope(sequence.ScopeRecibo))
		if err != nil {
			return fmt.Errorf("allocate recibo number: %w", err)
		}

		rec = &Recibo{
			ID:            id.New(),
			LoteID:        l.ID,
			Numero:        numero,
			NumeroRecibo:  sequence.FormatCode("RC", numero, 5),
			FechaRecibo:   in.FechaRecibo,
			Peso:          in.Peso,
			Unidad:        in.Unidad,
			PesoKg:        pesoKg,
			Proveedor:     in.Proveedor,
			MontoTotal:    units.KilosToQuintales(pesoKg).Mul(l.PrecioQuintal).Round(2),
			Observaciones: in.Observaciones,
			CreadoPor:     appctx.GetUserID(ctx),
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.recibos.Create(ctx, rec); err != nil {
			return fmt.Errorf("create recibo: %w", err)
		}

		l.PesoKg = l.PesoKg.Add(pesoKg)
		l.Touch()
		if err := s.lotes.Update(ctx, l); err != nil {
			return fmt.Errorf("update lote weight: %w", err)
		}
		return s.logAudit(ctx, "recibo", rec.ID, audit.ActionCreate, map[string]any{
			"numero_recibo": rec.NumeroRecibo,
			"lote":          l.Codigo,
			"peso_kg":       pesoKg.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "recibo added", "numero", rec.NumeroRecibo, "lote_id", in.LoteID, "peso_kg", pesoKg)
	return rec, nil
}

// DeleteRecibo removes an intake receipt and subtracts its weight from the
// lote's running total.
func (s *Service) DeleteRecibo(ctx context.Context, reciboID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.recibos.GetByID(ctx, reciboID)
		if err != nil {
			return err
		}
		l, err := s.lotes.GetByIDForUpdate(ctx, rec.LoteID)
		if err != nil {
			return err
		}

		if err := s.recibos.Delete(ctx, rec.ID); err != nil {
			return fmt.Errorf("delete recibo: %w", err)
		}

		l.PesoKg = l.PesoKg.Sub(rec.PesoKg)
		l.Touch()
		if err := s.lotes.Update(ctx, l); err != nil {
			return fmt.Errorf("update lote weight: %w", err)
		}
		return s.logAudit(ctx, "recibo", rec.ID, audit.ActionDelete, map[string]any{
			"numero_recibo": rec.NumeroRecibo,
			"lote":          l.Codigo,
			"peso_kg":       rec.PesoKg.String(),
		})
	})
}

// GetLote returns a lote with its derived processing balance.
func (s *Service) GetLote(ctx context.Context, loteID id.ID) (*Lote, Balance, error) {
	l, err := s.lotes.GetByID(ctx, loteID)
	if err != nil {
		return nil, Balance{}, err
	}
	consumido, err := s.consumo.ConsumoTotal(ctx, l.ID)
	if err != nil {
		return nil, Balance{}, fmt.Errorf("read lote consumption: %w", err)
	}
	return l, ComputeBalance(l.PesoKg, consumido), nil
}

// ListLotes returns lotes matching the filter.
func (s *Service) ListLotes(ctx context.Context, filter Filter) ([]Lote, error) {
	return s.lotes.List(ctx, filter)
}

// ListRecibos returns a lote's intake receipts.
func (s *Service) ListRecibos(ctx context.Context, loteID id.ID) ([]Recibo, error) {
	return s.recibos.ListByLote(ctx, loteID)
}

// UpdateLotePatch holds the editable lote fields; nil means unchanged.
// PesoKg is not editable directly, it only moves through recibos.
type UpdateLotePatch struct {
	TipoCafe      *string
	Humedad       *decimal.Decimal
	Proveedor     *string
	PrecioQuintal *decimal.Decimal
	Observaciones *string
}

// UpdateLote applies an edit to the descriptive fields.
func (s *Service) UpdateLote(ctx context.Context, loteID id.ID, patch UpdateLotePatch) (*Lote, error) {
	var l *Lote
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.lotes.GetByIDForUpdate(ctx, loteID)
		if err != nil {
			return err
		}
		if patch.TipoCafe != nil {
			existing.TipoCafe = *patch.TipoCafe
		}
		if patch.Humedad != nil {
			existing.Humedad = *patch.Humedad
		}
		if patch.Proveedor != nil {
			existing.Proveedor = *patch.Proveedor
		}
		if patch.PrecioQuintal != nil {
			existing.PrecioQuintal = *patch.PrecioQuintal
		}
		if patch.Observaciones != nil {
			existing.Observaciones = patch.Observaciones
		}
		if err := existing.Validate(ctx); err != nil {
			return err
		}
		existing.UpdatedBy = appctx.GetUserID(ctx)
		existing.Touch()
		if err := s.lotes.Update(ctx, existing); err != nil {
			return err
		}
		l = existing
		return s.logAudit(ctx, "lote", existing.ID, audit.ActionUpdate, map[string]any{
			"codigo": existing.Codigo,
		})
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// DeactivateLote soft-deletes a lote. Its recibos and chain children stay in
// place for traceability.
func (s *Service) DeactivateLote(ctx context.Context, loteID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		l, err := s.lotes.GetByIDForUpdate(ctx, loteID)
		if err != nil {
			return err
		}
		l.Deactivate()
		l.UpdatedBy = appctx.GetUserID(ctx)
		l.Touch()
		if err := s.lotes.Update(ctx, l); err != nil {
			return err
		}
		return s.logAudit(ctx, "lote", l.ID, audit.ActionDeactivate, map[string]any{
			"codigo": l.Codigo,
		})
	})
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
