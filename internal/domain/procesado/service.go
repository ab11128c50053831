package procesado

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
	"beneficio/internal/domain/units"
	"beneficio/pkg/logger"
)

// Service creates and reworks trillas. Availability checks run inside the
// write transaction under the parent's row lock, so two concurrent children
// cannot both pass against a stale read and jointly over-consume the parent.
type Service struct {
	procesados Repository
	reprocesos ReprocesoRepository
	lotes      lote.Repository
	consumo    lote.ConsumoReader
	alloc      sequence.Allocator
	txm        tx.Manager
	audit      audit.Recorder
}

// NewService creates the procesado service.
func NewService(
	procesados Repository,
	reprocesos ReprocesoRepository,
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
		procesados: procesados,
		reprocesos: reprocesos,
		lotes:      lotes,
		consumo:    consumo,
		alloc:      alloc,
		txm:        txm,
		audit:      auditRec,
	}
}

// Pesos carries an operator-entered weight pair with its units.
type Pesos struct {
	PesoInicial       decimal.Decimal
	UnidadPesoInicial units.Unit
	PesoFinal         decimal.Decimal
	UnidadPesoFinal   units.Unit
	// KilosPorBolsa applies when either unit is bolsa.
	KilosPorBolsa decimal.Decimal
}

// Mermas carries the four loss buckets, in kilograms.
type Mermas struct {
	Catadura           decimal.Decimal
	RechazoElectronica decimal.Decimal
	BajoZaranda        decimal.Decimal
	Barridos           decimal.Decimal
}

// CreateProcesadoInput carries the fields for a new trilla run.
type CreateProcesadoInput struct {
	LoteID        id.ID
	Fecha         time.Time
	Pesos         Pesos
	CafePrimeraKg decimal.Decimal
	CafeSegundaKg decimal.Decimal
	Mermas        Mermas
	ReciboID      *id.ID
	Observaciones *string
}

// ProcesadoResult reports the created run and the parent's remaining
// availability after it.
type ProcesadoResult struct {
	Procesado        *Procesado
	LoteDisponibleKg decimal.Decimal
}

// CreateProcesado starts a trilla against a lote. It locks the lote row,
// re-reads the consumed total, rejects runs past the available weight and
// allocates the global trilla number, all in one transaction.
func (s *Service) CreateProcesado(ctx context.Context, in CreateProcesadoInput) (*ProcesadoResult, error) {
	pesoInicialKg, pesoFinalKg, err := convertPesos(in.Pesos)
	if err != nil {
		return nil, err
	}

	p := &Procesado{
		BaseRecord:         entity.NewBaseRecord(),
		LoteID:             in.LoteID,
		Fecha:              in.Fecha,
		PesoInicialKg:      pesoInicialKg,
		UnidadPesoInicial:  in.Pesos.UnidadPesoInicial,
		PesoFinalKg:        pesoFinalKg,
		UnidadPesoFinal:    in.Pesos.UnidadPesoFinal,
		CafePrimeraKg:      in.CafePrimeraKg,
		CafeSegundaKg:      in.CafeSegundaKg,
		Catadura:           in.Mermas.Catadura,
		RechazoElectronica: in.Mermas.RechazoElectronica,
		BajoZaranda:        in.Mermas.BajoZaranda,
		Barridos:           in.Mermas.Barridos,
		ReciboID:           in.ReciboID,
		Observaciones:      in.Observaciones,
		Operador:           appctx.GetUsername(ctx),
	}
	p.CreatedBy = appctx.GetUserID(ctx)
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	var result *ProcesadoResult
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		l, err := s.lotes.GetByIDForUpdate(ctx, in.LoteID)
		if err != nil {
			return err
		}
		if !l.Activo {
			return apperror.NewParentInactive("lote", l.ID)
		}

		consumido, err := s.consumo.ConsumoTotal(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("read lote consumption: %w", err)
		}
		disponible := l.PesoKg.Sub(consumido)
		if pesoInicialKg.GreaterThan(disponible) {
			return apperror.NewExceedsAvailable("lote "+l.Codigo, pesoInicialKg, disponible)
		}

		numero, err := s.alloc.Next(ctx, sequence.GlobalScope(sequence.ScopeTrilla))
		if err != nil {
			return fmt.Errorf("allocate trilla number: %w", err)
		}
		p.NumeroTrilla = numero
		p.CodigoTrilla = sequence.FormatCode("T", numero, 4)

		if err := s.procesados.Create(ctx, p); err != nil {
			return fmt.Errorf("create procesado: %w", err)
		}

		result = &ProcesadoResult{
			Procesado:        p,
			LoteDisponibleKg: disponible.Sub(pesoInicialKg),
		}
		return s.logAudit(ctx, "procesado", p.ID, audit.ActionCreate, map[string]any{
			"codigo_trilla":   p.CodigoTrilla,
			"lote":            l.Codigo,
			"peso_inicial_kg": pesoInicialKg.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "procesado created",
		"codigo_trilla", p.CodigoTrilla,
		"lote_id", in.LoteID,
		"rendimiento", p.Rendimiento(),
	)
	return result, nil
}

// CreateReprocesoInput carries the fields for a rework pass.
type CreateReprocesoInput struct {
	ProcesadoID   id.ID
	Nombre        *string
	Fecha         time.Time
	Pesos         Pesos
	CafePrimeraKg decimal.Decimal
	CafeSegundaKg decimal.Decimal
	Mermas        Mermas
	Motivo        string
}

// ReprocesoResult reports the created rework and the procesado's remaining
// reworkable weight after it.
type ReprocesoResult struct {
	Reproceso             *Reproceso
	ProcesadoDisponibleKg decimal.Decimal
}

// CreateReproceso starts a rework pass over a procesado's output. Numbering
// is per procesado; the availability check runs against peso_final minus the
// active reprocesos, under the procesado's row lock.
func (s *Service) CreateReproceso(ctx context.Context, in CreateReprocesoInput) (*ReprocesoResult, error) {
	pesoInicialKg, pesoFinalKg, err := convertPesos(in.Pesos)
	if err != nil {
		return nil, err
	}

	r := &Reproceso{
		BaseRecord:         entity.NewBaseRecord(),
		ProcesadoID:        in.ProcesadoID,
		Nombre:             in.Nombre,
		Fecha:              in.Fecha,
		PesoInicialKg:      pesoInicialKg,
		UnidadPesoInicial:  in.Pesos.UnidadPesoInicial,
		PesoFinalKg:        pesoFinalKg,
		UnidadPesoFinal:    in.Pesos.UnidadPesoFinal,
		CafePrimeraKg:      in.CafePrimeraKg,
		CafeSegundaKg:      in.CafeSegundaKg,
		Catadura:           in.Mermas.Catadura,
		RechazoElectronica: in.Mermas.RechazoElectronica,
		BajoZaranda:        in.Mermas.BajoZaranda,
		Barridos:           in.Mermas.Barridos,
		Motivo:             in.Motivo,
		Operador:           appctx.GetUsername(ctx),
	}
	r.CreatedBy = appctx.GetUserID(ctx)
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}

	var result *ReprocesoResult
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		parent, err := s.procesados.GetByIDForUpdate(ctx, in.ProcesadoID)
		if err != nil {
			return err
		}
		if !parent.Activo {
			return apperror.NewParentInactive("procesado", parent.ID)
		}

		existing, err := s.reprocesos.ListByProcesado(ctx, parent.ID)
		if err != nil {
			return fmt.Errorf("list reprocesos: %w", err)
		}
		disponible := DisponibleReproceso(parent.PesoFinalKg, existing)
		if pesoInicialKg.GreaterThan(disponible) {
			return apperror.NewExceedsAvailable("procesado "+parent.CodigoTrilla, pesoInicialKg, disponible)
		}

		numero, err := s.alloc.Next(ctx, sequence.ChildScope(sequence.ScopeReproceso, parent.ID))
		if err != nil {
			return fmt.Errorf("allocate reproceso number: %w", err)
		}
		r.Numero = numero
		r.Codigo = sequence.FormatChildCode(parent.CodigoTrilla, numero)

		if err := s.reprocesos.Create(ctx, r); err != nil {
			return fmt.Errorf("create reproceso: %w", err)
		}

		result = &ReprocesoResult{
			Reproceso:             r,
			ProcesadoDisponibleKg: disponible.Sub(pesoInicialKg),
		}
		return s.logAudit(ctx, "reproceso", r.ID, audit.ActionCreate, map[string]any{
			"codigo":          r.Codigo,
			"procesado":       parent.CodigoTrilla,
			"peso_inicial_kg": pesoInicialKg.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reproceso created", "codigo", r.Codigo, "procesado_id", in.ProcesadoID)
	return result, nil
}

// GetProcesado returns a procesado with its remaining reworkable weight.
func (s *Service) GetProcesado(ctx context.Context, procesadoID id.ID) (*Procesado, decimal.Decimal, error) {
	p, err := s.procesados.GetByID(ctx, procesadoID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	reps, err := s.reprocesos.ListByProcesado(ctx, p.ID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list reprocesos: %w", err)
	}
	return p, DisponibleReproceso(p.PesoFinalKg, reps), nil
}

// ListProcesados returns a lote's trilla runs.
func (s *Service) ListProcesados(ctx context.Context, loteID id.ID, soloActivos bool) ([]Procesado, error) {
	return s.procesados.ListByLote(ctx, loteID, soloActivos)
}

// ListReprocesos returns a procesado's rework passes.
func (s *Service) ListReprocesos(ctx context.Context, procesadoID id.ID) ([]Reproceso, error) {
	return s.reprocesos.ListByProcesado(ctx, procesadoID)
}

// DeactivateProcesado soft-deletes a trilla run, returning its consumed
// weight to the lote's availability.
func (s *Service) DeactivateProcesado(ctx context.Context, procesadoID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.procesados.GetByIDForUpdate(ctx, procesadoID)
		if err != nil {
			return err
		}
		// Lock ordering: lote before procesado children elsewhere; here we
		// hold only this procesado, the lote total is derived so nothing
		// else needs rewriting.
		p.Deactivate()
		p.UpdatedBy = appctx.GetUserID(ctx)
		p.Touch()
		if err := s.procesados.Update(ctx, p); err != nil {
			return err
		}
		return s.logAudit(ctx, "procesado", p.ID, audit.ActionDeactivate, map[string]any{
			"codigo_trilla": p.CodigoTrilla,
		})
	})
}

// DeactivateReproceso soft-deletes a rework pass, returning its weight to
// the procesado's availability.
func (s *Service) DeactivateReproceso(ctx context.Context, reprocesoID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reprocesos.GetByID(ctx, reprocesoID)
		if err != nil {
			return err
		}
		if _, err := s.procesados.GetByIDForUpdate(ctx, r.ProcesadoID); err != nil {
			return err
		}
		r.Deactivate()
		r.UpdatedBy = appctx.GetUserID(ctx)
		r.Touch()
		if err := s.reprocesos.Update(ctx, r); err != nil {
			return err
		}
		return s.logAudit(ctx, "reproceso", r.ID, audit.ActionDeactivate, map[string]any{
			"codigo": r.Codigo,
		})
	})
}

func convertPesos(p Pesos) (inicialKg, finalKg decimal.Decimal, err error) {
	opts := units.Options{KilosPorBolsa: p.KilosPorBolsa}
	inicialKg, err = units.ToKilograms(p.PesoInicial, p.UnidadPesoInicial, units.Trade, opts)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	finalKg, err = units.ToKilograms(p.PesoFinal, p.UnidadPesoFinal, units.Trade, opts)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return inicialKg, finalKg, nil
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
