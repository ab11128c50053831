package partida

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/audit"
	appctx "beneficio/internal/core/context"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
	"beneficio/internal/core/sequence"
	"beneficio/internal/core/tx"
	"beneficio/pkg/logger"
)

// Service is the traceability engine for the ledger model. Every mutation runs
// in one transaction under the owning partida's row lock: sequence allocation,
// the primary write, the ledger check and the totals recompute commit or roll
// back together. Totals are recomputed inside the mutating methods themselves,
// so a caller cannot mutate a subpartida and skip the aggregation.
type Service struct {
	partidas    PartidaRepository
	subpartidas SubPartidaRepository
	movimientos MovimientoRepository
	alloc       sequence.Allocator
	txm         tx.Manager
	audit       audit.Recorder
}

// NewService creates the engine service.
func NewService(
	partidas PartidaRepository,
	subpartidas SubPartidaRepository,
	movimientos MovimientoRepository,
	alloc sequence.Allocator,
	txm tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{
		partidas:    partidas,
		subpartidas: subpartidas,
		movimientos: movimientos,
		alloc:       alloc,
		txm:         txm,
		audit:       auditRec,
	}
}

// CreatePartidaInput carries the fields for a new partida.
type CreatePartidaInput struct {
	Nombre      string
	Descripcion *string
	BodegaID    *id.ID
}

// CreatePartida allocates the next global partida number and creates the
// container with zeroed derived totals.
func (s *Service) CreatePartida(ctx context.Context, in CreatePartidaInput) (*Partida, error) {
	p := &Partida{
		BaseRecord:  entity.NewBaseRecord(),
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		BodegaID:    in.BodegaID,
		PesoTotalKg: decimal.Zero,
	}
	p.CreatedBy = appctx.GetUserID(ctx)
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		numero, err := s.alloc.Next(ctx, sequence.GlobalScope(sequence.ScopePartida))
		if err != nil {
			return fmt.Errorf("allocate partida number: %w", err)
		}
		p.Numero = numero
		p.Codigo = sequence.FormatCode("PAR", numero, 4)

		if err := s.partidas.Create(ctx, p); err != nil {
			return fmt.Errorf("create partida: %w", err)
		}
		return s.logAudit(ctx, "partida", p.ID, audit.ActionCreate, map[string]any{
			"codigo": p.Codigo,
			"nombre": p.Nombre,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "partida created", "id", p.ID, "codigo", p.Codigo)
	return p, nil
}

// Calidad groups the quality attributes the engine stores but never
// interprets.
type Calidad struct {
	Humedad        *decimal.Decimal
	Score          *decimal.Decimal
	Taza           *string
	Cualidades     *string
	Etiqueta       *string
	Defectos       *decimal.Decimal
	RB             *decimal.Decimal
	RN             *decimal.Decimal
	RendimientoB15 *decimal.Decimal
}

// CreateSubPartidaInput carries the fields for a new subpartida.
type CreateSubPartidaInput struct {
	PartidaID    id.ID
	Nombre       string
	TipoProceso  TipoProceso
	Quintales    decimal.Decimal
	PesoBrutoKg  decimal.Decimal
	TaraKg       decimal.Decimal
	NumeroSacos  int
	FechaIngreso *time.Time
	Calidad      Calidad
}

// CreateSubPartida creates a stock unit under a partida: allocates the
// per-partida number under the parent's row lock, derives the net weight and
// the initial state and recomputes the parent's totals, all in one
// transaction.
func (s *Service) CreateSubPartida(ctx context.Context, in CreateSubPartidaInput) (*SubPartida, error) {
	sp := &SubPartida{
		BaseRecord:     entity.NewBaseRecord(),
		PartidaID:      in.PartidaID,
		Nombre:         in.Nombre,
		TipoProceso:    in.TipoProceso,
		Quintales:      in.Quintales,
		PesoBrutoKg:    in.PesoBrutoKg,
		TaraKg:         in.TaraKg,
		NumeroSacos:    in.NumeroSacos,
		FechaIngreso:   in.FechaIngreso,
		Humedad:        in.Calidad.Humedad,
		Score:          in.Calidad.Score,
		Taza:           in.Calidad.Taza,
		Cualidades:     in.Calidad.Cualidades,
		Etiqueta:       normalizeEtiqueta(in.Calidad.Etiqueta),
		Defectos:       in.Calidad.Defectos,
		RB:             in.Calidad.RB,
		RN:             in.Calidad.RN,
		RendimientoB15: in.Calidad.RendimientoB15,
	}
	// Derived, not assumed: a declared quantity of zero starts out AGOTADO
	// and stays there on the first recompute.
	sp.Estado = DeriveEstado(in.Quintales, in.Quintales)
	sp.CreatedBy = appctx.GetUserID(ctx)
	sp.RecomputePesoNeto()
	if err := sp.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		parent, err := s.partidas.GetByIDForUpdate(ctx, in.PartidaID)
		if err != nil {
			return err
		}
		if !parent.Activo {
			return apperror.NewParentInactive("partida", parent.ID)
		}

		numero, err := s.alloc.Next(ctx, sequence.ChildScope(sequence.ScopeSubPartida, parent.ID))
		if err != nil {
			return fmt.Errorf("allocate subpartida number: %w", err)
		}
		sp.Numero = numero
		sp.Codigo = sequence.FormatChildCode(parent.Codigo, numero)

		if err := s.subpartidas.Create(ctx, sp); err != nil {
			return fmt.Errorf("create subpartida: %w", err)
		}
		if err := s.recomputeTotales(ctx, parent); err != nil {
			return err
		}
		return s.logAudit(ctx, "subpartida", sp.ID, audit.ActionCreate, map[string]any{
			"codigo":    sp.Codigo,
			"quintales": sp.Quintales.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "subpartida created",
		"id", sp.ID,
		"codigo", sp.Codigo,
		"peso_neto_kg", sp.PesoNetoKg,
	)
	return sp, nil
}

// SubPartidaPatch holds the editable fields; nil means unchanged.
type SubPartidaPatch struct {
	Nombre       *string
	TipoProceso  *TipoProceso
	Quintales    *decimal.Decimal
	PesoBrutoKg  *decimal.Decimal
	TaraKg       *decimal.Decimal
	NumeroSacos  *int
	FechaIngreso *time.Time
	Calidad      *Calidad
}

// UpdateSubPartida applies an edit. Net weight is re-derived from the (new)
// gross and tare, the state is re-derived from the ledger against the (new)
// declared quintales, and the parent totals are recomputed; the three derived
// fields can never be set directly.
func (s *Service) UpdateSubPartida(ctx context.Context, subPartidaID id.ID, patch SubPartidaPatch) (*SubPartida, error) {
	var sp *SubPartida

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.subpartidas.GetByID(ctx, subPartidaID)
		if err != nil {
			return err
		}

		parent, err := s.partidas.GetByIDForUpdate(ctx, existing.PartidaID)
		if err != nil {
			return err
		}

		applyPatch(existing, patch)
		existing.RecomputePesoNeto()
		if err := existing.Validate(ctx); err != nil {
			return err
		}

		movs, err := s.movimientos.ListBySubPartida(ctx, existing.ID)
		if err != nil {
			return fmt.Errorf("list movimientos: %w", err)
		}
		existing.Estado = DeriveEstado(existing.Quintales, Disponibles(existing.Quintales, movs))

		existing.UpdatedBy = appctx.GetUserID(ctx)
		existing.Touch()
		if err := s.subpartidas.Update(ctx, existing); err != nil {
			return err
		}
		if err := s.recomputeTotales(ctx, parent); err != nil {
			return err
		}
		sp = existing
		return s.logAudit(ctx, "subpartida", existing.ID, audit.ActionUpdate, map[string]any{
			"codigo": existing.Codigo,
		})
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// DeactivateSubPartida soft-deletes a stock unit and recomputes the parent's
// totals without it.
func (s *Service) DeactivateSubPartida(ctx context.Context, subPartidaID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sp, err := s.subpartidas.GetByID(ctx, subPartidaID)
		if err != nil {
			return err
		}
		parent, err := s.partidas.GetByIDForUpdate(ctx, sp.PartidaID)
		if err != nil {
			return err
		}

		sp.Deactivate()
		sp.UpdatedBy = appctx.GetUserID(ctx)
		sp.Touch()
		if err := s.subpartidas.Update(ctx, sp); err != nil {
			return err
		}
		if err := s.recomputeTotales(ctx, parent); err != nil {
			return err
		}
		return s.logAudit(ctx, "subpartida", sp.ID, audit.ActionDeactivate, map[string]any{
			"codigo": sp.Codigo,
		})
	})
}

// DeactivatePartida soft-deletes the container and cascades to its
// subpartidas.
func (s *Service) DeactivatePartida(ctx context.Context, partidaID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.partidas.GetByIDForUpdate(ctx, partidaID)
		if err != nil {
			return err
		}

		subs, err := s.subpartidas.ListByPartida(ctx, p.ID, true)
		if err != nil {
			return fmt.Errorf("list subpartidas: %w", err)
		}
		for i := range subs {
			subs[i].Deactivate()
			subs[i].Touch()
			if err := s.subpartidas.Update(ctx, &subs[i]); err != nil {
				return err
			}
		}

		p.Deactivate()
		p.UpdatedBy = appctx.GetUserID(ctx)
		p.Touch()
		if err := s.recomputeTotales(ctx, p); err != nil {
			return err
		}
		return s.logAudit(ctx, "partida", p.ID, audit.ActionDeactivate, map[string]any{
			"codigo":            p.Codigo,
			"subpartidas_bajas": len(subs),
		})
	})
}

// GetPartida returns a partida by id.
func (s *Service) GetPartida(ctx context.Context, partidaID id.ID) (*Partida, error) {
	return s.partidas.GetByID(ctx, partidaID)
}

// ListPartidas returns partidas matching the filter.
func (s *Service) ListPartidas(ctx context.Context, filter PartidaFilter) ([]Partida, error) {
	return s.partidas.List(ctx, filter)
}

// GetSubPartida returns a subpartida with its derived availability.
func (s *Service) GetSubPartida(ctx context.Context, subPartidaID id.ID) (*SubPartida, decimal.Decimal, error) {
	sp, err := s.subpartidas.GetByID(ctx, subPartidaID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	movs, err := s.movimientos.ListBySubPartida(ctx, sp.ID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list movimientos: %w", err)
	}
	return sp, Disponibles(sp.Quintales, movs), nil
}

// ListSubPartidas returns a partida's subpartidas.
func (s *Service) ListSubPartidas(ctx context.Context, partidaID id.ID, soloActivas bool) ([]SubPartida, error) {
	return s.subpartidas.ListByPartida(ctx, partidaID, soloActivas)
}

// ListMovimientos returns a subpartida's ledger, newest first ordering is up
// to the repository.
func (s *Service) ListMovimientos(ctx context.Context, subPartidaID id.ID) ([]Movimiento, error) {
	return s.movimientos.ListBySubPartida(ctx, subPartidaID)
}

// ApplyMovimientoInput describes a consumption of a subpartida's quintales.
type ApplyMovimientoInput struct {
	SubPartidaID  id.ID
	TipoDestino   TipoDestino
	DestinoID     *id.ID
	Quintales     decimal.Decimal
	Observaciones *string
}

// MovimientoResult reports the ledger entry plus the re-derived availability
// and state.
type MovimientoResult struct {
	Movimiento  *Movimiento
	Disponibles decimal.Decimal
	Estado      Estado
}

// ApplyMovimiento appends a ledger entry. The availability check runs against
// the ledger re-read inside the same transaction, under the partida row lock,
// so two concurrent movements cannot both pass against a stale read.
func (s *Service) ApplyMovimiento(ctx context.Context, in ApplyMovimientoInput) (*MovimientoResult, error) {
	if !in.Quintales.IsPositive() {
		return nil, apperror.NewValidation("quintales must be positive").
			WithDetail("field", "quintales").
			WithDetail("value", in.Quintales.String())
	}
	if !ValidDestino(in.TipoDestino) {
		return nil, apperror.NewValidation("unknown tipo_destino").
			WithDetail("field", "tipo_destino").
			WithDetail("value", string(in.TipoDestino))
	}

	var result *MovimientoResult
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sp, err := s.subpartidas.GetByID(ctx, in.SubPartidaID)
		if err != nil {
			return err
		}
		if _, err := s.partidas.GetByIDForUpdate(ctx, sp.PartidaID); err != nil {
			return err
		}
		if !sp.Activo {
			return apperror.NewParentInactive("subpartida", sp.ID)
		}

		movs, err := s.movimientos.ListBySubPartida(ctx, sp.ID)
		if err != nil {
			return fmt.Errorf("list movimientos: %w", err)
		}
		disponible := Disponibles(sp.Quintales, movs)
		if in.Quintales.GreaterThan(disponible) {
			return apperror.NewInsufficientStock(sp.Codigo, in.Quintales, disponible)
		}

		mov := &Movimiento{
			ID:               id.New(),
			SubPartidaID:     sp.ID,
			TipoDestino:      in.TipoDestino,
			DestinoID:        in.DestinoID,
			QuintalesMovidos: in.Quintales,
			Fecha:            time.Now().UTC(),
			Observaciones:    in.Observaciones,
			CreadoPor:        appctx.GetUserID(ctx),
		}
		if err := s.movimientos.Create(ctx, mov); err != nil {
			return fmt.Errorf("create movimiento: %w", err)
		}

		nuevoDisponible := disponible.Sub(in.Quintales)
		sp.Estado = DeriveEstado(sp.Quintales, nuevoDisponible)
		sp.Touch()
		if err := s.subpartidas.Update(ctx, sp); err != nil {
			return err
		}

		result = &MovimientoResult{
			Movimiento:  mov,
			Disponibles: nuevoDisponible,
			Estado:      sp.Estado,
		}
		return s.logAudit(ctx, "movimiento", mov.ID, audit.ActionCreate, map[string]any{
			"subpartida":        sp.Codigo,
			"tipo_destino":      string(mov.TipoDestino),
			"quintales_movidos": mov.QuintalesMovidos.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movimiento applied",
		"subpartida_id", in.SubPartidaID,
		"quintales", in.Quintales,
		"estado", result.Estado,
	)
	return result, nil
}

// DeleteMovimiento hard-deletes a ledger entry and re-derives the
// subpartida's state. This is the only physical delete in the model; an edit
// is a delete plus a new ApplyMovimiento.
func (s *Service) DeleteMovimiento(ctx context.Context, movimientoID id.ID) (*MovimientoResult, error) {
	var result *MovimientoResult
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		mov, err := s.movimientos.GetByID(ctx, movimientoID)
		if err != nil {
			return err
		}
		sp, err := s.subpartidas.GetByID(ctx, mov.SubPartidaID)
		if err != nil {
			return err
		}
		if _, err := s.partidas.GetByIDForUpdate(ctx, sp.PartidaID); err != nil {
			return err
		}

		if err := s.movimientos.Delete(ctx, mov.ID); err != nil {
			return fmt.Errorf("delete movimiento: %w", err)
		}

		movs, err := s.movimientos.ListBySubPartida(ctx, sp.ID)
		if err != nil {
			return fmt.Errorf("list movimientos: %w", err)
		}
		disponible := Disponibles(sp.Quintales, movs)
		sp.Estado = DeriveEstado(sp.Quintales, disponible)
		sp.Touch()
		if err := s.subpartidas.Update(ctx, sp); err != nil {
			return err
		}

		result = &MovimientoResult{
			Movimiento:  mov,
			Disponibles: disponible,
			Estado:      sp.Estado,
		}
		return s.logAudit(ctx, "movimiento", mov.ID, audit.ActionDelete, map[string]any{
			"subpartida":        sp.Codigo,
			"quintales_movidos": mov.QuintalesMovidos.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recomputeTotales rewrites the partida's derived aggregates from its active
// subpartidas. Runs inside the caller's transaction, after the mutation.
func (s *Service) recomputeTotales(ctx context.Context, p *Partida) error {
	subs, err := s.subpartidas.ListByPartida(ctx, p.ID, true)
	if err != nil {
		return fmt.Errorf("list subpartidas: %w", err)
	}

	total := decimal.Zero
	for _, sp := range subs {
		total = total.Add(sp.PesoNetoKg)
	}
	p.PesoTotalKg = total
	p.NumeroSubPartidas = len(subs)

	if err := s.partidas.Update(ctx, p); err != nil {
		return fmt.Errorf("update partida totals: %w", err)
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

func applyPatch(sp *SubPartida, patch SubPartidaPatch) {
	if patch.Nombre != nil {
		sp.Nombre = *patch.Nombre
	}
	if patch.TipoProceso != nil {
		sp.TipoProceso = *patch.TipoProceso
	}
	if patch.Quintales != nil {
		sp.Quintales = *patch.Quintales
	}
	if patch.PesoBrutoKg != nil {
		sp.PesoBrutoKg = *patch.PesoBrutoKg
	}
	if patch.TaraKg != nil {
		sp.TaraKg = *patch.TaraKg
	}
	if patch.NumeroSacos != nil {
		sp.NumeroSacos = *patch.NumeroSacos
	}
	if patch.FechaIngreso != nil {
		sp.FechaIngreso = patch.FechaIngreso
	}
	if patch.Calidad != nil {
		sp.Humedad = patch.Calidad.Humedad
		sp.Score = patch.Calidad.Score
		sp.Taza = patch.Calidad.Taza
		sp.Cualidades = patch.Calidad.Cualidades
		sp.Etiqueta = normalizeEtiqueta(patch.Calidad.Etiqueta)
		sp.Defectos = patch.Calidad.Defectos
		sp.RB = patch.Calidad.RB
		sp.RN = patch.Calidad.RN
		sp.RendimientoB15 = patch.Calidad.RendimientoB15
	}
}

// normalizeEtiqueta canonicalizes a label so the same text entered on
// different subpartidas compares equal: whitespace trimmed, empty becomes nil.
func normalizeEtiqueta(e *string) *string {
	if e == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*e)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
