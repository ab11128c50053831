package venta

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
	"beneficio/internal/domain/units"
	"beneficio/pkg/logger"
)

// Service records sales and exports against a chain stage's output.
type Service struct {
	ventas  Repository
	fuentes FuenteReader
	txm     tx.Manager
	audit   audit.Recorder
}

// NewService creates the venta service.
func NewService(ventas Repository, fuentes FuenteReader, txm tx.Manager, auditRec audit.Recorder) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{ventas: ventas, fuentes: fuentes, txm: txm, audit: auditRec}
}

// CreateVentaInput carries the fields for a new sale or export.
type CreateVentaInput struct {
	Tipo          TipoVenta
	TipoFuente    TipoFuente
	FuenteID      id.ID
	Cliente       string
	Fecha         time.Time
	Cantidad      decimal.Decimal
	Unidad        units.Unit
	KilosPorBolsa *decimal.Decimal
	PrecioTotal   *decimal.Decimal

	PaisDestino      *string
	NumeroContenedor *string
	Observaciones    *string
}

// CreateVenta normalizes the entered quantity to kilograms with the
// international factors, then checks it against the source stage's remaining
// weight inside the write transaction and records the sale.
func (s *Service) CreateVenta(ctx context.Context, in CreateVentaInput) (*Venta, error) {
	v := &Venta{
		BaseRecord:       entity.NewBaseRecord(),
		Tipo:             in.Tipo,
		TipoFuente:       in.TipoFuente,
		FuenteID:         in.FuenteID,
		Cliente:          in.Cliente,
		Fecha:            in.Fecha,
		Cantidad:         in.Cantidad,
		Unidad:           in.Unidad,
		KilosPorBolsa:    in.KilosPorBolsa,
		PrecioTotal:      in.PrecioTotal,
		PaisDestino:      in.PaisDestino,
		NumeroContenedor: in.NumeroContenedor,
		Observaciones:    in.Observaciones,
	}
	v.CreatedBy = appctx.GetUserID(ctx)
	if err := v.Validate(ctx); err != nil {
		return nil, err
	}

	var opts units.Options
	if in.KilosPorBolsa != nil {
		opts.KilosPorBolsa = *in.KilosPorBolsa
	}
	pesoKg, err := units.ToKilograms(in.Cantidad, in.Unidad, units.Intl, opts)
	if err != nil {
		return nil, err
	}
	v.PesoKg = pesoKg

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		disponible, err := s.fuentes.DisponibleForUpdate(ctx, in.TipoFuente, in.FuenteID)
		if err != nil {
			return err
		}
		if pesoKg.GreaterThan(disponible) {
			return apperror.NewInsufficientStock(string(in.TipoFuente), pesoKg, disponible)
		}

		if err := s.ventas.Create(ctx, v); err != nil {
			return fmt.Errorf("create venta: %w", err)
		}
		return s.logAudit(ctx, "venta", v.ID, audit.ActionCreate, map[string]any{
			"tipo":        string(v.Tipo),
			"tipo_fuente": string(v.TipoFuente),
			"peso_kg":     pesoKg.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "venta recorded",
		"id", v.ID,
		"tipo", v.Tipo,
		"peso_kg", v.PesoKg,
	)
	return v, nil
}

// GetVenta returns a sale by id.
func (s *Service) GetVenta(ctx context.Context, ventaID id.ID) (*Venta, error) {
	return s.ventas.GetByID(ctx, ventaID)
}

// ListVentas returns sales matching the filter.
func (s *Service) ListVentas(ctx context.Context, filter Filter) ([]Venta, error) {
	return s.ventas.List(ctx, filter)
}

// DeactivateVenta soft-deletes a sale, returning its weight to the source
// stage's availability.
func (s *Service) DeactivateVenta(ctx context.Context, ventaID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		v, err := s.ventas.GetByID(ctx, ventaID)
		if err != nil {
			return err
		}
		// Serialize with concurrent sales against the same source.
		if _, err := s.fuentes.DisponibleForUpdate(ctx, v.TipoFuente, v.FuenteID); err != nil {
			return err
		}
		v.Deactivate()
		v.UpdatedBy = appctx.GetUserID(ctx)
		v.Touch()
		if err := s.ventas.Update(ctx, v); err != nil {
			return err
		}
		return s.logAudit(ctx, "venta", v.ID, audit.ActionDeactivate, map[string]any{
			"peso_kg": v.PesoKg.String(),
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
