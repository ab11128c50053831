package venta

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
	"beneficio/internal/domain/units"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memStore struct {
	ventas map[id.ID]*Venta
	// fuentes maps source id to that stage's output weight before sales.
	fuentes map[id.ID]decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{
		ventas:  make(map[id.ID]*Venta),
		fuentes: make(map[id.ID]decimal.Decimal),
	}
}

func (m *memStore) Create(ctx context.Context, v *Venta) error {
	cp := *v
	m.ventas[v.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, ventaID id.ID) (*Venta, error) {
	v, ok := m.ventas[ventaID]
	if !ok {
		return nil, apperror.NewNotFound("venta", ventaID)
	}
	cp := *v
	return &cp, nil
}

func (m *memStore) Update(ctx context.Context, v *Venta) error {
	if _, ok := m.ventas[v.ID]; !ok {
		return apperror.NewNotFound("venta", v.ID)
	}
	cp := *v
	m.ventas[v.ID] = &cp
	return nil
}

func (m *memStore) List(ctx context.Context, filter Filter) ([]Venta, error) {
	var out []Venta
	for _, v := range m.ventas {
		if filter.SoloActivas && !v.Activo {
			continue
		}
		if filter.Tipo != nil && v.Tipo != *filter.Tipo {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

// DisponibleForUpdate mirrors production: the stage's output minus its
// active sales.
func (m *memStore) DisponibleForUpdate(ctx context.Context, tipo TipoFuente, fuenteID id.ID) (decimal.Decimal, error) {
	base, ok := m.fuentes[fuenteID]
	if !ok {
		return decimal.Zero, apperror.NewNotFound("fuente", fuenteID)
	}
	for _, v := range m.ventas {
		if v.FuenteID == fuenteID && v.Activo {
			base = base.Sub(v.PesoKg)
		}
	}
	return base, nil
}

type serialTx struct{ mu sync.Mutex }

func (t *serialTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, store, &serialTx{}, nil), store
}

func seedFuente(store *memStore, pesoKg string) id.ID {
	fid := id.New()
	store.fuentes[fid] = dec(pesoKg)
	return fid
}

func TestCreateVenta_IntlNormalization(t *testing.T) {
	tests := []struct {
		name     string
		cantidad string
		unidad   units.Unit
		bolsaKg  string
		pesoKg   string
	}{
		{"kilograms pass through", "100", units.Kilogramo, "", "100"},
		{"grams", "500", units.Gramo, "", "0.5"},
		{"pounds", "100", units.Libra, "", "45.3592"},
		{"international quintal", "2", units.Quintal, "", "90.72"},
		{"sack", "1", units.Saco, "", "46"},
		{"bag with explicit weight", "4", units.Bolsa, "12.5", "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			fid := seedFuente(store, "1000")

			in := CreateVentaInput{
				Tipo:       VentaLocal,
				TipoFuente: FuenteProcesado,
				FuenteID:   fid,
				Cliente:    "Tostadores Unidos",
				Fecha:      time.Now().UTC(),
				Cantidad:   dec(tt.cantidad),
				Unidad:     tt.unidad,
			}
			if tt.bolsaKg != "" {
				kg := dec(tt.bolsaKg)
				in.KilosPorBolsa = &kg
			}
			v, err := svc.CreateVenta(context.Background(), in)
			require.NoError(t, err)
			assert.True(t, v.PesoKg.Equal(dec(tt.pesoKg)), "peso_kg=%s", v.PesoKg)
			// The operator's entry survives verbatim next to the
			// canonical weight.
			assert.True(t, v.Cantidad.Equal(dec(tt.cantidad)))
			assert.Equal(t, tt.unidad, v.Unidad)
		})
	}
}

func TestCreateVenta_AvailabilityGate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	fid := seedFuente(store, "100")

	_, err := svc.CreateVenta(ctx, CreateVentaInput{
		Tipo:       VentaLocal,
		TipoFuente: FuenteMezcla,
		FuenteID:   fid,
		Cliente:    "a",
		Fecha:      time.Now().UTC(),
		Cantidad:   dec("80"),
		Unidad:     units.Kilogramo,
	})
	require.NoError(t, err)

	_, err = svc.CreateVenta(ctx, CreateVentaInput{
		Tipo:       VentaLocal,
		TipoFuente: FuenteMezcla,
		FuenteID:   fid,
		Cliente:    "b",
		Fecha:      time.Now().UTC(),
		Cantidad:   dec("30"),
		Unidad:     units.Kilogramo,
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "10", appErr.Details["shortfall"])
}

func TestCreateVenta_ExportRequiresCountry(t *testing.T) {
	svc, store := newTestService()
	fid := seedFuente(store, "100")

	_, err := svc.CreateVenta(context.Background(), CreateVentaInput{
		Tipo:       VentaExportacion,
		TipoFuente: FuenteProcesado,
		FuenteID:   fid,
		Cliente:    "Importadora",
		Fecha:      time.Now().UTC(),
		Cantidad:   dec("10"),
		Unidad:     units.Kilogramo,
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestDeactivateVenta_RestoresAvailability(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	fid := seedFuente(store, "100")

	v, err := svc.CreateVenta(ctx, CreateVentaInput{
		Tipo:       VentaLocal,
		TipoFuente: FuenteReproceso,
		FuenteID:   fid,
		Cliente:    "a",
		Fecha:      time.Now().UTC(),
		Cantidad:   dec("100"),
		Unidad:     units.Kilogramo,
	})
	require.NoError(t, err)

	_, err = svc.CreateVenta(ctx, CreateVentaInput{
		Tipo:       VentaLocal,
		TipoFuente: FuenteReproceso,
		FuenteID:   fid,
		Cliente:    "b",
		Fecha:      time.Now().UTC(),
		Cantidad:   dec("1"),
		Unidad:     units.Kilogramo,
	})
	require.Error(t, err)

	require.NoError(t, svc.DeactivateVenta(ctx, v.ID))

	_, err = svc.CreateVenta(ctx, CreateVentaInput{
		Tipo:       VentaLocal,
		TipoFuente: FuenteReproceso,
		FuenteID:   fid,
		Cliente:    "b",
		Fecha:      time.Now().UTC(),
		Cantidad:   dec("1"),
		Unidad:     units.Kilogramo,
	})
	require.NoError(t, err)
}
