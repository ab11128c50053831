package lote

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
	"beneficio/internal/core/sequence"
	"beneficio/internal/domain/units"
)

type memStore struct {
	lotes   map[id.ID]*Lote
	recibos map[id.ID]*Recibo
	consumo map[id.ID]decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{
		lotes:   make(map[id.ID]*Lote),
		recibos: make(map[id.ID]*Recibo),
		consumo: make(map[id.ID]decimal.Decimal),
	}
}

func (m *memStore) Create(ctx context.Context, l *Lote) error {
	cp := *l
	m.lotes[l.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, loteID id.ID) (*Lote, error) {
	l, ok := m.lotes[loteID]
	if !ok {
		return nil, apperror.NewNotFound("lote", loteID)
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) GetByIDForUpdate(ctx context.Context, loteID id.ID) (*Lote, error) {
	return m.GetByID(ctx, loteID)
}

func (m *memStore) GetByCodigo(ctx context.Context, codigo string) (*Lote, error) {
	for _, l := range m.lotes {
		if l.Codigo == codigo {
			cp := *l
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("lote", codigo)
}

func (m *memStore) Update(ctx context.Context, l *Lote) error {
	stored, ok := m.lotes[l.ID]
	if !ok {
		return apperror.NewNotFound("lote", l.ID)
	}
	// Same optimistic-lock contract as the postgres layer.
	if l.Version != stored.Version {
		return apperror.NewConcurrentModification("lotes", l.ID)
	}
	cp := *l
	cp.Version++
	m.lotes[l.ID] = &cp
	l.SetVersion(cp.Version)
	return nil
}

func (m *memStore) List(ctx context.Context, filter Filter) ([]Lote, error) {
	var out []Lote
	for _, l := range m.lotes {
		if filter.SoloActivos && !l.Activo {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

type memRecibos struct{ store *memStore }

func (m memRecibos) Create(ctx context.Context, r *Recibo) error {
	cp := *r
	m.store.recibos[r.ID] = &cp
	return nil
}

func (m memRecibos) GetByID(ctx context.Context, reciboID id.ID) (*Recibo, error) {
	r, ok := m.store.recibos[reciboID]
	if !ok {
		return nil, apperror.NewNotFound("recibo", reciboID)
	}
	cp := *r
	return &cp, nil
}

func (m memRecibos) Delete(ctx context.Context, reciboID id.ID) error {
	if _, ok := m.store.recibos[reciboID]; !ok {
		return apperror.NewNotFound("recibo", reciboID)
	}
	delete(m.store.recibos, reciboID)
	return nil
}

func (m memRecibos) ListByLote(ctx context.Context, loteID id.ID) ([]Recibo, error) {
	var out []Recibo
	for _, r := range m.store.recibos {
		if r.LoteID == loteID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memConsumo struct{ store *memStore }

func (m memConsumo) ConsumoTotal(ctx context.Context, loteID id.ID) (decimal.Decimal, error) {
	return m.store.consumo[loteID], nil
}

type serialTx struct{ mu sync.Mutex }

func (t *serialTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(
		store,
		memRecibos{store},
		memConsumo{store},
		sequence.NewMockAllocator(),
		&serialTx{},
		nil,
	)
	return svc, store
}

func mustCreateLote(t *testing.T, svc *Service, codigo string, pesoKg string) *Lote {
	t.Helper()
	l, err := svc.CreateLote(context.Background(), CreateLoteInput{
		Codigo:        codigo,
		TipoCafe:      "Catuai",
		BodegaID:      id.New(),
		PesoKg:        dec(pesoKg),
		Humedad:       dec("11.5"),
		FechaIngreso:  time.Now().UTC(),
		Proveedor:     "Finca El Gigante",
		PrecioQuintal: dec("3200"),
	})
	require.NoError(t, err)
	return l
}

func TestCreateLote_DuplicateCodigo(t *testing.T) {
	svc, _ := newTestService()
	mustCreateLote(t, svc, "LOT-2026-001", "0")

	_, err := svc.CreateLote(context.Background(), CreateLoteInput{
		Codigo:        "LOT-2026-001",
		TipoCafe:      "Bourbon",
		BodegaID:      id.New(),
		PesoKg:        dec("0"),
		FechaIngreso:  time.Now().UTC(),
		Proveedor:     "otro",
		PrecioQuintal: dec("3000"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestAddRecibo_RunningTotal(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	l := mustCreateLote(t, svc, "LOT-001", "0")

	// 2 qq at the trade convention is 92 kg.
	r1, err := svc.AddRecibo(ctx, AddReciboInput{
		LoteID:      l.ID,
		FechaRecibo: time.Now().UTC(),
		Peso:        dec("2"),
		Unidad:      units.Quintal,
		Proveedor:   "Finca El Gigante",
	})
	require.NoError(t, err)
	assert.Equal(t, "RC-00001", r1.NumeroRecibo)
	assert.True(t, r1.PesoKg.Equal(dec("92")))
	// 2 qq at Q3200/qq.
	assert.True(t, r1.MontoTotal.Equal(dec("6400")), "monto=%s", r1.MontoTotal)
	assert.True(t, store.lotes[l.ID].PesoKg.Equal(dec("92")))

	r2, err := svc.AddRecibo(ctx, AddReciboInput{
		LoteID:      l.ID,
		FechaRecibo: time.Now().UTC(),
		Peso:        dec("8"),
		Unidad:      units.Kilogramo,
		Proveedor:   "Finca El Gigante",
	})
	require.NoError(t, err)
	assert.Equal(t, "RC-00002", r2.NumeroRecibo)
	assert.True(t, store.lotes[l.ID].PesoKg.Equal(dec("100")))

	// Deleting a receipt subtracts exactly its stored kilograms.
	require.NoError(t, svc.DeleteRecibo(ctx, r1.ID))
	assert.True(t, store.lotes[l.ID].PesoKg.Equal(dec("8")))
}

func TestAddRecibo_BolsaRequiresWeight(t *testing.T) {
	svc, _ := newTestService()
	l := mustCreateLote(t, svc, "LOT-001", "0")

	_, err := svc.AddRecibo(context.Background(), AddReciboInput{
		LoteID:      l.ID,
		FechaRecibo: time.Now().UTC(),
		Peso:        dec("10"),
		Unidad:      units.Bolsa,
		Proveedor:   "x",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAddRecibo_InactiveLote(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	l := mustCreateLote(t, svc, "LOT-001", "0")
	require.NoError(t, svc.DeactivateLote(ctx, l.ID))

	_, err := svc.AddRecibo(ctx, AddReciboInput{
		LoteID:      l.ID,
		FechaRecibo: time.Now().UTC(),
		Peso:        dec("1"),
		Unidad:      units.Quintal,
		Proveedor:   "x",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeParentInactive, appErr.Code)
}

func TestGetLote_Balance(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	l := mustCreateLote(t, svc, "LOT-001", "100")
	store.consumo[l.ID] = dec("40")

	_, balance, err := svc.GetLote(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, balance.DisponibleKg.Equal(dec("60")))
	assert.Equal(t, ProcesamientoParcial, balance.Estado)
}
