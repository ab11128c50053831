package procesado

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
	"beneficio/internal/core/sequence"
	"beneficio/internal/domain/lote"
	"beneficio/internal/domain/units"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memStore struct {
	lotes      map[id.ID]*lote.Lote
	procesados map[id.ID]*Procesado
	reprocesos map[id.ID]*Reproceso
}

func newMemStore() *memStore {
	return &memStore{
		lotes:      make(map[id.ID]*lote.Lote),
		procesados: make(map[id.ID]*Procesado),
		reprocesos: make(map[id.ID]*Reproceso),
	}
}

func (m *memStore) Create(ctx context.Context, p *Procesado) error {
	cp := *p
	m.procesados[p.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, procesadoID id.ID) (*Procesado, error) {
	p, ok := m.procesados[procesadoID]
	if !ok {
		return nil, apperror.NewNotFound("procesado", procesadoID)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetByIDForUpdate(ctx context.Context, procesadoID id.ID) (*Procesado, error) {
	return m.GetByID(ctx, procesadoID)
}

func (m *memStore) Update(ctx context.Context, p *Procesado) error {
	if _, ok := m.procesados[p.ID]; !ok {
		return apperror.NewNotFound("procesado", p.ID)
	}
	cp := *p
	m.procesados[p.ID] = &cp
	return nil
}

func (m *memStore) ListByLote(ctx context.Context, loteID id.ID, soloActivos bool) ([]Procesado, error) {
	var out []Procesado
	for _, p := range m.procesados {
		if p.LoteID != loteID {
			continue
		}
		if soloActivos && !p.Activo {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

type memReprocesos struct{ store *memStore }

func (m memReprocesos) Create(ctx context.Context, r *Reproceso) error {
	cp := *r
	m.store.reprocesos[r.ID] = &cp
	return nil
}

func (m memReprocesos) GetByID(ctx context.Context, reprocesoID id.ID) (*Reproceso, error) {
	r, ok := m.store.reprocesos[reprocesoID]
	if !ok {
		return nil, apperror.NewNotFound("reproceso", reprocesoID)
	}
	cp := *r
	return &cp, nil
}

func (m memReprocesos) Update(ctx context.Context, r *Reproceso) error {
	if _, ok := m.store.reprocesos[r.ID]; !ok {
		return apperror.NewNotFound("reproceso", r.ID)
	}
	cp := *r
	m.store.reprocesos[r.ID] = &cp
	return nil
}

func (m memReprocesos) ListByProcesado(ctx context.Context, procesadoID id.ID) ([]Reproceso, error) {
	var out []Reproceso
	for _, r := range m.store.reprocesos {
		if r.ProcesadoID == procesadoID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memLotes struct{ store *memStore }

func (m memLotes) Create(ctx context.Context, l *lote.Lote) error {
	cp := *l
	m.store.lotes[l.ID] = &cp
	return nil
}

func (m memLotes) GetByID(ctx context.Context, loteID id.ID) (*lote.Lote, error) {
	l, ok := m.store.lotes[loteID]
	if !ok {
		return nil, apperror.NewNotFound("lote", loteID)
	}
	cp := *l
	return &cp, nil
}

func (m memLotes) GetByIDForUpdate(ctx context.Context, loteID id.ID) (*lote.Lote, error) {
	return m.GetByID(ctx, loteID)
}

func (m memLotes) GetByCodigo(ctx context.Context, codigo string) (*lote.Lote, error) {
	for _, l := range m.store.lotes {
		if l.Codigo == codigo {
			cp := *l
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("lote", codigo)
}

func (m memLotes) Update(ctx context.Context, l *lote.Lote) error {
	cp := *l
	m.store.lotes[l.ID] = &cp
	return nil
}

func (m memLotes) List(ctx context.Context, filter lote.Filter) ([]lote.Lote, error) {
	return nil, nil
}

// memConsumo derives a lote's consumption from the active procesados in the
// store, the same formula production computes with SQL.
type memConsumo struct{ store *memStore }

func (m memConsumo) ConsumoTotal(ctx context.Context, loteID id.ID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range m.store.procesados {
		if p.LoteID == loteID && p.Activo {
			total = total.Add(p.PesoInicialKg)
		}
	}
	return total, nil
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
		memReprocesos{store},
		memLotes{store},
		memConsumo{store},
		sequence.NewMockAllocator(),
		&serialTx{},
		nil,
	)
	return svc, store
}

func seedLote(store *memStore, pesoKg string) *lote.Lote {
	l := &lote.Lote{
		BaseRecord: entity.NewBaseRecord(),
		Codigo:     "LOT-001",
		TipoCafe:   "Catuai",
		BodegaID:   id.New(),
		PesoKg:     dec(pesoKg),
	}
	store.lotes[l.ID] = l
	return l
}

func kgPesos(inicial, final string) Pesos {
	return Pesos{
		PesoInicial:       dec(inicial),
		UnidadPesoInicial: units.Kilogramo,
		PesoFinal:         dec(final),
		UnidadPesoFinal:   units.Kilogramo,
	}
}

func TestCreateProcesado(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	l := seedLote(store, "100")

	res, err := svc.CreateProcesado(ctx, CreateProcesadoInput{
		LoteID: l.ID,
		Fecha:  time.Now().UTC(),
		Pesos:  kgPesos("60", "48"),
		Mermas: Mermas{Catadura: dec("5"), Barridos: dec("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, "T-0001", res.Procesado.CodigoTrilla)
	assert.True(t, res.LoteDisponibleKg.Equal(dec("40")))
	assert.True(t, res.Procesado.Rendimiento().Equal(dec("80")))
	assert.True(t, res.Procesado.MermaTotal().Equal(dec("7")))
}

func TestCreateProcesado_QuintalInput(t *testing.T) {
	svc, store := newTestService()
	l := seedLote(store, "100")

	res, err := svc.CreateProcesado(context.Background(), CreateProcesadoInput{
		LoteID: l.ID,
		Fecha:  time.Now().UTC(),
		Pesos: Pesos{
			PesoInicial:       dec("2"),
			UnidadPesoInicial: units.Quintal,
			PesoFinal:         dec("80"),
			UnidadPesoFinal:   units.Kilogramo,
		},
	})
	require.NoError(t, err)
	// Trade convention: 2 qq = 92 kg.
	assert.True(t, res.Procesado.PesoInicialKg.Equal(dec("92")))
	assert.True(t, res.LoteDisponibleKg.Equal(dec("8")))
}

func TestCreateProcesado_ExceedsAvailable(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	l := seedLote(store, "100")

	_, err := svc.CreateProcesado(ctx, CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("60", "48"),
	})
	require.NoError(t, err)

	// 60 of 100 consumed; a 50 kg run no longer fits.
	_, err = svc.CreateProcesado(ctx, CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("50", "40"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeExceedsAvailable, appErr.Code)
	assert.Equal(t, "10", appErr.Details["excess"])
}

func TestCreateProcesado_InactiveLote(t *testing.T) {
	svc, store := newTestService()
	l := seedLote(store, "100")
	l.Activo = false

	_, err := svc.CreateProcesado(context.Background(), CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("10", "8"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeParentInactive, appErr.Code)
}

func TestDeactivateProcesado_FreesAvailability(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	l := seedLote(store, "100")

	res, err := svc.CreateProcesado(ctx, CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("100", "80"),
	})
	require.NoError(t, err)

	_, err = svc.CreateProcesado(ctx, CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("30", "24"),
	})
	require.Error(t, err)

	require.NoError(t, svc.DeactivateProcesado(ctx, res.Procesado.ID))

	res2, err := svc.CreateProcesado(ctx, CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("30", "24"),
	})
	require.NoError(t, err)
	assert.True(t, res2.LoteDisponibleKg.Equal(dec("70")))
}

func TestCreateReproceso(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	l := seedLote(store, "100")

	pr, err := svc.CreateProcesado(ctx, CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("100", "80"),
	})
	require.NoError(t, err)

	r1, err := svc.CreateReproceso(ctx, CreateReprocesoInput{
		ProcesadoID: pr.Procesado.ID,
		Fecha:       time.Now().UTC(),
		Pesos:       kgPesos("30", "28"),
		Motivo:      "defectos en zaranda",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r1.Reproceso.Numero)
	assert.Equal(t, "T-0001-001", r1.Reproceso.Codigo)
	assert.True(t, r1.ProcesadoDisponibleKg.Equal(dec("50")))

	r2, err := svc.CreateReproceso(ctx, CreateReprocesoInput{
		ProcesadoID: pr.Procesado.ID,
		Fecha:       time.Now().UTC(),
		Pesos:       kgPesos("50", "47"),
		Motivo:      "segunda pasada",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), r2.Reproceso.Numero)
	assert.True(t, r2.ProcesadoDisponibleKg.IsZero())

	// The procesado's 80 kg output is spoken for.
	_, err = svc.CreateReproceso(ctx, CreateReprocesoInput{
		ProcesadoID: pr.Procesado.ID,
		Fecha:       time.Now().UTC(),
		Pesos:       kgPesos("1", "1"),
		Motivo:      "x",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeExceedsAvailable, appErr.Code)
}

func TestCreateReproceso_RequiresMotivo(t *testing.T) {
	svc, store := newTestService()
	l := seedLote(store, "100")
	pr, err := svc.CreateProcesado(context.Background(), CreateProcesadoInput{
		LoteID: l.ID, Fecha: time.Now().UTC(), Pesos: kgPesos("50", "40"),
	})
	require.NoError(t, err)

	_, err = svc.CreateReproceso(context.Background(), CreateReprocesoInput{
		ProcesadoID: pr.Procesado.ID,
		Fecha:       time.Now().UTC(),
		Pesos:       kgPesos("10", "9"),
	})
	require.Error(t, err)
}

// Legacy data inserted without the availability check reports the lote's
// over-consumption as a state, it never blocks reads.
func TestLegacyOverconsumption_SurfacesAsState(t *testing.T) {
	_, store := newTestService()
	l := seedLote(store, "100")

	for _, peso := range []string{"60", "50"} {
		p := &Procesado{
			BaseRecord:    entity.NewBaseRecord(),
			LoteID:        l.ID,
			PesoInicialKg: dec(peso),
		}
		store.procesados[p.ID] = p
	}

	consumido, err := memConsumo{store}.ConsumoTotal(context.Background(), l.ID)
	require.NoError(t, err)
	b := lote.ComputeBalance(l.PesoKg, consumido)
	assert.True(t, b.DisponibleKg.Equal(dec("-10")))
	assert.True(t, b.Sobreprocesado())
	assert.True(t, b.ExcesoKg.Equal(dec("10")))
	assert.Equal(t, lote.ProcesamientoError, b.Estado)
}
