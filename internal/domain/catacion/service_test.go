package catacion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
)

type memStore struct {
	cataciones map[id.ID]*Catacion
	defectos   map[id.ID]*Defecto
}

func newMemStore() *memStore {
	return &memStore{
		cataciones: make(map[id.ID]*Catacion),
		defectos:   make(map[id.ID]*Defecto),
	}
}

func (m *memStore) Create(ctx context.Context, c *Catacion) error {
	cp := *c
	m.cataciones[c.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, catacionID id.ID) (*Catacion, error) {
	c, ok := m.cataciones[catacionID]
	if !ok {
		return nil, apperror.NewNotFound("catacion", catacionID)
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetByCodigoMuestra(ctx context.Context, codigo string) (*Catacion, error) {
	for _, c := range m.cataciones {
		if c.CodigoMuestra == codigo {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("catacion", codigo)
}

func (m *memStore) Update(ctx context.Context, c *Catacion) error {
	if _, ok := m.cataciones[c.ID]; !ok {
		return apperror.NewNotFound("catacion", c.ID)
	}
	cp := *c
	m.cataciones[c.ID] = &cp
	return nil
}

func (m *memStore) ListByMuestra(ctx context.Context, tipo TipoMuestra, muestraID id.ID) ([]Catacion, error) {
	var out []Catacion
	for _, c := range m.cataciones {
		if c.TipoMuestra == tipo && c.MuestraID == muestraID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) CreateDefecto(ctx context.Context, d *Defecto) error {
	cp := *d
	m.defectos[d.ID] = &cp
	return nil
}

func (m *memStore) Delete(ctx context.Context, defectoID id.ID) error {
	delete(m.defectos, defectoID)
	return nil
}

func (m *memStore) ListByCatacion(ctx context.Context, catacionID id.ID) ([]Defecto, error) {
	var out []Defecto
	for _, d := range m.defectos {
		if d.CatacionID == catacionID {
			out = append(out, *d)
		}
	}
	return out, nil
}

// defectoStore adapts memStore to DefectoRepository, whose Create has the
// same name as the catacion one.
type defectoStore struct{ *memStore }

func (s defectoStore) Create(ctx context.Context, d *Defecto) error {
	return s.memStore.CreateDefecto(ctx, d)
}

type serialTx struct{ mu sync.Mutex }

func (t *serialTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, defectoStore{store}, &serialTx{}, nil), store
}

func baseInput() CreateCatacionInput {
	return CreateCatacionInput{
		TipoMuestra:   MuestraLote,
		MuestraID:     id.New(),
		CodigoMuestra: "CAT-001",
		FechaCatacion: time.Now(),
		Puntajes: Puntajes{
			FraganciaAroma: ptr("8"),
			Sabor:          ptr("8"),
			SaborResidual:  ptr("8"),
			Acidez:         ptr("8"),
			Cuerpo:         ptr("8"),
			Balance:        ptr("8"),
			PuntajeCatador: ptr("8"),
		},
	}
}

func TestCreateCatacion_DerivesTotalAndBand(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.CreateCatacion(context.Background(), baseInput())
	require.NoError(t, err)

	// Seven scored attributes at 8 plus the three defaulted tens.
	assert.True(t, dec("86").Equal(c.PuntajeTotal), "got %s", c.PuntajeTotal)
	assert.Equal(t, "Excelente - Specialty 85-89", c.Clasificacion)
}

func TestCreateCatacion_AppliesBrewingDefaults(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.CreateCatacion(context.Background(), baseInput())
	require.NoError(t, err)

	assert.True(t, dec("8.25").Equal(c.PesoMuestraG))
	assert.True(t, dec("93.0").Equal(c.TemperaturaAgua))
	assert.Equal(t, 4, c.TiempoInfusion)
	assert.Equal(t, TuesteMedio, c.TipoTueste)
	assert.True(t, dec("10").Equal(c.Uniformidad))
	assert.True(t, dec("10").Equal(c.TazaLimpia))
	assert.True(t, dec("10").Equal(c.Dulzor))
}

func TestCreateCatacion_DuplicateCodigoMuestra(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateCatacion(ctx, baseInput())
	require.NoError(t, err)

	_, err = svc.CreateCatacion(ctx, baseInput())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateCatacion_RejectsScoreOverTen(t *testing.T) {
	svc, _ := newTestService()

	in := baseInput()
	in.Puntajes.Sabor = ptr("10.5")

	_, err := svc.CreateCatacion(context.Background(), in)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestUpdatePuntajes_Rederives(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.CreateCatacion(ctx, baseInput())
	require.NoError(t, err)

	p := c.Puntajes
	p.Sabor = ptr("9")
	updated, err := svc.UpdatePuntajes(ctx, c.ID, p)
	require.NoError(t, err)

	assert.True(t, dec("87").Equal(updated.PuntajeTotal), "got %s", updated.PuntajeTotal)
}

func TestAddDefecto(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	c, err := svc.CreateCatacion(ctx, baseInput())
	require.NoError(t, err)

	d, err := svc.AddDefecto(ctx, c.ID, DefectoPrimario, "grano negro", 3, dec("3"))
	require.NoError(t, err)
	assert.Equal(t, c.ID, d.CatacionID)

	defectos, err := store.ListByCatacion(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, defectos, 1)
}

func TestAddDefecto_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.CreateCatacion(ctx, baseInput())
	require.NoError(t, err)

	_, err = svc.AddDefecto(ctx, c.ID, CategoriaDefecto("OTRA"), "x", 1, dec("1"))
	assert.Error(t, err)

	_, err = svc.AddDefecto(ctx, c.ID, DefectoPrimario, "x", 0, dec("1"))
	assert.Error(t, err)

	_, err = svc.AddDefecto(ctx, id.New(), DefectoPrimario, "x", 1, dec("1"))
	assert.Error(t, err)
}
