package partida

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveEstado(t *testing.T) {
	tests := []struct {
		name        string
		quintales   string
		disponibles string
		want        Estado
	}{
		{"untouched", "10", "10", EstadoDisponible},
		{"partially consumed", "10", "4.5", EstadoParcial},
		{"exactly exhausted", "10", "0", EstadoAgotado},
		{"over-consumed", "10", "-0.5", EstadoAgotado},
		{"tiny remainder", "10", "0.01", EstadoParcial},
		{"fractional declared", "1.19", "1.19", EstadoDisponible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveEstado(dec(tt.quintales), dec(tt.disponibles))
			assert.Equal(t, tt.want, got)
		})
	}
}

// PROCESADO is declared but unreachable under the derivation rule; make sure
// nothing starts producing it without a deliberate change.
func TestDeriveEstado_NeverProcesado(t *testing.T) {
	quintales := dec("10")
	for _, disp := range []string{"10", "9.99", "5", "0.01", "0", "-1", "-100"} {
		got := DeriveEstado(quintales, dec(disp))
		require.NotEqual(t, EstadoProcesado, got, "disponibles=%s", disp)
	}
}

func TestDisponibles(t *testing.T) {
	movs := []Movimiento{
		{QuintalesMovidos: dec("1.5")},
		{QuintalesMovidos: dec("0.25")},
		{QuintalesMovidos: dec("3")},
	}
	got := Disponibles(dec("10"), movs)
	assert.True(t, got.Equal(dec("5.25")), "got %s", got)

	assert.True(t, Disponibles(dec("10"), nil).Equal(dec("10")))
}

func TestSubPartida_RecomputePesoNeto(t *testing.T) {
	sp := &SubPartida{
		PesoBrutoKg: dec("54.74"),
		TaraKg:      dec("1.2"),
	}
	sp.RecomputePesoNeto()
	assert.True(t, sp.PesoNetoKg.Equal(dec("53.54")), "got %s", sp.PesoNetoKg)
}

func TestSubPartida_Validate(t *testing.T) {
	ctx := context.Background()
	base := func() *SubPartida {
		return &SubPartida{
			BaseRecord:  entity.NewBaseRecord(),
			PartidaID:   id.New(),
			Nombre:      "NANDO 1RAS",
			TipoProceso: ProcesoLavado,
			Quintales:   dec("1.19"),
			PesoBrutoKg: dec("54.74"),
			TaraKg:      dec("0"),
		}
	}

	sp := base()
	require.NoError(t, sp.Validate(ctx))

	sp = base()
	sp.PartidaID = id.Nil()
	require.Error(t, sp.Validate(ctx))

	sp = base()
	sp.Quintales = dec("-1")
	require.Error(t, sp.Validate(ctx))

	sp = base()
	sp.TaraKg = dec("60")
	require.Error(t, sp.Validate(ctx))
}

func TestValidDestino(t *testing.T) {
	for _, d := range []TipoDestino{DestinoProcesado, DestinoReproceso, DestinoMezcla, DestinoVenta, DestinoAjuste} {
		assert.True(t, ValidDestino(d))
	}
	assert.False(t, ValidDestino(TipoDestino("TRASLADO")))
}

func TestMovimiento_Fields(t *testing.T) {
	now := time.Now().UTC()
	m := Movimiento{
		ID:               id.New(),
		SubPartidaID:     id.New(),
		TipoDestino:      DestinoMezcla,
		QuintalesMovidos: dec("0.5"),
		Fecha:            now,
	}
	assert.Equal(t, DestinoMezcla, m.TipoDestino)
	assert.Equal(t, now, m.Fecha)
}
