package catacion

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestPuntajes_Total(t *testing.T) {
	full := Puntajes{
		FraganciaAroma: ptr("8.5"),
		Sabor:          ptr("8.25"),
		SaborResidual:  ptr("8"),
		Acidez:         ptr("8.5"),
		Cuerpo:         ptr("8.25"),
		Uniformidad:    dec("10"),
		Balance:        ptr("8.5"),
		TazaLimpia:     dec("10"),
		Dulzor:         dec("10"),
		PuntajeCatador: ptr("8.5"),
	}
	assert.True(t, full.Total().Equal(dec("88.5")), "total=%s", full.Total())

	// Unscored optional attributes contribute nothing.
	partial := Puntajes{
		Uniformidad: dec("10"),
		TazaLimpia:  dec("10"),
		Dulzor:      dec("10"),
	}
	assert.True(t, partial.Total().Equal(dec("30")))
}

func TestClasificar_Bands(t *testing.T) {
	tests := []struct {
		puntaje string
		banda   string
	}{
		{"95", "Excepcional - Specialty 90+"},
		{"90", "Excepcional - Specialty 90+"},
		{"89.99", "Excelente - Specialty 85-89"},
		{"85", "Excelente - Specialty 85-89"},
		{"84.5", "Muy Bueno - Specialty 80-84"},
		{"80", "Muy Bueno - Specialty 80-84"},
		{"79", "Bueno - Premium 75-79"},
		{"75", "Bueno - Premium 75-79"},
		{"74.99", "Comercial"},
		{"0", "Comercial"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.banda, Clasificar(dec(tt.puntaje)), "puntaje=%s", tt.puntaje)
	}
}

func TestRecalcular(t *testing.T) {
	c := &Catacion{
		Puntajes: Puntajes{
			FraganciaAroma: ptr("9"),
			Sabor:          ptr("9"),
			SaborResidual:  ptr("9"),
			Acidez:         ptr("9"),
			Cuerpo:         ptr("9"),
			Uniformidad:    dec("10"),
			Balance:        ptr("9"),
			TazaLimpia:     dec("10"),
			Dulzor:         dec("10"),
			PuntajeCatador: ptr("9"),
		},
	}
	c.Recalcular()
	assert.True(t, c.PuntajeTotal.Equal(dec("93")))
	assert.Equal(t, "Excepcional - Specialty 90+", c.Clasificacion)
}
