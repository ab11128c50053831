package lote

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeBalance(t *testing.T) {
	tests := []struct {
		name       string
		peso       string
		consumido  string
		disponible string
		exceso     string
		estado     EstadoProcesamiento
	}{
		{"untouched", "100", "0", "100", "0", ProcesamientoDisponible},
		{"partially processed", "100", "40", "60", "0", ProcesamientoParcial},
		{"fully processed", "100", "100", "0", "0", ProcesamientoCompleto},
		{"overconsumed", "100", "110", "-10", "10", ProcesamientoError},
		{"empty lote", "0", "0", "0", "0", ProcesamientoCompleto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeBalance(dec(tt.peso), dec(tt.consumido))
			assert.True(t, b.DisponibleKg.Equal(dec(tt.disponible)), "disponible=%s", b.DisponibleKg)
			assert.True(t, b.ExcesoKg.Equal(dec(tt.exceso)), "exceso=%s", b.ExcesoKg)
			assert.Equal(t, tt.estado, b.Estado)
		})
	}
}

// A lote whose already-persisted children sum past its declared weight, as
// legacy imports produced, reports the ERROR state with the excess amount
// instead of failing: 100 kg consumed by 60 + 50.
func TestComputeBalance_LegacyOverconsumption(t *testing.T) {
	b := ComputeBalance(dec("100"), dec("60").Add(dec("50")))

	assert.True(t, b.DisponibleKg.Equal(dec("-10")))
	assert.True(t, b.Sobreprocesado())
	assert.True(t, b.ExcesoKg.Equal(dec("10")))
	assert.Equal(t, ProcesamientoError, b.Estado)
}
