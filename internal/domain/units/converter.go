// Package units converts between the physical units used on the floor
// (quintales, libras, sacos, bolsas) and kilograms, the canonical storage unit.
//
// Two quintal conventions coexist in this system and both are load-bearing in
// persisted data:
//
//   - Trade: 1 qq = 46 kg. Used by the partida ledger and the lote chain.
//   - Intl:  1 qq = 45.36 kg. Used by the venta/exportación pipeline.
//
// Do not unify them; records written under one convention are not convertible
// to the other without a data migration.
package units

import (
	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
)

// Unit is a physical unit tag.
type Unit string

const (
	Kilogramo Unit = "kg"
	Gramo     Unit = "g"
	Libra     Unit = "lb"
	Quintal   Unit = "qq"
	Saco      Unit = "saco"
	Bolsa     Unit = "bolsa"
)

// Convention selects the quintal/saco factor set.
type Convention int

const (
	// Trade is the local trade convention: 1 qq = 1 saco = 46 kg.
	Trade Convention = iota
	// Intl is the international convention: 1 qq = 45.36 kg, used by
	// ventas and exportaciones.
	Intl
)

var (
	kgPerQuintalTrade = decimal.NewFromInt(46)
	kgPerQuintalIntl  = decimal.RequireFromString("45.36")
	kgPerLibra        = decimal.RequireFromString("0.453592")
	kgPerSaco         = decimal.NewFromInt(46)
	gramosPerKilo     = decimal.NewFromInt(1000)
)

// Options carries per-call conversion parameters.
type Options struct {
	// KilosPorBolsa is the weight of one bag. Required for Bolsa; there is
	// no default bag size.
	KilosPorBolsa decimal.Decimal
}

// ToKilograms converts quantity expressed in unit to kilograms.
func ToKilograms(quantity decimal.Decimal, unit Unit, conv Convention, opts Options) (decimal.Decimal, error) {
	factor, err := kgFactor(unit, conv, opts)
	if err != nil {
		return decimal.Zero, err
	}
	return quantity.Mul(factor), nil
}

// FromKilograms converts kilograms back to the given unit.
func FromKilograms(kg decimal.Decimal, unit Unit, conv Convention, opts Options) (decimal.Decimal, error) {
	factor, err := kgFactor(unit, conv, opts)
	if err != nil {
		return decimal.Zero, err
	}
	return kg.DivRound(factor, 12), nil
}

// QuintalesToKilos applies the trade convention (1 qq = 46 kg).
// This is the factor the partida ledger and the lote chain persist under.
func QuintalesToKilos(qq decimal.Decimal) decimal.Decimal {
	return qq.Mul(kgPerQuintalTrade)
}

// KilosToQuintales applies the trade convention in reverse.
func KilosToQuintales(kg decimal.Decimal) decimal.Decimal {
	return kg.DivRound(kgPerQuintalTrade, 12)
}

func kgFactor(unit Unit, conv Convention, opts Options) (decimal.Decimal, error) {
	switch unit {
	case Kilogramo:
		return decimal.NewFromInt(1), nil
	case Gramo:
		return decimal.NewFromInt(1).DivRound(gramosPerKilo, 12), nil
	case Libra:
		return kgPerLibra, nil
	case Quintal:
		if conv == Intl {
			return kgPerQuintalIntl, nil
		}
		return kgPerQuintalTrade, nil
	case Saco:
		return kgPerSaco, nil
	case Bolsa:
		if !opts.KilosPorBolsa.IsPositive() {
			return decimal.Zero, apperror.NewValidation("bolsa conversion requires a positive per-bag weight").
				WithDetail("field", "kilos_por_bolsa").
				WithDetail("value", opts.KilosPorBolsa.String())
		}
		return opts.KilosPorBolsa, nil
	default:
		return decimal.Zero, apperror.NewValidation("unknown unit").
			WithDetail("field", "unidad").
			WithDetail("value", string(unit))
	}
}

// Valid reports whether unit is one of the six selectable units.
func Valid(unit Unit) bool {
	switch unit {
	case Kilogramo, Gramo, Libra, Quintal, Saco, Bolsa:
		return true
	}
	return false
}
