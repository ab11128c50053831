package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/domain/procesado"
	"beneficio/internal/domain/units"
)

// PesosRequest carries the entered weights with their units. KilosPorBolsa
// applies when either unit is bolsa.
type PesosRequest struct {
	PesoInicial       decimal.Decimal `json:"pesoInicial" binding:"required"`
	UnidadPesoInicial string          `json:"unidadPesoInicial" binding:"required"`
	PesoFinal         decimal.Decimal `json:"pesoFinal" binding:"required"`
	UnidadPesoFinal   string          `json:"unidadPesoFinal" binding:"required"`
	KilosPorBolsa     decimal.Decimal `json:"kilosPorBolsa"`
}

// ToPesos converts the request block to the domain type.
func (r PesosRequest) ToPesos() procesado.Pesos {
	return procesado.Pesos{
		PesoInicial:       r.PesoInicial,
		UnidadPesoInicial: units.Unit(r.UnidadPesoInicial),
		PesoFinal:         r.PesoFinal,
		UnidadPesoFinal:   units.Unit(r.UnidadPesoFinal),
		KilosPorBolsa:     r.KilosPorBolsa,
	}
}

// MermasRequest carries the four loss buckets, in kilograms.
type MermasRequest struct {
	Catadura           decimal.Decimal `json:"catadura"`
	RechazoElectronica decimal.Decimal `json:"rechazoElectronica"`
	BajoZaranda        decimal.Decimal `json:"bajoZaranda"`
	Barridos           decimal.Decimal `json:"barridos"`
}

// ToMermas converts the request block to the domain type.
func (r MermasRequest) ToMermas() procesado.Mermas {
	return procesado.Mermas{
		Catadura:           r.Catadura,
		RechazoElectronica: r.RechazoElectronica,
		BajoZaranda:        r.BajoZaranda,
		Barridos:           r.Barridos,
	}
}

// CreateProcesadoRequest starts a trilla run against a lote.
type CreateProcesadoRequest struct {
	Fecha         time.Time       `json:"fecha" binding:"required"`
	Pesos         PesosRequest    `json:"pesos" binding:"required"`
	CafePrimeraKg decimal.Decimal `json:"cafePrimeraKg"`
	CafeSegundaKg decimal.Decimal `json:"cafeSegundaKg"`
	Mermas        MermasRequest   `json:"mermas"`
	ReciboID      *string         `json:"reciboId"`
	Observaciones *string         `json:"observaciones"`
}

// CreateReprocesoRequest starts a rework pass over a procesado's output.
type CreateReprocesoRequest struct {
	Nombre        *string         `json:"nombre"`
	Fecha         time.Time       `json:"fecha" binding:"required"`
	Pesos         PesosRequest    `json:"pesos" binding:"required"`
	CafePrimeraKg decimal.Decimal `json:"cafePrimeraKg"`
	CafeSegundaKg decimal.Decimal `json:"cafeSegundaKg"`
	Mermas        MermasRequest   `json:"mermas"`
	Motivo        string          `json:"motivo" binding:"required"`
}

// ProcesadoResponse reports the created run and the lote's remaining weight
// after it.
type ProcesadoResponse struct {
	Procesado        *procesado.Procesado `json:"procesado"`
	LoteDisponibleKg decimal.Decimal      `json:"loteDisponibleKg"`
}

// ReprocesoResponse reports the created rework and the procesado's remaining
// reworkable weight after it.
type ReprocesoResponse struct {
	Reproceso             *procesado.Reproceso `json:"reproceso"`
	ProcesadoDisponibleKg decimal.Decimal      `json:"procesadoDisponibleKg"`
}
