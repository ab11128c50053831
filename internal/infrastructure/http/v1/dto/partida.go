package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/domain/partida"
)

// CreatePartidaRequest creates a partida container.
type CreatePartidaRequest struct {
	Nombre      string  `json:"nombre" binding:"required"`
	Descripcion *string `json:"descripcion"`
	BodegaID    *string `json:"bodegaId"`
}

// CalidadRequest carries the optional quality block of a subpartida.
type CalidadRequest struct {
	Humedad        *decimal.Decimal `json:"humedad"`
	Score          *decimal.Decimal `json:"score"`
	Taza           *string          `json:"taza"`
	Cualidades     *string          `json:"cualidades"`
	Etiqueta       *string          `json:"etiqueta"`
	Defectos       *decimal.Decimal `json:"defectos"`
	RB             *decimal.Decimal `json:"rb"`
	RN             *decimal.Decimal `json:"rn"`
	RendimientoB15 *decimal.Decimal `json:"rendimientoB15"`
}

// ToCalidad converts the request block to the domain type.
func (r CalidadRequest) ToCalidad() partida.Calidad {
	return partida.Calidad{
		Humedad:        r.Humedad,
		Score:          r.Score,
		Taza:           r.Taza,
		Cualidades:     r.Cualidades,
		Etiqueta:       r.Etiqueta,
		Defectos:       r.Defectos,
		RB:             r.RB,
		RN:             r.RN,
		RendimientoB15: r.RendimientoB15,
	}
}

// CreateSubPartidaRequest creates a stock unit under a partida.
type CreateSubPartidaRequest struct {
	Nombre       string          `json:"nombre" binding:"required"`
	TipoProceso  string          `json:"tipoProceso" binding:"required"`
	Quintales    decimal.Decimal `json:"quintales" binding:"required"`
	PesoBrutoKg  decimal.Decimal `json:"pesoBrutoKg"`
	TaraKg       decimal.Decimal `json:"taraKg"`
	NumeroSacos  int             `json:"numeroSacos"`
	FechaIngreso *time.Time      `json:"fechaIngreso"`
	Calidad      CalidadRequest  `json:"calidad"`
}

// UpdateSubPartidaRequest edits a subpartida; nil means unchanged. Derived
// fields (peso neto, estado, parent totals) are never accepted.
type UpdateSubPartidaRequest struct {
	Nombre       *string          `json:"nombre"`
	TipoProceso  *string          `json:"tipoProceso"`
	Quintales    *decimal.Decimal `json:"quintales"`
	PesoBrutoKg  *decimal.Decimal `json:"pesoBrutoKg"`
	TaraKg       *decimal.Decimal `json:"taraKg"`
	NumeroSacos  *int             `json:"numeroSacos"`
	FechaIngreso *time.Time       `json:"fechaIngreso"`
	Calidad      *CalidadRequest  `json:"calidad"`
}

// CreateMovimientoRequest appends a consumption entry to a subpartida.
type CreateMovimientoRequest struct {
	TipoDestino   string          `json:"tipoDestino" binding:"required"`
	DestinoID     *string         `json:"destinoId"`
	Quintales     decimal.Decimal `json:"quintales" binding:"required"`
	Observaciones *string         `json:"observaciones"`
}

// SubPartidaDetailResponse pairs a subpartida with its ledger-derived
// availability.
type SubPartidaDetailResponse struct {
	SubPartida  *partida.SubPartida `json:"subpartida"`
	Disponibles decimal.Decimal     `json:"disponibles"`
}

// MovimientoResponse reports the new ledger entry and the state it left the
// subpartida in.
type MovimientoResponse struct {
	Movimiento  *partida.Movimiento `json:"movimiento"`
	Disponibles decimal.Decimal     `json:"disponibles"`
	Estado      partida.Estado      `json:"estado"`
}
