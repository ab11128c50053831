// Package partida implements the ledger-model inventory: partidas (container
// lots), subpartidas (atomic stock units) and movimientos (consumption ledger).
//
// A subpartida's available quantity is never stored; it is re-derived from the
// full movement ledger on every mutation. The partida's totals are likewise
// derived from its active subpartidas.
package partida

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
)

// TipoProceso is the coffee process applied to a subpartida.
type TipoProceso string

const (
	ProcesoLavado      TipoProceso = "LAVADO"
	ProcesoNatural     TipoProceso = "NATURAL"
	ProcesoHoney       TipoProceso = "HONEY"
	ProcesoLadado      TipoProceso = "LADADO"
	ProcesoLavado2Lata TipoProceso = "LAVADO 2 LATAS"
)

// Estado is the derived inventory state of a subpartida.
//
// EstadoProcesado is declared in the schema but unreachable under the current
// derivation rule (DeriveEstado only produces DISPONIBLE, PARCIAL and
// AGOTADO). It is preserved as-is pending product confirmation; do not invent
// a trigger for it.
type Estado string

const (
	EstadoDisponible Estado = "DISPONIBLE"
	EstadoParcial    Estado = "PARCIAL"
	EstadoProcesado  Estado = "PROCESADO"
	EstadoAgotado    Estado = "AGOTADO"
)

// TipoDestino is the destination of a movimiento.
type TipoDestino string

const (
	DestinoProcesado TipoDestino = "PROCESADO"
	DestinoReproceso TipoDestino = "REPROCESO"
	DestinoMezcla    TipoDestino = "MEZCLA"
	DestinoVenta     TipoDestino = "VENTA"
	DestinoAjuste    TipoDestino = "AJUSTE"
)

// ValidDestino reports whether t is a known destination kind.
func ValidDestino(t TipoDestino) bool {
	switch t {
	case DestinoProcesado, DestinoReproceso, DestinoMezcla, DestinoVenta, DestinoAjuste:
		return true
	}
	return false
}

// Partida is a container lot. Its totals are derived from active subpartidas
// and must never be written directly by callers.
type Partida struct {
	entity.BaseRecord

	// Numero is the global sequential number; Codigo its display form
	// (PAR-0004). Codes are never reused, even after deactivation.
	Numero int64  `db:"numero" json:"numero"`
	Codigo string `db:"codigo" json:"codigo"`

	Nombre      string  `db:"nombre" json:"nombre"`
	Descripcion *string `db:"descripcion" json:"descripcion,omitempty"`
	BodegaID    *id.ID  `db:"bodega_id" json:"bodegaId,omitempty"`

	// Derived aggregates, maintained by the engine after every subpartida
	// mutation.
	PesoTotalKg       decimal.Decimal `db:"peso_total_kg" json:"pesoTotalKg"`
	NumeroSubPartidas int             `db:"numero_subpartidas" json:"numeroSubpartidas"`
}

// Validate implements entity.Validatable.
func (p *Partida) Validate(ctx context.Context) error {
	if p.Nombre == "" {
		return apperror.NewValidation("nombre is required").WithDetail("field", "nombre")
	}
	return nil
}

// SubPartida is the atomic stock unit inside a partida.
type SubPartida struct {
	entity.BaseRecord

	PartidaID id.ID `db:"partida_id" json:"partidaId"`

	// Numero is sequential within the parent partida; Codigo is
	// parentCode-NNN (PAR-0004-003).
	Numero int64  `db:"numero" json:"numero"`
	Codigo string `db:"codigo" json:"codigo"`

	Nombre      string      `db:"nombre" json:"nombre"`
	TipoProceso TipoProceso `db:"tipo_proceso" json:"tipoProceso"`

	// Quintales is the declared quantity in the canonical trade unit
	// (1 qq = 46 kg). The ledger consumes against it.
	Quintales decimal.Decimal `db:"quintales" json:"quintales"`

	PesoBrutoKg decimal.Decimal `db:"peso_bruto_kg" json:"pesoBrutoKg"`
	TaraKg      decimal.Decimal `db:"tara_kg" json:"taraKg"`
	// PesoNetoKg = bruto − tara, recomputed on every save, never settable.
	PesoNetoKg  decimal.Decimal `db:"peso_neto_kg" json:"pesoNetoKg"`
	NumeroSacos int             `db:"numero_sacos" json:"numeroSacos"`

	// Quality attributes, opaque to the engine.
	Humedad        *decimal.Decimal `db:"humedad" json:"humedad,omitempty"`
	Score          *decimal.Decimal `db:"score" json:"score,omitempty"`
	Taza           *string          `db:"taza" json:"taza,omitempty"`
	Cualidades     *string          `db:"cualidades" json:"cualidades,omitempty"`
	Etiqueta       *string          `db:"etiqueta" json:"etiqueta,omitempty"`
	Defectos       *decimal.Decimal `db:"defectos" json:"defectos,omitempty"`
	RB             *decimal.Decimal `db:"rb" json:"rb,omitempty"`
	RN             *decimal.Decimal `db:"rn" json:"rn,omitempty"`
	RendimientoB15 *decimal.Decimal `db:"rendimiento_b15" json:"rendimientoB15,omitempty"`
	FechaIngreso   *time.Time       `db:"fecha_ingreso" json:"fechaIngreso,omitempty"`

	// Estado is derived from the ledger; callers never set it.
	Estado Estado `db:"estado" json:"estado"`
}

// RecomputePesoNeto enforces peso_neto = bruto − tara.
func (s *SubPartida) RecomputePesoNeto() {
	s.PesoNetoKg = s.PesoBrutoKg.Sub(s.TaraKg)
}

// Validate implements entity.Validatable.
func (s *SubPartida) Validate(ctx context.Context) error {
	if id.IsNil(s.PartidaID) {
		return apperror.NewValidation("partida_id is required").WithDetail("field", "partida_id")
	}
	if s.Quintales.IsNegative() {
		return apperror.NewValidation("quintales must not be negative").
			WithDetail("field", "quintales").
			WithDetail("value", s.Quintales.String())
	}
	if s.PesoBrutoKg.IsNegative() || s.TaraKg.IsNegative() {
		return apperror.NewValidation("weights must not be negative")
	}
	if s.TaraKg.GreaterThan(s.PesoBrutoKg) {
		return apperror.NewValidation("tara exceeds peso bruto").
			WithDetail("tara_kg", s.TaraKg.String()).
			WithDetail("peso_bruto_kg", s.PesoBrutoKg.String())
	}
	return nil
}

// Movimiento is one append-only ledger entry consuming a subpartida's
// quintales toward a destination process. Edits are modeled as
// delete+recreate; there is no in-place quantity mutation.
type Movimiento struct {
	ID           id.ID       `db:"id" json:"id"`
	SubPartidaID id.ID       `db:"subpartida_id" json:"subpartidaId"`
	TipoDestino  TipoDestino `db:"tipo_destino" json:"tipoDestino"`
	// DestinoID optionally references the destination entity
	// (procesado, reproceso, mezcla or venta).
	DestinoID *id.ID `db:"destino_id" json:"destinoId,omitempty"`

	QuintalesMovidos decimal.Decimal `db:"quintales_movidos" json:"quintalesMovidos"`

	Fecha         time.Time `db:"fecha" json:"fecha"`
	Observaciones *string   `db:"observaciones" json:"observaciones,omitempty"`
	CreadoPor     string    `db:"creado_por" json:"creadoPor,omitempty"`
}

// Disponibles derives the remaining quintales of a subpartida from its full
// movement ledger: declared − Σ movidos. This is a pure projection; it scans
// every movement each time rather than keeping an incremental counter.
// Per-subpartida movement counts are small (a handful of destinations), so
// the scan is cheap; revisit if movements ever grow unbounded.
func Disponibles(quintales decimal.Decimal, movimientos []Movimiento) decimal.Decimal {
	disponible := quintales
	for _, m := range movimientos {
		disponible = disponible.Sub(m.QuintalesMovidos)
	}
	return disponible
}

// DeriveEstado maps declared and available quantities to an inventory state:
// available == declared ⇒ DISPONIBLE, available ≤ 0 ⇒ AGOTADO, else PARCIAL.
func DeriveEstado(quintales, disponibles decimal.Decimal) Estado {
	switch {
	case disponibles.LessThanOrEqual(decimal.Zero):
		return EstadoAgotado
	case disponibles.GreaterThanOrEqual(quintales):
		return EstadoDisponible
	default:
		return EstadoParcial
	}
}
