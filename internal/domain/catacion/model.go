// Package catacion implements SCA cupping evaluations. Scoring is a pure
// calculation over the ten attribute scores; cataciones never touch
// inventory.
package catacion

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
)

// TipoMuestra names which stage the sample was drawn from.
type TipoMuestra string

const (
	MuestraLote       TipoMuestra = "LOTE"
	MuestraProcesado  TipoMuestra = "PROCESADO"
	MuestraReproceso  TipoMuestra = "REPROCESO"
	MuestraMezcla     TipoMuestra = "MEZCLA"
	MuestraSubPartida TipoMuestra = "SUBPARTIDA"
)

// ValidMuestra reports whether t is a known sample source.
func ValidMuestra(t TipoMuestra) bool {
	switch t {
	case MuestraLote, MuestraProcesado, MuestraReproceso, MuestraMezcla, MuestraSubPartida:
		return true
	}
	return false
}

// TipoTueste is the roast level of the cupping sample.
type TipoTueste string

const (
	TuesteClaro  TipoTueste = "CLARO"
	TuesteMedio  TipoTueste = "MEDIO"
	TuesteOscuro TipoTueste = "OSCURO"
)

// Puntajes holds the ten SCA attribute scores. Nil attributes score zero;
// uniformidad, taza limpia and dulzor default to 10 when the evaluation is
// created without them.
type Puntajes struct {
	FraganciaAroma *decimal.Decimal `db:"fragancia_aroma" json:"fraganciaAroma,omitempty"`
	Sabor          *decimal.Decimal `db:"sabor" json:"sabor,omitempty"`
	SaborResidual  *decimal.Decimal `db:"sabor_residual" json:"saborResidual,omitempty"`
	Acidez         *decimal.Decimal `db:"acidez" json:"acidez,omitempty"`
	Cuerpo         *decimal.Decimal `db:"cuerpo" json:"cuerpo,omitempty"`
	Uniformidad    decimal.Decimal  `db:"uniformidad" json:"uniformidad"`
	Balance        *decimal.Decimal `db:"balance" json:"balance,omitempty"`
	TazaLimpia     decimal.Decimal  `db:"taza_limpia" json:"tazaLimpia"`
	Dulzor         decimal.Decimal  `db:"dulzor" json:"dulzor"`
	PuntajeCatador *decimal.Decimal `db:"puntaje_catador" json:"puntajeCatador,omitempty"`
}

// Total sums the attribute scores. Optional attributes left unscored
// contribute nothing.
func (p Puntajes) Total() decimal.Decimal {
	total := p.Uniformidad.Add(p.TazaLimpia).Add(p.Dulzor)
	for _, v := range []*decimal.Decimal{
		p.FraganciaAroma, p.Sabor, p.SaborResidual, p.Acidez,
		p.Cuerpo, p.Balance, p.PuntajeCatador,
	} {
		if v != nil {
			total = total.Add(*v)
		}
	}
	return total
}

// Clasificar maps a total score to its SCA quality band.
func Clasificar(puntaje decimal.Decimal) string {
	switch {
	case puntaje.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return "Excepcional - Specialty 90+"
	case puntaje.GreaterThanOrEqual(decimal.NewFromInt(85)):
		return "Excelente - Specialty 85-89"
	case puntaje.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return "Muy Bueno - Specialty 80-84"
	case puntaje.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return "Bueno - Premium 75-79"
	default:
		return "Comercial"
	}
}

// Catacion is one cupping evaluation of a sample.
type Catacion struct {
	entity.BaseRecord

	TipoMuestra   TipoMuestra `db:"tipo_muestra" json:"tipoMuestra"`
	MuestraID     id.ID       `db:"muestra_id" json:"muestraId"`
	CodigoMuestra string      `db:"codigo_muestra" json:"codigoMuestra"`
	FechaCatacion time.Time   `db:"fecha_catacion" json:"fechaCatacion"`
	Catador       string      `db:"catador" json:"catador,omitempty"`

	PesoMuestraG    decimal.Decimal  `db:"peso_muestra_g" json:"pesoMuestraG"`
	TemperaturaAgua decimal.Decimal  `db:"temperatura_agua" json:"temperaturaAgua"`
	TiempoInfusion  int              `db:"tiempo_infusion" json:"tiempoInfusion"`
	TipoTueste      TipoTueste       `db:"tipo_tueste" json:"tipoTueste"`
	HumedadGrano    *decimal.Decimal `db:"humedad_grano" json:"humedadGrano,omitempty"`

	Puntajes

	PuntajeTotal  decimal.Decimal `db:"puntaje_total" json:"puntajeTotal"`
	Clasificacion string          `db:"clasificacion" json:"clasificacion"`

	NotasPositivas *string `db:"notas_positivas" json:"notasPositivas,omitempty"`
	NotasNegativas *string `db:"notas_negativas" json:"notasNegativas,omitempty"`
	Comentarios    *string `db:"comentarios" json:"comentarios,omitempty"`
}

// Recalcular rewrites the derived total and classification from the scores.
func (c *Catacion) Recalcular() {
	c.PuntajeTotal = c.Puntajes.Total()
	c.Clasificacion = Clasificar(c.PuntajeTotal)
}

// Validate implements entity.Validatable.
func (c *Catacion) Validate(ctx context.Context) error {
	if !ValidMuestra(c.TipoMuestra) {
		return apperror.NewInvalidInput("tipo_muestra", "unknown sample source")
	}
	if id.IsNil(c.MuestraID) {
		return apperror.NewInvalidInput("muestra_id", "is required")
	}
	if c.CodigoMuestra == "" {
		return apperror.NewInvalidInput("codigo_muestra", "is required")
	}
	ten := decimal.NewFromInt(10)
	for _, a := range []struct {
		name  string
		value *decimal.Decimal
	}{
		{"fragancia_aroma", c.FraganciaAroma},
		{"sabor", c.Sabor},
		{"sabor_residual", c.SaborResidual},
		{"acidez", c.Acidez},
		{"cuerpo", c.Cuerpo},
		{"balance", c.Balance},
		{"puntaje_catador", c.PuntajeCatador},
	} {
		if a.value != nil && (a.value.IsNegative() || a.value.GreaterThan(ten)) {
			return apperror.NewInvalidInput(a.name, "must be between 0 and 10")
		}
	}
	for _, a := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"uniformidad", c.Uniformidad},
		{"taza_limpia", c.TazaLimpia},
		{"dulzor", c.Dulzor},
	} {
		if a.value.IsNegative() || a.value.GreaterThan(ten) {
			return apperror.NewInvalidInput(a.name, "must be between 0 and 10")
		}
	}
	return nil
}

// CategoriaDefecto is the SCA defect class.
type CategoriaDefecto string

const (
	DefectoPrimario   CategoriaDefecto = "PRIMARIO"
	DefectoSecundario CategoriaDefecto = "SECUNDARIO"
)

// Defecto records defect counts found in the sample.
type Defecto struct {
	ID                  id.ID            `db:"id" json:"id"`
	CatacionID          id.ID            `db:"catacion_id" json:"catacionId"`
	Categoria           CategoriaDefecto `db:"categoria" json:"categoria"`
	TipoDefecto         string           `db:"tipo_defecto" json:"tipoDefecto"`
	Cantidad            int              `db:"cantidad" json:"cantidad"`
	EquivalenteDefectos decimal.Decimal  `db:"equivalente_defectos" json:"equivalenteDefectos"`
}
