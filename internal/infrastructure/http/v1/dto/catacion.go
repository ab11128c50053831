package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/domain/catacion"
)

// PuntajesRequest carries the SCA attribute scores. Optional attributes left
// null score zero; the fixed-ten attributes default server-side.
type PuntajesRequest struct {
	FraganciaAroma *decimal.Decimal `json:"fraganciaAroma"`
	Sabor          *decimal.Decimal `json:"sabor"`
	SaborResidual  *decimal.Decimal `json:"saborResidual"`
	Acidez         *decimal.Decimal `json:"acidez"`
	Cuerpo         *decimal.Decimal `json:"cuerpo"`
	Uniformidad    decimal.Decimal  `json:"uniformidad"`
	Balance        *decimal.Decimal `json:"balance"`
	TazaLimpia     decimal.Decimal  `json:"tazaLimpia"`
	Dulzor         decimal.Decimal  `json:"dulzor"`
	PuntajeCatador *decimal.Decimal `json:"puntajeCatador"`
}

// ToPuntajes converts the request block to the domain type.
func (r PuntajesRequest) ToPuntajes() catacion.Puntajes {
	return catacion.Puntajes{
		FraganciaAroma: r.FraganciaAroma,
		Sabor:          r.Sabor,
		SaborResidual:  r.SaborResidual,
		Acidez:         r.Acidez,
		Cuerpo:         r.Cuerpo,
		Uniformidad:    r.Uniformidad,
		Balance:        r.Balance,
		TazaLimpia:     r.TazaLimpia,
		Dulzor:         r.Dulzor,
		PuntajeCatador: r.PuntajeCatador,
	}
}

// CreateCatacionRequest records a cupping evaluation of any sample stage.
type CreateCatacionRequest struct {
	TipoMuestra   string    `json:"tipoMuestra" binding:"required"`
	MuestraID     string    `json:"muestraId" binding:"required"`
	CodigoMuestra string    `json:"codigoMuestra"`
	FechaCatacion time.Time `json:"fechaCatacion" binding:"required"`

	PesoMuestraG    decimal.Decimal  `json:"pesoMuestraG"`
	TemperaturaAgua decimal.Decimal  `json:"temperaturaAgua"`
	TiempoInfusion  int              `json:"tiempoInfusion"`
	TipoTueste      string           `json:"tipoTueste"`
	HumedadGrano    *decimal.Decimal `json:"humedadGrano"`

	Puntajes PuntajesRequest `json:"puntajes"`

	NotasPositivas *string `json:"notasPositivas"`
	NotasNegativas *string `json:"notasNegativas"`
	Comentarios    *string `json:"comentarios"`
}

// AddDefectoRequest records a green or roast defect count.
type AddDefectoRequest struct {
	Categoria   string          `json:"categoria" binding:"required"`
	TipoDefecto string          `json:"tipoDefecto" binding:"required"`
	Cantidad    int             `json:"cantidad" binding:"required"`
	Equivalente decimal.Decimal `json:"equivalente"`
}

// CatacionDetailResponse pairs an evaluation with its recorded defects.
type CatacionDetailResponse struct {
	Catacion *catacion.Catacion `json:"catacion"`
	Defectos []catacion.Defecto `json:"defectos"`
}
