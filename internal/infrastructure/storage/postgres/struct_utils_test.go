package postgres

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"beneficio/internal/core/entity"
	"beneficio/internal/core/id"
)

type mockRecord struct {
	entity.BaseRecord
	Codigo string          `db:"codigo" json:"codigo"`
	PesoKg decimal.Decimal `db:"peso_kg" json:"pesoKg"`
	Nota   string          `db:"-" json:"nota"`
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	expectedCols := []string{
		"id", "version", "activo", "created_at", "updated_at",
		"created_by", "updated_by", "codigo", "peso_kg",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{
		BaseRecord: entity.BaseRecord{
			BaseEntity: entity.BaseEntity{
				ID:      id.New(),
				Version: 5,
			},
			Activo:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Codigo: "PAR-0001",
		PesoKg: decimal.RequireFromString("46.5"),
		Nota:   "ignored",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, true, m["activo"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "PAR-0001", m["codigo"])
	assert.Equal(t, rec.PesoKg, m["peso_kg"])
	assert.NotContains(t, m, "nota")
	assert.NotContains(t, m, "-")
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("x"))
}
