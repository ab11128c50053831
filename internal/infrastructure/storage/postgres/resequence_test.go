package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficio/internal/core/id"
)

func ref(numero int64, codigo string, createdAt time.Time) PartidaRef {
	return PartidaRef{ID: id.New(), Numero: numero, Codigo: codigo, CreatedAt: createdAt}
}

func TestPlanResequence_ClosesGaps(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	refs := []PartidaRef{
		ref(1, "PAR-0001", base),
		ref(3, "PAR-0003", base.Add(time.Hour)),
		ref(7, "PAR-0007", base.Add(2*time.Hour)),
	}

	plan := PlanResequence(refs)
	require.Len(t, plan, 2)

	assert.Equal(t, int64(3), plan[0].OldNumero)
	assert.Equal(t, int64(2), plan[0].NewNumero)
	assert.Equal(t, "PAR-0002", plan[0].NewCodigo)

	assert.Equal(t, int64(7), plan[1].OldNumero)
	assert.Equal(t, int64(3), plan[1].NewNumero)
	assert.Equal(t, "PAR-0003", plan[1].NewCodigo)
}

func TestPlanResequence_OrdersByCreationNotNumero(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	// Created out of numero order: the older row wins the lower numero.
	refs := []PartidaRef{
		ref(5, "PAR-0005", base.Add(time.Hour)),
		ref(2, "PAR-0002", base),
	}

	plan := PlanResequence(refs)
	require.Len(t, plan, 2)

	assert.Equal(t, int64(2), plan[0].OldNumero)
	assert.Equal(t, int64(1), plan[0].NewNumero)
	assert.Equal(t, int64(5), plan[1].OldNumero)
	assert.Equal(t, int64(2), plan[1].NewNumero)
}

func TestPlanResequence_NoChangesNeeded(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	refs := []PartidaRef{
		ref(1, "PAR-0001", base),
		ref(2, "PAR-0002", base.Add(time.Minute)),
	}

	assert.Empty(t, PlanResequence(refs))
}

func TestPlanResequence_Empty(t *testing.T) {
	assert.Empty(t, PlanResequence(nil))
}

func TestPlanResequence_TiesBreakOnNumero(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	refs := []PartidaRef{
		ref(9, "PAR-0009", base),
		ref(4, "PAR-0004", base),
	}

	plan := PlanResequence(refs)
	require.Len(t, plan, 2)
	assert.Equal(t, int64(4), plan[0].OldNumero)
	assert.Equal(t, int64(1), plan[0].NewNumero)
	assert.Equal(t, int64(9), plan[1].OldNumero)
	assert.Equal(t, int64(2), plan[1].NewNumero)
}
