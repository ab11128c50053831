package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"beneficio/internal/core/audit"
	"beneficio/internal/core/id"
	"beneficio/internal/core/sequence"
	"beneficio/pkg/logger"
)

// PartidaRef is the slice of a partida row the resequencer needs.
type PartidaRef struct {
	ID        id.ID     `db:"id"`
	Numero    int64     `db:"numero"`
	Codigo    string    `db:"codigo"`
	CreatedAt time.Time `db:"created_at"`
}

// Mapping is one planned renumbering.
type Mapping struct {
	ID        id.ID  `json:"id"`
	OldNumero int64  `json:"oldNumero"`
	NewNumero int64  `json:"newNumero"`
	OldCodigo string `json:"oldCodigo"`
	NewCodigo string `json:"newCodigo"`
}

// Report summarizes a resequencing run (or dry run).
type Report struct {
	Total    int       `json:"total"`
	Changed  int       `json:"changed"`
	Applied  bool      `json:"applied"`
	Mappings []Mapping `json:"mappings"`
}

// PlanResequence builds the gapless renumbering plan: partidas ordered by
// creation time get numeros 1..n. Rows already carrying their final numero
// are excluded from the plan. Pure function, no database access.
func PlanResequence(partidas []PartidaRef) []Mapping {
	sorted := make([]PartidaRef, len(partidas))
	copy(sorted, partidas)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].Numero < sorted[j].Numero
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var plan []Mapping
	for i, p := range sorted {
		next := int64(i + 1)
		if p.Numero == next {
			continue
		}
		plan = append(plan, Mapping{
			ID:        p.ID,
			OldNumero: p.Numero,
			NewNumero: next,
			OldCodigo: p.Codigo,
			NewCodigo: sequence.FormatCode("PAR", next, 4),
		})
	}
	return plan
}

// Resequencer renumbers partidas gaplessly. This is an out-of-band repair
// tool for historical data; normal allocation never leaves gaps on its own
// but deletions done directly in the database can.
type Resequencer struct {
	txm   *TxManager
	audit audit.Recorder
}

// NewResequencer creates the resequencer.
func NewResequencer(txm *TxManager, rec audit.Recorder) *Resequencer {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Resequencer{txm: txm, audit: rec}
}

// Resequence plans and, when confirm is set, applies the renumbering in one
// transaction. Without confirm it returns the plan untouched (dry run).
//
// Application is two-phase to dodge the unique constraint on numero: every
// affected row first moves to the negation of its final numero (children
// renamed alongside), then flips to the final positive value. Any failure
// rolls the whole transaction back, leaving the original numbering intact.
func (r *Resequencer) Resequence(ctx context.Context, confirm bool) (*Report, error) {
	report := &Report{}

	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)

		// Serialize against concurrent partida allocation.
		if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1, hashtext($2))",
			advisoryLockClass, string(sequence.ScopePartida)); err != nil {
			return fmt.Errorf("acquire sequence lock: %w", err)
		}

		refs, err := r.loadRefs(ctx)
		if err != nil {
			return err
		}

		plan := PlanResequence(refs)
		report.Total = len(refs)
		report.Changed = len(plan)
		report.Mappings = plan

		if !confirm || len(plan) == 0 {
			return nil
		}

		// Phase 1: move affected rows to negative staging numeros.
		for _, m := range plan {
			if _, err := q.Exec(ctx,
				"UPDATE partidas SET numero = $1 WHERE id = $2", -m.NewNumero, m.ID); err != nil {
				return fmt.Errorf("stage partida %s: %w", m.ID, err)
			}
		}

		// Phase 2: final numeros and codes, subpartida codes rewritten to
		// follow their parent.
		for _, m := range plan {
			if _, err := q.Exec(ctx,
				"UPDATE partidas SET numero = $1, codigo = $2, updated_at = now() WHERE id = $3",
				m.NewNumero, m.NewCodigo, m.ID); err != nil {
				return fmt.Errorf("renumber partida %s: %w", m.ID, err)
			}

			if _, err := q.Exec(ctx,
				"UPDATE subpartidas SET codigo = $1 || '-' || lpad(numero::text, 3, '0') WHERE partida_id = $2",
				m.NewCodigo, m.ID); err != nil {
				return fmt.Errorf("rename subpartidas of %s: %w", m.ID, err)
			}

			if err := r.audit.Log(ctx, audit.Entry{
				EntityType: "partida",
				EntityID:   m.ID,
				Action:     audit.ActionResequence,
				Changes: []byte(fmt.Sprintf(`{"numero":{"old":%d,"new":%d},"codigo":{"old":%q,"new":%q}}`,
					m.OldNumero, m.NewNumero, m.OldCodigo, m.NewCodigo)),
			}); err != nil {
				logger.Warn(ctx, "audit write failed", "partida_id", m.ID, "error", err)
			}
		}

		report.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (r *Resequencer) loadRefs(ctx context.Context) ([]PartidaRef, error) {
	rows, err := r.txm.GetQuerier(ctx).Query(ctx,
		"SELECT id, numero, codigo, created_at FROM partidas ORDER BY created_at, numero FOR UPDATE")
	if err != nil {
		return nil, fmt.Errorf("load partidas: %w", err)
	}
	defer rows.Close()

	var refs []PartidaRef
	for rows.Next() {
		var ref PartidaRef
		if err := rows.Scan(&ref.ID, &ref.Numero, &ref.Codigo, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan partida: %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}
