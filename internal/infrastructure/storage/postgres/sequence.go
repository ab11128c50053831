package postgres

import (
	"context"
	"fmt"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/sequence"
)

// scopeTable maps a numbering scope to the table it scans.
type scopeTable struct {
	table     string
	numberCol string
	// parentCol is set for per-parent scopes; empty means global.
	parentCol string
}

var scopeTables = map[sequence.ScopeKind]scopeTable{
	sequence.ScopePartida:    {table: "partidas", numberCol: "numero"},
	sequence.ScopeSubPartida: {table: "subpartidas", numberCol: "numero", parentCol: "partida_id"},
	sequence.ScopeTrilla:     {table: "procesados", numberCol: "numero_trilla"},
	sequence.ScopeReproceso:  {table: "reprocesos", numberCol: "numero", parentCol: "procesado_id"},
	sequence.ScopeMezcla:     {table: "mezclas", numberCol: "numero"},
	sequence.ScopeRecibo:     {table: "recibos", numberCol: "numero"},
}

// Compile-time check.
var _ sequence.Allocator = (*SequenceAllocator)(nil)

// SequenceAllocator issues scope-sequential numbers by scanning existing rows
// (MAX+1), never from a counter table. This keeps allocation correct after
// out-of-band renumbering: the next number always follows whatever rows
// actually exist.
//
// Callers must hold a serializing lock for the scope before calling Next:
// per-parent scopes are covered by the parent row FOR UPDATE lock the
// services already take, global scopes by an advisory lock taken here.
type SequenceAllocator struct {
	txManager *TxManager
}

// NewSequenceAllocator creates an allocator bound to the transaction manager.
func NewSequenceAllocator(txManager *TxManager) *SequenceAllocator {
	return &SequenceAllocator{txManager: txManager}
}

// advisoryLockClass namespaces this application's advisory locks.
const advisoryLockClass = 7201

// nextSQL builds the max-scan query for the scope's table.
func (st scopeTable) nextSQL() string {
	if st.parentCol == "" {
		return fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", st.numberCol, st.table)
	}
	return fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s WHERE %s = $1",
		st.numberCol, st.table, st.parentCol)
}

// Next implements sequence.Allocator with max-scan semantics.
func (a *SequenceAllocator) Next(ctx context.Context, scope sequence.Scope) (int64, error) {
	st, ok := scopeTables[scope.Kind]
	if !ok {
		return 0, apperror.NewInternal(fmt.Errorf("unknown sequence scope %q", scope.Kind))
	}

	q := a.txManager.GetQuerier(ctx)

	if st.parentCol == "" {
		// Global scope: serialize concurrent allocators on a transaction-scoped
		// advisory lock keyed by the scope kind. Released at commit/rollback.
		_, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1, hashtext($2))",
			advisoryLockClass, string(scope.Kind))
		if err != nil {
			return 0, fmt.Errorf("acquire sequence lock %s: %w", scope.Kind, err)
		}

		var next int64
		if err := q.QueryRow(ctx, st.nextSQL()).Scan(&next); err != nil {
			return 0, fmt.Errorf("scan next %s number: %w", scope.Kind, err)
		}
		return next, nil
	}

	// Per-parent scope: the caller holds the parent row lock, which already
	// serializes sibling allocation.
	if scope.ParentID == nil {
		return 0, apperror.NewInternal(fmt.Errorf("sequence scope %q requires a parent", scope.Kind))
	}

	var next int64
	if err := q.QueryRow(ctx, st.nextSQL(), *scope.ParentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("scan next %s number: %w", scope.Kind, err)
	}
	return next, nil
}
