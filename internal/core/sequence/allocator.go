// Package sequence provides domain contracts for scoped sequential numbering.
// Implementations live in the infrastructure layer.
package sequence

import (
	"context"
	"fmt"

	"beneficio/internal/core/id"
)

// ScopeKind names a numbering scope.
type ScopeKind string

const (
	// ScopePartida numbers partidas globally (PAR-0001, PAR-0002...).
	ScopePartida ScopeKind = "partida"
	// ScopeSubPartida numbers subpartidas within their parent partida.
	ScopeSubPartida ScopeKind = "subpartida"
	// ScopeTrilla numbers procesados (trillas) globally (T-0001...).
	ScopeTrilla ScopeKind = "trilla"
	// ScopeReproceso numbers reprocesos within their parent procesado.
	ScopeReproceso ScopeKind = "reproceso"
	// ScopeMezcla numbers mezclas globally.
	ScopeMezcla ScopeKind = "mezcla"
	// ScopeRecibo numbers coffee intake receipts globally.
	ScopeRecibo ScopeKind = "recibo"
)

// Scope identifies a numbering scope: a kind plus, for per-parent scopes,
// the owning parent.
type Scope struct {
	Kind ScopeKind

	// ParentID is required for per-parent scopes (subpartida, reproceso)
	// and must be nil for global ones.
	ParentID *id.ID
}

// GlobalScope builds a scope with no parent.
func GlobalScope(kind ScopeKind) Scope {
	return Scope{Kind: kind}
}

// ChildScope builds a per-parent scope.
func ChildScope(kind ScopeKind, parentID id.ID) Scope {
	return Scope{Kind: kind, ParentID: &parentID}
}

// Allocator issues the next integer in a scope.
//
// The contract is max-scan semantics: the result is strictly greater than any
// number previously issued in the scope, computed from the existing rows, not
// from a counter table. Historical data may be renumbered out of band (see the
// resequencer), and a detached counter would drift from repaired rows.
// Implementations must serialize allocation with the owning write transaction;
// concurrent unserialized calls may otherwise issue duplicates.
type Allocator interface {
	// Next returns the next number in the scope. First allocation in an
	// empty scope returns 1.
	Next(ctx context.Context, scope Scope) (int64, error)
}

// FormatCode renders a number as a zero-padded display code, e.g.
// FormatCode("PAR", 4, 4) == "PAR-0004".
func FormatCode(prefix string, n int64, width int) string {
	if width <= 0 {
		width = 4
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, n)
}

// FormatChildCode renders a per-parent code under the parent's own code,
// e.g. FormatChildCode("PAR-0004", 3) == "PAR-0004-003".
func FormatChildCode(parentCode string, n int64) string {
	return fmt.Sprintf("%s-%03d", parentCode, n)
}
