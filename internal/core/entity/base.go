package entity

import (
	"context"
	"time"

	"beneficio/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseRecord extends BaseEntity with audit fields and a soft-delete flag.
// Stock units and chain stages are deactivated, never physically removed;
// movimientos are the one exception (hard delete, see domain/partida).
type BaseRecord struct {
	BaseEntity

	// Activo marks the record as live; deactivation is the soft delete.
	Activo bool `db:"activo" json:"activo"`

	// Audit fields
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseRecord creates a new BaseRecord with generated ID and timestamps.
func NewBaseRecord() BaseRecord {
	now := time.Now().UTC()
	return BaseRecord{
		BaseEntity: NewBaseEntity(),
		Activo:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch updates the UpdatedAt timestamp. The version is managed by the
// repository: updates match on the version the caller read, so bumping it
// here would break the optimistic-lock predicate.
func (b *BaseRecord) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// Deactivate flags the record inactive.
func (b *BaseRecord) Deactivate() {
	b.Activo = false
}
