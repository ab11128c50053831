// Package audit defines the domain contract for the audit trail.
// The PostgreSQL implementation (with payload compression) lives in
// infrastructure/storage/postgres.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"beneficio/internal/core/id"
)

// Action is the type of audited operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionDeactivate Action = "deactivate"
	ActionResequence Action = "resequence"
)

// Entry is a single audit record. It shares the business transaction, so a
// rolled-back operation leaves no audit trace.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Changes    json.RawMessage
	OccurredAt time.Time
}

// Recorder persists audit entries.
type Recorder interface {
	Log(ctx context.Context, entry Entry) error
}

// Nop is a Recorder that discards entries. Used in tests and when the audit
// trail is disabled.
type Nop struct{}

// Log implements Recorder.
func (Nop) Log(ctx context.Context, entry Entry) error { return nil }

var _ Recorder = Nop{}
