package sequence

import (
	"context"
	"sync"
)

// MockAllocator is an in-memory Allocator for unit tests.
// It reproduces max-scan semantics per scope and is safe for concurrent use.
type MockAllocator struct {
	mu   sync.Mutex
	next map[string]int64

	// NextFunc, when set, overrides the default behavior.
	NextFunc func(ctx context.Context, scope Scope) (int64, error)
}

// NewMockAllocator creates an empty mock allocator.
func NewMockAllocator() *MockAllocator {
	return &MockAllocator{next: make(map[string]int64)}
}

// Next implements Allocator.
func (m *MockAllocator) Next(ctx context.Context, scope Scope) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, scope)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := scopeKey(scope)
	m.next[key]++
	return m.next[key], nil
}

// Seed sets the highest already-issued number for a scope, as if that many
// rows existed before the allocator was created.
func (m *MockAllocator) Seed(scope Scope, max int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next[scopeKey(scope)] = max
}

func scopeKey(scope Scope) string {
	if scope.ParentID == nil {
		return string(scope.Kind)
	}
	return string(scope.Kind) + ":" + scope.ParentID.String()
}

var _ Allocator = (*MockAllocator)(nil)
