// Package mocks provides hand-written test doubles for the domain interfaces.
package mocks

import (
	"context"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/domain"
	"github.com/maksimkurb/fw-ipsets/src/internal/items"
)

var _ domain.SetBackend = (*MockSetBackend)(nil)

// MockSetBackend is a mock implementation of the SetBackend interface.
//
// Without hooks it behaves like an in-memory kernel: EnsureTarget creates an
// empty set, ReadCurrent returns the stored members and ReplaceAll overwrites them.
type MockSetBackend struct {
	// EnsureTargetFunc is called by EnsureTarget if not nil
	EnsureTargetFunc func(ctx context.Context, def *config.SetDefinition) error

	// ReadCurrentFunc is called by ReadCurrent if not nil
	ReadCurrentFunc func(ctx context.Context, def *config.SetDefinition) (items.Set, error)

	// ReplaceAllFunc is called by ReplaceAll if not nil
	ReplaceAllFunc func(ctx context.Context, def *config.SetDefinition, desired items.Set) error

	// Sets holds the in-memory membership keyed by set name
	Sets map[string]items.Set

	// Track calls for verification in tests
	EnsureTargetCalls int
	ReadCurrentCalls  int
	ReplaceAllCalls   int

	// Replaced records the set names passed to ReplaceAll, in order
	Replaced []string
}

// NewMockSetBackend creates a new mock backend with default in-memory behavior.
func NewMockSetBackend() *MockSetBackend {
	return &MockSetBackend{Sets: make(map[string]items.Set)}
}

// EnsureTarget creates the set if it is not stored yet.
func (m *MockSetBackend) EnsureTarget(ctx context.Context, def *config.SetDefinition) error {
	m.EnsureTargetCalls++
	if m.EnsureTargetFunc != nil {
		return m.EnsureTargetFunc(ctx, def)
	}
	if _, ok := m.Sets[def.Name]; !ok {
		m.Sets[def.Name] = items.NewSet()
	}
	return nil
}

// ReadCurrent returns a copy of the stored members.
func (m *MockSetBackend) ReadCurrent(ctx context.Context, def *config.SetDefinition) (items.Set, error) {
	m.ReadCurrentCalls++
	if m.ReadCurrentFunc != nil {
		return m.ReadCurrentFunc(ctx, def)
	}
	return copySet(m.Sets[def.Name]), nil
}

// ReplaceAll stores a copy of desired as the new membership.
func (m *MockSetBackend) ReplaceAll(ctx context.Context, def *config.SetDefinition, desired items.Set) error {
	m.ReplaceAllCalls++
	m.Replaced = append(m.Replaced, def.Name)
	if m.ReplaceAllFunc != nil {
		return m.ReplaceAllFunc(ctx, def, desired)
	}
	m.Sets[def.Name] = copySet(desired)
	return nil
}

func copySet(s items.Set) items.Set {
	result := items.NewSet()
	for item := range s {
		result.Add(item)
	}
	return result
}
