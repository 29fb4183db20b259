// Package mock provides a mock implementation of the store interface for testing.
package mock

import (
	"context"
	"sync"

	"github.com/veriface/veriface/internal/index"
)

// MockStore is an in-memory implementation of store.Store
type MockStore struct {
	mu          sync.Mutex
	enrollments []index.Enrollment

	// Error injection
	LoadSnapshotError error
	AppendError       error

	// Call counters
	AppendCalls int
}

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Seed replaces the stored enrollments with the given slice
func (m *MockStore) Seed(enrollments []index.Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments = append([]index.Enrollment(nil), enrollments...)
}

// LoadSnapshot returns all stored enrollments in insertion order
func (m *MockStore) LoadSnapshot(ctx context.Context) ([]index.Enrollment, error) {
	if m.LoadSnapshotError != nil {
		return nil, m.LoadSnapshotError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]index.Enrollment(nil), m.enrollments...), nil
}

// Append records a single enrollment
func (m *MockStore) Append(ctx context.Context, name string, embedding []float32) error {
	m.mu.Lock()
	m.AppendCalls++
	m.mu.Unlock()
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments = append(m.enrollments, index.Enrollment{
		Name:      name,
		Embedding: append([]float32(nil), embedding...),
	})
	return nil
}

// Enrollments returns a copy of the stored enrollments
func (m *MockStore) Enrollments() []index.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]index.Enrollment(nil), m.enrollments...)
}
