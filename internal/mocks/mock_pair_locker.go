package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/you/careauth/domain"
)

// MockPairLocker implements domain.PairLocker with in-process mutexes
type MockPairLocker struct {
	LockFunc func(ctx context.Context, doctorID, patientID uint) (func(), error)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMockPairLocker creates a new MockPairLocker
func NewMockPairLocker() *MockPairLocker {
	return &MockPairLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock of a doctor/patient pair
func (m *MockPairLocker) Lock(ctx context.Context, doctorID, patientID uint) (func(), error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, doctorID, patientID)
	}

	key := fmt.Sprintf("%d:%d", doctorID, patientID)
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock, nil
}

// Compile-time interface compliance verification
var _ domain.PairLocker = (*MockPairLocker)(nil)
