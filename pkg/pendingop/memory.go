package pendingop

import (
	"context"
	"sync"
)

// MemoryStore keeps pending operations in process memory. It satisfies the
// Store contract for tests and for hosts that manage durability themselves;
// it does not survive a process restart.
type MemoryStore struct {
	ops map[string]*PendingOperation
	mu  sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ops: make(map[string]*PendingOperation),
	}
}

func (s *MemoryStore) Get(_ context.Context, ownerID string) (*PendingOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, exists := s.ops[ownerID]
	if !exists {
		return nil, ErrNoPendingOperation
	}

	copied := *op
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, ownerID string, op *PendingOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.ops[ownerID]; exists && existing.TransactionID != op.TransactionID {
		return ErrOperationInFlight
	}

	copied := *op
	s.ops[ownerID] = &copied
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ops, ownerID)
	return nil
}
