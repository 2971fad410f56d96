package txstore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu           sync.RWMutex
	transactions map[uint32]Transaction
}

// NewInMemory creates a concurrency-safe in-memory store. It backs the batch
// CLI and unit tests; records live only for the duration of a run.
func NewInMemory() Store {
	return &memoryStore{transactions: make(map[uint32]Transaction)}
}

func (s *memoryStore) Record(_ context.Context, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[tx.TxID]; exists {
		return ErrDuplicateTransaction
	}
	if tx.DisputeStatus == "" {
		tx.DisputeStatus = StatusNone
	}
	s.transactions[tx.TxID] = tx
	return nil
}

func (s *memoryStore) Lookup(_ context.Context, txID uint32) (Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[txID]
	return tx, ok, nil
}

func (s *memoryStore) Mark(_ context.Context, txID uint32, status DisputeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := predecessor(status)
	if !ok {
		return ErrInvalidTransition
	}
	tx, exists := s.transactions[txID]
	if !exists || tx.DisputeStatus != from {
		return ErrInvalidTransition
	}
	tx.DisputeStatus = status
	s.transactions[txID] = tx
	return nil
}
