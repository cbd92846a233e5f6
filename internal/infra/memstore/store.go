// Package memstore is the in-memory implementation of the lifecycle and
// ledger stores. Persistence is out of scope for the core; any durable
// adapter can replace this one behind the same ports.
package memstore

import (
	"context"
	"sync"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
)

// Store holds all aggregates in memory. Each contractor and each contract
// carries its own lock, so mutations are serialized per aggregate while
// unrelated aggregates proceed in parallel. Mutation closures are
// all-or-nothing: they run against a copy, and the copy is committed only
// when the closure succeeds.
type Store struct {
	mu sync.RWMutex

	contractors map[string]*contractorEntry
	contracts   map[string]*contractEntry

	// contract ids per contractor, in creation order
	byContractor map[string][]string

	ledgerMu     sync.RWMutex
	transactions map[string][]domain.Transaction
	withdrawals  map[string][]domain.Withdrawal
}

type contractorEntry struct {
	mu sync.Mutex
	c  domain.Contractor
}

type contractEntry struct {
	mu sync.Mutex
	c  domain.Contract
}

// New creates an empty store.
func New() *Store {
	return &Store{
		contractors:  make(map[string]*contractorEntry),
		contracts:    make(map[string]*contractEntry),
		byContractor: make(map[string][]string),
		transactions: make(map[string][]domain.Transaction),
		withdrawals:  make(map[string][]domain.Withdrawal),
	}
}

// ============================================================
// Contractors
// ============================================================

func (s *Store) CreateContractor(_ context.Context, c *domain.Contractor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contractors[c.ID]; exists {
		return &domain.ErrConflict{Message: "contractor already exists: " + c.ID}
	}
	s.contractors[c.ID] = &contractorEntry{c: *c}
	return nil
}

func (s *Store) GetContractor(_ context.Context, contractorID string) (*domain.Contractor, error) {
	s.mu.RLock()
	entry, ok := s.contractors[contractorID]
	s.mu.RUnlock()
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "contractor", ID: contractorID}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	snapshot := entry.c
	return &snapshot, nil
}

func (s *Store) UpdateContractor(_ context.Context, contractorID string, mutate func(*domain.Contractor) error) (*domain.Contractor, error) {
	s.mu.RLock()
	entry, ok := s.contractors[contractorID]
	s.mu.RUnlock()
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "contractor", ID: contractorID}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	next := entry.c
	if err := mutate(&next); err != nil {
		return nil, err
	}
	entry.c = next
	snapshot := next
	return &snapshot, nil
}

// ============================================================
// Contracts
// ============================================================

func (s *Store) CreateContract(_ context.Context, c *domain.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contracts[c.ID]; exists {
		return &domain.ErrConflict{Message: "contract already exists: " + c.ID}
	}
	s.contracts[c.ID] = &contractEntry{c: *c}
	s.byContractor[c.ContractorID] = append(s.byContractor[c.ContractorID], c.ID)
	return nil
}

func (s *Store) GetContract(_ context.Context, contractID string) (*domain.Contract, error) {
	s.mu.RLock()
	entry, ok := s.contracts[contractID]
	s.mu.RUnlock()
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "contract", ID: contractID}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	snapshot := entry.c
	return &snapshot, nil
}

func (s *Store) ListContracts(_ context.Context, contractorID string) ([]domain.Contract, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.byContractor[contractorID]...)
	entries := make([]*contractEntry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := s.contracts[id]; ok {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	out := make([]domain.Contract, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		out = append(out, entry.c)
		entry.mu.Unlock()
	}
	return out, nil
}

func (s *Store) UpdateContract(_ context.Context, contractID string, mutate func(*domain.Contract) error) (*domain.Contract, error) {
	s.mu.RLock()
	entry, ok := s.contracts[contractID]
	s.mu.RUnlock()
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "contract", ID: contractID}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	next := entry.c
	if err := mutate(&next); err != nil {
		return nil, err
	}
	entry.c = next
	snapshot := next
	return &snapshot, nil
}

// ============================================================
// Ledger
// ============================================================

func (s *Store) AppendTransaction(_ context.Context, tx *domain.Transaction) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	s.transactions[tx.ContractorID] = append(s.transactions[tx.ContractorID], *tx)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, contractorID string) ([]domain.Transaction, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	return append([]domain.Transaction(nil), s.transactions[contractorID]...), nil
}

func (s *Store) CreateWithdrawal(_ context.Context, w *domain.Withdrawal) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	s.withdrawals[w.ContractorID] = append(s.withdrawals[w.ContractorID], *w)
	return nil
}

func (s *Store) ListWithdrawals(_ context.Context, contractorID string) ([]domain.Withdrawal, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	return append([]domain.Withdrawal(nil), s.withdrawals[contractorID]...), nil
}
