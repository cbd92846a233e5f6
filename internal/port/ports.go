// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
)

// LifecycleStore holds contractor aggregates and contracts. Mutations run
// through closures so the store can serialize them per aggregate: the
// closure either succeeds and the new state is committed whole, or returns
// an error and the previous state is preserved unchanged.
type LifecycleStore interface {
	// Contractors
	CreateContractor(ctx context.Context, c *domain.Contractor) error
	GetContractor(ctx context.Context, contractorID string) (*domain.Contractor, error)
	UpdateContractor(ctx context.Context, contractorID string, mutate func(*domain.Contractor) error) (*domain.Contractor, error)

	// Contracts
	CreateContract(ctx context.Context, c *domain.Contract) error
	GetContract(ctx context.Context, contractID string) (*domain.Contract, error)
	ListContracts(ctx context.Context, contractorID string) ([]domain.Contract, error)
	UpdateContract(ctx context.Context, contractID string, mutate func(*domain.Contract) error) (*domain.Contract, error)
}

// LedgerStore is the source of truth for earnings and withdrawal requests.
// The ledger is append-only; the core never mutates or removes entries.
type LedgerStore interface {
	AppendTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context, contractorID string) ([]domain.Transaction, error)
	CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	ListWithdrawals(ctx context.Context, contractorID string) ([]domain.Withdrawal, error)
}

// RateSource provides the current conversion rate table. Implementations
// must hand out immutable snapshots: a reload swaps the whole table so no
// conversion observes a partially updated one.
type RateSource interface {
	Current() *domain.RateTable
}

// Notifier emits fire-and-forget lifecycle signals to the external
// notification collaborator. Notify must not block the calling operation.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
