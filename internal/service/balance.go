package service

import (
	"context"
	"time"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/infra/observability"
	"github.com/paycrew/contractor-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var balanceTracer = otel.Tracer("service/balance")

// BalanceService computes multi-currency balances from the ledger and
// decides whether withdrawals are permitted. It owns no state: the ledger
// and the rate table are borrowed read-only, and the lifecycle service is
// the authority on the verification gate.
type BalanceService struct {
	ledger    port.LedgerStore
	lifecycle port.LifecycleStore
	rates     port.RateSource
	notifier  port.Notifier
	cache     port.Cache[domain.Balance]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewBalanceService creates a new balance service.
func NewBalanceService(ledger port.LedgerStore, lifecycle port.LifecycleStore, rates port.RateSource, notifier port.Notifier, cache port.Cache[domain.Balance], metrics *observability.Metrics, logger *zap.Logger) *BalanceService {
	return &BalanceService{
		ledger:    ledger,
		lifecycle: lifecycle,
		rates:     rates,
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// ============================================================
// Ledger
// ============================================================

// AppendTransaction records an earning event from the external payment
// collaborator. The ledger is append-only; the affected contractor's cached
// balance is dropped.
func (s *BalanceService) AppendTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.AppendTransaction")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transaction_append", time.Since(start)) }()

	if tx.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if tx.Currency == "" {
		return nil, &domain.ErrValidation{Field: "currency", Message: "currency is required"}
	}
	if tx.Status == "" {
		tx.Status = domain.TransactionReceived
	}
	if !tx.Status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be 'received', 'pending' or 'failed'"}
	}
	if _, err := s.lifecycle.GetContractor(ctx, tx.ContractorID); err != nil {
		return nil, err
	}

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	if err := s.ledger.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}
	s.cache.Delete(tx.ContractorID)

	span.SetAttributes(attribute.String("transaction.id", tx.ID))
	return tx, nil
}

// ListTransactions returns the contractor's ledger in append order.
func (s *BalanceService) ListTransactions(ctx context.Context, contractorID string) ([]domain.Transaction, error) {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.ListTransactions")
	defer span.End()

	if _, err := s.lifecycle.GetContractor(ctx, contractorID); err != nil {
		return nil, err
	}
	return s.ledger.ListTransactions(ctx, contractorID)
}

// ============================================================
// Balance
// ============================================================

// GetBalance aggregates the ledger into a balance in the target currency.
// Received transactions make up the spendable total; pending ones are
// reported separately; failed ones count toward neither.
func (s *BalanceService) GetBalance(ctx context.Context, contractorID, targetCurrency string) (*domain.Balance, error) {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.GetBalance")
	defer span.End()
	span.SetAttributes(attribute.String("contractor.id", contractorID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("balance_get", time.Since(start)) }()

	if _, err := s.lifecycle.GetContractor(ctx, contractorID); err != nil {
		return nil, err
	}

	table := s.rates.Current()
	if targetCurrency == "" {
		targetCurrency = table.Base
	}
	s.observeCurrency(table, targetCurrency)

	base, err := s.baseBalance(ctx, contractorID, table)
	if err != nil {
		return nil, err
	}

	return &domain.Balance{
		Available: table.Convert(base.Available, table.Base, targetCurrency),
		Pending:   table.Convert(base.Pending, table.Base, targetCurrency),
		Currency:  targetCurrency,
	}, nil
}

// baseBalance returns the balance in the table's base currency, cached per
// contractor. Staleness is bounded by the cache TTL and appends drop the
// entry, so dashboard polling stays cheap without drifting far.
func (s *BalanceService) baseBalance(ctx context.Context, contractorID string, table *domain.RateTable) (domain.Balance, error) {
	if cached, ok := s.cache.Get(contractorID); ok {
		s.metrics.IncrCacheHit("balance")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("balance")

	txs, err := s.ledger.ListTransactions(ctx, contractorID)
	if err != nil {
		return domain.Balance{}, err
	}

	balance := domain.Balance{Currency: table.Base}
	for _, tx := range txs {
		s.observeCurrency(table, tx.Currency)
		converted := table.Convert(tx.Amount, tx.Currency, table.Base)
		switch tx.Status {
		case domain.TransactionReceived:
			balance.Available += converted
		case domain.TransactionPending:
			balance.Pending += converted
		}
	}

	s.cache.Set(contractorID, balance)
	return balance, nil
}

// observeCurrency surfaces the unknown-currency rate fallback: conversion
// itself stays permissive, but every fallback is counted and logged.
func (s *BalanceService) observeCurrency(table *domain.RateTable, code string) {
	if table.Known(code) {
		return
	}
	s.metrics.IncrConversionFallback(code)
	s.logger.Warn("unknown currency, conversion falls back to rate 1",
		zap.String("currency", code),
	)
}

// ============================================================
// Withdrawals
// ============================================================

// RequestWithdrawal validates the verification gate and the available
// balance, then records a pending withdrawal request. Settlement is
// external; nothing in the core moves a withdrawal out of pending.
func (s *BalanceService) RequestWithdrawal(ctx context.Context, contractorID string, amount float64, targetCurrency string) (*domain.Withdrawal, error) {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.RequestWithdrawal")
	defer span.End()
	span.SetAttributes(attribute.String("contractor.id", contractorID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("withdrawal_request", time.Since(start)) }()

	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	contractor, err := s.lifecycle.GetContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if !contractor.CanWithdraw() {
		s.metrics.IncrWithdrawal("denied_verification")
		return nil, &domain.ErrVerificationRequired{State: contractor.Verification}
	}

	table := s.rates.Current()
	if targetCurrency == "" {
		targetCurrency = table.Base
	}
	s.observeCurrency(table, targetCurrency)

	// Bypass the cache here: the gate must see the ledger as it is now.
	s.cache.Delete(contractorID)
	base, err := s.baseBalance(ctx, contractorID, table)
	if err != nil {
		return nil, err
	}
	available := table.Convert(base.Available, table.Base, targetCurrency)
	if amount > available {
		s.metrics.IncrWithdrawal("denied_balance")
		return nil, &domain.ErrInsufficientBalance{Available: available, Requested: amount, Currency: targetCurrency}
	}

	w := &domain.Withdrawal{
		ID:           uuid.New().String(),
		ContractorID: contractorID,
		Amount:       amount,
		Currency:     targetCurrency,
		Status:       domain.WithdrawalPending,
		RequestedAt:  time.Now().UTC(),
	}
	if err := s.ledger.CreateWithdrawal(ctx, w); err != nil {
		return nil, err
	}
	s.metrics.IncrWithdrawal("accepted")

	s.logger.Info("withdrawal requested",
		zap.String("withdrawal_id", w.ID),
		zap.String("contractor_id", contractorID),
		zap.Float64("amount", amount),
		zap.String("currency", targetCurrency),
	)
	s.notifier.Notify(ctx, domain.Notification{
		Type:         domain.NotifyWithdrawalRequested,
		ContractorID: contractorID,
		WithdrawalID: w.ID,
		Message:      "Withdrawal request received",
		EmittedAt:    time.Now().UTC(),
	})
	return w, nil
}

// ListWithdrawals returns the contractor's withdrawal history.
func (s *BalanceService) ListWithdrawals(ctx context.Context, contractorID string) ([]domain.Withdrawal, error) {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.ListWithdrawals")
	defer span.End()

	if _, err := s.lifecycle.GetContractor(ctx, contractorID); err != nil {
		return nil, err
	}
	return s.ledger.ListWithdrawals(ctx, contractorID)
}
