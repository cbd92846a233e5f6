package domain

import "time"

// ============================================================
// Ledger / Balance / Withdrawals
// ============================================================

// TransactionStatus is the settlement status of a ledger entry.
type TransactionStatus string

const (
	TransactionReceived TransactionStatus = "received"
	TransactionPending  TransactionStatus = "pending"
	TransactionFailed   TransactionStatus = "failed"
)

// Valid reports whether the status is one of the known values.
func (s TransactionStatus) Valid() bool {
	return s == TransactionReceived || s == TransactionPending || s == TransactionFailed
}

// Transaction is a single earning event. The ledger is append-only: entries
// are written by the external payment collaborator and never mutated or
// removed; it is the sole source of truth for balance computation.
type Transaction struct {
	ID           string            `json:"id"`
	ContractorID string            `json:"contractor_id"`
	Amount       float64           `json:"amount"`
	Currency     string            `json:"currency"`
	Counterparty string            `json:"counterparty,omitempty"`
	Status       TransactionStatus `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Balance is the result of a ledger aggregation in a target currency.
// Available sums received transactions; Pending sums pending ones. Failed
// transactions contribute to neither.
type Balance struct {
	Available float64 `json:"available"`
	Pending   float64 `json:"pending"`
	Currency  string  `json:"currency"`
}

// WithdrawalStatus is the status of a withdrawal request. The core only
// ever produces pending records; settlement happens externally.
type WithdrawalStatus string

const WithdrawalPending WithdrawalStatus = "pending"

// Withdrawal is a withdrawal request record.
type Withdrawal struct {
	ID           string           `json:"id"`
	ContractorID string           `json:"contractor_id"`
	Amount       float64          `json:"amount"`
	Currency     string           `json:"currency"`
	Status       WithdrawalStatus `json:"status"`
	RequestedAt  time.Time        `json:"requested_at"`
}

// ============================================================
// Rates / Conversion
// ============================================================

// RateTable maps currency codes to conversion factors relative to a base
// currency. It is read-many/write-rare configuration: updates replace the
// whole table atomically, so a snapshot handed to a caller never changes
// underneath it.
type RateTable struct {
	Base  string             `json:"base" yaml:"base"`
	Rates map[string]float64 `json:"rates" yaml:"rates"`
}

// Known reports whether the table carries an explicit rate for code.
func (t *RateTable) Known(code string) bool {
	_, ok := t.Rates[code]
	return ok
}

// Rate returns the conversion factor for code. An unknown code falls back
// to 1; callers that care surface the fallback via metrics, not an error.
func (t *RateTable) Rate(code string) float64 {
	if r, ok := t.Rates[code]; ok {
		return r
	}
	return 1
}

// Convert converts amount from one currency to another. Pure and
// deterministic; safe for concurrent use on a table snapshot. Same-currency
// conversions short-circuit to avoid floating-point drift on the common case.
func (t *RateTable) Convert(amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	return amount / t.Rate(from) * t.Rate(to)
}
