package domain

import "time"

// ============================================================
// Contracts / Signatures
// ============================================================

// ContractType is the billing model of a contract.
type ContractType string

const (
	ContractFixed      ContractType = "fixed"
	ContractPayAsYouGo ContractType = "pay_as_you_go"
)

// Valid reports whether the contract type is one of the known values.
func (t ContractType) Valid() bool {
	return t == ContractFixed || t == ContractPayAsYouGo
}

// SignatureState is one stage in a contract's path from creation to
// activation. Both parties may sign in either order once the contract has
// been reviewed; activation requires both signatures.
type SignatureState string

const (
	SignatureCreated            SignatureState = "created"
	SignatureReviewed           SignatureState = "reviewed"
	SignatureCounterpartySigned SignatureState = "counterparty_signed"
	SignatureContractorSigned   SignatureState = "contractor_signed"
	SignatureActivated          SignatureState = "activated"
	SignatureCancelled          SignatureState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s SignatureState) Terminal() bool {
	return s == SignatureActivated || s == SignatureCancelled
}

// Contract is an agreement record between a contractor and a counterparty.
// Each contract progresses independently; a contractor may hold several.
type Contract struct {
	ID           string       `json:"id"`
	ContractorID string       `json:"contractor_id"`
	Counterparty string       `json:"counterparty"`
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
	Type         ContractType `json:"type"`

	State              SignatureState `json:"state"`
	Reviewed           bool           `json:"reviewed"`
	CounterpartySigned bool           `json:"counterparty_signed"`
	ContractorSigned   bool           `json:"contractor_signed"`

	// LedgerEligible is set on activation: the contract's payment schedule
	// becomes visible to the balance engine.
	LedgerEligible bool `json:"ledger_eligible"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

// Recompute derives the signature state from the recorded signature facts.
// The derived state is the furthest point of the ordered progression the
// facts support, which makes the either-order signing rule fall out
// naturally: flags accumulate, the state is a projection of them.
func (c *Contract) Recompute() {
	if c.State == SignatureCancelled {
		return
	}
	switch {
	case c.CounterpartySigned && c.ContractorSigned:
		c.State = SignatureActivated
	case c.ContractorSigned:
		c.State = SignatureContractorSigned
	case c.CounterpartySigned && c.Reviewed:
		c.State = SignatureCounterpartySigned
	case c.Reviewed:
		c.State = SignatureReviewed
	default:
		c.State = SignatureCreated
	}
}

// IssueContractRequest is the payload to issue a contract offer.
type IssueContractRequest struct {
	ContractorID string       `json:"contractor_id"`
	Counterparty string       `json:"counterparty"`
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
	Type         ContractType `json:"type"`
}
