// Package domain defines the core business entities for the contractor
// platform. These models are independent of external services and represent
// the canonical data structures used throughout the BFF.
package domain

import (
	"strings"
	"time"
)

// ============================================================
// Contractor / Onboarding
// ============================================================

// ContractorType distinguishes individual contractors from legal entities.
type ContractorType string

const (
	TypeIndividual ContractorType = "individual"
	TypeEntity     ContractorType = "entity"
)

// Valid reports whether the contractor type is one of the known values.
func (t ContractorType) Valid() bool {
	return t == TypeIndividual || t == TypeEntity
}

// OnboardingStep is one stage in the contractor intake sequence.
type OnboardingStep string

const (
	StepWelcome        OnboardingStep = "welcome"
	StepProfileDetails OnboardingStep = "profile_details"
	StepAddressDetails OnboardingStep = "address_details"
	StepComplete       OnboardingStep = "complete"
)

// Next returns the step that follows s, or s itself if s is terminal.
func (s OnboardingStep) Next() OnboardingStep {
	switch s {
	case StepWelcome:
		return StepProfileDetails
	case StepProfileDetails:
		return StepAddressDetails
	case StepAddressDetails:
		return StepComplete
	default:
		return s
	}
}

// Prev returns the step that precedes s, or s itself if s is the first step
// or terminal. Backward navigation never leaves complete.
func (s OnboardingStep) Prev() OnboardingStep {
	switch s {
	case StepProfileDetails:
		return StepWelcome
	case StepAddressDetails:
		return StepProfileDetails
	default:
		return s
	}
}

// VerificationState is the contractor's identity-check status. Withdrawals
// are gated on it being verified.
type VerificationState string

const (
	VerificationUnverified VerificationState = "unverified"
	VerificationPending    VerificationState = "pending"
	VerificationVerified   VerificationState = "verified"
	VerificationRejected   VerificationState = "rejected"
)

// ContractorProfile holds identity and intake data. It is created with
// defaults at onboarding start, amended by the user, and never deleted.
type ContractorProfile struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Citizenship  string `json:"citizenship,omitempty"`
	TaxResidence string `json:"tax_residence,omitempty"`
	LegalStatus  string `json:"legal_status,omitempty"`
	DateOfBirth  string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	Street       string `json:"street,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Contractor is the aggregate root for a single contractor: profile plus
// onboarding and verification progress. All mutations go through the
// lifecycle service, serialized per aggregate.
type Contractor struct {
	ID                 string            `json:"id"`
	Type               ContractorType    `json:"type,omitempty"`
	Profile            ContractorProfile `json:"profile"`
	OnboardingStep     OnboardingStep    `json:"onboarding_step"`
	OnboardingComplete bool              `json:"onboarding_complete"`
	Verification       VerificationState `json:"verification"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// LegalName returns the contractor's legal name on file, used to validate
// signature submissions.
func (c *Contractor) LegalName() string {
	return strings.TrimSpace(c.Profile.FirstName + " " + c.Profile.LastName)
}

// CanWithdraw is the single capability gate for withdrawal actions.
func (c *Contractor) CanWithdraw() bool {
	return c.Verification == VerificationVerified
}

// OnboardingFields is the payload submitted with an onboarding step. Only
// the fields relevant to the current step are validated; everything provided
// is merged into the profile so values survive back/forward navigation.
type OnboardingFields struct {
	ContractorType string `json:"contractor_type,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Citizenship    string `json:"citizenship,omitempty"`
	TaxResidence   string `json:"tax_residence,omitempty"`
	LegalStatus    string `json:"legal_status,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Street         string `json:"street,omitempty"`
	City           string `json:"city,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	Country        string `json:"country,omitempty"`
}

// OnboardingStatus is returned to the presentation layer so it can render
// navigation from state instead of guessing.
type OnboardingStatus struct {
	Step       OnboardingStep `json:"step"`
	Complete   bool           `json:"complete"`
	CanAdvance bool           `json:"can_advance"`
	CanGoBack  bool           `json:"can_go_back"`
}
