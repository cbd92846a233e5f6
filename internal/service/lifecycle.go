// Package service provides the business logic layer (use cases).
// LifecycleService owns the contractor's progression through onboarding,
// identity verification and per-contract signature steps; it is the single
// authority for "is action X currently legal".
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

var lifecycleTracer = otel.Tracer("service/lifecycle")

// LifecycleService holds and validates onboarding, verification and
// signature progress. Every transition either succeeds and returns the new
// state, or fails with a typed error and leaves state untouched: the store
// commits mutation closures all-or-nothing.
type LifecycleService struct {
	store    port.LifecycleStore
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewLifecycleService creates a new lifecycle service.
func NewLifecycleService(store port.LifecycleStore, notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{store: store, notifier: notifier, metrics: metrics, logger: logger}
}

// ============================================================
// Contractors / Onboarding
// ============================================================

// CreateContractor starts intake for a new contractor. The contractor type
// may be provided up front or later with the welcome step.
func (s *LifecycleService) CreateContractor(ctx context.Context, typ domain.ContractorType) (*domain.Contractor, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.CreateContractor")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("create_contractor", time.Since(start)) }()

	if typ != "" && !typ.Valid() {
		return nil, &domain.ErrValidation{Field: "contractor_type", Message: "must be 'individual' or 'entity'"}
	}

	now := time.Now().UTC()
	c := &domain.Contractor{
		ID:             uuid.New().String(),
		Type:           typ,
		OnboardingStep: domain.StepWelcome,
		Verification:   domain.VerificationUnverified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateContractor(ctx, c); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("contractor.id", c.ID))
	s.logger.Info("contractor created",
		zap.String("contractor_id", c.ID),
		zap.String("type", string(typ)),
	)
	return c, nil
}

// GetContractor returns the aggregate snapshot.
func (s *LifecycleService) GetContractor(ctx context.Context, contractorID string) (*domain.Contractor, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.GetContractor")
	defer span.End()

	return s.store.GetContractor(ctx, contractorID)
}

// OnboardingStatus reports the current step and which moves are legal, so
// the presentation layer renders navigation from state.
func (s *LifecycleService) OnboardingStatus(ctx context.Context, contractorID string) (*domain.OnboardingStatus, error) {
	c, err := s.store.GetContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	return &domain.OnboardingStatus{
		Step:       c.OnboardingStep,
		Complete:   c.OnboardingComplete,
		CanAdvance: c.OnboardingStep != domain.StepComplete,
		CanGoBack:  c.OnboardingStep == domain.StepProfileDetails || c.OnboardingStep == domain.StepAddressDetails,
	}, nil
}

// AdvanceOnboarding merges the submitted fields into the profile and moves
// the contractor one step forward. The merge and the transition commit
// together or not at all: a precondition failure leaves both the step and
// the previously stored fields unchanged.
func (s *LifecycleService) AdvanceOnboarding(ctx context.Context, contractorID string, fields domain.OnboardingFields) (*domain.Contractor, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.AdvanceOnboarding")
	defer span.End()
	span.SetAttributes(attribute.String("contractor.id", contractorID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("onboarding_advance", time.Since(start)) }()

	completed := false
	updated, err := s.store.UpdateContractor(ctx, contractorID, func(c *domain.Contractor) error {
		if c.OnboardingStep == domain.StepComplete {
			return &domain.ErrIllegalTransition{Entity: "onboarding", From: string(c.OnboardingStep), Event: "advance"}
		}

		mergeFields(c, fields)

		if missing := missingForAdvance(c); len(missing) > 0 {
			return &domain.ErrPreconditionNotMet{Step: c.OnboardingStep, Fields: missing}
		}

		c.OnboardingStep = c.OnboardingStep.Next()
		c.UpdatedAt = time.Now().UTC()
		if c.OnboardingStep == domain.StepComplete {
			c.OnboardingComplete = true
			completed = true
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrTransition("onboarding", "advance", "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("onboarding", "advance", "accepted")

	if completed {
		s.logger.Info("onboarding complete", zap.String("contractor_id", updated.ID))
		s.notifier.Notify(ctx, domain.Notification{
			Type:         domain.NotifyWelcome,
			ContractorID: updated.ID,
			Message:      "Welcome aboard, " + updated.LegalName(),
			EmittedAt:    time.Now().UTC(),
		})
	}
	return updated, nil
}

// BackOnboarding navigates one step back. Backward moves carry no
// validation and never discard previously entered fields.
func (s *LifecycleService) BackOnboarding(ctx context.Context, contractorID string) (*domain.Contractor, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.BackOnboarding")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("onboarding_back", time.Since(start)) }()

	updated, err := s.store.UpdateContractor(ctx, contractorID, func(c *domain.Contractor) error {
		switch c.OnboardingStep {
		case domain.StepProfileDetails, domain.StepAddressDetails:
			c.OnboardingStep = c.OnboardingStep.Prev()
			c.UpdatedAt = time.Now().UTC()
			return nil
		default:
			return &domain.ErrIllegalTransition{Entity: "onboarding", From: string(c.OnboardingStep), Event: "back"}
		}
	})
	if err != nil {
		s.metrics.IncrTransition("onboarding", "back", "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("onboarding", "back", "accepted")
	return updated, nil
}

// mergeFields copies every non-empty submitted field into the aggregate so
// values persist across back/forward navigation.
func mergeFields(c *domain.Contractor, f domain.OnboardingFields) {
	if f.ContractorType != "" {
		c.Type = domain.ContractorType(f.ContractorType)
	}
	p := &c.Profile
	if f.FirstName != "" {
		p.FirstName = f.FirstName
	}
	if f.LastName != "" {
		p.LastName = f.LastName
	}
	if f.Citizenship != "" {
		p.Citizenship = f.Citizenship
	}
	if f.TaxResidence != "" {
		p.TaxResidence = f.TaxResidence
	}
	if f.LegalStatus != "" {
		p.LegalStatus = f.LegalStatus
	}
	if f.DateOfBirth != "" {
		p.DateOfBirth = f.DateOfBirth
	}
	if f.Street != "" {
		p.Street = f.Street
	}
	if f.City != "" {
		p.City = f.City
	}
	if f.PostalCode != "" {
		p.PostalCode = f.PostalCode
	}
	if f.Country != "" {
		p.Country = f.Country
	}
}

// missingForAdvance returns the fields still required before the current
// step may advance. Completion additionally requires a legal-status
// selection: a completed profile must never lack one.
func missingForAdvance(c *domain.Contractor) []string {
	var missing []string
	switch c.OnboardingStep {
	case domain.StepWelcome:
		if !c.Type.Valid() {
			missing = append(missing, "contractor_type")
		}
	case domain.StepProfileDetails:
		if c.Profile.FirstName == "" {
			missing = append(missing, "first_name")
		}
		if c.Profile.LastName == "" {
			missing = append(missing, "last_name")
		}
	case domain.StepAddressDetails:
		if c.Profile.Street == "" {
			missing = append(missing, "street")
		}
		if c.Profile.City == "" {
			missing = append(missing, "city")
		}
		if c.Profile.PostalCode == "" {
			missing = append(missing, "postal_code")
		}
		if c.Profile.Country == "" {
			missing = append(missing, "country")
		}
		if c.Profile.LegalStatus == "" {
			missing = append(missing, "legal_status")
		}
	}
	return missing
}

// ============================================================
// Verification
// ============================================================

// SubmitVerification moves the contractor into pending review. Resubmitting
// while already pending is a no-op; a rejected contractor may resubmit.
func (s *LifecycleService) SubmitVerification(ctx context.Context, contractorID string) (*domain.Contractor, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.SubmitVerification")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("verification_submit", time.Since(start)) }()

	updated, err := s.store.UpdateContractor(ctx, contractorID, func(c *domain.Contractor) error {
		switch c.Verification {
		case domain.VerificationUnverified, domain.VerificationRejected:
			c.Verification = domain.VerificationPending
			c.UpdatedAt = time.Now().UTC()
			return nil
		case domain.VerificationPending:
			return nil // duplicate submission, keep current state
		default:
			return &domain.ErrIllegalTransition{Entity: "verification", From: string(c.Verification), Event: "submit"}
		}
	})
	if err != nil {
		s.metrics.IncrTransition("verification", "submit", "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("verification", "submit", "accepted")
	return updated, nil
}

// ResolveVerification records the outcome of the external identity check.
// verified is terminal; rejected allows resubmission.
func (s *LifecycleService) ResolveVerification(ctx context.Context, contractorID, result string) (*domain.Contractor, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.ResolveVerification")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("verification_resolve", time.Since(start)) }()

	var target domain.VerificationState
	switch result {
	case "approved":
		target = domain.VerificationVerified
	case "rejected":
		target = domain.VerificationRejected
	default:
		return nil, &domain.ErrValidation{Field: "result", Message: "must be 'approved' or 'rejected'"}
	}

	updated, err := s.store.UpdateContractor(ctx, contractorID, func(c *domain.Contractor) error {
		if c.Verification != domain.VerificationPending {
			return &domain.ErrIllegalTransition{Entity: "verification", From: string(c.Verification), Event: result}
		}
		c.Verification = target
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		s.metrics.IncrTransition("verification", result, "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("verification", result, "accepted")

	s.logger.Info("verification resolved",
		zap.String("contractor_id", updated.ID),
		zap.String("state", string(updated.Verification)),
	)
	s.notifier.Notify(ctx, domain.Notification{
		Type:         domain.NotifyVerificationUpdated,
		ContractorID: updated.ID,
		Message:      "Identity verification " + result,
		EmittedAt:    time.Now().UTC(),
	})
	return updated, nil
}
