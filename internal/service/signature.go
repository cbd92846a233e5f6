package service

import (
	"context"
	"strings"
	"time"

	"github.com/paycrew/contractor-bfa-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Contracts / Signatures
// ============================================================

// IssueContract creates a contract offer in the created state.
func (s *LifecycleService) IssueContract(ctx context.Context, req *domain.IssueContractRequest) (*domain.Contract, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.IssueContract")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("contract_issue", time.Since(start)) }()

	if req.Counterparty == "" {
		return nil, &domain.ErrValidation{Field: "counterparty", Message: "counterparty is required"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if req.Currency == "" {
		return nil, &domain.ErrValidation{Field: "currency", Message: "currency is required"}
	}
	if !req.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be 'fixed' or 'pay_as_you_go'"}
	}
	if _, err := s.store.GetContractor(ctx, req.ContractorID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Contract{
		ID:           uuid.New().String(),
		ContractorID: req.ContractorID,
		Counterparty: req.Counterparty,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Type:         req.Type,
		State:        domain.SignatureCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateContract(ctx, c); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("contract.id", c.ID))
	s.logger.Info("contract issued",
		zap.String("contract_id", c.ID),
		zap.String("contractor_id", c.ContractorID),
		zap.Float64("amount", c.Amount),
		zap.String("currency", c.Currency),
	)
	return c, nil
}

// GetContract returns a single contract.
func (s *LifecycleService) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.GetContract")
	defer span.End()

	return s.store.GetContract(ctx, contractID)
}

// ListContracts returns all contracts for a contractor, in issue order.
func (s *LifecycleService) ListContracts(ctx context.Context, contractorID string) ([]domain.Contract, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.ListContracts")
	defer span.End()

	if _, err := s.store.GetContractor(ctx, contractorID); err != nil {
		return nil, err
	}
	return s.store.ListContracts(ctx, contractorID)
}

// ReviewContract records that the contractor opened the sign-review
// surface. Reviewing an already-reviewed contract is a no-op.
func (s *LifecycleService) ReviewContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.ReviewContract")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("contract_review", time.Since(start)) }()

	updated, err := s.store.UpdateContract(ctx, contractID, func(c *domain.Contract) error {
		if c.State == domain.SignatureCancelled {
			return &domain.ErrIllegalTransition{Entity: "contract", From: string(c.State), Event: "review"}
		}
		if c.Reviewed {
			return nil
		}
		c.Reviewed = true
		c.Recompute()
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		s.metrics.IncrTransition("signature", "review", "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("signature", "review", "accepted")
	return updated, nil
}

// SignAsContractor records the contractor's signature. The signer name must
// match the legal name on file (case-insensitive, whitespace-trimmed); a
// mismatch rejects without touching state. Re-signing an already-signed
// contract is a no-op, which guards against duplicate submissions.
func (s *LifecycleService) SignAsContractor(ctx context.Context, contractID, signerName string) (*domain.Contract, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.SignAsContractor")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("contractor_sign", time.Since(start)) }()

	existing, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	contractor, err := s.store.GetContractor(ctx, existing.ContractorID)
	if err != nil {
		return nil, err
	}

	var signed, activated bool
	updated, err := s.store.UpdateContract(ctx, contractID, func(c *domain.Contract) error {
		if c.State == domain.SignatureCancelled {
			return &domain.ErrIllegalTransition{Entity: "contract", From: string(c.State), Event: "contractor_sign"}
		}
		if c.ContractorSigned {
			return nil // duplicate submission, keep current state
		}
		if !c.Reviewed {
			return &domain.ErrIllegalTransition{Entity: "contract", From: string(c.State), Event: "contractor_sign"}
		}

		name := strings.TrimSpace(signerName)
		if name == "" || !strings.EqualFold(name, contractor.LegalName()) {
			return &domain.ErrNameMismatch{Provided: signerName}
		}

		c.ContractorSigned = true
		c.Recompute()
		c.UpdatedAt = time.Now().UTC()
		signed = true
		if c.State == domain.SignatureActivated {
			now := c.UpdatedAt
			c.ActivatedAt = &now
			c.LedgerEligible = true
			activated = true
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrTransition("signature", "contractor_sign", "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("signature", "contractor_sign", "accepted")

	if signed {
		s.notifier.Notify(ctx, domain.Notification{
			Type:         domain.NotifyContractSigned,
			ContractorID: updated.ContractorID,
			ContractID:   updated.ID,
			Message:      "Contract signed by " + contractor.LegalName(),
			EmittedAt:    time.Now().UTC(),
		})
	}
	if activated {
		s.emitActivated(ctx, updated)
	}
	return updated, nil
}

// SignAsCounterparty records the counterparty's signature, delivered as an
// external event. Either signing order activates the contract once both
// signatures are present.
func (s *LifecycleService) SignAsCounterparty(ctx context.Context, contractID string) (*domain.Contract, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.SignAsCounterparty")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("counterparty_sign", time.Since(start)) }()

	var activated bool
	updated, err := s.store.UpdateContract(ctx, contractID, func(c *domain.Contract) error {
		if c.State == domain.SignatureCancelled {
			return &domain.ErrIllegalTransition{Entity: "contract", From: string(c.State), Event: "counterparty_sign"}
		}
		if c.CounterpartySigned {
			return nil
		}
		c.CounterpartySigned = true
		c.Recompute()
		c.UpdatedAt = time.Now().UTC()
		if c.State == domain.SignatureActivated {
			now := c.UpdatedAt
			c.ActivatedAt = &now
			c.LedgerEligible = true
			activated = true
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrTransition("signature", "counterparty_sign", "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("signature", "counterparty_sign", "accepted")

	if activated {
		s.emitActivated(ctx, updated)
	}
	return updated, nil
}

// CancelContract cancels a contract that has not yet activated. Cancelling
// an already-cancelled contract is a no-op.
func (s *LifecycleService) CancelContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.CancelContract")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("contract_cancel", time.Since(start)) }()

	updated, err := s.store.UpdateContract(ctx, contractID, func(c *domain.Contract) error {
		switch c.State {
		case domain.SignatureActivated:
			return &domain.ErrIllegalTransition{Entity: "contract", From: string(c.State), Event: "cancel"}
		case domain.SignatureCancelled:
			return nil
		}
		c.State = domain.SignatureCancelled
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		s.metrics.IncrTransition("signature", "cancel", "rejected")
		return nil, err
	}
	s.metrics.IncrTransition("signature", "cancel", "accepted")
	return updated, nil
}

// emitActivated announces activation: the contract's payment schedule is
// now visible to the balance engine.
func (s *LifecycleService) emitActivated(ctx context.Context, c *domain.Contract) {
	s.logger.Info("contract activated",
		zap.String("contract_id", c.ID),
		zap.String("contractor_id", c.ContractorID),
	)
	s.notifier.Notify(ctx, domain.Notification{
		Type:         domain.NotifyContractActivated,
		ContractorID: c.ContractorID,
		ContractID:   c.ID,
		Message:      "Contract activated",
		EmittedAt:    time.Now().UTC(),
	})
}
