package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/infra/memstore"
	"github.com/paycrew/contractor-bfa-go/internal/infra/observability"
	"github.com/paycrew/contractor-bfa-go/internal/service"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockNotifier struct {
	mu     sync.Mutex
	events []domain.Notification
}

func (m *mockNotifier) Notify(_ context.Context, n domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, n)
}

func (m *mockNotifier) byType(typ domain.NotificationType) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.events {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func newLifecycleService() (*service.LifecycleService, *mockNotifier) {
	notifier := &mockNotifier{}
	svc := service.NewLifecycleService(memstore.New(), notifier, observability.NewMetrics(), zap.NewNop())
	return svc, notifier
}

func mustCreate(t *testing.T, svc *service.LifecycleService, typ domain.ContractorType) *domain.Contractor {
	t.Helper()
	c, err := svc.CreateContractor(context.Background(), typ)
	if err != nil {
		t.Fatalf("CreateContractor: %v", err)
	}
	return c
}

// onboard walks a contractor through all three steps with valid fields.
func onboard(t *testing.T, svc *service.LifecycleService, id string) *domain.Contractor {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.AdvanceOnboarding(ctx, id, domain.OnboardingFields{ContractorType: "individual"}); err != nil {
		t.Fatalf("advance welcome: %v", err)
	}
	if _, err := svc.AdvanceOnboarding(ctx, id, domain.OnboardingFields{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		LegalStatus: "sole_proprietor",
	}); err != nil {
		t.Fatalf("advance profile: %v", err)
	}
	c, err := svc.AdvanceOnboarding(ctx, id, domain.OnboardingFields{
		Street:     "1 Analytical Way",
		City:       "London",
		PostalCode: "EC1A 1AA",
		Country:    "GB",
	})
	if err != nil {
		t.Fatalf("advance address: %v", err)
	}
	return c
}

// --- Onboarding ---

func TestAdvanceOnboarding_PreconditionsPerStep(t *testing.T) {
	tests := []struct {
		name    string
		prep    func(t *testing.T, svc *service.LifecycleService, id string)
		fields  domain.OnboardingFields
		step    domain.OnboardingStep
		missing []string
	}{
		{
			name:    "welcome requires contractor type",
			prep:    func(*testing.T, *service.LifecycleService, string) {},
			fields:  domain.OnboardingFields{},
			step:    domain.StepWelcome,
			missing: []string{"contractor_type"},
		},
		{
			name: "profile requires both names",
			prep: func(t *testing.T, svc *service.LifecycleService, id string) {
				if _, err := svc.AdvanceOnboarding(context.Background(), id, domain.OnboardingFields{ContractorType: "entity"}); err != nil {
					t.Fatalf("prep: %v", err)
				}
			},
			fields:  domain.OnboardingFields{FirstName: "Ada"},
			step:    domain.StepProfileDetails,
			missing: []string{"last_name"},
		},
		{
			name: "address requires full address and legal status",
			prep: func(t *testing.T, svc *service.LifecycleService, id string) {
				ctx := context.Background()
				if _, err := svc.AdvanceOnboarding(ctx, id, domain.OnboardingFields{ContractorType: "individual"}); err != nil {
					t.Fatalf("prep: %v", err)
				}
				if _, err := svc.AdvanceOnboarding(ctx, id, domain.OnboardingFields{FirstName: "Ada", LastName: "Lovelace"}); err != nil {
					t.Fatalf("prep: %v", err)
				}
			},
			fields:  domain.OnboardingFields{Street: "1 Analytical Way", City: "London"},
			step:    domain.StepAddressDetails,
			missing: []string{"postal_code", "country", "legal_status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newLifecycleService()
			c := mustCreate(t, svc, "")
			tt.prep(t, svc, c.ID)

			before, err := svc.GetContractor(context.Background(), c.ID)
			if err != nil {
				t.Fatalf("GetContractor: %v", err)
			}

			_, err = svc.AdvanceOnboarding(context.Background(), c.ID, tt.fields)
			var precondition *domain.ErrPreconditionNotMet
			if !errors.As(err, &precondition) {
				t.Fatalf("expected ErrPreconditionNotMet, got %v", err)
			}
			if precondition.Step != tt.step {
				t.Errorf("error step = %s, want %s", precondition.Step, tt.step)
			}
			if diff := cmp.Diff(tt.missing, precondition.Fields); diff != "" {
				t.Errorf("missing fields mismatch (-want +got):\n%s", diff)
			}

			// A failed transition leaves the aggregate untouched: neither
			// the step nor previously stored fields change.
			after, err := svc.GetContractor(context.Background(), c.ID)
			if err != nil {
				t.Fatalf("GetContractor: %v", err)
			}
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("state changed on failed transition (-before +after):\n%s", diff)
			}
		})
	}
}

func TestAdvanceOnboarding_FullFlow(t *testing.T) {
	svc, notifier := newLifecycleService()
	c := mustCreate(t, svc, "")

	done := onboard(t, svc, c.ID)

	if done.OnboardingStep != domain.StepComplete {
		t.Errorf("step = %s, want complete", done.OnboardingStep)
	}
	if !done.OnboardingComplete {
		t.Error("OnboardingComplete should be true")
	}
	if done.LegalName() != "Ada Lovelace" {
		t.Errorf("legal name = %q", done.LegalName())
	}
	if got := notifier.byType(domain.NotifyWelcome); len(got) != 1 {
		t.Errorf("expected 1 welcome notification, got %d", len(got))
	}
}

func TestAdvanceOnboarding_CompleteIsTerminal(t *testing.T) {
	svc, _ := newLifecycleService()
	c := mustCreate(t, svc, "")
	onboard(t, svc, c.ID)

	_, err := svc.AdvanceOnboarding(context.Background(), c.ID, domain.OnboardingFields{})
	var illegal *domain.ErrIllegalTransition
	if !errors.As(err, &illegal) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestBackOnboarding_PreservesFields(t *testing.T) {
	svc, _ := newLifecycleService()
	ctx := context.Background()
	c := mustCreate(t, svc, "")

	if _, err := svc.AdvanceOnboarding(ctx, c.ID, domain.OnboardingFields{ContractorType: "individual"}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := svc.AdvanceOnboarding(ctx, c.ID, domain.OnboardingFields{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Citizenship: "GB",
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	back, err := svc.BackOnboarding(ctx, c.ID)
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if back.OnboardingStep != domain.StepProfileDetails {
		t.Errorf("step after back = %s, want profile_details", back.OnboardingStep)
	}
	if back.Profile.FirstName != "Ada" || back.Profile.LastName != "Lovelace" || back.Profile.Citizenship != "GB" {
		t.Errorf("fields lost on back navigation: %+v", back.Profile)
	}

	// Forward again without resubmitting: stored fields still satisfy the
	// step's preconditions.
	fwd, err := svc.AdvanceOnboarding(ctx, c.ID, domain.OnboardingFields{})
	if err != nil {
		t.Fatalf("re-advance: %v", err)
	}
	if fwd.OnboardingStep != domain.StepAddressDetails {
		t.Errorf("step after re-advance = %s, want address_details", fwd.OnboardingStep)
	}
}

func TestBackOnboarding_IllegalFromWelcomeAndComplete(t *testing.T) {
	svc, _ := newLifecycleService()
	c := mustCreate(t, svc, "")

	var illegal *domain.ErrIllegalTransition
	if _, err := svc.BackOnboarding(context.Background(), c.ID); !errors.As(err, &illegal) {
		t.Errorf("back from welcome: expected ErrIllegalTransition, got %v", err)
	}

	onboard(t, svc, c.ID)
	if _, err := svc.BackOnboarding(context.Background(), c.ID); !errors.As(err, &illegal) {
		t.Errorf("back from complete: expected ErrIllegalTransition, got %v", err)
	}
}

func TestOperations_RecordRequestDuration(t *testing.T) {
	notifier := &mockNotifier{}
	metrics := observability.NewMetrics()
	svc := service.NewLifecycleService(memstore.New(), notifier, metrics, zap.NewNop())

	c := mustCreate(t, svc, "")
	onboard(t, svc, c.ID)

	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	operations := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "contractor_request_duration_seconds" {
			continue
		}
		for _, m := range family.GetMetric() {
			if m.GetHistogram().GetSampleCount() == 0 {
				continue
			}
			for _, label := range m.GetLabel() {
				if label.GetName() == "operation" {
					operations[label.GetValue()] = true
				}
			}
		}
	}

	for _, op := range []string{"create_contractor", "onboarding_advance"} {
		if !operations[op] {
			t.Errorf("no duration samples recorded for operation %q (got %v)", op, operations)
		}
	}
}

func TestCreateContractor_InvalidType(t *testing.T) {
	svc, _ := newLifecycleService()

	_, err := svc.CreateContractor(context.Background(), "partnership")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOnboardingStatus_LegalMoves(t *testing.T) {
	svc, _ := newLifecycleService()
	ctx := context.Background()
	c := mustCreate(t, svc, "")

	status, err := svc.OnboardingStatus(ctx, c.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.CanAdvance || status.CanGoBack {
		t.Errorf("welcome: CanAdvance=%v CanGoBack=%v", status.CanAdvance, status.CanGoBack)
	}

	onboard(t, svc, c.ID)
	status, err = svc.OnboardingStatus(ctx, c.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.CanAdvance || status.CanGoBack || !status.Complete {
		t.Errorf("complete: %+v", status)
	}
}

// --- Verification ---

func TestVerification_Flow(t *testing.T) {
	svc, notifier := newLifecycleService()
	ctx := context.Background()
	c := mustCreate(t, svc, domain.TypeIndividual)

	pending, err := svc.SubmitVerification(ctx, c.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if pending.Verification != domain.VerificationPending {
		t.Errorf("state = %s, want pending", pending.Verification)
	}

	// Duplicate submission is a no-op, not an error.
	again, err := svc.SubmitVerification(ctx, c.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.Verification != domain.VerificationPending {
		t.Errorf("state = %s, want pending", again.Verification)
	}

	rejected, err := svc.ResolveVerification(ctx, c.ID, "rejected")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Verification != domain.VerificationRejected {
		t.Errorf("state = %s, want rejected", rejected.Verification)
	}
	if rejected.CanWithdraw() {
		t.Error("rejected contractor must not be able to withdraw")
	}

	// Rejected contractors may resubmit.
	if _, err := svc.SubmitVerification(ctx, c.ID); err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
	verified, err := svc.ResolveVerification(ctx, c.ID, "approved")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if verified.Verification != domain.VerificationVerified {
		t.Errorf("state = %s, want verified", verified.Verification)
	}
	if !verified.CanWithdraw() {
		t.Error("verified contractor must be able to withdraw")
	}

	// Verified is terminal.
	var illegal *domain.ErrIllegalTransition
	if _, err := svc.SubmitVerification(ctx, c.ID); !errors.As(err, &illegal) {
		t.Errorf("submit after verified: expected ErrIllegalTransition, got %v", err)
	}

	if got := notifier.byType(domain.NotifyVerificationUpdated); len(got) != 2 {
		t.Errorf("expected 2 verification notifications, got %d", len(got))
	}
}

func TestResolveVerification_RequiresPending(t *testing.T) {
	svc, _ := newLifecycleService()
	c := mustCreate(t, svc, domain.TypeIndividual)

	var illegal *domain.ErrIllegalTransition
	if _, err := svc.ResolveVerification(context.Background(), c.ID, "approved"); !errors.As(err, &illegal) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	var validation *domain.ErrValidation
	if _, err := svc.ResolveVerification(context.Background(), c.ID, "maybe"); !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for bad result, got %v", err)
	}
}
