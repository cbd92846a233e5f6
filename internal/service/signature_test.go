package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/service"
)

func issueContract(t *testing.T, svc *service.LifecycleService, contractorID string) *domain.Contract {
	t.Helper()
	c, err := svc.IssueContract(context.Background(), &domain.IssueContractRequest{
		ContractorID: contractorID,
		Counterparty: "Acme Corp",
		Amount:       4000,
		Currency:     "CAD",
		Type:         domain.ContractFixed,
	})
	if err != nil {
		t.Fatalf("IssueContract: %v", err)
	}
	return c
}

func TestIssueContract_Validation(t *testing.T) {
	svc, _ := newLifecycleService()
	c := mustCreate(t, svc, domain.TypeIndividual)

	tests := []struct {
		name string
		req  domain.IssueContractRequest
	}{
		{"missing counterparty", domain.IssueContractRequest{ContractorID: c.ID, Amount: 100, Currency: "USD", Type: domain.ContractFixed}},
		{"zero amount", domain.IssueContractRequest{ContractorID: c.ID, Counterparty: "Acme", Currency: "USD", Type: domain.ContractFixed}},
		{"negative amount", domain.IssueContractRequest{ContractorID: c.ID, Counterparty: "Acme", Amount: -5, Currency: "USD", Type: domain.ContractFixed}},
		{"missing currency", domain.IssueContractRequest{ContractorID: c.ID, Counterparty: "Acme", Amount: 100, Type: domain.ContractFixed}},
		{"bad type", domain.IssueContractRequest{ContractorID: c.ID, Counterparty: "Acme", Amount: 100, Currency: "USD", Type: "hourly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.IssueContract(context.Background(), &tt.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	t.Run("unknown contractor", func(t *testing.T) {
		_, err := svc.IssueContract(context.Background(), &domain.IssueContractRequest{
			ContractorID: "nope",
			Counterparty: "Acme",
			Amount:       100,
			Currency:     "USD",
			Type:         domain.ContractFixed,
		})
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSignAsContractor_RequiresReview(t *testing.T) {
	svc, _ := newLifecycleService()
	contractor := mustCreate(t, svc, "")
	onboard(t, svc, contractor.ID)
	contract := issueContract(t, svc, contractor.ID)

	_, err := svc.SignAsContractor(context.Background(), contract.ID, "Ada Lovelace")
	var illegal *domain.ErrIllegalTransition
	if !errors.As(err, &illegal) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	got, err := svc.GetContract(context.Background(), contract.ID)
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if got.State != domain.SignatureCreated || got.ContractorSigned {
		t.Errorf("failed sign mutated contract: state=%s signed=%v", got.State, got.ContractorSigned)
	}
}

func TestSignAsContractor_NameMismatchLeavesState(t *testing.T) {
	svc, _ := newLifecycleService()
	contractor := mustCreate(t, svc, "")
	onboard(t, svc, contractor.ID)
	contract := issueContract(t, svc, contractor.ID)
	if _, err := svc.ReviewContract(context.Background(), contract.ID); err != nil {
		t.Fatalf("review: %v", err)
	}

	for _, name := range []string{"", "Ada Byron", "Lovelace Ada"} {
		_, err := svc.SignAsContractor(context.Background(), contract.ID, name)
		var mismatch *domain.ErrNameMismatch
		if !errors.As(err, &mismatch) {
			t.Fatalf("signer %q: expected ErrNameMismatch, got %v", name, err)
		}
	}

	got, err := svc.GetContract(context.Background(), contract.ID)
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if got.State != domain.SignatureReviewed {
		t.Errorf("state after mismatches = %s, want reviewed", got.State)
	}
}

func TestSignAsContractor_NameMatchIsLenient(t *testing.T) {
	svc, _ := newLifecycleService()
	contractor := mustCreate(t, svc, "")
	onboard(t, svc, contractor.ID)
	contract := issueContract(t, svc, contractor.ID)
	if _, err := svc.ReviewContract(context.Background(), contract.ID); err != nil {
		t.Fatalf("review: %v", err)
	}

	// Case and surrounding whitespace do not matter.
	signed, err := svc.SignAsContractor(context.Background(), contract.ID, "  ada LOVELACE ")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.State != domain.SignatureContractorSigned {
		t.Errorf("state = %s, want contractor_signed", signed.State)
	}
}

func TestSignAsContractor_DuplicateIsNoOp(t *testing.T) {
	svc, notifier := newLifecycleService()
	contractor := mustCreate(t, svc, "")
	onboard(t, svc, contractor.ID)
	contract := issueContract(t, svc, contractor.ID)
	ctx := context.Background()

	if _, err := svc.ReviewContract(ctx, contract.ID); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := svc.SignAsContractor(ctx, contract.ID, "Ada Lovelace"); err != nil {
		t.Fatalf("sign: %v", err)
	}

	// A second submission succeeds without a second signature event, even
	// with a name that would otherwise be rejected.
	again, err := svc.SignAsContractor(ctx, contract.ID, "somebody else")
	if err != nil {
		t.Fatalf("duplicate sign: %v", err)
	}
	if again.State != domain.SignatureContractorSigned {
		t.Errorf("state = %s, want contractor_signed", again.State)
	}
	if got := notifier.byType(domain.NotifyContractSigned); len(got) != 1 {
		t.Errorf("expected 1 signed notification, got %d", len(got))
	}
}

func TestContractActivation_EitherSigningOrder(t *testing.T) {
	orders := []struct {
		name  string
		steps func(t *testing.T, svc *service.LifecycleService, contractID string)
	}{
		{
			name: "counterparty first",
			steps: func(t *testing.T, svc *service.LifecycleService, contractID string) {
				ctx := context.Background()
				if _, err := svc.SignAsCounterparty(ctx, contractID); err != nil {
					t.Fatalf("counterparty sign: %v", err)
				}
				if _, err := svc.ReviewContract(ctx, contractID); err != nil {
					t.Fatalf("review: %v", err)
				}
				if _, err := svc.SignAsContractor(ctx, contractID, "Ada Lovelace"); err != nil {
					t.Fatalf("contractor sign: %v", err)
				}
			},
		},
		{
			name: "contractor first",
			steps: func(t *testing.T, svc *service.LifecycleService, contractID string) {
				ctx := context.Background()
				if _, err := svc.ReviewContract(ctx, contractID); err != nil {
					t.Fatalf("review: %v", err)
				}
				if _, err := svc.SignAsContractor(ctx, contractID, "Ada Lovelace"); err != nil {
					t.Fatalf("contractor sign: %v", err)
				}
				if _, err := svc.SignAsCounterparty(ctx, contractID); err != nil {
					t.Fatalf("counterparty sign: %v", err)
				}
			},
		},
	}

	for _, order := range orders {
		t.Run(order.name, func(t *testing.T) {
			svc, notifier := newLifecycleService()
			contractor := mustCreate(t, svc, "")
			onboard(t, svc, contractor.ID)
			contract := issueContract(t, svc, contractor.ID)

			order.steps(t, svc, contract.ID)

			got, err := svc.GetContract(context.Background(), contract.ID)
			if err != nil {
				t.Fatalf("GetContract: %v", err)
			}
			if got.State != domain.SignatureActivated {
				t.Errorf("state = %s, want activated", got.State)
			}
			if !got.LedgerEligible {
				t.Error("activated contract must be ledger eligible")
			}
			if got.ActivatedAt == nil {
				t.Error("ActivatedAt must be set on activation")
			}
			if got := notifier.byType(domain.NotifyContractActivated); len(got) != 1 {
				t.Errorf("expected 1 activation notification, got %d", len(got))
			}
		})
	}
}

func TestCancelContract_Rules(t *testing.T) {
	svc, _ := newLifecycleService()
	contractor := mustCreate(t, svc, "")
	onboard(t, svc, contractor.ID)
	ctx := context.Background()

	// Cancel before activation, twice: second is a no-op.
	c1 := issueContract(t, svc, contractor.ID)
	cancelled, err := svc.CancelContract(ctx, c1.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.State != domain.SignatureCancelled {
		t.Errorf("state = %s, want cancelled", cancelled.State)
	}
	if _, err := svc.CancelContract(ctx, c1.ID); err != nil {
		t.Errorf("duplicate cancel should be a no-op, got %v", err)
	}

	// No signature event may touch a cancelled contract.
	var illegal *domain.ErrIllegalTransition
	if _, err := svc.ReviewContract(ctx, c1.ID); !errors.As(err, &illegal) {
		t.Errorf("review cancelled: expected ErrIllegalTransition, got %v", err)
	}
	if _, err := svc.SignAsCounterparty(ctx, c1.ID); !errors.As(err, &illegal) {
		t.Errorf("counterparty sign cancelled: expected ErrIllegalTransition, got %v", err)
	}

	// Activated contracts cannot be cancelled.
	c2 := issueContract(t, svc, contractor.ID)
	if _, err := svc.ReviewContract(ctx, c2.ID); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := svc.SignAsContractor(ctx, c2.ID, "Ada Lovelace"); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.SignAsCounterparty(ctx, c2.ID); err != nil {
		t.Fatalf("counterparty sign: %v", err)
	}
	if _, err := svc.CancelContract(ctx, c2.ID); !errors.As(err, &illegal) {
		t.Errorf("cancel activated: expected ErrIllegalTransition, got %v", err)
	}
}

func TestListContracts_IssueOrder(t *testing.T) {
	svc, _ := newLifecycleService()
	contractor := mustCreate(t, svc, "")
	onboard(t, svc, contractor.ID)

	first := issueContract(t, svc, contractor.ID)
	second := issueContract(t, svc, contractor.ID)

	list, err := svc.ListContracts(context.Background(), contractor.ID)
	if err != nil {
		t.Fatalf("ListContracts: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("contracts not in issue order: %+v", list)
	}
}
