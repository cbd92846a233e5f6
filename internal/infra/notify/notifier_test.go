package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/infra/observability"
	"github.com/paycrew/contractor-bfa-go/internal/infra/resilience"

	"go.uber.org/zap"
)

func testConfig() resilience.Config {
	return resilience.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxConcurrency: 2,
	}
}

func newTestWebhook(url string) *Webhook {
	return NewWebhook(
		&http.Client{Timeout: time.Second},
		url,
		resilience.NewCircuitBreaker("test"),
		testConfig(),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestNotify_DeliversPayload(t *testing.T) {
	received := make(chan domain.Notification, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		var n domain.Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- n
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := newTestWebhook(srv.URL)
	w.Notify(context.Background(), domain.Notification{
		Type:         domain.NotifyWelcome,
		ContractorID: "c1",
		Message:      "Welcome aboard",
	})

	select {
	case n := <-received:
		if n.Type != domain.NotifyWelcome || n.ContractorID != "c1" {
			t.Errorf("payload: %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never arrived")
	}
}

func TestNotify_SurvivesCallerCancellation(t *testing.T) {
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := newTestWebhook(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	w.Notify(ctx, domain.Notification{Type: domain.NotifyContractActivated, ContractorID: "c1"})
	cancel()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery should be detached from the caller's context")
	}
}

func TestNotify_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	delivered := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		delivered <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := newTestWebhook(srv.URL)
	w.Notify(context.Background(), domain.Notification{Type: domain.NotifyWelcome, ContractorID: "c1"})

	select {
	case <-delivered:
		if got := calls.Load(); got != 3 {
			t.Errorf("calls = %d, want 3", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never succeeded")
	}
}

func TestNotify_EmptyURLOnlyLogs(t *testing.T) {
	w := newTestWebhook("")
	// Must return immediately and never panic without a destination.
	w.Notify(context.Background(), domain.Notification{Type: domain.NotifyWelcome, ContractorID: "c1"})
}
