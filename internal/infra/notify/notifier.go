// Package notify delivers lifecycle notifications to the external
// notification collaborator. Delivery is fire-and-forget: the emitting
// operation never waits on, or fails because of, the webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/infra/observability"
	"github.com/paycrew/contractor-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Webhook posts notifications as JSON to a configured URL, guarded by a
// circuit breaker and retried with backoff. With an empty URL it only logs,
// which is the default for local development.
type Webhook struct {
	httpClient *http.Client
	url        string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewWebhook creates a webhook notifier.
func NewWebhook(httpClient *http.Client, url string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Webhook {
	return &Webhook{
		httpClient: httpClient,
		url:        url,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

// Notify emits a notification and returns immediately. Delivery happens on
// a background goroutine detached from the caller's cancellation, since the
// originating request should not drag the signal down with it.
func (w *Webhook) Notify(ctx context.Context, n domain.Notification) {
	if w.url == "" {
		w.logger.Info("notification emitted",
			zap.String("type", string(n.Type)),
			zap.String("contractor_id", n.ContractorID),
		)
		w.metrics.IncrNotification(string(n.Type), "logged")
		return
	}

	go w.deliver(context.WithoutCancel(ctx), n)
}

func (w *Webhook) deliver(ctx context.Context, n domain.Notification) {
	if err := w.bulkhead.Acquire(ctx); err != nil {
		return
	}
	defer w.bulkhead.Release()

	payload, err := json.Marshal(n)
	if err != nil {
		w.logger.Error("notify: marshal failed", zap.Error(err))
		w.metrics.IncrNotification(string(n.Type), "error")
		return
	}

	err = resilience.RetryWithBackoff(ctx, w.cfg, func() error {
		_, err := w.cb.Execute(func() (any, error) {
			return nil, w.post(ctx, payload)
		})
		return err
	})
	if err != nil {
		w.logger.Warn("notify: delivery failed",
			zap.String("type", string(n.Type)),
			zap.String("contractor_id", n.ContractorID),
			zap.Error(err),
		)
		w.metrics.IncrNotification(string(n.Type), "failed")
		return
	}

	w.metrics.IncrNotification(string(n.Type), "delivered")
}

func (w *Webhook) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}
