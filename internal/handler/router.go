package handler

import (
	"net/http"
	"time"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/infra/observability"
	"github.com/paycrew/contractor-bfa-go/internal/port"
	"github.com/paycrew/contractor-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the dashboard frontend.
func NewRouter(lifecycleSvc *service.LifecycleService, balanceSvc *service.BalanceService, rates port.RateSource, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Contractors & onboarding
		r.Post("/contractors", createContractorHandler(lifecycleSvc, logger))
		r.Get("/contractors/{contractorId}", getContractorHandler(lifecycleSvc, logger))
		r.Get("/contractors/{contractorId}/onboarding", onboardingStatusHandler(lifecycleSvc, logger))
		r.Post("/contractors/{contractorId}/onboarding/advance", onboardingAdvanceHandler(lifecycleSvc, logger))
		r.Post("/contractors/{contractorId}/onboarding/back", onboardingBackHandler(lifecycleSvc, logger))

		// Verification
		r.Post("/contractors/{contractorId}/verification", verificationSubmitHandler(lifecycleSvc, logger))
		r.Post("/contractors/{contractorId}/verification/result", verificationResultHandler(lifecycleSvc, logger))

		// Contracts & signatures
		r.Post("/contracts", issueContractHandler(lifecycleSvc, logger))
		r.Get("/contracts/{contractId}", getContractHandler(lifecycleSvc, logger))
		r.Get("/contractors/{contractorId}/contracts", listContractsHandler(lifecycleSvc, logger))
		r.Post("/contracts/{contractId}/review", reviewContractHandler(lifecycleSvc, logger))
		r.Post("/contracts/{contractId}/signatures/contractor", contractorSignHandler(lifecycleSvc, logger))
		r.Post("/contracts/{contractId}/signatures/counterparty", counterpartySignHandler(lifecycleSvc, logger))
		r.Post("/contracts/{contractId}/cancel", cancelContractHandler(lifecycleSvc, logger))

		// Ledger, balance & withdrawals
		r.Post("/contractors/{contractorId}/transactions", appendTransactionHandler(balanceSvc, logger))
		r.Get("/contractors/{contractorId}/transactions", listTransactionsHandler(balanceSvc, logger))
		r.Get("/contractors/{contractorId}/balance", getBalanceHandler(balanceSvc, logger))
		r.Post("/contractors/{contractorId}/withdrawals", requestWithdrawalHandler(balanceSvc, logger))
		r.Get("/contractors/{contractorId}/withdrawals", listWithdrawalsHandler(balanceSvc, logger))

		// Rates & metrics snapshots
		r.Get("/rates", getRatesHandler(rates))
		r.Get("/metrics/lifecycle", lifecycleMetricsHandler(metrics))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status: "healthy",
			Services: []domain.ServiceHealth{
				{Name: "lifecycle", Status: "healthy", LastChecked: time.Now().Format(time.RFC3339)},
				{Name: "balance", Status: "healthy", LastChecked: time.Now().Format(time.RFC3339)},
			},
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func getRatesHandler(rates port.RateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rates.Current())
	}
}

func lifecycleMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLifecycleSnapshot())
	}
}
