package handler

import (
	"encoding/json"
	"net/http"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Contractors & Onboarding
// ============================================================

func createContractorHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contractors")
		defer span.End()

		var req struct {
			ContractorType string `json:"contractor_type,omitempty"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		contractor, err := svc.CreateContractor(ctx, domain.ContractorType(req.ContractorType))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, contractor)
	}
}

func getContractorHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contractors/{contractorId}")
		defer span.End()

		contractorID := chi.URLParam(r, "contractorId")
		span.SetAttributes(attribute.String("contractor.id", contractorID))

		contractor, err := svc.GetContractor(ctx, contractorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contractor)
	}
}

func onboardingStatusHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contractors/{contractorId}/onboarding")
		defer span.End()

		status, err := svc.OnboardingStatus(ctx, chi.URLParam(r, "contractorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func onboardingAdvanceHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contractors/{contractorId}/onboarding/advance")
		defer span.End()

		contractorID := chi.URLParam(r, "contractorId")
		span.SetAttributes(attribute.String("contractor.id", contractorID))

		var fields domain.OnboardingFields
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		contractor, err := svc.AdvanceOnboarding(ctx, contractorID, fields)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contractor)
	}
}

func onboardingBackHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contractors/{contractorId}/onboarding/back")
		defer span.End()

		contractor, err := svc.BackOnboarding(ctx, chi.URLParam(r, "contractorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contractor)
	}
}

// ============================================================
// Verification
// ============================================================

func verificationSubmitHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contractors/{contractorId}/verification")
		defer span.End()

		contractor, err := svc.SubmitVerification(ctx, chi.URLParam(r, "contractorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": contractor.Verification})
	}
}

func verificationResultHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contractors/{contractorId}/verification/result")
		defer span.End()

		var req struct {
			Result string `json:"result"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		contractor, err := svc.ResolveVerification(ctx, chi.URLParam(r, "contractorId"), req.Result)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": contractor.Verification})
	}
}
