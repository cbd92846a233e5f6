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
// Contracts & Signatures
// ============================================================

func issueContractHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contracts")
		defer span.End()

		var req domain.IssueContractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ContractorID == "" {
			writeError(w, http.StatusBadRequest, "contractor_id is required")
			return
		}
		span.SetAttributes(attribute.String("contractor.id", req.ContractorID))

		contract, err := svc.IssueContract(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, contract)
	}
}

func getContractHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contracts/{contractId}")
		defer span.End()

		contract, err := svc.GetContract(ctx, chi.URLParam(r, "contractId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contract)
	}
}

func listContractsHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contractors/{contractorId}/contracts")
		defer span.End()

		contracts, err := svc.ListContracts(ctx, chi.URLParam(r, "contractorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contracts": contracts})
	}
}

func reviewContractHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contracts/{contractId}/review")
		defer span.End()

		contract, err := svc.ReviewContract(ctx, chi.URLParam(r, "contractId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contract)
	}
}

func contractorSignHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contracts/{contractId}/signatures/contractor")
		defer span.End()

		contractID := chi.URLParam(r, "contractId")
		span.SetAttributes(attribute.String("contract.id", contractID))

		var req struct {
			SignerName string `json:"signer_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		contract, err := svc.SignAsContractor(ctx, contractID, req.SignerName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contract)
	}
}

func counterpartySignHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contracts/{contractId}/signatures/counterparty")
		defer span.End()

		contract, err := svc.SignAsCounterparty(ctx, chi.URLParam(r, "contractId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contract)
	}
}

func cancelContractHandler(svc *service.LifecycleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contracts/{contractId}/cancel")
		defer span.End()

		contract, err := svc.CancelContract(ctx, chi.URLParam(r, "contractId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contract)
	}
}
