package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Ledger
// ============================================================

func appendTransactionHandler(svc *service.BalanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contractors/{contractorId}/transactions")
		defer span.End()

		contractorID := chi.URLParam(r, "contractorId")
		span.SetAttributes(attribute.String("contractor.id", contractorID))

		var req struct {
			Amount       float64 `json:"amount"`
			Currency     string  `json:"currency"`
			Counterparty string  `json:"counterparty,omitempty"`
			Status       string  `json:"status,omitempty"`
			Timestamp    string  `json:"timestamp,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx := &domain.Transaction{
			ContractorID: contractorID,
			Amount:       req.Amount,
			Currency:     req.Currency,
			Counterparty: req.Counterparty,
			Status:       domain.TransactionStatus(req.Status),
		}
		if req.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				writeError(w, http.StatusBadRequest, "timestamp must be RFC3339")
				return
			}
			tx.Timestamp = ts
		}

		created, err := svc.AppendTransaction(ctx, tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func listTransactionsHandler(svc *service.BalanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contractors/{contractorId}/transactions")
		defer span.End()

		transactions, err := svc.ListTransactions(ctx, chi.URLParam(r, "contractorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
	}
}

// ============================================================
// Balance & Withdrawals
// ============================================================

func getBalanceHandler(svc *service.BalanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contractors/{contractorId}/balance")
		defer span.End()

		contractorID := chi.URLParam(r, "contractorId")
		currency := r.URL.Query().Get("currency")
		span.SetAttributes(
			attribute.String("contractor.id", contractorID),
			attribute.String("currency", currency),
		)

		balance, err := svc.GetBalance(ctx, contractorID, currency)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, balance)
	}
}

func requestWithdrawalHandler(svc *service.BalanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contractors/{contractorId}/withdrawals")
		defer span.End()

		contractorID := chi.URLParam(r, "contractorId")
		span.SetAttributes(attribute.String("contractor.id", contractorID))

		var req struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		withdrawal, err := svc.RequestWithdrawal(ctx, contractorID, req.Amount, req.Currency)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, withdrawal)
	}
}

func listWithdrawalsHandler(svc *service.BalanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contractors/{contractorId}/withdrawals")
		defer span.End()

		withdrawals, err := svc.ListWithdrawals(ctx, chi.URLParam(r, "contractorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"withdrawals": withdrawals})
	}
}
