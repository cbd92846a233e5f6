package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paycrew/contractor-bfa-go/internal/domain"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps typed domain errors to HTTP responses. Every
// lifecycle error is recoverable by corrected input, so the mapping is the
// whole contract: the caller re-prompts the user, nothing is retried.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var precondition *domain.ErrPreconditionNotMet
	var illegal *domain.ErrIllegalTransition
	var nameMismatch *domain.ErrNameMismatch
	var verification *domain.ErrVerificationRequired
	var insufficient *domain.ErrInsufficientBalance
	var conflict *domain.ErrConflict

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &precondition):
		logger.Debug("precondition not met",
			zap.String("step", string(precondition.Step)),
			zap.Strings("missing", precondition.Fields),
		)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  err.Error(),
			Fields: precondition.Fields,
		})
	case errors.As(err, &illegal):
		logger.Debug("illegal transition", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &nameMismatch):
		logger.Debug("signer name mismatch")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &verification):
		logger.Warn("withdrawal blocked, verification required",
			zap.String("state", string(verification.State)),
		)
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &insufficient):
		logger.Warn("insufficient balance",
			zap.Float64("available", insufficient.Available),
			zap.Float64("requested", insufficient.Requested),
		)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
