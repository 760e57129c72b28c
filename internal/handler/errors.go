package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"pawfect/internal/domain"
	"pawfect/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
// Upstream and store details are logged, never echoed to the caller.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, domain.ErrUpstream):
		logger.Error("llm gateway error", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "assistant is unavailable, please try again")
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
