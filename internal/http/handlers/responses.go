package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/reward-auth/internal/errutil"
	"github.com/hongminglow/reward-auth/internal/http/respond"
	"github.com/hongminglow/reward-auth/internal/service"
)

// respondServiceError maps auth engine errors to HTTP statuses. Only
// unexpected failures are logged.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, service.InvalidCredentialsMessage)
	case errors.Is(err, service.ErrDuplicateIdentity):
		respond.Error(w, http.StatusConflict, "identity already exists")
	case errors.Is(err, service.ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		errutil.LogError(r.Context(), logger, "credential store failure", err)
		respond.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		errutil.LogError(r.Context(), logger, "request failed", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
