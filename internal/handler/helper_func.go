package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storefront-service/internal/rate"
	"storefront-service/pkg/response"
	"storefront-service/pkg/xerrors"
)

// writeDomainError maps the sentinel taxonomy to HTTP. Connectivity detail
// never leaves the server; everything else surfaces with its stable code.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := xerrors.Code(err)
	switch {
	case errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrIdentifierRequired),
		errors.Is(err, xerrors.ErrWeakPassword),
		errors.Is(err, xerrors.ErrPasswordNotSet):
		response.ErrorCode(w, http.StatusBadRequest, code, err.Error())

	case errors.Is(err, xerrors.ErrVerificationFailed),
		errors.Is(err, xerrors.ErrChallengeNotFound),
		errors.Is(err, xerrors.ErrChallengeUsed),
		errors.Is(err, xerrors.ErrChallengeExpired),
		errors.Is(err, xerrors.ErrAttemptsExhausted),
		errors.Is(err, xerrors.ErrAudienceMismatch),
		errors.Is(err, xerrors.ErrIssuerMismatch),
		errors.Is(err, xerrors.ErrPhoneClaimMissing):
		response.ErrorCode(w, http.StatusBadRequest, code, err.Error())

	case errors.Is(err, xerrors.ErrInvalidCredentials),
		errors.Is(err, xerrors.ErrTokenInvalid),
		errors.Is(err, xerrors.ErrTokenExpired),
		errors.Is(err, xerrors.ErrUnauthorized):
		response.ErrorCode(w, http.StatusUnauthorized, code, err.Error())

	case errors.Is(err, xerrors.ErrAccountLocked),
		errors.Is(err, xerrors.ErrStoreSuspended):
		response.ErrorCode(w, http.StatusForbidden, code, err.Error())

	case errors.Is(err, xerrors.ErrCustomerNotFound),
		errors.Is(err, xerrors.ErrTenantNotFound),
		errors.Is(err, xerrors.ErrNotFound):
		response.ErrorCode(w, http.StatusNotFound, code, err.Error())

	case errors.Is(err, xerrors.ErrEmailAlreadyInUse),
		errors.Is(err, xerrors.ErrPhoneAlreadyInUse):
		response.ErrorCode(w, http.StatusConflict, code, err.Error())

	case errors.Is(err, rate.ErrRateLimited):
		response.ErrorCode(w, http.StatusTooManyRequests, "rate_limited", err.Error())

	case errors.Is(err, xerrors.ErrConnectivity):
		logger.Error("connectivity error", zap.Error(err))
		response.ErrorCode(w, http.StatusServiceUnavailable, code, "Store temporarily unavailable")

	case errors.Is(err, xerrors.ErrConfiguration):
		logger.Error("configuration error", zap.Error(err))
		response.ErrorCode(w, http.StatusInternalServerError, code, "Feature not configured")

	default:
		logger.Error("unhandled error", zap.Error(err))
		response.ErrorCode(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// maskRecipient hides most of a contact for response messages.
func maskRecipient(contact string) string {
	if at := strings.Index(contact, "@"); at > 0 {
		name := contact[:at]
		if len(name) <= 2 {
			return string(name[0]) + "***" + contact[at:]
		}
		return name[:2] + "***" + contact[at:]
	}
	if len(contact) > 4 {
		return strings.Repeat("*", len(contact)-4) + contact[len(contact)-4:]
	}
	return "****"
}
