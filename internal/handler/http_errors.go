package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"registration-service/pkg/response"
	"registration-service/pkg/xerrors"
)

// writeError maps the error taxonomy onto HTTP statuses in one place.
// Anything unclassified is a 500 and logged with its cause; the raw error
// never leaks to the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNameRequired),
		errors.Is(err, xerrors.ErrInvalidEmailFormat),
		errors.Is(err, xerrors.ErrInvalidPhoneFormat),
		errors.Is(err, xerrors.ErrWeakPassword),
		errors.Is(err, xerrors.ErrInvalidReferralCode),
		errors.Is(err, xerrors.ErrOTPNotFound),
		errors.Is(err, xerrors.ErrOTPExpired),
		errors.Is(err, xerrors.ErrOTPMismatch),
		errors.Is(err, xerrors.ErrNoPendingOrder),
		errors.Is(err, xerrors.ErrOrderMismatch),
		errors.Is(err, xerrors.ErrSignatureMismatch),
		errors.Is(err, xerrors.ErrInvalidRequest):
		response.Error(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, xerrors.ErrInvalidCredentials),
		errors.Is(err, xerrors.ErrTokenExpired),
		errors.Is(err, xerrors.ErrTokenInvalid),
		errors.Is(err, xerrors.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, xerrors.ErrPaymentRequired):
		response.Error(w, http.StatusPaymentRequired, err.Error())

	case errors.Is(err, xerrors.ErrForbidden),
		errors.Is(err, xerrors.ErrEmailNotVerified):
		response.Error(w, http.StatusForbidden, err.Error())

	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())

	case errors.Is(err, xerrors.ErrEmailTaken),
		errors.Is(err, xerrors.ErrPhoneTaken),
		errors.Is(err, xerrors.ErrAlreadyPaid),
		errors.Is(err, xerrors.ErrAlreadyVerified):
		response.Error(w, http.StatusConflict, err.Error())

	case errors.Is(err, xerrors.ErrTooManyRequests):
		response.Error(w, http.StatusTooManyRequests, err.Error())

	case errors.Is(err, xerrors.ErrGatewayUnavailable),
		errors.Is(err, xerrors.ErrMailerUnavailable):
		response.Error(w, http.StatusBadGateway, err.Error())

	case errors.Is(err, xerrors.ErrExhaustedRetries):
		logger.Error("identifier generation exhausted retries", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, err.Error())

	default:
		logger.Error("unhandled error", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, xerrors.ErrInternalServer.Error())
	}
}
