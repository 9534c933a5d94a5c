package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// Registration / Login
var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrPhoneTaken         = errors.New("phone already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidPhoneFormat = errors.New("invalid phone number")
	ErrWeakPassword       = errors.New("password must be at least 8 characters long")
	ErrNameRequired       = errors.New("name required")
)

// Participant identifiers / referrals
var (
	ErrExhaustedRetries    = errors.New("participant id generation exhausted retries")
	ErrParticipantIDTaken  = errors.New("participant id already assigned")
	ErrInvalidReferralCode = errors.New("invalid referral code")
)

// OTP
var (
	ErrOTPNotFound      = errors.New("no pending code")
	ErrOTPExpired       = errors.New("code expired")
	ErrOTPMismatch      = errors.New("code does not match")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrAlreadyVerified  = errors.New("email already verified")
)

// Tokens
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Payments
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrSignatureMismatch  = errors.New("payment signature mismatch")
	ErrOrderMismatch      = errors.New("order does not belong to this account")
	ErrNoPendingOrder     = errors.New("no pending order for this account")
	ErrAlreadyPaid        = errors.New("payment already completed")
	ErrPaymentRequired    = errors.New("payment required")
)

// Mailer
var ErrMailerUnavailable = errors.New("email sender unavailable")

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
