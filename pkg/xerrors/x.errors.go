package xerrors

import "errors"

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
)

// Tenant resolution / connectivity
var (
	ErrTenantNotFound = errors.New("store not found")
	ErrStoreSuspended = errors.New("store is suspended")
	ErrConnectivity   = errors.New("store temporarily unavailable")
)

// Configuration
var (
	ErrConfiguration = errors.New("missing or invalid configuration")
)

// Login / credentials
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrPasswordNotSet     = errors.New("password not set for this account")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrPhoneAlreadyInUse  = errors.New("phone already in use")
	ErrIdentifierRequired = errors.New("identifier required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters long")
)

// Verification / OTP
var (
	ErrVerificationFailed = errors.New("verification failed")
	ErrChallengeNotFound  = errors.New("no pending verification for this contact")
	ErrChallengeUsed      = errors.New("verification code already used")
	ErrChallengeExpired   = errors.New("verification code expired")
	ErrAttemptsExhausted  = errors.New("too many failed attempts; request a new code")
	ErrAudienceMismatch   = errors.New("token audience mismatch")
	ErrIssuerMismatch     = errors.New("token issuer mismatch")
	ErrPhoneClaimMissing  = errors.New("token carries no phone number")
)

// Session tokens
var (
	ErrTokenInvalid = errors.New("invalid session token")
	ErrTokenExpired = errors.New("expired session token")
)

// Code returns the stable machine-readable code for a sentinel error.
// Handlers put this in the response body so clients can branch without
// string-matching messages.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		return "store_not_found"
	case errors.Is(err, ErrStoreSuspended):
		return "store_suspended"
	case errors.Is(err, ErrConnectivity):
		return "service_unavailable"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, ErrPasswordNotSet):
		return "password_not_set"
	case errors.Is(err, ErrEmailAlreadyInUse):
		return "email_in_use"
	case errors.Is(err, ErrPhoneAlreadyInUse):
		return "phone_in_use"
	case errors.Is(err, ErrIdentifierRequired):
		return "identifier_required"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrAttemptsExhausted):
		return "attempts_exhausted"
	case errors.Is(err, ErrChallengeExpired):
		return "challenge_expired"
	case errors.Is(err, ErrChallengeUsed):
		return "challenge_used"
	case errors.Is(err, ErrChallengeNotFound):
		return "challenge_not_found"
	case errors.Is(err, ErrAudienceMismatch):
		return "audience_mismatch"
	case errors.Is(err, ErrIssuerMismatch):
		return "issuer_mismatch"
	case errors.Is(err, ErrPhoneClaimMissing):
		return "phone_claim_missing"
	case errors.Is(err, ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal_error"
	}
}
