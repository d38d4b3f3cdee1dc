package domain

import "time"

// OTP purposes. Login and registration challenges are deleted once verified;
// password-reset challenges are kept (marked used) as an audit row.
const (
	PurposeLogin         = "login"
	PurposeRegister      = "register"
	PurposePasswordReset = "password_reset"
)

func IsAllowedPurpose(p string) bool {
	switch p {
	case PurposeLogin, PurposeRegister, PurposePasswordReset:
		return true
	}
	return false
}

// MaxChallengeAttempts is the hard cap on failed verifications for one
// challenge. The third failure destroys the challenge.
const MaxChallengeAttempts = 3

// OTPChallenge tracks one outstanding code for a contact+purpose pair.
type OTPChallenge struct {
	ID        string
	Contact   string // E.164 phone or lowercased email
	Purpose   string
	Code      string
	Attempts  int
	IsUsed    bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (o *OTPChallenge) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
