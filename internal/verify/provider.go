package verify

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
	"storefront-service/pkg/xerrors"
)

// Deps carries the per-request collaborators a provider needs: the tenant's
// challenge store and the store settings snapshot. Providers themselves are
// process-wide and hold no tenant state.
type Deps struct {
	Challenges repository.ChallengeStore
	Settings   *domain.StoreSettings
}

// StartResult tells the caller how to proceed. Code-based providers fill
// ExpiresIn; the phone-token provider returns connection parameters for the
// client-side flow instead.
type StartResult struct {
	Provider   string            `json:"provider"`
	ExpiresIn  int               `json:"expires_in,omitempty"` // seconds
	Connection map[string]string `json:"connection,omitempty"`
}

// Result is a verified contact.
type Result struct {
	Phone       string
	Email       string
	DisplayName string
}

// Provider abstracts one verification mechanism. The active provider is
// chosen once at startup from configuration presence, not per call.
type Provider interface {
	Name() string
	Start(ctx context.Context, deps Deps, contact, purpose string) (*StartResult, error)
	Verify(ctx context.Context, deps Deps, contact, code, purpose string) (*Result, error)
}

// RandomCode returns a uniformly random zero-padded numeric code.
func RandomCode(digits int) string {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil) // 10^digits
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64())
}

var numericCode = regexp.MustCompile(`^[0-9]{4,8}$`)

// VerifyStoredChallenge runs the shared single-use/expiry/attempt checks
// against a persisted challenge. A mismatch increments the counter; the third
// failure destroys the challenge. Success deletes the challenge, except for
// password resets where the row is kept as an audit record.
func VerifyStoredChallenge(ctx context.Context, store repository.ChallengeStore, contact, code, purpose string, now time.Time) (*Result, error) {
	ch, err := store.FindActive(ctx, contact, purpose)
	if err != nil {
		return nil, err
	}
	if ch.IsUsed {
		return nil, xerrors.ErrChallengeUsed
	}
	if ch.Attempts >= domain.MaxChallengeAttempts {
		_ = store.Delete(ctx, ch.ID)
		return nil, xerrors.ErrAttemptsExhausted
	}
	if ch.Expired(now) {
		return nil, xerrors.ErrChallengeExpired
	}
	if ch.Code != code {
		attempts, err := store.IncrementAttempts(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		if attempts >= domain.MaxChallengeAttempts {
			_ = store.Delete(ctx, ch.ID)
			return nil, xerrors.ErrAttemptsExhausted
		}
		return nil, xerrors.ErrVerificationFailed
	}

	if purpose == domain.PurposePasswordReset {
		if err := store.MarkUsed(ctx, ch.ID); err != nil {
			return nil, err
		}
	} else {
		if err := store.Delete(ctx, ch.ID); err != nil {
			return nil, err
		}
	}

	return contactResult(contact), nil
}

func contactResult(contact string) *Result {
	if isEmail(contact) {
		return &Result{Email: contact}
	}
	return &Result{Phone: contact}
}

func isEmail(contact string) bool {
	for _, r := range contact {
		if r == '@' {
			return true
		}
	}
	return false
}
