package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
	"storefront-service/internal/tenant"
	"storefront-service/internal/verify"
	"storefront-service/pkg/xerrors"
)

const resetCodeDigits = 6
const resetCodeTTL = 15 * time.Minute

// ForgotPassword issues a password-reset code. Phone contacts go through the
// verification gateway; email contacts get a stored challenge delivered by
// the mailer collaborator. Whether the contact exists is not revealed.
func (uc *CustomerUsecase) ForgotPassword(ctx context.Context, rc *tenant.RequestContext, customers repository.CustomerStore, challenges repository.ChallengeStore, contact string) error {
	contact = NormalizeContact(contact)
	if contact == "" {
		return xerrors.ErrIdentifierRequired
	}

	if uc.limiter != nil {
		if err := uc.limiter.CanRequest(ctx, rc.TenantID, contact, domain.PurposePasswordReset); err != nil {
			return err
		}
	}

	var lookupErr error
	if strings.Contains(contact, "@") {
		_, lookupErr = customers.GetByEmail(ctx, contact)
	} else {
		_, lookupErr = customers.GetByPhone(ctx, contact)
	}
	if lookupErr != nil {
		if errors.Is(lookupErr, xerrors.ErrCustomerNotFound) {
			// Same response either way; only the log knows.
			uc.logger.Info("password reset requested for unknown contact",
				zap.String("tenant_id", rc.TenantID))
			return nil
		}
		return lookupErr
	}

	if !strings.Contains(contact, "@") {
		// Resets need a code the customer types back, so the gateway routes
		// them through its code-based provider even when logins use the
		// phone-token flow.
		_, err := uc.gateway.StartReset(ctx,
			verify.Deps{Challenges: challenges, Settings: rc.Settings},
			contact)
		return err
	}

	if err := challenges.DeleteForContact(ctx, contact, domain.PurposePasswordReset); err != nil {
		return err
	}

	now := uc.now()
	ch := &domain.OTPChallenge{
		ID:        ulid.Make().String(),
		Contact:   contact,
		Purpose:   domain.PurposePasswordReset,
		Code:      randomResetCode(),
		ExpiresAt: now.Add(resetCodeTTL),
		CreatedAt: now,
	}
	if err := challenges.Create(ctx, ch); err != nil {
		return err
	}

	return uc.mailer.SendPasswordReset(ctx, contact, ch.Code)
}

// ResetPassword consumes a reset challenge and replaces the password. The
// challenge row stays behind marked used, and the change timestamp cuts off
// older session tokens.
func (uc *CustomerUsecase) ResetPassword(ctx context.Context, rc *tenant.RequestContext, customers repository.CustomerStore, challenges repository.ChallengeStore, contact, code, newPassword string) error {
	contact = NormalizeContact(contact)
	if len(newPassword) < minPasswordLen {
		return xerrors.ErrWeakPassword
	}

	var err error
	if strings.Contains(contact, "@") {
		// Email resets always use the stored challenge, independent of the
		// active provider chain.
		_, err = verify.VerifyStoredChallenge(ctx, challenges, contact, code, domain.PurposePasswordReset, uc.now())
	} else {
		_, err = uc.gateway.VerifyReset(ctx,
			verify.Deps{Challenges: challenges, Settings: rc.Settings},
			contact, code)
	}
	if err != nil {
		return err
	}

	var c *domain.Customer
	if strings.Contains(contact, "@") {
		c, err = customers.GetByEmail(ctx, contact)
	} else {
		c, err = customers.GetByPhone(ctx, contact)
	}
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return customers.SetPassword(ctx, c.ID, string(hash), uc.now())
}

func randomResetCode() string {
	// Same shape as the SMS codes so clients treat both paths alike.
	return verify.RandomCode(resetCodeDigits)
}
