package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/domain"
	"storefront-service/internal/rate"
	"storefront-service/internal/repository"
	"storefront-service/internal/tenant"
	"storefront-service/internal/verify"
	"storefront-service/pkg/email"
	"storefront-service/pkg/xerrors"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute
	minPasswordLen   = 8
)

// CustomerUsecase drives the customer authentication flows. Repositories are
// passed per call because they are bound to the request's tenant pool.
type CustomerUsecase struct {
	gateway *verify.Gateway
	limiter *rate.Limiter
	mailer  email.Sender
	logger  *zap.Logger
	now     func() time.Time
}

func NewCustomerUsecase(gateway *verify.Gateway, limiter *rate.Limiter, mailer email.Sender, logger *zap.Logger) *CustomerUsecase {
	return &CustomerUsecase{
		gateway: gateway,
		limiter: limiter,
		mailer:  mailer,
		logger:  logger,
		now:     time.Now,
	}
}

// NormalizeContact canonicalizes a contact before lookup or challenge
// issuance: emails lowercased, phones stripped of spaces.
func NormalizeContact(contact string) string {
	contact = strings.TrimSpace(contact)
	if strings.Contains(contact, "@") {
		return strings.ToLower(contact)
	}
	return strings.ReplaceAll(contact, " ", "")
}

// RequestOTP starts a verification challenge for the contact after the rate
// limiter clears it.
func (uc *CustomerUsecase) RequestOTP(ctx context.Context, rc *tenant.RequestContext, challenges repository.ChallengeStore, contact, purpose string) (*verify.StartResult, error) {
	contact = NormalizeContact(contact)
	if contact == "" {
		return nil, xerrors.ErrIdentifierRequired
	}
	if !domain.IsAllowedPurpose(purpose) {
		return nil, fmt.Errorf("%w: unsupported purpose", xerrors.ErrInvalidRequest)
	}

	if uc.limiter != nil {
		if err := uc.limiter.CanRequest(ctx, rc.TenantID, contact, purpose); err != nil {
			return nil, err
		}
	}

	return uc.gateway.Start(ctx, verify.Deps{Challenges: challenges, Settings: rc.Settings}, contact, purpose)
}

// VerifyOTP checks the submitted code and resolves the customer identity.
func (uc *CustomerUsecase) VerifyOTP(ctx context.Context, rc *tenant.RequestContext, customers repository.CustomerStore, challenges repository.ChallengeStore, contact, code, purpose string) (*domain.Customer, error) {
	contact = NormalizeContact(contact)

	res, err := uc.gateway.Verify(ctx, verify.Deps{Challenges: challenges, Settings: rc.Settings}, contact, code, purpose)
	if err != nil {
		return nil, err
	}
	return uc.ResolveOrCreate(ctx, rc, customers, res)
}

// VerifyPhoneToken handles the client-side phone flow's vendor token.
func (uc *CustomerUsecase) VerifyPhoneToken(ctx context.Context, rc *tenant.RequestContext, customers repository.CustomerStore, rawToken string) (*domain.Customer, error) {
	res, err := uc.gateway.VerifyExternalToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return uc.ResolveOrCreate(ctx, rc, customers, res)
}

// ResolveOrCreate finds the unique customer for a verified contact, merging
// the new channel into an existing record, or creates one. A verified email
// already owned by a different phone-bearing record is NOT merged: a second
// record is created and a warning logged. Silent non-merge over silent
// corruption.
func (uc *CustomerUsecase) ResolveOrCreate(ctx context.Context, rc *tenant.RequestContext, customers repository.CustomerStore, res *verify.Result) (*domain.Customer, error) {
	var existing *domain.Customer
	var emailConflict bool

	if res.Phone != "" {
		c, err := customers.GetByPhone(ctx, res.Phone)
		if err != nil && !errors.Is(err, xerrors.ErrCustomerNotFound) {
			return nil, err
		}
		existing = c
	}
	if existing == nil && res.Email != "" {
		c, err := customers.GetByEmail(ctx, res.Email)
		if err != nil && !errors.Is(err, xerrors.ErrCustomerNotFound) {
			return nil, err
		}
		if c != nil && res.Phone != "" && c.Phone != nil && *c.Phone != res.Phone {
			// The email belongs to a record with a different phone: a second,
			// phone-only identity gets created rather than guessing a merge.
			// The email stays with its current owner; attaching it would trip
			// the unique constraint.
			emailConflict = true
			uc.logger.Warn("verified contact matches a different customer; creating a second record",
				zap.String("tenant_id", rc.TenantID),
				zap.String("existing_customer_id", c.ID),
				zap.String("email", res.Email),
				zap.String("phone", res.Phone),
			)
		} else {
			existing = c
		}
	}

	if existing != nil {
		if res.Phone != "" && existing.Phone == nil {
			if err := customers.AttachPhone(ctx, existing.ID, res.Phone); err != nil {
				return nil, err
			}
			existing.Phone = &res.Phone
			existing.PhoneVerified = true
		}
		if res.Email != "" && existing.Email == nil {
			if err := customers.AttachEmail(ctx, existing.ID, res.Email); err != nil {
				return nil, err
			}
			existing.Email = &res.Email
			existing.EmailVerified = true
		}
		// Best effort; a failed timestamp update must not fail the login.
		if err := customers.TouchLastLogin(ctx, existing.ID); err != nil {
			uc.logger.Warn("failed to update last login",
				zap.String("customer_id", existing.ID), zap.Error(err))
		}
		return existing, nil
	}

	now := uc.now()
	c := &domain.Customer{
		ID:            uuid.New().String(),
		Name:          res.DisplayName,
		EmailVerified: res.Email != "" && !emailConflict,
		PhoneVerified: res.Phone != "",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if res.Email != "" && !emailConflict {
		c.Email = &res.Email
	}
	if res.Phone != "" {
		c.Phone = &res.Phone
	}
	if err := customers.Create(ctx, c); err != nil {
		return nil, err
	}

	uc.logger.Info("customer created",
		zap.String("tenant_id", rc.TenantID),
		zap.String("customer_id", c.ID),
		zap.Bool("via_phone", res.Phone != ""),
	)
	return c, nil
}

// LoginWithPassword authenticates by identifier (email or phone) and
// password, enforcing the lockout counters.
func (uc *CustomerUsecase) LoginWithPassword(ctx context.Context, customers repository.CustomerStore, identifier, password string) (*domain.Customer, error) {
	identifier = NormalizeContact(identifier)
	if identifier == "" || password == "" {
		return nil, xerrors.ErrInvalidCredentials
	}

	var (
		c   *domain.Customer
		err error
	)
	if strings.Contains(identifier, "@") {
		c, err = customers.GetByEmail(ctx, identifier)
	} else {
		c, err = customers.GetByPhone(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, xerrors.ErrCustomerNotFound) {
			return nil, xerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := uc.now()
	if c.IsLocked(now) {
		return nil, xerrors.ErrAccountLocked
	}
	if c.PasswordHash == nil {
		return nil, xerrors.ErrPasswordNotSet
	}

	if bcrypt.CompareHashAndPassword([]byte(*c.PasswordHash), []byte(password)) != nil {
		attempts, recErr := customers.RecordFailedLogin(ctx, c.ID)
		if recErr != nil {
			uc.logger.Warn("failed to record login attempt",
				zap.String("customer_id", c.ID), zap.Error(recErr))
		} else if attempts >= maxLoginAttempts {
			until := now.Add(lockDuration)
			if lockErr := customers.Lock(ctx, c.ID, until); lockErr == nil {
				uc.logger.Warn("customer locked after repeated failures",
					zap.String("customer_id", c.ID),
					zap.Time("locked_until", until),
				)
			}
		}
		return nil, xerrors.ErrInvalidCredentials
	}

	if err := customers.ResetLoginAttempts(ctx, c.ID); err != nil {
		uc.logger.Warn("failed to reset login attempts",
			zap.String("customer_id", c.ID), zap.Error(err))
	}
	if err := customers.TouchLastLogin(ctx, c.ID); err != nil {
		uc.logger.Warn("failed to update last login",
			zap.String("customer_id", c.ID), zap.Error(err))
	}
	c.LoginAttempts = 0
	c.LockedUntil = nil

	return c, nil
}

// Register creates a customer with a password. The account starts unverified;
// verification happens through the OTP flows.
func (uc *CustomerUsecase) Register(ctx context.Context, rc *tenant.RequestContext, customers repository.CustomerStore, name, contact, password string) (*domain.Customer, error) {
	contact = NormalizeContact(contact)
	if contact == "" {
		return nil, xerrors.ErrIdentifierRequired
	}
	if len(password) < minPasswordLen {
		return nil, xerrors.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	now := uc.now()
	c := &domain.Customer{
		ID:           uuid.New().String(),
		Name:         name,
		PasswordHash: &hashStr,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if strings.Contains(contact, "@") {
		c.Email = &contact
	} else {
		c.Phone = &contact
	}

	if err := customers.Create(ctx, c); err != nil {
		return nil, err
	}

	uc.logger.Info("customer registered",
		zap.String("tenant_id", rc.TenantID),
		zap.String("customer_id", c.ID),
	)
	return c, nil
}

// ChangePassword verifies the current password and stores a new hash. The
// change timestamp invalidates every token issued before it.
func (uc *CustomerUsecase) ChangePassword(ctx context.Context, customers repository.CustomerStore, customerID, current, newPassword string) error {
	c, err := customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if len(newPassword) < minPasswordLen {
		return xerrors.ErrWeakPassword
	}
	if c.PasswordHash != nil {
		if bcrypt.CompareHashAndPassword([]byte(*c.PasswordHash), []byte(current)) != nil {
			return xerrors.ErrInvalidCredentials
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return customers.SetPassword(ctx, customerID, string(hash), uc.now())
}
