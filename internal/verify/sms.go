package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/pkg/sms"
	"storefront-service/pkg/xerrors"
)

const smsCodeDigits = 6

// SMSProvider issues codes over the transactional-SMS collaborator and tracks
// them in the tenant's challenge store.
type SMSProvider struct {
	sender sms.Sender
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewSMSProvider(sender sms.Sender, ttl time.Duration, logger *zap.Logger) *SMSProvider {
	return &SMSProvider{
		sender: sender,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (p *SMSProvider) Name() string { return "sms" }

func (p *SMSProvider) Start(ctx context.Context, deps Deps, contact, purpose string) (*StartResult, error) {
	if isEmail(contact) {
		return nil, fmt.Errorf("%w: sms verification needs a phone number", xerrors.ErrInvalidRequest)
	}

	// A new request supersedes any outstanding code for the same contact.
	if err := deps.Challenges.DeleteForContact(ctx, contact, purpose); err != nil {
		return nil, err
	}

	now := p.now()
	ch := &domain.OTPChallenge{
		ID:        ulid.Make().String(),
		Contact:   contact,
		Purpose:   purpose,
		Code:      RandomCode(smsCodeDigits),
		ExpiresAt: now.Add(p.ttl),
		CreatedAt: now,
	}
	if err := deps.Challenges.Create(ctx, ch); err != nil {
		return nil, err
	}

	storeName := ""
	if deps.Settings != nil {
		storeName = deps.Settings.DisplayName
	}
	message := fmt.Sprintf("%s is your %s verification code. It is valid for %d minutes.",
		ch.Code, storeName, int(p.ttl.Minutes()))

	id, err := p.sender.Send(ctx, contact, message)
	if err != nil {
		// Do not leave an unsendable code behind.
		_ = deps.Challenges.Delete(ctx, ch.ID)
		p.logger.Error("otp sms send failed", zap.String("contact", contact), zap.Error(err))
		return nil, fmt.Errorf("send verification code: %w", err)
	}

	p.logger.Info("otp sms sent",
		zap.String("contact", contact),
		zap.String("purpose", purpose),
		zap.String("vendor_id", id),
	)

	return &StartResult{
		Provider:  p.Name(),
		ExpiresIn: int(p.ttl.Seconds()),
	}, nil
}

func (p *SMSProvider) Verify(ctx context.Context, deps Deps, contact, code, purpose string) (*Result, error) {
	return VerifyStoredChallenge(ctx, deps.Challenges, contact, code, purpose, p.now())
}
