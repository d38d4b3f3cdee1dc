package rate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited marks every throttling outcome so handlers can map the whole
// family to one status.
var ErrRateLimited = errors.New("rate limited")

// CounterStore is the slice of the cache the limiter needs; *cache.Cache
// satisfies it, tests fake it in memory.
type CounterStore interface {
	GetTTL(ctx context.Context, namespace, key string) (time.Duration, error)
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
}

// Limiter throttles OTP issuance per tenant+contact+purpose: a cooldown
// between consecutive requests, a cap per window, and an extended block once
// the cap is hit.
type Limiter struct {
	cache       CounterStore
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

func NewLimiter(cache CounterStore, window time.Duration, max int, cooldown time.Duration) *Limiter {
	return &Limiter{cache: cache, window: window, maxInWindow: max, cooldown: cooldown}
}

func (l *Limiter) CanRequest(ctx context.Context, tenantID, contact, purpose string) error {
	blockKey := fmt.Sprintf("otp:block:%s:%s:%s", tenantID, contact, purpose)
	lastKey := fmt.Sprintf("otp:last:%s:%s:%s", tenantID, contact, purpose)
	countKey := fmt.Sprintf("otp:count:%s:%s:%s", tenantID, contact, purpose)

	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", blockKey); ttl > 0 {
		return fmt.Errorf("%w: too many code requests; please try again after %d seconds", ErrRateLimited, int(ttl.Seconds()))
	}

	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", lastKey); ttl > 0 {
		return fmt.Errorf("%w: please wait %d seconds before requesting another code", ErrRateLimited, int(ttl.Seconds()))
	}

	cnt, err := l.cache.IncrWithExpire(ctx, "otp_rate", countKey, l.window)
	if err != nil {
		return err
	}

	if int(cnt) > l.maxInWindow {
		// too many requests in the window -> extended block
		_ = l.cache.Set(ctx, "otp_rate", blockKey, "1", l.window*3)
		return fmt.Errorf("%w: too many code requests; please try again after %d seconds", ErrRateLimited, int((l.window * 3).Seconds()))
	}

	_ = l.cache.Set(ctx, "otp_rate", lastKey, "1", l.cooldown)

	return nil
}
