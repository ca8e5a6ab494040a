package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cotiza/internal/config"
)

const keyRenderUser = "quote:render:user:%s"

// QuoteSendLimiter throttles document rendering per user and serializes
// concurrent sends of the same quote across instances.
type QuoteSendLimiter struct {
	enabled bool

	bucket *TokenBucket
	lock   *SendLock

	renderRate  float64
	renderBurst int
	lockTTL     time.Duration
}

func NewQuoteSendLimiter(cfg config.Config) (*QuoteSendLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.RenderRate <= 0 || limitCfg.RenderBurst <= 0 {
		return nil, errors.New("render rate limit must be positive")
	}
	if limitCfg.SendLockTTL <= 0 {
		return nil, errors.New("send lock ttl must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &QuoteSendLimiter{
		enabled:     true,
		bucket:      NewTokenBucket(client),
		lock:        NewSendLock(client),
		renderRate:  limitCfg.RenderRate,
		renderBurst: limitCfg.RenderBurst,
		lockTTL:     time.Duration(limitCfg.SendLockTTL) * time.Second,
	}, nil
}

func (l *QuoteSendLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowRender rate-limits document rendering per acting user.
func (l *QuoteSendLimiter) AllowRender(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyRenderUser, strings.TrimSpace(userID)), l.renderRate, l.renderBurst)
}

// TryLockQuote acquires the distributed send lock for one quote.
func (l *QuoteSendLimiter) TryLockQuote(ctx context.Context, quoteID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.lock.Acquire(ctx, quoteID, l.lockTTL)
}

// ReleaseQuote releases the send lock when the token matches.
func (l *QuoteSendLimiter) ReleaseQuote(ctx context.Context, quoteID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.lock.Release(ctx, quoteID, token)
}
