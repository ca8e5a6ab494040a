package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const sendLockPrefix = "quote:send:lock:"

// Released only by the holder: the token must match before DEL.
const sendLockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// SendLock serializes concurrent sends of the same quote across instances.
// Each acquisition is tagged with a one-time token so an expired holder
// cannot release a lock somebody else has since taken.
type SendLock struct {
	client *redis.Client
	script *redis.Script
}

func NewSendLock(client *redis.Client) *SendLock {
	if client == nil {
		return nil
	}
	return &SendLock{
		client: client,
		script: redis.NewScript(sendLockReleaseScript),
	}
}

func sendLockKey(quoteID string) string {
	return sendLockPrefix + strings.TrimSpace(quoteID)
}

// Acquire takes the send lock for one quote. ok reports whether this
// caller now holds it; token identifies the holding acquisition.
func (l *SendLock) Acquire(ctx context.Context, quoteID string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("send lock client not configured")
	}
	if strings.TrimSpace(quoteID) == "" {
		return "", false, errors.New("send lock quote id is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("send lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, sendLockKey(quoteID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release frees the quote's send lock when token still holds it.
func (l *SendLock) Release(ctx context.Context, quoteID, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if strings.TrimSpace(quoteID) == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{sendLockKey(quoteID)}, token).Err()
}
