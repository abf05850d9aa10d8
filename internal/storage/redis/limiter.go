package redis

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "workify:login:"

// LoginLimiter counts login attempts per email in a fixed window. A
// successful login resets the counter.
type LoginLimiter struct {
	client      redis.UniversalClient
	maxAttempts int64
	window      time.Duration
}

func NewLoginLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// attemptScript increments the counter and starts the window on the first
// attempt in one round trip.
var attemptScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Attempt counts a login attempt for email and reports whether it is within
// the limit. Concurrent attempts each see their own count, so no more than
// maxAttempts of them are allowed per window.
func (l *LoginLimiter) Attempt(ctx context.Context, email string) (bool, error) {
	count, err := attemptScript.Run(ctx, l.client, []string{key(email)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, "count login attempt")
	}

	return count <= l.maxAttempts, nil
}

func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.client.Del(ctx, key(email)).Err(); err != nil {
		return errors.Wrap(err, "reset login failures")
	}
	return nil
}
