// Package guard keeps the little state the second factor challenge needs:
// per-principal attempt counters and consumed challenge fingerprints, in Redis.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxAttempts = 5
	DefaultCooldown    = time.Minute
)

var ErrUnavailable = errors.New("guard: redis unavailable")

// Redis limits failed challenge attempts per principal and, when SingleUse
// is set, lets each challenge token succeed once.
type Redis struct {
	Client      redis.UniversalClient
	MaxAttempts int
	Cooldown    time.Duration
	SingleUse   bool
}

// New returns a guard with the default limits.
func New(client redis.UniversalClient, singleUse bool) *Redis {
	return &Redis{
		Client:      client,
		MaxAttempts: DefaultMaxAttempts,
		Cooldown:    DefaultCooldown,
		SingleUse:   singleUse,
	}
}

// Dial parses a redis:// URL and checks the server answers.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return client, nil
}

func attemptsKey(principalID int64) string {
	return "att:" + strconv.FormatInt(principalID, 10)
}

func challengeKey(fingerprint string) string {
	return "chl:" + fingerprint
}

func (g *Redis) maxAttempts() int64 {
	if g.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return int64(g.MaxAttempts)
}

// Reserve counts one attempt for principalID before its code is checked and
// reports whether the attempt is within the limit. The counter is a single
// INCR, so concurrent attempts can never all see the same count. The window
// starts at the first attempt and is not extended by later ones.
func (g *Redis) Reserve(ctx context.Context, principalID int64) (bool, error) {
	key := attemptsKey(principalID)
	count, err := g.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		cooldown := g.Cooldown
		if cooldown <= 0 {
			cooldown = DefaultCooldown
		}
		if err := g.Client.Expire(ctx, key, cooldown).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return count <= g.maxAttempts(), nil
}

func (g *Redis) Reset(ctx context.Context, principalID int64) error {
	if err := g.Client.Del(ctx, attemptsKey(principalID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ConsumeChallenge records fingerprint until the challenge expires. With
// SingleUse off every call is a first use.
func (g *Redis) ConsumeChallenge(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	if !g.SingleUse {
		return true, nil
	}
	first, err := g.Client.SetNX(ctx, challengeKey(fingerprint), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return first, nil
}

// ReleaseChallenge undoes ConsumeChallenge, for a claimed challenge whose
// code then turned out to be wrong.
func (g *Redis) ReleaseChallenge(ctx context.Context, fingerprint string) error {
	if !g.SingleUse {
		return nil
	}
	if err := g.Client.Del(ctx, challengeKey(fingerprint)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping reports whether redis answers. Used by readiness checks.
func (g *Redis) Ping(ctx context.Context) error {
	if err := g.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
