package core

import (
	"context"
	"fmt"
	"math"

	"github.com/go-redis/redis/v8"
)

const cooldownKeyPrefix = "scan_cooldowns:"

// RedisCooldownGuard backs cooldown slots with Redis. SET NX with a TTL makes
// the check-and-arm a single atomic operation; expiry is handled by Redis so
// stale slots need no cleanup.
type RedisCooldownGuard struct {
	client *redis.Client
	clock  Clock
}

func NewRedisCooldownGuard(client *redis.Client, clock Clock) *RedisCooldownGuard {
	return &RedisCooldownGuard{client: client, clock: clock}
}

func (g *RedisCooldownGuard) Acquire(ctx context.Context, key CooldownKey) (bool, int, error) {
	redisKey := cooldownKeyPrefix + key.String()

	ok, err := g.client.SetNX(ctx, redisKey, g.clock.Now().UnixMilli(), CooldownWindow).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to arm cooldown %s: %w", key, err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := g.client.PTTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		// slot vanished between SetNX and PTTL; treat as still armed for
		// the remainder of a nominal window
		return false, int(CooldownWindow.Seconds()), nil
	}
	return false, int(math.Ceil(ttl.Seconds())), nil
}

func (g *RedisCooldownGuard) Release(ctx context.Context, key CooldownKey) error {
	if err := g.client.Del(ctx, cooldownKeyPrefix+key.String()).Err(); err != nil {
		return fmt.Errorf("failed to release cooldown %s: %w", key, err)
	}
	return nil
}
