// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottleRepository implements ThrottleRepository using Redis INCR+EXPIRE.
//
// The counter key starts its window on first increment and disappears when
// the window elapses, so a quiet key costs nothing.
type RedisThrottleRepository struct {
	client *redis.Client
}

// NewThrottleRepository creates a new Redis-backed ThrottleRepository.
func NewThrottleRepository(client *redis.Client) *RedisThrottleRepository {
	return &RedisThrottleRepository{client: client}
}

/*
Increment bumps the counter for a key, starting the window on first touch.

Parameters:
  - context: context.Context
  - key: string (fully prefixed throttle key)
  - window: time.Duration

Returns:
  - int64: The counter value after the increment
  - error: Connectivity failures
*/
func (repository *RedisThrottleRepository) Increment(context context.Context, key string, window time.Duration) (int64, error) {

	// Increment the counter
	count, err := repository.client.Incr(context, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_throttle_incr_failed: %w", err)
	}

	// First touch starts the expiry window
	if count == 1 {
		if err := repository.client.Expire(context, key, window).Err(); err != nil {
			return 0, fmt.Errorf("redis_throttle_expire_failed: %w", err)
		}
	}

	return count, nil
}
