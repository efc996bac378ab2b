package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microblog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ErrNoRedis is returned by CheckRateLimit when no Redis client is configured.
var ErrNoRedis = errors.New("redis client is nil")

// RateLimitConfig configures a Redis-backed fixed-window limiter.
type RateLimitConfig struct {
	Redis    *redis.Client
	Env      string
	Resource string
	Limit    int
	Window   time.Duration
	// Exceeded renders the response for throttled requests. Defaults to 429 with a JSON body.
	Exceeded fiber.Handler
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
// Limiting is disabled in "test", "development" and "stress" environments.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, env, resource, id string, limit int, window time.Duration) (bool, error) {
	switch env {
	case "", "test", "development", "stress":
		return true, nil
	}

	if rdb == nil {
		return false, ErrNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("ratelimit_incr").Inc()
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing cfg.Limit requests per cfg.Window.
// It keys by authenticated userID (c.Locals("userID")) and otherwise by remote IP.
// Requests pass when the counter store is unavailable.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := cfg.Resource
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := CheckRateLimit(c.UserContext(), cfg.Redis, cfg.Env, resource, id, cfg.Limit, cfg.Window)
		if err != nil {
			if !errors.Is(err, ErrNoRedis) {
				Logger.WarnContext(c.UserContext(), "rate limit check failed, allowing request",
					"path", c.Path(), "resource", resource, "error", err)
			}
			return c.Next()
		}

		if !allowed {
			if cfg.Exceeded != nil {
				return cfg.Exceeded(c)
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
