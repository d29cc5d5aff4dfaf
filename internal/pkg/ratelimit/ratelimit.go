// Package ratelimit builds the API rate limiter on the shared redis cache.
package ratelimit

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/mxi-labs/presale/internal/pkg/cache"
	"github.com/mxi-labs/presale/internal/pkg/env"
)

const (
	defaultMax    = 30
	defaultWindow = time.Minute
	storageDB     = 2 // cache uses DB 0
)

// NewStorage returns redis backed limiter storage, or nil when the cache is
// unreachable so the limiter falls back to in-memory counters.
func NewStorage() fiber.Storage {
	cacheClient := cache.GetClient()
	if cacheClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cacheClient.Ping(ctx).Err(); err != nil {
		log.Warnf("[RateLimit] Cache unreachable, using in-memory limiter: %v", err)
		return nil
	}

	host := "localhost"
	port := 6379
	addr := cacheClient.Options().Addr
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: cacheClient.Options().Password,
		Database: storageDB,
		Reset:    false,
	})
}

// Config reads RATE_LIMIT_MAX and RATE_LIMIT_WINDOW.
func Config(storage fiber.Storage) limiter.Config {
	limit, err := strconv.Atoi(env.GetEnv("RATE_LIMIT_MAX", ""))
	if err != nil || limit <= 0 {
		limit = defaultMax
	}

	return limiter.Config{
		Max:        limit,
		Expiration: env.GetDuration("RATE_LIMIT_WINDOW", defaultWindow),
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "presale:ratelimit:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":   false,
				"error":     "Too many requests",
				"code":      "RATE_LIMITED",
				"message":   "Rate limit exceeded, retry later",
				"retryable": true,
			})
		},
	}
}

func New(storage fiber.Storage) fiber.Handler {
	return limiter.New(Config(storage))
}
