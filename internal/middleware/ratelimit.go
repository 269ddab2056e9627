package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-reservation/internal/config"
)

// tokenBucket refills continuously at ARGV[2] tokens per millisecond and
// takes one token. Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(bucket[1]) or capacity
local ts = tonumber(bucket[2]) or now
tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, math.floor(tokens), wait}
`)

// NewTokenBucket limits requests per key with a Redis token bucket. It is
// a no-op when disabled or without Redis, and fails open on Redis errors
// so an outage never takes reservations down with it.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	perMs := float64(cfg.RefillTokens) / float64(cfg.RefillInterval.Milliseconds())
	ttl := int64(cfg.TTL / time.Second)
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				cfg.Capacity, perMs, time.Now().UnixMilli(), ttl).Int64Slice()
			if err != nil || len(res) != 3 {
				logrus.WithError(err).WithField("key", key).Warn("rate limit check failed")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}

			secs := (res[2] + 999) / 1000
			h.Set("Retry-After", strconv.FormatInt(secs, 10))
			logrus.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Info("rate limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"code":        "too_many_requests",
				"retry_after": secs,
			})
		}
	}
}

// buildRateKey joins the parts named by cfg.KeyStrategy, an underscore
// separated list of ip, user and route. Unknown or empty strategies key
// on all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
	key := []string{cfg.Prefix}
	for _, p := range parts {
		switch p {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key = append(key, "ip", ip)
		case "user":
			key = append(key, "user", userID(c))
		case "route":
			key = append(key, "route", c.Request().Method+" "+c.Path())
		}
	}
	if len(key) == 1 {
		return buildRateKey(config.RateLimitConfig{Prefix: cfg.Prefix, KeyStrategy: "ip_user_route"}, c)
	}
	return strings.Join(key, ":")
}
