package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys for the health endpoint counters.
const (
	KeyReqTotal  = "health:req_total"
	KeyReqErrors = "health:req_errors"
	KeyResTime   = "health:res_time_total"
	KeyResCount  = "health:res_count"
	KeyStartTime = "health:start_time"
)

// HealthMarker records request stats in Redis (skips health and favicon
// paths). The start-time key is written once per deployment so the health
// endpoint can report uptime.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	rdb.SetNX(context.Background(), KeyStartTime, time.Now().Unix(), 0)
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		ctx := context.Background()
		start := time.Now()
		_, _ = rdb.Incr(ctx, KeyReqTotal).Result()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_, _ = rdb.Incr(ctx, KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, KeyResTime, float64(ms)).Result()
		if c.Response().StatusCode() >= 500 {
			_, _ = rdb.Incr(ctx, KeyReqErrors).Result()
		}
		return err
	}
}
