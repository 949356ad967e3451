package health

import (
	"context"
	"time"

	"coinvest-backend/internal/middleware"
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Pinger abstracts the DB connection check.
type Pinger interface {
	Ping() error
}

// Handlers serves the health endpoint from the request counters the
// middleware keeps in Redis.
type Handlers struct {
	Rdb *redis.Client
	DB  Pinger
}

// JSON reports DB/Redis status and request stats.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	ctx := context.Background()

	dbOK := true
	if h.DB != nil {
		dbOK = h.DB.Ping() == nil
	}
	redisOK := false
	var reqTotal, reqErrors, resCount, startUnix int64
	var resTimeTotal float64
	if h.Rdb != nil {
		if err := h.Rdb.Ping(ctx).Err(); err == nil {
			redisOK = true
			reqTotal, _ = h.Rdb.Get(ctx, middleware.KeyReqTotal).Int64()
			reqErrors, _ = h.Rdb.Get(ctx, middleware.KeyReqErrors).Int64()
			resCount, _ = h.Rdb.Get(ctx, middleware.KeyResCount).Int64()
			resTimeTotal, _ = h.Rdb.Get(ctx, middleware.KeyResTime).Float64()
			startUnix, _ = h.Rdb.Get(ctx, middleware.KeyStartTime).Int64()
		}
	}

	avgMs := 0.0
	if resCount > 0 {
		avgMs = resTimeTotal / float64(resCount)
	}
	var uptimeSec int64
	if startUnix > 0 {
		uptimeSec = time.Now().Unix() - startUnix
	}
	return response.Success(c, "Health", fiber.Map{
		"database":        dbOK,
		"redis":           redisOK,
		"requests_total":  reqTotal,
		"requests_errors": reqErrors,
		"avg_response_ms": avgMs,
		"uptime_seconds":  uptimeSec,
	}, nil)
}
