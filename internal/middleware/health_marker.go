package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/redis/go-redis/v9"
)

// Redis keys of the request counters read by the health handler.
const (
	KeyReqTotal  = "souk:health:req_total"
	KeyReqErrors = "souk:health:req_errors"
	KeyResTime   = "souk:health:res_time_total"
	KeyResCount  = "souk:health:res_count"
	KeyStartTime = "souk:health:start_time"
	KeyLastReq   = "souk:health:last_request"
	KeyErrorLog  = "souk:health:error_log"
)

// ErrorLogSize is how many failed requests the error log keeps.
const ErrorLogSize = 50

// HealthMarker records request stats in Redis (skip /, /health*, /api/v1/events, favicon).
func HealthMarker(rdb *redis.Client) fiber.Handler {
	_ = rdb.SetNX(context.Background(), KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") || strings.HasSuffix(path, "/events") {
			return c.Next()
		}

		start := time.Now()
		b, _ := json.Marshal(map[string]interface{}{
			"time":   start.UTC(),
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		ctx := context.Background()
		pipe := rdb.Pipeline()
		pipe.Set(ctx, KeyLastReq, b, 0)
		pipe.Incr(ctx, KeyReqTotal)
		_, _ = pipe.Exec(ctx)

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		pipe = rdb.Pipeline()
		pipe.Incr(ctx, KeyResCount)
		pipe.IncrByFloat(ctx, KeyResTime, float64(ms))
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		if status >= fiber.StatusInternalServerError {
			pipe.Incr(ctx, KeyReqErrors)
			msg := utils.StatusMessage(status)
			if err != nil {
				msg = err.Error()
			}
			entry, _ := json.Marshal(map[string]interface{}{
				"time":    start.UTC(),
				"path":    c.OriginalURL(),
				"method":  c.Method(),
				"status":  status,
				"message": msg,
				"traceId": GetTraceID(c),
			})
			pipe.LPush(ctx, KeyErrorLog, entry)
			pipe.LTrim(ctx, KeyErrorLog, 0, ErrorLogSize-1)
		}
		_, _ = pipe.Exec(ctx)
		return err
	}
}
