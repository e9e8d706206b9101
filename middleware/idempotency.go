package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"order-hub/repository"
)

const (
	// IdempotencyKeyHeader is the client-supplied deduplication key.
	IdempotencyKeyHeader = "Idempotency-Key"

	// DefaultIdempotencyTTL bounds how long a captured response is replayed.
	DefaultIdempotencyTTL = 24 * time.Hour
)

// responseRecorder tees the response so the captured status and body can be
// stored for replay.
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// Idempotency deduplicates mutating requests carrying an Idempotency-Key
// header. The first request with a given key runs normally and its response
// is captured; repeats within the TTL replay the stored response without
// re-running the handler. A repeat that arrives while the original is still
// in flight gets a 409.
func Idempotency(repo repository.IdempotencyRepository, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		method := c.Request.Method

		existing, reserved, err := repo.Reserve(ctx, key, endpoint, method, ttl)
		if err != nil {
			logger.Error("Idempotency reservation failed",
				zap.String("key", key),
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			// Fail open rather than block the request.
			c.Next()
			return
		}

		if !reserved {
			now := time.Now()
			switch {
			case existing.Expired(now):
				if err := repo.Reset(ctx, key, endpoint, method, ttl); err != nil {
					logger.Error("Idempotency reset failed",
						zap.String("key", key),
						zap.Error(err),
					)
					c.Next()
					return
				}
			case existing.Completed():
				c.Header("X-Idempotent-Replay", "true")
				c.Data(existing.StatusCode, "application/json", existing.ResponseBody)
				c.Abort()
				return
			default:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"success": false,
					"error": gin.H{
						"message": "A request with this idempotency key is already in progress",
						"code":    "DUPLICATE_REQUEST",
					},
				})
				return
			}
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		status := recorder.Status()
		if len(c.Errors) > 0 || status >= http.StatusInternalServerError {
			// Let the client retry with the same key.
			if err := repo.Release(ctx, key, endpoint, method); err != nil {
				logger.Error("Idempotency release failed", zap.String("key", key), zap.Error(err))
			}
			return
		}

		if err := repo.Complete(ctx, key, endpoint, method, status, recorder.body.Bytes()); err != nil {
			// The response already went out; losing the capture only costs
			// replay for later duplicates.
			logger.Error("Idempotency capture failed", zap.String("key", key), zap.Error(err))
		}
	}
}
