package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyPrefix = "idempotency:"
	lockTTL           = 30 * time.Second
	maxKeyLength      = 128
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response of a write request that
// carries an Idempotency-Key already seen for the same organization, user
// and route. Redis failures never block the request.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || rdb == nil || !isWrite(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxKeyLength {
			api.Abort(c, http.StatusBadRequest, "idempotency key too long")
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyKey(c, key)

		stored, err := lookup(ctx, rdb, storeKey)
		switch {
		case err != nil:
			logger.Warn("idempotency lookup failed", "error", err, "request_id", c.GetString(ctxRequestID))
			c.Next()
			return
		case stored != nil:
			metrics.RecordIdempotentReplay()
			c.Header(ReplayedHeader, "true")
			c.Data(stored.Status, stored.ContentType, []byte(stored.Body))
			c.Abort()
			return
		}

		lockKey := storeKey + ":lock"
		locked, err := rdb.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil {
			logger.Warn("idempotency lock failed", "error", err)
			c.Next()
			return
		}
		if !locked {
			api.Abort(c, http.StatusConflict, "a request with this idempotency key is still in progress")
			return
		}
		defer rdb.Del(context.Background(), lockKey)

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// Server errors are left retryable.
		status := w.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		data, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.String(),
		})
		if err != nil {
			return
		}
		if err := rdb.Set(context.Background(), storeKey, string(data), ttl).Err(); err != nil {
			logger.Warn("idempotency store failed", "error", err)
		}
	}
}

func lookup(ctx context.Context, rdb *redis.Client, key string) (*storedResponse, error) {
	raw, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &stored, nil
}

func idempotencyKey(c *gin.Context, key string) string {
	userID, _ := auth.GetUserID(c)
	return fmt.Sprintf("%s%s:%d:%s:%s:%s", idempotencyPrefix,
		auth.GetOrgID(c), userID, c.Request.Method, c.Request.URL.Path, key)
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
