package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMetricsMiddleware(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/items/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := serve(router, http.MethodGet, "/items/42", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	serve(router, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware(), RequestLoggingMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ctxRequestID))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", map[string]string{RequestIDHeader: "req-123"})
		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-123", w.Body.String())
	})

	t.Run("mints ulid", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", nil)
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 26)
		assert.Equal(t, id, w.Body.String())
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware(), RecoveryMiddleware())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(router, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestRateLimiter(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitedTotal)

	rl := NewRateLimiter(0.001, 2, time.Minute)
	defer rl.Close()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", nil).Code)

	w := serve(router, http.MethodGet, "/test", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate limit exceeded", resp.Message)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitedTotal))
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Minute)

	rl.evict(time.Now())

	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestCorsMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(corsMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := serve(router, http.MethodOptions, "/test", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), IdempotencyHeader)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Organization-ID")

	w = serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
