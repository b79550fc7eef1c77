package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/finsight-hq/finsight/config"
)

func authRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(keys))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingKey(t *testing.T) {
	r := authRouter([]string{"key-1"})
	if w := get(r, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_HeaderStyles(t *testing.T) {
	r := authRouter([]string{"key-1"})

	if w := get(r, map[string]string{"X-API-Key": "key-1"}); w.Code != http.StatusOK {
		t.Errorf("X-API-Key status = %d, want 200", w.Code)
	}
	if w := get(r, map[string]string{"Authorization": "Bearer key-1"}); w.Code != http.StatusOK {
		t.Errorf("Bearer status = %d, want 200", w.Code)
	}
	if w := get(r, map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid key status = %d, want 401", w.Code)
	}
}

func TestAuth_BearerSchemeCaseInsensitive(t *testing.T) {
	r := authRouter([]string{"key-1"})

	if w := get(r, map[string]string{"Authorization": "bearer key-1"}); w.Code != http.StatusOK {
		t.Errorf("lowercase scheme status = %d, want 200", w.Code)
	}
	if w := get(r, map[string]string{"Authorization": "Basic key-1"}); w.Code != http.StatusUnauthorized {
		t.Errorf("non-bearer scheme status = %d, want 401", w.Code)
	}
}

func TestAuth_KeyLengthMismatchRejected(t *testing.T) {
	r := authRouter([]string{"key-1"})
	if w := get(r, map[string]string{"X-API-Key": "key-1-extended"}); w.Code != http.StatusUnauthorized {
		t.Errorf("longer key status = %d, want 401", w.Code)
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := authRouter(nil)
	if w := get(r, nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", w.Code)
	}
}

func TestRateLimit_BurstThenRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = get(r, nil).Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests = %v, first two should pass", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}
