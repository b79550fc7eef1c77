package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finsight-hq/finsight/models"
)

// Auth returns API-key middleware for the protected route group. A request
// authenticates with either header form:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// The accepted key is stored on the context under "api_key" so the rate
// limiter can bucket by key instead of IP. With no keys configured the
// group is open and the middleware does nothing.
func Auth(apiKeys []string) gin.HandlerFunc {
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			unauthorized(c, "missing API key: provide X-API-Key or Authorization: Bearer <key>")
			return
		}
		if !keyAllowed(keys, key) {
			unauthorized(c, "invalid API key")
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}

// keyAllowed checks the candidate against every configured key in constant
// time, so response timing reveals neither a partial match nor which key
// slot matched.
func keyAllowed(keys []string, candidate string) bool {
	allowed := false
	for _, k := range keys {
		if len(k) == len(candidate) &&
			subtle.ConstantTimeCompare([]byte(k), []byte(candidate)) == 1 {
			allowed = true
		}
	}
	return allowed
}

// requestKey pulls the API key from X-API-Key first, then from a Bearer
// authorization. The scheme comparison is case-insensitive per RFC 7235.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if scheme, rest, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok &&
		strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.AcquireResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
