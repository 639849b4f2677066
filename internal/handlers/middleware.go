package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/elearning-service/internal/metrics"
	"github.com/SAP-F-2025/elearning-service/internal/ratelimit"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

// SetupMiddleware sets up common middleware for the Gin router
func SetupMiddleware(router *gin.Engine, logger utils.Logger, withMetrics bool) {
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware())
	router.Use(gin.Recovery())

	// Context logger middleware (adds logger with request_id to context)
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))

	if withMetrics {
		router.Use(metrics.Middleware())
	}
	router.Use(SecurityMiddleware())
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RateLimitMiddleware throttles scope per signed-in user, or per client IP for
// anonymous callers. Store errors let the request through.
func RateLimitMiddleware(store ratelimit.Store, scope string, rule ratelimit.Rule, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || !rule.Enabled() {
			c.Next()
			return
		}

		identity := "ip:" + c.ClientIP()
		if id, ok := c.Get(userIDKey); ok {
			identity = fmt.Sprintf("user:%v", id)
		}

		res, err := store.Hit(c.Request.Context(), scope+":"+identity, rule)
		if err != nil {
			utils.GetLogger(c, logger).Error("Rate limiter unavailable", "scope", scope, "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed {
			c.Next()
			return
		}

		wait := int(math.Ceil(res.ResetIn.Seconds()))
		metrics.RecordThrottled(scope)
		utils.GetLogger(c, logger).Warn("Request throttled", "scope", scope, "identity", identity)
		c.Header("Retry-After", strconv.Itoa(wait))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
			Message:   fmt.Sprintf("Request was throttled. Expected available in %d seconds.", wait),
			ErrorCode: "THROTTLED",
		})
	}
}

// RequestIDMiddleware generates a unique request ID for each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// CORSMiddleware provides CORS support
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
		c.Header("Access-Control-Max-Age", "43200")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// StripTrailingSlash serves "/x/" as "/x" so both spellings reach one route
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path := r.URL.Path; len(path) > 1 && strings.HasSuffix(path, "/") {
			r.URL.Path = strings.TrimRight(path, "/")
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}
