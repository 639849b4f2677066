package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/elearning-service/internal/ratelimit"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

type failingStore struct{}

func (failingStore) Hit(context.Context, string, ratelimit.Rule) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.DiscardHandler))
	rule := ratelimit.Rule{Limit: 1, Window: time.Minute}

	tests := []struct {
		name   string
		store  ratelimit.Store
		rule   ratelimit.Rule
		userID interface{}
		codes  []int
	}{
		{"nil store passes", nil, rule, nil, []int{http.StatusOK, http.StatusOK}},
		{"disabled rule passes", ratelimit.NewMemoryStore(), ratelimit.Rule{}, nil, []int{http.StatusOK, http.StatusOK}},
		{"store error fails open", failingStore{}, rule, nil, []int{http.StatusOK, http.StatusOK}},
		{"second anonymous hit throttled", ratelimit.NewMemoryStore(), rule, nil, []int{http.StatusOK, http.StatusTooManyRequests}},
		{"second user hit throttled", ratelimit.NewMemoryStore(), rule, uint(7), []int{http.StatusOK, http.StatusTooManyRequests}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) {
				if tt.userID != nil {
					c.Set(userIDKey, tt.userID)
				}
				c.Next()
			}, RateLimitMiddleware(tt.store, "test", tt.rule, logger), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			for i, want := range tt.codes {
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				assert.Equal(t, want, w.Code, "request %d", i+1)
				if want == http.StatusTooManyRequests {
					assert.Equal(t, "60", w.Header().Get("Retry-After"))
				}
			}
		})
	}
}
