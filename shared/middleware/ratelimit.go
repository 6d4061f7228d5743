package middleware

import (
	"context"
	"net/http"

	"github.com/ggonzalesd/UniTable/shared/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AttemptLimiter counts attempts per key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// LoginRateLimit caps login attempts per client IP. If the limiter itself
// fails the request is let through. A successful login clears the counter.
func LoginRateLimit(limiter AttemptLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Warn("login rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeLimited).Inc()
			RespondWithError(c, http.StatusTooManyRequests, "Too many login attempts, try again later")
			c.Abort()
			return
		}
		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := limiter.Reset(c.Request.Context(), ip); err != nil {
				log.Warn("failed to reset login attempts", zap.Error(err))
			}
		}
	}
}
