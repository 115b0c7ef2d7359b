package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "letting-compliance/internal/common/errors"
)

const (
	HeaderUserID     = "X-User-ID"
	HeaderCronSecret = "X-Cron-Secret"

	userIDKey = "userID"
)

// identity trusts the user id set by the authenticating gateway.
func (h *Handler) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			h.abort(c, apperrors.NewUnauthorizedError("missing "+HeaderUserID+" header"))
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// cronAuth rejects every request when no secret is configured.
func (h *Handler) cronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderCronSecret)
		if h.opts.CronSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.opts.CronSecret)) != 1 {
			h.abort(c, apperrors.NewUnauthorizedError("invalid cron secret"))
			return
		}
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			h.logger.Error("request failed", fields)
			return
		}
		h.logger.Debug("request handled", fields)
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
