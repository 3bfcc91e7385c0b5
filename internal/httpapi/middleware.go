package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDHeader = "X-User-ID"
	userIDKey    = "userID"
)

func (s *Server) recoverer() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in http handler",
					zap.Any("panic", r),
					zap.String("path", c.FullPath()),
				)
				s.deps.Metrics.RecordRequest("http", "panic", 0)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		s.deps.Metrics.RecordRequest("http", strconv.Itoa(status), time.Since(start))
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// rateLimit считает запросы по X-User-ID, а без него по IP клиента
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := s.deps.Limiter
		if limiter == nil {
			c.Next()
			return
		}

		key := "http:ip:" + c.ClientIP()
		if user := strings.TrimSpace(c.GetHeader(userIDHeader)); user != "" {
			key = "http:user:" + user
		}

		d := limiter.Take(key)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			retry := time.Until(d.ResetAt)
			if retry < time.Second {
				retry = time.Second
			}
			s.deps.Metrics.RecordRateLimitHit("http")
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// requireUser - id пользователя ставит авторизующий прокси перед сервисом
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(userIDHeader))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(userIDKey, user)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	if v := c.GetString(userIDKey); v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader(userIDHeader))
}
