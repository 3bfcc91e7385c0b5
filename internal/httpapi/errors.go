package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/provider"
)

var badRequestErrors = []error{
	domain.ErrMissingParam,
	domain.ErrEmptyQuery,
	domain.ErrQueryTooLong,
	domain.ErrEmptyTitle,
	domain.ErrInvalidRole,
	domain.ErrEmptyContent,
	domain.ErrUnknownModel,
	domain.ErrNoMessages,
	domain.ErrNoUserText,
}

// statusFor переводит доменную ошибку в HTTP статус и безопасный текст.
// Тексты 5xx не раскрывают внутренности.
func statusFor(err error) (int, string) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}

	switch {
	case errors.Is(err, domain.ErrEmptyUserID):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrConversationNotFound):
		return http.StatusNotFound, "Conversation not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrTopicUnavailable):
		return http.StatusServiceUnavailable, "data source is not configured"
	case errors.Is(err, domain.ErrChatFailed):
		return http.StatusServiceUnavailable, "Failed to process chat request"
	case errors.Is(err, provider.ErrUpstream),
		errors.Is(err, provider.ErrRateLimit),
		errors.Is(err, provider.ErrUnauthorized):
		return http.StatusBadGateway, "upstream service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) fail(c *gin.Context, err error, notFound string) {
	status, msg := statusFor(err)
	if status == http.StatusNotFound && notFound != "" {
		msg = notFound
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": msg})
}
