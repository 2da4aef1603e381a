package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/middleware"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
)

// handleError преобразует ошибку сервиса в HTTP ответ
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		// Конкурентная активация: клиент может повторить запрос
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	default:
		logger.FromContext(c.Request.Context()).WithError(err).Error("internal server error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// principal возвращает вызывающего или пишет 401
func principal(c *gin.Context) (entity.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return entity.Principal{}, false
	}
	return p, true
}
