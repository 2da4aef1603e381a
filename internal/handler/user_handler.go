package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/handler/dto"
	"github.com/yourusername/learnhub-api/internal/service"
)

// UserService - сведения о пользователях
type UserService interface {
	GetMe(ctx context.Context, caller entity.Principal) (*entity.User, error)
	GetProgress(ctx context.Context, caller entity.Principal, userID uuid.UUID) (*service.Progress, error)
}

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	userService UserService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetMe возвращает профиль текущего пользователя
// GET /api/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.userService.GetMe(c.Request.Context(), caller)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// GetProgress возвращает сводку прогресса пользователя
// GET /api/users/:user_id/progress
func (h *UserHandler) GetProgress(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	userID := c.MustGet("userID").(uuid.UUID)

	progress, err := h.userService.GetProgress(c.Request.Context(), caller, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProgressResponse(progress))
}
