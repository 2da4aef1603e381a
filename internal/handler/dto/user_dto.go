package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/service"
)

// UserResponse представляет пользователя в формате для ответа клиенту
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProgressResponse представляет сводку прогресса пользователя
type ProgressResponse struct {
	UserID             uuid.UUID        `json:"user_id"`
	QuizzesByStatus    map[string]int64 `json:"quizzes_by_status"`
	ExercisesAttempted int64            `json:"exercises_attempted"`
	ExercisesCorrect   int64            `json:"exercises_correct"`
}

// NewUserResponse создает DTO для пользователя
func NewUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

// NewProgressResponse создает DTO для сводки прогресса
func NewProgressResponse(p *service.Progress) *ProgressResponse {
	return &ProgressResponse{
		UserID:             p.UserID,
		QuizzesByStatus:    p.QuizzesByStatus,
		ExercisesAttempted: p.ExercisesAttempted,
		ExercisesCorrect:   p.ExercisesCorrect,
	}
}
