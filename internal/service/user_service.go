package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
)

// Progress - сводка прогресса пользователя
type Progress struct {
	UserID             uuid.UUID
	QuizzesByStatus    map[string]int64
	ExercisesAttempted int64
	ExercisesCorrect   int64
}

// UserService предоставляет сведения о пользователях
type UserService struct {
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, progressRepo repository.ProgressRepository) *UserService {
	return &UserService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
	}
}

// GetMe возвращает профиль вызывающего
func (s *UserService) GetMe(ctx context.Context, caller entity.Principal) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, caller.ID)
}

// GetProgress возвращает сводку прогресса пользователя. Доступ как у чтения викторин.
func (s *UserService) GetProgress(ctx context.Context, caller entity.Principal, userID uuid.UUID) (*Progress, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	if !caller.CanRead(userID) {
		return nil, ErrNoReadAccess
	}

	byStatus, err := s.progressRepo.CountQuizzesByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count quizzes: %w", err)
	}
	stats, err := s.progressRepo.CorrectnessStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	// Все статусы присутствуют в ответе, даже нулевые
	for _, status := range []string{
		entity.QuizStatusNew, entity.QuizStatusActive, entity.QuizStatusInProgress,
		entity.QuizStatusSubmitted, entity.QuizStatusGraded,
	} {
		if _, ok := byStatus[status]; !ok {
			byStatus[status] = 0
		}
	}

	return &Progress{
		UserID:             userID,
		QuizzesByStatus:    byStatus,
		ExercisesAttempted: stats.Attempted,
		ExercisesCorrect:   stats.Correct,
	}, nil
}
