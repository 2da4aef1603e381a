package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
)

// ProgressRepo реализует repository.ProgressRepository
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo создает новый репозиторий прогресса
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// CountQuizzesByStatus возвращает количество викторин владельца по статусам
func (r *ProgressRepo) CountQuizzesByStatus(ctx context.Context, ownerID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Quiz{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CorrectnessStats считает проверенные и правильные ответы по всем викторинам владельца
func (r *ProgressRepo) CorrectnessStats(ctx context.Context, ownerID uuid.UUID) (repository.CorrectnessStats, error) {
	var stats repository.CorrectnessStats
	err := r.db.WithContext(ctx).Model(&entity.QuizExercise{}).
		Select("COUNT(quiz_exercises.is_correct) AS attempted, COUNT(*) FILTER (WHERE quiz_exercises.is_correct) AS correct").
		Joins("JOIN quizzes ON quizzes.id = quiz_exercises.quiz_id").
		Where("quizzes.owner_id = ?", ownerID).
		Scan(&stats).Error
	return stats, err
}
