package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
)

const linkBatchSize = 100

// QuizExerciseRepo реализует repository.QuizExerciseRepository
type QuizExerciseRepo struct {
	db *gorm.DB
}

// NewQuizExerciseRepo создает новый репозиторий связей викторина-упражнение
func NewQuizExerciseRepo(db *gorm.DB) *QuizExerciseRepo {
	return &QuizExerciseRepo{db: db}
}

// CreateBatch создает связи пакетами. Упражнения не сохраняются как ассоциации.
func (r *QuizExerciseRepo) CreateBatch(ctx context.Context, links []entity.QuizExercise) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		CreateInBatches(links, linkBatchSize).Error
}

// ListDetailed возвращает связи викторины с упражнениями (JOIN), по возрастанию position
func (r *QuizExerciseRepo) ListDetailed(ctx context.Context, quizID uuid.UUID) ([]entity.QuizExercise, error) {
	var links []entity.QuizExercise
	err := r.db.WithContext(ctx).
		Joins("Exercise").
		Where("quiz_exercises.quiz_id = ?", quizID).
		Order("quiz_exercises.position").
		Order("quiz_exercises.exercise_id").
		Find(&links).Error
	return links, err
}

// UpdateCorrectness записывает результат проверки ответа
func (r *QuizExerciseRepo) UpdateCorrectness(ctx context.Context, quizID, exerciseID uuid.UUID, isCorrect bool) error {
	result := r.db.WithContext(ctx).Model(&entity.QuizExercise{}).
		Where("quiz_id = ? AND exercise_id = ?", quizID, exerciseID).
		Update("is_correct", isCorrect)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByQuiz удаляет все связи викторины
func (r *QuizExerciseRepo) DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("quiz_id = ?", quizID).Delete(&entity.QuizExercise{})
	return result.RowsAffected, result.Error
}
