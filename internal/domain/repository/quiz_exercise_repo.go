package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
)

// QuizExerciseRepository определяет методы для работы со связями викторина-упражнение
type QuizExerciseRepository interface {
	CreateBatch(ctx context.Context, links []entity.QuizExercise) error
	// ListDetailed возвращает связи вместе с упражнениями, отсортированные по position.
	ListDetailed(ctx context.Context, quizID uuid.UUID) ([]entity.QuizExercise, error)
	UpdateCorrectness(ctx context.Context, quizID, exerciseID uuid.UUID, isCorrect bool) error
	DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error)
}
