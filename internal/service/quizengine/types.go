package quizengine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/pkg/optional"
)

// Config содержит ограничения движка
type Config struct {
	MaxLength     int // Максимальная длина викторины при старте
	DefaultLength int // Длина, если клиент её не передал
	TitleMaxLen   int
}

// DefaultConfig возвращает ограничения по умолчанию
func DefaultConfig() Config {
	return Config{MaxLength: 500, DefaultLength: 5, TitleMaxLen: 255}
}

// Answer - ответ на одно упражнение. Answer == nil трактуется как пустая строка.
type Answer struct {
	ExerciseID uuid.UUID
	Answer     *string
}

// StartQuizInput - параметры старта новой викторины
type StartQuizInput struct {
	Length *int // nil - Config.DefaultLength
	Tags   []string
	Title  *string
}

// CreateQuizInput - параметры создания заполненной викторины
type CreateQuizInput struct {
	Title     *string
	Status    string // Пусто - new
	Exercises []entity.ExercisePosition
}

// UpdateQuizInput - частичное обновление с тремя состояниями поля (не передано / null / значение)
type UpdateQuizInput struct {
	Title     optional.Field[string]
	Status    optional.Field[string]
	Exercises optional.Field[[]entity.ExercisePosition]
}

// QuizView - викторина со связями, отсортированными по position
type QuizView struct {
	Quiz  entity.Quiz
	Links []entity.QuizExercise
}

// SubmissionResult - итог проверки ответов
type SubmissionResult struct {
	View     *QuizView
	Answered int // Упражнения, у которых обновлён is_correct
	Correct  int
	Skipped  int // Ответы без exercise_id или на упражнения не из этой викторины
}

func sortByPosition(links []entity.QuizExercise) {
	sort.SliceStable(links, func(i, j int) bool { return links[i].Position < links[j].Position })
}
