package repository

import (
	"fmt"

	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
)

var (
	// ErrAnotherQuizActive означает, что у владельца уже есть другая викторина в статусе active
	// (сработал partial unique index). Операцию можно повторить.
	ErrAnotherQuizActive = fmt.Errorf("another quiz is already active for this owner: %w", apperrors.ErrConflict)
	// ErrQuizNotActivatable означает, что викторина не в статусе new или in_progress.
	ErrQuizNotActivatable = fmt.Errorf("quiz must be new or in_progress to become active: %w", apperrors.ErrInvalidState)
	// ErrIllegalStatusChange - запрошенный переход статуса недопустим.
	ErrIllegalStatusChange = fmt.Errorf("quiz status change is not allowed: %w", apperrors.ErrInvalidState)
	// ErrCannotSaveInactive возвращается при сохранении прогресса не активной викторины.
	ErrCannotSaveInactive = fmt.Errorf("cannot save inactive quiz: %w", apperrors.ErrInvalidState)
	// ErrOnlyActiveSubmittable возвращается при отправке не активной викторины.
	ErrOnlyActiveSubmittable = fmt.Errorf("only active quizzes can be submitted: %w", apperrors.ErrInvalidState)
	// ErrDuplicateExercise - одно упражнение указано в запросе несколько раз.
	ErrDuplicateExercise = fmt.Errorf("duplicate exercise in request: %w", apperrors.ErrValidation)
	// ErrExerciseNotFound - одно из упражнений запроса не найдено.
	ErrExerciseNotFound = fmt.Errorf("exercise not found: %w", apperrors.ErrValidation)
	// ErrInvalidStatus - неизвестный статус викторины.
	ErrInvalidStatus = fmt.Errorf("invalid quiz status: %w", apperrors.ErrValidation)
	// ErrInvalidPosition - позиции отрицательные или повторяются.
	ErrInvalidPosition = fmt.Errorf("exercise positions must be unique and non-negative: %w", apperrors.ErrValidation)
	// ErrTitleTooLong - название длиннее допустимого.
	ErrTitleTooLong = fmt.Errorf("quiz title is too long: %w", apperrors.ErrValidation)
	// ErrQuizTooLong - запрошенная длина викторины больше допустимой.
	ErrQuizTooLong = fmt.Errorf("quiz length exceeds the limit: %w", apperrors.ErrValidation)
)
