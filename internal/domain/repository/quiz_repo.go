package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
)

// QuizFilters определяет фильтры для списка викторин владельца
type QuizFilters struct {
	Status string // Пустая строка - все статусы
}

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(ctx context.Context, quiz *entity.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Quiz, error)
	// GetByIDForUpdate читает викторину с блокировкой строки (SELECT ... FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Quiz, error)
	// GetActiveByOwner возвращает самую свежую active викторину владельца.
	GetActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Quiz, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filters QuizFilters, limit, offset int) ([]entity.Quiz, int64, error)
	// UpdateTitle точечно обновляет название без full Save
	UpdateTitle(ctx context.Context, quizID uuid.UUID, title *string) error
	// UpdateStatus меняет статус на любой, кроме active (для active есть Activate).
	UpdateStatus(ctx context.Context, quizID uuid.UUID, status string) error
	// Activate атомарно переводит new|in_progress → active.
	// Гарантируется partial unique index: только 1 active на владельца.
	// Возвращает ErrQuizNotActivatable или ErrAnotherQuizActive.
	Activate(ctx context.Context, quizID uuid.UUID) error
	// DeactivateByOwner одним UPDATE переводит все active викторины владельца в in_progress.
	DeactivateByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// Delete удаляет викторину, связи удаляются каскадом в БД.
	Delete(ctx context.Context, id uuid.UUID) error
}
