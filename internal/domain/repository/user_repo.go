package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
)

// UserRepository определяет методы для чтения пользователей
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// LockForUpdate блокирует строку пользователя до конца транзакции.
	// Параллельные старты викторин одного владельца выполняются последовательно.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
