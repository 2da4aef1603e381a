package repository

import (
	"context"

	"github.com/google/uuid"
)

// CorrectnessStats - агрегат по проверенным упражнениям пользователя
type CorrectnessStats struct {
	Attempted int64 // Связи с is_correct IS NOT NULL
	Correct   int64
}

// ProgressRepository определяет агрегирующие запросы по прогрессу пользователя
type ProgressRepository interface {
	// CountQuizzesByStatus возвращает количество викторин владельца по статусам
	CountQuizzesByStatus(ctx context.Context, ownerID uuid.UUID) (map[string]int64, error)
	CorrectnessStats(ctx context.Context, ownerID uuid.UUID) (CorrectnessStats, error)
}
