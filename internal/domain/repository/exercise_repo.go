package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
)

// ExerciseFilters определяет фильтры для списка упражнений
type ExerciseFilters struct {
	Tags       []string // Хотя бы один из тегов (ИЛИ)
	SourceName string
}

// ExerciseRepository определяет методы для работы с упражнениями
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *entity.Exercise) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Exercise, error)
	// GetByIDs разрешает набор идентификаторов одним запросом. Отсутствующие id просто не попадают в результат.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Exercise, error)
	Update(ctx context.Context, exercise *entity.Exercise) error
	// Delete удаляет упражнение, связи с викторинами удаляются каскадом в БД.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters ExerciseFilters, limit, offset int) ([]entity.Exercise, int64, error)

	// SampleByTags возвращает до limit упражнений, у которых есть хотя бы один из тегов.
	SampleByTags(ctx context.Context, tags []string, limit int) ([]entity.Exercise, error)
	// SampleRandom возвращает до limit случайных упражнений из всего пула.
	SampleRandom(ctx context.Context, limit int) ([]entity.Exercise, error)
	// DistinctTags возвращает отсортированный список всех тегов.
	DistinctTags(ctx context.Context) ([]string, error)
}
