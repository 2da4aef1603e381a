package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
)

// tagsMatchAny - теги упражнения пересекаются с набором (ИЛИ).
// Оператор ?| не используется: GORM принимает ? за плейсхолдер.
const tagsMatchAny = "jsonb_exists_any(tags, ?::text[])"

// ExerciseRepo реализует repository.ExerciseRepository
type ExerciseRepo struct {
	db *gorm.DB
}

// NewExerciseRepo создает новый репозиторий упражнений
func NewExerciseRepo(db *gorm.DB) *ExerciseRepo {
	return &ExerciseRepo{db: db}
}

// Create создает упражнение
func (r *ExerciseRepo) Create(ctx context.Context, exercise *entity.Exercise) error {
	return r.db.WithContext(ctx).Create(exercise).Error
}

// GetByID возвращает упражнение по ID
func (r *ExerciseRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Exercise, error) {
	var exercise entity.Exercise
	if err := r.db.WithContext(ctx).First(&exercise, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &exercise, nil
}

// GetByIDs возвращает упражнения по набору ID одним запросом
func (r *ExerciseRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Exercise, error) {
	if len(ids) == 0 {
		return []entity.Exercise{}, nil
	}
	var exercises []entity.Exercise
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&exercises).Error
	return exercises, err
}

// Update сохраняет все изменяемые поля упражнения
func (r *ExerciseRepo) Update(ctx context.Context, exercise *entity.Exercise) error {
	result := r.db.WithContext(ctx).Model(exercise).
		Select("source_name", "source_id", "text", "solution", "answers", "illustration", "tags", "updated_at").
		Updates(exercise)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет упражнение (связи с викторинами удаляются ON DELETE CASCADE)
func (r *ExerciseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Exercise{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List возвращает упражнения с фильтрами и total count
func (r *ExerciseRepo) List(ctx context.Context, filters repository.ExerciseFilters, limit, offset int) ([]entity.Exercise, int64, error) {
	var exercises []entity.Exercise
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Exercise{})
	if len(filters.Tags) > 0 {
		query = query.Where(tagsMatchAny, pq.Array(filters.Tags))
	}
	if filters.SourceName != "" {
		query = query.Where("source_name = ?", filters.SourceName)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Order("id").
		Limit(limit).Offset(offset).
		Find(&exercises).Error
	if err != nil {
		return nil, 0, err
	}
	return exercises, total, nil
}

// SampleByTags выбирает до limit упражнений, у которых есть хотя бы один из тегов
func (r *ExerciseRepo) SampleByTags(ctx context.Context, tags []string, limit int) ([]entity.Exercise, error) {
	if limit <= 0 || len(tags) == 0 {
		return []entity.Exercise{}, nil
	}
	var exercises []entity.Exercise
	err := r.db.WithContext(ctx).
		Where(tagsMatchAny, pq.Array(tags)).
		Order("RANDOM()").
		Limit(limit).
		Find(&exercises).Error
	return exercises, err
}

// SampleRandom выбирает до limit случайных упражнений из всего пула
func (r *ExerciseRepo) SampleRandom(ctx context.Context, limit int) ([]entity.Exercise, error) {
	if limit <= 0 {
		return []entity.Exercise{}, nil
	}
	var exercises []entity.Exercise
	err := r.db.WithContext(ctx).Order("RANDOM()").Limit(limit).Find(&exercises).Error
	return exercises, err
}

// DistinctTags возвращает отсортированный список тегов всех упражнений
func (r *ExerciseRepo) DistinctTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT jsonb_array_elements_text(tags) AS tag FROM exercises ORDER BY tag").
		Scan(&tags).Error
	return tags, err
}
