package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину
func (r *QuizRepo) Create(ctx context.Context, quiz *entity.Quiz) error {
	err := r.db.WithContext(ctx).Create(quiz).Error
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: owner %s", repository.ErrAnotherQuizActive, quiz.OwnerID)
	}
	return err
}

// GetByID возвращает викторину по ID
func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quiz, error) {
	var quiz entity.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &quiz, nil
}

// GetByIDForUpdate возвращает викторину, блокируя строку до конца транзакции
func (r *QuizRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&quiz, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &quiz, nil
}

// GetActiveByOwner возвращает самую свежую активную викторину владельца.
// Запрос покрывается partial unique index по owner_id.
func (r *QuizRepo) GetActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, entity.QuizStatusActive).
		Order("created_at DESC").
		First(&quiz).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &quiz, nil
}

// ListByOwner возвращает викторины владельца с total count
func (r *QuizRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters repository.QuizFilters, limit, offset int) ([]entity.Quiz, int64, error) {
	var quizzes []entity.Quiz
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Quiz{}).Where("owner_id = ?", ownerID)
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

// UpdateTitle точечно обновляет название
func (r *QuizRepo) UpdateTitle(ctx context.Context, quizID uuid.UUID, title *string) error {
	result := r.db.WithContext(ctx).Model(&entity.Quiz{}).
		Where("id = ?", quizID).
		Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateStatus обновляет статус викторины
func (r *QuizRepo) UpdateStatus(ctx context.Context, quizID uuid.UUID, status string) error {
	if status == entity.QuizStatusActive {
		return r.Activate(ctx, quizID)
	}
	result := r.db.WithContext(ctx).Model(&entity.Quiz{}).
		Where("id = ?", quizID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Activate атомарно переводит new|in_progress → active.
// Partial unique index idx_unique_active_quiz_per_user гарантирует max 1 active на владельца.
// - 23505 (unique violation) → "другая викторина владельца уже active"
// - RowsAffected == 0 → "викторину нельзя активировать"
// - Другая DB ошибка → возвращается как есть
func (r *QuizRepo) Activate(ctx context.Context, quizID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&entity.Quiz{}).
		Where("id = ? AND status IN ?", quizID, []string{entity.QuizStatusNew, entity.QuizStatusInProgress}).
		Update("status", entity.QuizStatusActive)

	if result.Error != nil {
		// Проверяем unique violation (23505) от обоих драйверов
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: quiz %s", repository.ErrAnotherQuizActive, quizID)
		}
		return fmt.Errorf("activate quiz %s failed: %w", quizID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: quiz %s", repository.ErrQuizNotActivatable, quizID)
	}

	return nil
}

// DeactivateByOwner переводит все active викторины владельца в in_progress одним UPDATE
func (r *QuizRepo) DeactivateByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Quiz{}).
		Where("owner_id = ? AND status = ?", ownerID, entity.QuizStatusActive).
		Update("status", entity.QuizStatusInProgress)
	return result.RowsAffected, result.Error
}

// Delete удаляет викторину (связи удаляются ON DELETE CASCADE)
func (r *QuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Quiz{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
