package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
)

// tagsCacheKey - ключ кеша каталога тегов
const tagsCacheKey = "exercises:tags"

// CreateExerciseInput - данные нового упражнения
type CreateExerciseInput struct {
	SourceName   string
	SourceID     string
	Text         string
	Solution     string
	Answers      []string
	Illustration []string
	Tags         []string
}

// UpdateExerciseInput - частичное обновление упражнения, nil означает "не менять"
type UpdateExerciseInput struct {
	SourceName   *string
	SourceID     *string
	Text         *string
	Solution     *string
	Answers      *[]string
	Illustration *[]string
	Tags         *[]string
}

// ExerciseService управляет каталогом упражнений.
// Чтение доступно всем аутентифицированным пользователям, изменения - только суперпользователю.
type ExerciseService struct {
	exercises repository.ExerciseRepository
	cache     repository.CacheRepository
	tagsTTL   time.Duration
}

// NewExerciseService создает новый сервис упражнений. cache может быть nil.
func NewExerciseService(exercises repository.ExerciseRepository, cache repository.CacheRepository, tagsTTL time.Duration) *ExerciseService {
	return &ExerciseService{
		exercises: exercises,
		cache:     cache,
		tagsTTL:   tagsTTL,
	}
}

// CreateExercise создает упражнение
func (s *ExerciseService) CreateExercise(ctx context.Context, caller entity.Principal, in CreateExerciseInput) (*entity.Exercise, error) {
	if !caller.IsSuperuser {
		return nil, ErrSuperuserOnly
	}
	exercise := &entity.Exercise{
		SourceName:   strings.TrimSpace(in.SourceName),
		SourceID:     strings.TrimSpace(in.SourceID),
		Text:         in.Text,
		Solution:     in.Solution,
		Answers:      entity.StringArray(in.Answers),
		Illustration: entity.StringArray(in.Illustration),
		Tags:         entity.StringArray(cleanTags(in.Tags)),
	}
	if err := validateExercise(exercise); err != nil {
		return nil, err
	}
	if err := s.exercises.Create(ctx, exercise); err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}
	s.invalidateTags(ctx)
	return exercise, nil
}

// GetExercise возвращает упражнение по ID
func (s *ExerciseService) GetExercise(ctx context.Context, id uuid.UUID) (*entity.Exercise, error) {
	return s.exercises.GetByID(ctx, id)
}

// ListExercises возвращает страницу упражнений и общее количество
func (s *ExerciseService) ListExercises(ctx context.Context, filters repository.ExerciseFilters, page, pageSize int) ([]entity.Exercise, int64, error) {
	limit, offset := paginate(page, pageSize)
	filters.Tags = cleanTags(filters.Tags)
	return s.exercises.List(ctx, filters, limit, offset)
}

// UpdateExercise частично обновляет упражнение
func (s *ExerciseService) UpdateExercise(ctx context.Context, caller entity.Principal, id uuid.UUID, in UpdateExerciseInput) (*entity.Exercise, error) {
	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsSuperuser {
		return nil, ErrSuperuserOnly
	}

	if in.SourceName != nil {
		exercise.SourceName = strings.TrimSpace(*in.SourceName)
	}
	if in.SourceID != nil {
		exercise.SourceID = strings.TrimSpace(*in.SourceID)
	}
	if in.Text != nil {
		exercise.Text = *in.Text
	}
	if in.Solution != nil {
		exercise.Solution = *in.Solution
	}
	if in.Answers != nil {
		exercise.Answers = entity.StringArray(*in.Answers)
	}
	if in.Illustration != nil {
		exercise.Illustration = entity.StringArray(*in.Illustration)
	}
	if in.Tags != nil {
		exercise.Tags = entity.StringArray(cleanTags(*in.Tags))
	}
	if err := validateExercise(exercise); err != nil {
		return nil, err
	}

	if err := s.exercises.Update(ctx, exercise); err != nil {
		return nil, err
	}
	s.invalidateTags(ctx)
	return exercise, nil
}

// DeleteExercise удаляет упражнение вместе с его связями с викторинами
func (s *ExerciseService) DeleteExercise(ctx context.Context, caller entity.Principal, id uuid.UUID) error {
	if _, err := s.exercises.GetByID(ctx, id); err != nil {
		return err
	}
	if !caller.IsSuperuser {
		return ErrSuperuserOnly
	}
	if err := s.exercises.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateTags(ctx)
	return nil
}

// ListTags возвращает каталог тегов. Ошибки кеша не прерывают запрос.
func (s *ExerciseService) ListTags(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithField("component", "exercise_service")

	if s.cache != nil {
		var cached []string
		err := s.cache.GetJSON(ctx, tagsCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.WithError(err).Warn("tags cache read failed, falling back to database")
		}
	}

	tags, err := s.exercises.DistinctTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, tagsCacheKey, tags, s.tagsTTL); err != nil {
			log.WithError(err).Warn("tags cache write failed")
		}
	}
	return tags, nil
}

func (s *ExerciseService) invalidateTags(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, tagsCacheKey); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("component", "exercise_service").
			Warn("failed to invalidate tags cache")
	}
}

func validateExercise(e *entity.Exercise) error {
	switch {
	case e.SourceName == "":
		return fmt.Errorf("source_name is required: %w", apperrors.ErrValidation)
	case e.SourceID == "":
		return fmt.Errorf("source_id is required: %w", apperrors.ErrValidation)
	case strings.TrimSpace(e.Text) == "":
		return fmt.Errorf("text is required: %w", apperrors.ErrValidation)
	}
	return nil
}

// cleanTags обрезает пробелы, убирает пустые и повторяющиеся теги
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
