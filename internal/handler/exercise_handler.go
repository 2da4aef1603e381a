package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	"github.com/yourusername/learnhub-api/internal/handler/dto"
	"github.com/yourusername/learnhub-api/internal/handler/helper"
	"github.com/yourusername/learnhub-api/internal/service"
)

// ExerciseService - каталог упражнений
type ExerciseService interface {
	CreateExercise(ctx context.Context, caller entity.Principal, in service.CreateExerciseInput) (*entity.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*entity.Exercise, error)
	ListExercises(ctx context.Context, filters repository.ExerciseFilters, page, pageSize int) ([]entity.Exercise, int64, error)
	UpdateExercise(ctx context.Context, caller entity.Principal, id uuid.UUID, in service.UpdateExerciseInput) (*entity.Exercise, error)
	DeleteExercise(ctx context.Context, caller entity.Principal, id uuid.UUID) error
	ListTags(ctx context.Context) ([]string, error)
}

// ExerciseHandler обрабатывает запросы каталога упражнений
type ExerciseHandler struct {
	exerciseService ExerciseService
}

// NewExerciseHandler создает новый обработчик упражнений
func NewExerciseHandler(exerciseService ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// ListTags возвращает каталог тегов
// GET /api/tags
func (h *ExerciseHandler) ListTags(c *gin.Context) {
	tags, err := h.exerciseService.ListTags(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// ListExercises возвращает страницу упражнений
// GET /api/exercises?tags=a,b&source_name=&page=&page_size=
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	page, pageSize := helper.ParsePagination(c)

	filters := repository.ExerciseFilters{SourceName: c.Query("source_name")}
	if raw := c.Query("tags"); raw != "" {
		filters.Tags = strings.Split(raw, ",")
	}

	exercises, total, err := h.exerciseService.ListExercises(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedExerciseResponse(exercises, total, page, pageSize, caller.IsSuperuser))
}

// GetExercise возвращает упражнение. Решение видно только суперпользователю.
// GET /api/exercises/:id
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id := c.MustGet("exerciseID").(uuid.UUID)

	exercise, err := h.exerciseService.GetExercise(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExerciseResponse(exercise, caller.IsSuperuser))
}

// CreateExercise создает упражнение
// POST /api/exercises
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), caller, req.ToInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewExerciseResponse(exercise, true))
}

// UpdateExercise частично обновляет упражнение
// PUT /api/exercises/:id
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id := c.MustGet("exerciseID").(uuid.UUID)

	var req dto.UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), caller, id, req.ToInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExerciseResponse(exercise, true))
}

// DeleteExercise удаляет упражнение
// DELETE /api/exercises/:id
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id := c.MustGet("exerciseID").(uuid.UUID)

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), caller, id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
