package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/service"
)

// ExerciseResponse представляет упражнение для клиента. Solution заполняется
// только когда решение можно показать.
type ExerciseResponse struct {
	ID           uuid.UUID `json:"id"`
	SourceName   string    `json:"source_name"`
	SourceID     string    `json:"source_id"`
	Text         string    `json:"text"`
	Answers      []string  `json:"answers"`
	Illustration []string  `json:"illustration"`
	Tags         []string  `json:"tags"`
	Solution     *string   `json:"solution,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PaginatedExerciseResponse представляет пагинированный список упражнений
type PaginatedExerciseResponse struct {
	Exercises []*ExerciseResponse `json:"exercises"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	PerPage   int                 `json:"per_page"`
}

// CreateExerciseRequest - запрос на создание упражнения
type CreateExerciseRequest struct {
	SourceName   string   `json:"source_name" binding:"required,max=255"`
	SourceID     string   `json:"source_id" binding:"required,max=255"`
	Text         string   `json:"text" binding:"required"`
	Solution     string   `json:"solution"`
	Answers      []string `json:"answers"`
	Illustration []string `json:"illustration"`
	Tags         []string `json:"tags"`
}

// ToInput преобразует запрос во вход сервиса
func (r CreateExerciseRequest) ToInput() service.CreateExerciseInput {
	return service.CreateExerciseInput{
		SourceName:   r.SourceName,
		SourceID:     r.SourceID,
		Text:         r.Text,
		Solution:     r.Solution,
		Answers:      r.Answers,
		Illustration: r.Illustration,
		Tags:         r.Tags,
	}
}

// UpdateExerciseRequest - частичное обновление упражнения
type UpdateExerciseRequest struct {
	SourceName   *string   `json:"source_name" binding:"omitempty,max=255"`
	SourceID     *string   `json:"source_id" binding:"omitempty,max=255"`
	Text         *string   `json:"text"`
	Solution     *string   `json:"solution"`
	Answers      *[]string `json:"answers"`
	Illustration *[]string `json:"illustration"`
	Tags         *[]string `json:"tags"`
}

// ToInput преобразует запрос во вход сервиса
func (r UpdateExerciseRequest) ToInput() service.UpdateExerciseInput {
	return service.UpdateExerciseInput{
		SourceName:   r.SourceName,
		SourceID:     r.SourceID,
		Text:         r.Text,
		Solution:     r.Solution,
		Answers:      r.Answers,
		Illustration: r.Illustration,
		Tags:         r.Tags,
	}
}

// NewExerciseResponse создает DTO для упражнения
func NewExerciseResponse(e *entity.Exercise, includeSolution bool) *ExerciseResponse {
	if e == nil {
		return nil
	}
	resp := &ExerciseResponse{
		ID:           e.ID,
		SourceName:   e.SourceName,
		SourceID:     e.SourceID,
		Text:         e.Text,
		Answers:      nonNil(e.Answers),
		Illustration: nonNil(e.Illustration),
		Tags:         nonNil(e.Tags),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if includeSolution {
		solution := e.Solution
		resp.Solution = &solution
	}
	return resp
}

// NewPaginatedExerciseResponse создает DTO пагинированного списка упражнений
func NewPaginatedExerciseResponse(exercises []entity.Exercise, total int64, page, perPage int, includeSolution bool) *PaginatedExerciseResponse {
	list := make([]*ExerciseResponse, len(exercises))
	for i := range exercises {
		list[i] = NewExerciseResponse(&exercises[i], includeSolution)
	}
	return &PaginatedExerciseResponse{Exercises: list, Total: total, Page: page, PerPage: perPage}
}

// nonNil возвращает пустой массив вместо null в JSON
func nonNil(a entity.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return a
}
