package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/pkg/optional"
	"github.com/yourusername/learnhub-api/internal/service/quizengine"
)

// StartQuizRequest - запрос на старт новой викторины
type StartQuizRequest struct {
	Length *int     `json:"length" binding:"omitempty,min=0"`
	Tags   []string `json:"tags"`
	Title  *string  `json:"title"`
}

// ToInput преобразует запрос во вход движка
func (r StartQuizRequest) ToInput() quizengine.StartQuizInput {
	return quizengine.StartQuizInput{Length: r.Length, Tags: r.Tags, Title: r.Title}
}

// ExercisePositionRequest - упражнение и его позиция в викторине
type ExercisePositionRequest struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Position   int       `json:"position"`
}

// CreateQuizRequest - запрос на создание заполненной викторины
type CreateQuizRequest struct {
	Title     *string                   `json:"title"`
	Status    string                    `json:"status"`
	Exercises []ExercisePositionRequest `json:"exercises"`
}

// ToInput преобразует запрос во вход движка
func (r CreateQuizRequest) ToInput() quizengine.CreateQuizInput {
	return quizengine.CreateQuizInput{
		Title:     r.Title,
		Status:    r.Status,
		Exercises: toPositions(r.Exercises),
	}
}

// UpdateQuizRequest - частичное обновление викторины.
// Каждое поле различает "не передано", null и значение.
type UpdateQuizRequest struct {
	Title     optional.Field[string]                    `json:"title"`
	Status    optional.Field[string]                    `json:"status"`
	Exercises optional.Field[[]ExercisePositionRequest] `json:"exercises"`
}

// ToInput преобразует запрос во вход движка
func (r UpdateQuizRequest) ToInput() quizengine.UpdateQuizInput {
	in := quizengine.UpdateQuizInput{Title: r.Title, Status: r.Status}
	switch {
	case !r.Exercises.Set:
	case r.Exercises.Null:
		in.Exercises = optional.Null[[]entity.ExercisePosition]()
	default:
		in.Exercises = optional.Of(toPositions(r.Exercises.Value))
	}
	return in
}

func toPositions(items []ExercisePositionRequest) []entity.ExercisePosition {
	out := make([]entity.ExercisePosition, 0, len(items))
	for _, item := range items {
		out = append(out, entity.ExercisePosition{ExerciseID: item.ExerciseID, Position: item.Position})
	}
	return out
}

// AnswerItem - один ответ в отправке. Поля декодируются по отдельности,
// чтобы запись неверного типа пропускалась, а не отклоняла весь запрос.
type AnswerItem struct {
	ExerciseID json.RawMessage `json:"exercise_id"`
	Answer     json.RawMessage `json:"answer"`
}

// SubmissionRequest - тело запросов save и submit
type SubmissionRequest struct {
	Response []json.RawMessage `json:"response"`
}

// ToAnswers возвращает корректные ответы и индексы пропущенных записей.
// Запись пропускается, если она не объект, exercise_id не строка с UUID
// или answer не строка и не null.
func (r SubmissionRequest) ToAnswers() (answers []quizengine.Answer, malformed []int) {
	answers = make([]quizengine.Answer, 0, len(r.Response))
	for i, raw := range r.Response {
		answer, ok := decodeAnswerItem(raw)
		if !ok {
			malformed = append(malformed, i)
			continue
		}
		answers = append(answers, answer)
	}
	return answers, malformed
}

func decodeAnswerItem(raw json.RawMessage) (quizengine.Answer, bool) {
	var item AnswerItem
	if err := json.Unmarshal(raw, &item); err != nil || isNull(raw) {
		return quizengine.Answer{}, false
	}

	var rawID string
	if err := json.Unmarshal(item.ExerciseID, &rawID); err != nil {
		return quizengine.Answer{}, false
	}
	id, err := uuid.Parse(rawID)
	if err != nil || id == uuid.Nil {
		return quizengine.Answer{}, false
	}

	var text *string
	if len(item.Answer) > 0 && !isNull(item.Answer) {
		var s string
		if err := json.Unmarshal(item.Answer, &s); err != nil {
			return quizengine.Answer{}, false
		}
		text = &s
	}
	return quizengine.Answer{ExerciseID: id, Answer: text}, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// QuizExerciseResponse - упражнение внутри викторины
type QuizExerciseResponse struct {
	ExerciseID uuid.UUID         `json:"exercise_id"`
	Position   int               `json:"position"`
	IsCorrect  *bool             `json:"is_correct"`
	Exercise   *ExerciseResponse `json:"exercise,omitempty"`
}

// QuizResponse представляет викторину в формате для ответа клиенту
type QuizResponse struct {
	ID            uuid.UUID              `json:"id"`
	OwnerID       uuid.UUID              `json:"owner_id"`
	Title         *string                `json:"title"`
	Status        string                 `json:"status"`
	ExerciseCount int                    `json:"exercise_count"`
	Exercises     []QuizExerciseResponse `json:"exercises,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// SubmissionResponse - итог сохранения или отправки ответов
type SubmissionResponse struct {
	Quiz     *QuizResponse `json:"quiz"`
	Answered int           `json:"answered"`
	Correct  int           `json:"correct"`
	Skipped  int           `json:"skipped"`
}

// PaginatedQuizResponse представляет пагинированный список викторин
type PaginatedQuizResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// NewQuizResponse создает DTO для викторины без упражнений
func NewQuizResponse(quiz *entity.Quiz) *QuizResponse {
	if quiz == nil {
		return nil
	}
	return &QuizResponse{
		ID:        quiz.ID,
		OwnerID:   quiz.OwnerID,
		Title:     quiz.Title,
		Status:    quiz.Status,
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
}

// NewQuizViewResponse создает DTO для викторины с упражнениями.
// Решения раскрываются только после отправки викторины.
func NewQuizViewResponse(view *quizengine.QuizView) *QuizResponse {
	if view == nil {
		return nil
	}
	resp := NewQuizResponse(&view.Quiz)
	revealSolutions := view.Quiz.IsFinished()

	resp.ExerciseCount = len(view.Links)
	resp.Exercises = make([]QuizExerciseResponse, len(view.Links))
	for i, link := range view.Links {
		item := QuizExerciseResponse{
			ExerciseID: link.ExerciseID,
			Position:   link.Position,
			IsCorrect:  link.IsCorrect,
		}
		if link.Exercise != nil {
			item.Exercise = NewExerciseResponse(link.Exercise, revealSolutions)
		}
		resp.Exercises[i] = item
	}
	return resp
}

// NewSubmissionResponse создает DTO итога проверки
func NewSubmissionResponse(result *quizengine.SubmissionResult, malformed int) *SubmissionResponse {
	return &SubmissionResponse{
		Quiz:     NewQuizViewResponse(result.View),
		Answered: result.Answered,
		Correct:  result.Correct,
		Skipped:  result.Skipped + malformed,
	}
}

// NewPaginatedQuizResponse создает DTO пагинированного списка викторин
func NewPaginatedQuizResponse(quizzes []entity.Quiz, total int64, page, perPage int) *PaginatedQuizResponse {
	list := make([]*QuizResponse, len(quizzes))
	for i := range quizzes {
		list[i] = NewQuizResponse(&quizzes[i])
	}
	return &PaginatedQuizResponse{Quizzes: list, Total: total, Page: page, PerPage: perPage}
}
