package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
	"github.com/yourusername/learnhub-api/internal/service/quizengine"
)

// QuizEngine - операции движка викторин, которые оборачивает QuizService
type QuizEngine interface {
	StartQuiz(ctx context.Context, ownerID uuid.UUID, in quizengine.StartQuizInput) (*quizengine.QuizView, error)
	LoadActive(ctx context.Context, ownerID uuid.UUID) (*quizengine.QuizView, error)
	FindQuiz(ctx context.Context, quizID uuid.UUID) (*entity.Quiz, error)
	GetQuiz(ctx context.Context, quizID uuid.UUID) (*quizengine.QuizView, error)
	ListQuizzes(ctx context.Context, ownerID uuid.UUID, filters repository.QuizFilters, limit, offset int) ([]entity.Quiz, int64, error)
	ActivateQuiz(ctx context.Context, quizID uuid.UUID) (*quizengine.QuizView, error)
	SaveProgress(ctx context.Context, quizID uuid.UUID, answers []quizengine.Answer) (*quizengine.SubmissionResult, error)
	SubmitQuiz(ctx context.Context, quizID uuid.UUID, answers []quizengine.Answer) (*quizengine.SubmissionResult, error)
	Deactivate(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CreateQuiz(ctx context.Context, ownerID uuid.UUID, in quizengine.CreateQuizInput) (*quizengine.QuizView, error)
	UpdateQuiz(ctx context.Context, quizID uuid.UUID, in quizengine.UpdateQuizInput) (*quizengine.QuizView, error)
	DeleteQuiz(ctx context.Context, quizID uuid.UUID) error
}

// QuizService проверяет права доступа и делегирует операции движку.
// Порядок проверок: сначала существование (ErrNotFound), затем права (ErrForbidden).
// Чтение доступно владельцу и суперпользователю, изменения - только владельцу.
type QuizService struct {
	engine QuizEngine
	users  repository.UserRepository
}

// NewQuizService создает новый сервис викторин
func NewQuizService(engine QuizEngine, users repository.UserRepository) *QuizService {
	return &QuizService{engine: engine, users: users}
}

func (s *QuizService) log(ctx context.Context, caller entity.Principal) *logrus.Entry {
	return logger.FromContext(ctx).WithFields(logrus.Fields{
		"component": "quiz_service",
		"caller_id": caller.ID,
	})
}

// StartQuiz начинает новую викторину вызывающего
func (s *QuizService) StartQuiz(ctx context.Context, caller entity.Principal, in quizengine.StartQuizInput) (*quizengine.QuizView, error) {
	return s.engine.StartQuiz(ctx, caller.ID, in)
}

// LoadActive возвращает активную викторину вызывающего
func (s *QuizService) LoadActive(ctx context.Context, caller entity.Principal) (*quizengine.QuizView, error) {
	return s.engine.LoadActive(ctx, caller.ID)
}

// Deactivate переводит активную викторину вызывающего в in_progress
func (s *QuizService) Deactivate(ctx context.Context, caller entity.Principal) (int64, error) {
	return s.engine.Deactivate(ctx, caller.ID)
}

// GetQuiz возвращает викторину владельцу или суперпользователю
func (s *QuizService) GetQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID) (*quizengine.QuizView, error) {
	view, err := s.engine.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !caller.CanRead(view.Quiz.OwnerID) {
		s.log(ctx, caller).WithField("quiz_id", quizID).Warn("read access denied")
		return nil, ErrNoReadAccess
	}
	return view, nil
}

// ListQuizzes возвращает викторины пользователя ownerID
func (s *QuizService) ListQuizzes(ctx context.Context, caller entity.Principal, ownerID uuid.UUID, filters repository.QuizFilters, page, pageSize int) ([]entity.Quiz, int64, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, 0, err
	}
	if !caller.CanRead(ownerID) {
		return nil, 0, ErrNoReadAccess
	}
	limit, offset := paginate(page, pageSize)
	return s.engine.ListQuizzes(ctx, ownerID, filters, limit, offset)
}

// CreateQuiz создает викторину для ownerID. Создать викторину можно только себе.
func (s *QuizService) CreateQuiz(ctx context.Context, caller entity.Principal, ownerID uuid.UUID, in quizengine.CreateQuizInput) (*quizengine.QuizView, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if !caller.CanMutate(ownerID) {
		s.log(ctx, caller).WithField("owner_id", ownerID).Warn("attempt to create a quiz for another user")
		return nil, ErrNotQuizOwner
	}
	return s.engine.CreateQuiz(ctx, ownerID, in)
}

// UpdateQuiz частично обновляет викторину владельца
func (s *QuizService) UpdateQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID, in quizengine.UpdateQuizInput) (*quizengine.QuizView, error) {
	if err := s.requireOwner(ctx, caller, quizID); err != nil {
		return nil, err
	}
	return s.engine.UpdateQuiz(ctx, quizID, in)
}

// DeleteQuiz удаляет викторину владельца
func (s *QuizService) DeleteQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID) error {
	if err := s.requireOwner(ctx, caller, quizID); err != nil {
		return err
	}
	return s.engine.DeleteQuiz(ctx, quizID)
}

// ActivateQuiz делает викторину владельца активной
func (s *QuizService) ActivateQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID) (*quizengine.QuizView, error) {
	if err := s.requireOwner(ctx, caller, quizID); err != nil {
		return nil, err
	}
	return s.engine.ActivateQuiz(ctx, quizID)
}

// SaveProgress сохраняет ответы активной викторины владельца
func (s *QuizService) SaveProgress(ctx context.Context, caller entity.Principal, quizID uuid.UUID, answers []quizengine.Answer) (*quizengine.SubmissionResult, error) {
	if err := s.requireOwner(ctx, caller, quizID); err != nil {
		return nil, err
	}
	return s.engine.SaveProgress(ctx, quizID, answers)
}

// SubmitQuiz отправляет активную викторину владельца
func (s *QuizService) SubmitQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID, answers []quizengine.Answer) (*quizengine.SubmissionResult, error) {
	if err := s.requireOwner(ctx, caller, quizID); err != nil {
		return nil, err
	}
	return s.engine.SubmitQuiz(ctx, quizID, answers)
}

// requireOwner: викторина существует и вызывающий её владелец.
// Суперпользователь не может изменять чужие викторины.
func (s *QuizService) requireOwner(ctx context.Context, caller entity.Principal, quizID uuid.UUID) error {
	quiz, err := s.engine.FindQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if !caller.CanMutate(quiz.OwnerID) {
		s.log(ctx, caller).WithField("quiz_id", quizID).Warn("quiz mutation denied")
		return ErrNotQuizOwner
	}
	return nil
}

func (s *QuizService) requireUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("user %s: %w", userID, err)
	}
	return nil
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// paginate переводит page/pageSize (с 1) в limit/offset
func paginate(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

// Результаты строки отчёта
const (
	ReportCorrect     = "correct"
	ReportIncorrect   = "incorrect"
	ReportUnattempted = "unattempted"
)

// ReportRow - строка отчёта по викторине
type ReportRow struct {
	Position   int
	ExerciseID uuid.UUID
	Prompt     string
	Result     string
	Solution   string // Пусто, пока викторина не отправлена
}

// Report - отчёт по викторине, строки упорядочены по позиции
type Report struct {
	Quiz entity.Quiz
	Rows []ReportRow
}

// ExportReport собирает отчёт по викторине. Доступ как у GetQuiz.
func (s *QuizService) ExportReport(ctx context.Context, caller entity.Principal, quizID uuid.UUID) (*Report, error) {
	view, err := s.GetQuiz(ctx, caller, quizID)
	if err != nil {
		return nil, err
	}

	revealSolutions := view.Quiz.IsFinished()
	rows := make([]ReportRow, 0, len(view.Links))
	for _, link := range view.Links {
		row := ReportRow{
			Position:   link.Position,
			ExerciseID: link.ExerciseID,
			Result:     ReportUnattempted,
		}
		if link.IsCorrect != nil {
			if *link.IsCorrect {
				row.Result = ReportCorrect
			} else {
				row.Result = ReportIncorrect
			}
		}
		if link.Exercise != nil {
			row.Prompt = link.Exercise.Text
			if revealSolutions {
				row.Solution = link.Exercise.Solution
			}
		}
		rows = append(rows, row)
	}
	return &Report{Quiz: view.Quiz, Rows: rows}, nil
}
