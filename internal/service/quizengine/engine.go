// Package quizengine управляет жизненным циклом викторин: выборка упражнений,
// машина состояний new → active ⇄ in_progress → submitted, проверка ответов
// и инвариант "не больше одной active викторины на владельца".
package quizengine

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
)

// Engine реализует операции над викторинами. Каждая операция выполняется в одной транзакции.
type Engine struct {
	store repository.TxManager
	cfg   Config
	rng   RandSource
}

// NewEngine создает движок викторин. rng == nil - глобальный генератор math/rand/v2.
func NewEngine(store repository.TxManager, cfg Config, rng RandSource) *Engine {
	def := DefaultConfig()
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = def.MaxLength
	}
	if cfg.DefaultLength <= 0 {
		cfg.DefaultLength = def.DefaultLength
	}
	if cfg.TitleMaxLen <= 0 {
		cfg.TitleMaxLen = def.TitleMaxLen
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Engine{store: store, cfg: cfg, rng: rng}
}

func (e *Engine) log(ctx context.Context) *logrus.Entry {
	return logger.FromContext(ctx).WithField("component", "quiz_engine")
}

// StartQuiz формирует новую викторину из выборки упражнений и делает её активной.
// Строка владельца блокируется до конца транзакции, поэтому параллельные старты
// одного владельца выполняются последовательно.
func (e *Engine) StartQuiz(ctx context.Context, ownerID uuid.UUID, in StartQuizInput) (*QuizView, error) {
	length := e.cfg.DefaultLength
	if in.Length != nil {
		length = *in.Length
	}
	if length > e.cfg.MaxLength {
		return nil, fmt.Errorf("%w: %d > %d", repository.ErrQuizTooLong, length, e.cfg.MaxLength)
	}
	if err := e.validateTitle(in.Title); err != nil {
		return nil, err
	}

	var view *QuizView
	err := e.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().LockForUpdate(ctx, ownerID); err != nil {
			return ownerErr(ownerID, err)
		}

		links, err := Sample(ctx, tx.Exercises(), length, in.Tags, e.rng)
		if err != nil {
			return fmt.Errorf("sample exercises: %w", err)
		}

		quiz := &entity.Quiz{OwnerID: ownerID, Title: in.Title, Status: entity.QuizStatusNew}
		if err := tx.Quizzes().Create(ctx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}
		for i := range links {
			links[i].QuizID = quiz.ID
		}
		if err := tx.Links().CreateBatch(ctx, links); err != nil {
			return fmt.Errorf("create quiz links: %w", err)
		}

		if err := e.promote(ctx, tx, quiz); err != nil {
			return err
		}

		sortByPosition(links)
		view = &QuizView{Quiz: *quiz, Links: links}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log(ctx).WithFields(logrus.Fields{
		"quiz_id":   view.Quiz.ID,
		"owner_id":  ownerID,
		"requested": length,
		"sampled":   len(view.Links),
	}).Info("quiz started")
	return view, nil
}

// LoadActive возвращает самую свежую active викторину владельца
func (e *Engine) LoadActive(ctx context.Context, ownerID uuid.UUID) (*QuizView, error) {
	quiz, err := e.store.Quizzes().GetActiveByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("no active quiz for owner %s: %w", ownerID, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return e.loadView(ctx, e.store, quiz)
}

// FindQuiz возвращает викторину без связей (для проверок доступа)
func (e *Engine) FindQuiz(ctx context.Context, quizID uuid.UUID) (*entity.Quiz, error) {
	quiz, err := e.store.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		return nil, quizErr(quizID, err)
	}
	return quiz, nil
}

// GetQuiz возвращает викторину со связями
func (e *Engine) GetQuiz(ctx context.Context, quizID uuid.UUID) (*QuizView, error) {
	quiz, err := e.FindQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return e.loadView(ctx, e.store, quiz)
}

// ListQuizzes возвращает викторины владельца, новые первыми
func (e *Engine) ListQuizzes(ctx context.Context, ownerID uuid.UUID, filters repository.QuizFilters, limit, offset int) ([]entity.Quiz, int64, error) {
	if filters.Status != "" && !entity.IsValidQuizStatus(filters.Status) {
		return nil, 0, fmt.Errorf("%w: %q", repository.ErrInvalidStatus, filters.Status)
	}
	return e.store.Quizzes().ListByOwner(ctx, ownerID, filters, limit, offset)
}

// ActivateQuiz переводит new|in_progress → active, понижая прочие active викторины владельца.
// Для уже активной викторины ничего не меняет.
func (e *Engine) ActivateQuiz(ctx context.Context, quizID uuid.UUID) (*QuizView, error) {
	var view *QuizView
	err := e.store.WithinTx(ctx, func(tx repository.Store) error {
		quiz, err := tx.Quizzes().GetByIDForUpdate(ctx, quizID)
		if err != nil {
			return quizErr(quizID, err)
		}
		if !quiz.IsActive() {
			if !quiz.CanActivate() {
				return fmt.Errorf("%w: quiz %s is %s", repository.ErrQuizNotActivatable, quizID, quiz.Status)
			}
			if err := e.promote(ctx, tx, quiz); err != nil {
				return err
			}
		}
		view, err = e.loadView(ctx, tx, quiz)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SaveProgress проверяет ответы активной викторины, статус остаётся active
func (e *Engine) SaveProgress(ctx context.Context, quizID uuid.UUID, answers []Answer) (*SubmissionResult, error) {
	return e.grade(ctx, quizID, answers, repository.ErrCannotSaveInactive, entity.QuizStatusActive)
}

// SubmitQuiz проверяет ответы и переводит active → submitted
func (e *Engine) SubmitQuiz(ctx context.Context, quizID uuid.UUID, answers []Answer) (*SubmissionResult, error) {
	return e.grade(ctx, quizID, answers, repository.ErrOnlyActiveSubmittable, entity.QuizStatusSubmitted)
}

// grade - общий проход проверки для save и submit.
// Предусловие (статус active) проверяется до любой записи.
func (e *Engine) grade(ctx context.Context, quizID uuid.UUID, answers []Answer, notActive error, nextStatus string) (*SubmissionResult, error) {
	log := e.log(ctx).WithField("quiz_id", quizID)

	var result *SubmissionResult
	err := e.store.WithinTx(ctx, func(tx repository.Store) error {
		quiz, err := tx.Quizzes().GetByIDForUpdate(ctx, quizID)
		if err != nil {
			return quizErr(quizID, err)
		}
		if !quiz.IsActive() {
			return fmt.Errorf("%w: quiz %s is %s", notActive, quizID, quiz.Status)
		}

		links, err := tx.Links().ListDetailed(ctx, quizID)
		if err != nil {
			return fmt.Errorf("load quiz links: %w", err)
		}

		report := Grade(links, answers)
		if report.Malformed > 0 {
			log.WithField("count", report.Malformed).Warn("skipping answers without exercise_id")
		}
		for _, id := range report.Unknown {
			log.WithField("exercise_id", id).Warn("skipping answer for exercise outside the quiz")
		}

		for _, c := range report.Corrections {
			if err := tx.Links().UpdateCorrectness(ctx, quizID, c.ExerciseID, c.IsCorrect); err != nil {
				return fmt.Errorf("update correctness of exercise %s: %w", c.ExerciseID, err)
			}
		}
		report.Apply(links)

		if nextStatus != quiz.Status {
			if err := tx.Quizzes().UpdateStatus(ctx, quizID, nextStatus); err != nil {
				return fmt.Errorf("set quiz status %s: %w", nextStatus, err)
			}
			quiz.Status = nextStatus
		}

		result = &SubmissionResult{
			View:     &QuizView{Quiz: *quiz, Links: links},
			Answered: len(report.Corrections),
			Correct:  report.Correct(),
			Skipped:  report.Malformed + len(report.Unknown),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status":   result.View.Quiz.Status,
		"answered": result.Answered,
		"correct":  result.Correct,
		"skipped":  result.Skipped,
	}).Info("quiz answers graded")
	return result, nil
}

// Deactivate переводит все active викторины владельца в in_progress одним UPDATE.
// Идемпотентна: без активных викторин изменяет 0 строк.
func (e *Engine) Deactivate(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	n, err := e.store.Quizzes().DeactivateByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deactivate quizzes of owner %s: %w", ownerID, err)
	}
	return n, nil
}

// CreateQuiz создает викторину с заданными упражнениями и позициями: всё или ничего
func (e *Engine) CreateQuiz(ctx context.Context, ownerID uuid.UUID, in CreateQuizInput) (*QuizView, error) {
	status := in.Status
	if status == "" {
		status = entity.QuizStatusNew
	}
	if !entity.IsValidQuizStatus(status) {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidStatus, status)
	}
	if err := e.validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validatePositions(in.Exercises); err != nil {
		return nil, err
	}

	var view *QuizView
	err := e.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, ownerID); err != nil {
			return ownerErr(ownerID, err)
		}
		links, err := resolveLinks(ctx, tx, in.Exercises)
		if err != nil {
			return err
		}

		quiz := &entity.Quiz{OwnerID: ownerID, Title: in.Title, Status: entity.QuizStatusNew}
		if status != entity.QuizStatusActive {
			quiz.Status = status
		}
		if err := tx.Quizzes().Create(ctx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}
		for i := range links {
			links[i].QuizID = quiz.ID
		}
		if err := tx.Links().CreateBatch(ctx, links); err != nil {
			return fmt.Errorf("create quiz links: %w", err)
		}

		if status == entity.QuizStatusActive {
			if err := e.promote(ctx, tx, quiz); err != nil {
				return err
			}
		}

		sortByPosition(links)
		view = &QuizView{Quiz: *quiz, Links: links}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log(ctx).WithFields(logrus.Fields{
		"quiz_id":   view.Quiz.ID,
		"owner_id":  ownerID,
		"exercises": len(view.Links),
	}).Info("quiz created")
	return view, nil
}

// UpdateQuiz частично обновляет викторину.
// Title и Status применяются, только если переданы со значением (null игнорируется).
// Status проверяется по Quiz.CanOverwriteStatus до любых записей.
// Exercises, если поле передано, заменяет все связи: [] и null очищают набор.
func (e *Engine) UpdateQuiz(ctx context.Context, quizID uuid.UUID, in UpdateQuizInput) (*QuizView, error) {
	if in.Status.HasValue() && !entity.IsValidQuizStatus(in.Status.Value) {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidStatus, in.Status.Value)
	}
	if in.Title.HasValue() {
		if err := e.validateTitle(&in.Title.Value); err != nil {
			return nil, err
		}
	}
	if in.Exercises.HasValue() {
		if err := validatePositions(in.Exercises.Value); err != nil {
			return nil, err
		}
	}

	var view *QuizView
	err := e.store.WithinTx(ctx, func(tx repository.Store) error {
		quiz, err := tx.Quizzes().GetByIDForUpdate(ctx, quizID)
		if err != nil {
			return quizErr(quizID, err)
		}
		if in.Status.HasValue() && !quiz.CanOverwriteStatus(in.Status.Value) {
			if in.Status.Value == entity.QuizStatusActive {
				return fmt.Errorf("%w: quiz %s is %s", repository.ErrQuizNotActivatable, quizID, quiz.Status)
			}
			return fmt.Errorf("%w: %s -> %s", repository.ErrIllegalStatusChange, quiz.Status, in.Status.Value)
		}

		if in.Exercises.Set {
			if _, err := tx.Links().DeleteByQuiz(ctx, quizID); err != nil {
				return fmt.Errorf("delete quiz links: %w", err)
			}
			if !in.Exercises.Null {
				links, err := resolveLinks(ctx, tx, in.Exercises.Value)
				if err != nil {
					return err
				}
				for i := range links {
					links[i].QuizID = quizID
				}
				if err := tx.Links().CreateBatch(ctx, links); err != nil {
					return fmt.Errorf("create quiz links: %w", err)
				}
			}
		}

		if in.Title.HasValue() {
			title := in.Title.Value
			if err := tx.Quizzes().UpdateTitle(ctx, quizID, &title); err != nil {
				return fmt.Errorf("update quiz title: %w", err)
			}
			quiz.Title = &title
		}

		if in.Status.HasValue() && in.Status.Value != quiz.Status {
			if in.Status.Value == entity.QuizStatusActive {
				if err := e.promote(ctx, tx, quiz); err != nil {
					return err
				}
			} else {
				if err := tx.Quizzes().UpdateStatus(ctx, quizID, in.Status.Value); err != nil {
					return fmt.Errorf("update quiz status: %w", err)
				}
				quiz.Status = in.Status.Value
			}
		}

		view, err = e.loadView(ctx, tx, quiz)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// DeleteQuiz удаляет викторину вместе со связями
func (e *Engine) DeleteQuiz(ctx context.Context, quizID uuid.UUID) error {
	if err := e.store.Quizzes().Delete(ctx, quizID); err != nil {
		return quizErr(quizID, err)
	}
	e.log(ctx).WithField("quiz_id", quizID).Info("quiz deleted")
	return nil
}

// promote понижает прочие active викторины владельца и активирует quiz.
// Обе записи выполняются в транзакции вызывающего. Partial unique index остаётся
// окончательной гарантией: конфликт возвращается как ErrAnotherQuizActive.
func (e *Engine) promote(ctx context.Context, tx repository.Store, quiz *entity.Quiz) error {
	demoted, err := tx.Quizzes().DeactivateByOwner(ctx, quiz.OwnerID)
	if err != nil {
		return fmt.Errorf("deactivate quizzes of owner %s: %w", quiz.OwnerID, err)
	}
	if err := tx.Quizzes().Activate(ctx, quiz.ID); err != nil {
		return err
	}
	quiz.Status = entity.QuizStatusActive

	if demoted > 0 {
		e.log(ctx).WithFields(logrus.Fields{
			"owner_id": quiz.OwnerID,
			"quiz_id":  quiz.ID,
			"demoted":  demoted,
		}).Debug("previous active quiz moved to in_progress")
	}
	return nil
}

func (e *Engine) loadView(ctx context.Context, s repository.Store, quiz *entity.Quiz) (*QuizView, error) {
	links, err := s.Links().ListDetailed(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("load quiz links: %w", err)
	}
	return &QuizView{Quiz: *quiz, Links: links}, nil
}

func (e *Engine) validateTitle(title *string) error {
	if title != nil && utf8.RuneCountInString(*title) > e.cfg.TitleMaxLen {
		return fmt.Errorf("%w: max %d characters", repository.ErrTitleTooLong, e.cfg.TitleMaxLen)
	}
	return nil
}

// validatePositions проверяет уникальность упражнений и позиций до любых запросов к БД
func validatePositions(items []entity.ExercisePosition) error {
	exercises := make(map[uuid.UUID]struct{}, len(items))
	positions := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.ExerciseID == uuid.Nil {
			return fmt.Errorf("%w: empty exercise id", apperrors.ErrValidation)
		}
		if _, dup := exercises[it.ExerciseID]; dup {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateExercise, it.ExerciseID)
		}
		exercises[it.ExerciseID] = struct{}{}

		if it.Position < 0 {
			return fmt.Errorf("%w: position %d", repository.ErrInvalidPosition, it.Position)
		}
		if _, dup := positions[it.Position]; dup {
			return fmt.Errorf("%w: position %d used twice", repository.ErrInvalidPosition, it.Position)
		}
		positions[it.Position] = struct{}{}
	}
	return nil
}

// resolveLinks одним запросом проверяет, что все упражнения существуют, и строит связи
func resolveLinks(ctx context.Context, tx repository.Store, items []entity.ExercisePosition) ([]entity.QuizExercise, error) {
	if len(items) == 0 {
		return []entity.QuizExercise{}, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ExerciseID
	}
	found, err := tx.Exercises().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve exercises: %w", err)
	}
	byID := make(map[uuid.UUID]entity.Exercise, len(found))
	for _, ex := range found {
		byID[ex.ID] = ex
	}

	links := make([]entity.QuizExercise, 0, len(items))
	for _, it := range items {
		ex, ok := byID[it.ExerciseID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", repository.ErrExerciseNotFound, it.ExerciseID)
		}
		links = append(links, entity.QuizExercise{
			ExerciseID: it.ExerciseID,
			Position:   it.Position,
			Exercise:   &ex,
		})
	}
	return links, nil
}

func quizErr(quizID uuid.UUID, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("quiz %s: %w", quizID, apperrors.ErrNotFound)
	}
	return err
}

func ownerErr(ownerID uuid.UUID, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("owner %s: %w", ownerID, apperrors.ErrNotFound)
	}
	return fmt.Errorf("load owner %s: %w", ownerID, err)
}
