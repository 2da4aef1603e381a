package quizengine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
	"github.com/yourusername/learnhub-api/internal/pkg/optional"
)

func newTestEngine(store *memStore) *Engine {
	return NewEngine(store, DefaultConfig(), seededRand(99))
}

func intPtr(i int) *int { return &i }

func TestStartQuiz_DemotesPreviousActiveAndShrinksLength(t *testing.T) {
	// Arrange
	store := newMemStore()
	owner := store.addUser(false)
	e1 := store.addExercise("1", "algebra")
	e2 := store.addExercise("2", "algebra")
	store.addExercise("3", "geometry")
	quizA := store.addQuiz(owner, entity.QuizStatusActive)
	engine := newTestEngine(store)

	// Act
	view, err := engine.StartQuiz(context.Background(), owner, StartQuizInput{
		Length: intPtr(3),
		Tags:   []string{"algebra"},
		Title:  strPtr("Algebra drill"),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusActive, view.Quiz.Status)
	assert.Equal(t, owner, view.Quiz.OwnerID)
	require.Len(t, view.Links, 2)
	assert.Equal(t, 0, view.Links[0].Position)
	assert.Equal(t, 1, view.Links[1].Position)
	assert.ElementsMatch(t, []uuid.UUID{e1, e2}, []uuid.UUID{view.Links[0].ExerciseID, view.Links[1].ExerciseID})

	assert.Equal(t, entity.QuizStatusActive, store.quiz(view.Quiz.ID).Status)
	assert.Equal(t, entity.QuizStatusInProgress, store.quiz(quizA).Status)
	assert.Equal(t, 2, store.linkCount(view.Quiz.ID))
	assert.Equal(t, 1, store.activeCount(owner))
}

func TestStartQuiz_DefaultLength(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	for i := 0; i < 10; i++ {
		store.addExercise("x")
	}
	engine := newTestEngine(store)

	view, err := engine.StartQuiz(context.Background(), owner, StartQuizInput{})

	require.NoError(t, err)
	assert.Len(t, view.Links, DefaultConfig().DefaultLength)
	assert.Nil(t, view.Quiz.Title)
}

func TestStartQuiz_ZeroLengthCreatesEmptyActiveQuiz(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	store.addExercise("x", "algebra")
	engine := newTestEngine(store)

	view, err := engine.StartQuiz(context.Background(), owner, StartQuizInput{Length: intPtr(0), Tags: []string{"algebra"}})

	require.NoError(t, err)
	assert.Empty(t, view.Links)
	assert.Equal(t, entity.QuizStatusActive, view.Quiz.Status)
}

func TestStartQuiz_Validation(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	engine := NewEngine(store, Config{MaxLength: 10, DefaultLength: 5, TitleMaxLen: 5}, seededRand(1))

	_, err := engine.StartQuiz(context.Background(), owner, StartQuizInput{Length: intPtr(11)})
	assert.ErrorIs(t, err, repository.ErrQuizTooLong)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = engine.StartQuiz(context.Background(), owner, StartQuizInput{Title: strPtr("too long title")})
	assert.ErrorIs(t, err, repository.ErrTitleTooLong)

	assert.Equal(t, 0, store.quizCount())
}

func TestStartQuiz_UnknownOwner(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)

	_, err := engine.StartQuiz(context.Background(), uuid.New(), StartQuizInput{})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, store.quizCount())
}

func TestStartQuiz_ConstraintConflictRollsBack(t *testing.T) {
	// Arrange
	store := newMemStore()
	owner := store.addUser(false)
	store.addExercise("x")
	store.activateErr = repository.ErrAnotherQuizActive
	engine := newTestEngine(store)

	// Act
	_, err := engine.StartQuiz(context.Background(), owner, StartQuizInput{Length: intPtr(1)})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 0, store.quizCount(), "quiz and links must be rolled back")
}

func TestStartQuiz_ConcurrentStartsKeepOneActive(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	for i := 0; i < 5; i++ {
		store.addExercise("x", "t")
	}
	engine := NewEngine(store, DefaultConfig(), nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.StartQuiz(context.Background(), owner, StartQuizInput{Length: intPtr(3), Tags: []string{"t"}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperrors.ErrConflict, "a losing start may only fail with a conflict")
		}
	}
	assert.Equal(t, 1, store.activeCount(owner))
}

func TestStartQuiz_OwnersDoNotInterfere(t *testing.T) {
	store := newMemStore()
	alice := store.addUser(false)
	bob := store.addUser(false)
	store.addExercise("x")
	engine := newTestEngine(store)

	qa, err := engine.StartQuiz(context.Background(), alice, StartQuizInput{})
	require.NoError(t, err)
	qb, err := engine.StartQuiz(context.Background(), bob, StartQuizInput{})
	require.NoError(t, err)

	assert.Equal(t, entity.QuizStatusActive, store.quiz(qa.Quiz.ID).Status)
	assert.Equal(t, entity.QuizStatusActive, store.quiz(qb.Quiz.ID).Status)
}

func TestLoadActive(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	ex := store.addExercise("x")
	engine := newTestEngine(store)

	_, err := engine.LoadActive(context.Background(), owner)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	store.addQuiz(owner, entity.QuizStatusInProgress, ex)
	active := store.addQuiz(owner, entity.QuizStatusActive, ex)

	view, err := engine.LoadActive(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, active, view.Quiz.ID)
	require.Len(t, view.Links, 1)
	require.NotNil(t, view.Links[0].Exercise)
	assert.Equal(t, "x", view.Links[0].Exercise.Solution)
}

func TestSubmitQuiz_TrimmedAnswerIsCorrect(t *testing.T) {
	// Arrange
	store := newMemStore()
	owner := store.addUser(false)
	e1 := store.addExercise("4")
	quiz := store.addQuiz(owner, entity.QuizStatusActive, e1)
	engine := newTestEngine(store)

	// Act
	res, err := engine.SubmitQuiz(context.Background(), quiz, []Answer{{ExerciseID: e1, Answer: strPtr(" 4 ")}})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusSubmitted, res.View.Quiz.Status)
	assert.Equal(t, 1, res.Answered)
	assert.Equal(t, 1, res.Correct)

	link, ok := store.link(quiz, e1)
	require.True(t, ok)
	require.NotNil(t, link.IsCorrect)
	assert.True(t, *link.IsCorrect)
	assert.Equal(t, entity.QuizStatusSubmitted, store.quiz(quiz).Status)
}

func TestSubmitQuiz_AllCanonicalSolutionsAreCorrect(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	solutions := []string{"42", "  x^2 ", "Paris", ""}
	var ids []uuid.UUID
	var answers []Answer
	for _, s := range solutions {
		id := store.addExercise(s)
		ids = append(ids, id)
		answers = append(answers, Answer{ExerciseID: id, Answer: strPtr("\t" + s + "  ")})
	}
	quiz := store.addQuiz(owner, entity.QuizStatusActive, ids...)
	engine := newTestEngine(store)

	res, err := engine.SubmitQuiz(context.Background(), quiz, answers)

	require.NoError(t, err)
	assert.Equal(t, len(solutions), res.Correct)
	for _, l := range res.View.Links {
		require.NotNil(t, l.IsCorrect)
		assert.True(t, *l.IsCorrect)
	}
}

func TestSubmitQuiz_RequiresActive(t *testing.T) {
	for _, status := range []string{entity.QuizStatusNew, entity.QuizStatusInProgress, entity.QuizStatusSubmitted, entity.QuizStatusGraded} {
		t.Run(status, func(t *testing.T) {
			store := newMemStore()
			owner := store.addUser(false)
			ex := store.addExercise("1")
			quiz := store.addQuiz(owner, status, ex)
			engine := newTestEngine(store)
			writes := store.writeCount()

			_, err := engine.SubmitQuiz(context.Background(), quiz, []Answer{{ExerciseID: ex, Answer: strPtr("1")}})

			assert.ErrorIs(t, err, repository.ErrOnlyActiveSubmittable)
			assert.ErrorIs(t, err, apperrors.ErrInvalidState)
			assert.Equal(t, status, store.quiz(quiz).Status)
			assert.Equal(t, writes, store.writeCount())
		})
	}
}

func TestSubmitQuiz_NotFound(t *testing.T) {
	engine := newTestEngine(newMemStore())

	_, err := engine.SubmitQuiz(context.Background(), uuid.New(), nil)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSaveProgress_SubmittedQuizIsRejectedWithoutWrites(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	ex := store.addExercise("1")
	quiz := store.addQuiz(owner, entity.QuizStatusSubmitted, ex)
	engine := newTestEngine(store)
	writes := store.writeCount()

	_, err := engine.SaveProgress(context.Background(), quiz, []Answer{{ExerciseID: ex, Answer: strPtr("1")}})

	assert.ErrorIs(t, err, repository.ErrCannotSaveInactive)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, writes, store.writeCount())
	link, _ := store.link(quiz, ex)
	assert.Nil(t, link.IsCorrect)
}

func TestSaveProgress_IsIncremental(t *testing.T) {
	// Arrange
	store := newMemStore()
	owner := store.addUser(false)
	e1 := store.addExercise("a")
	e2 := store.addExercise("b")
	e3 := store.addExercise("c")
	quiz := store.addQuiz(owner, entity.QuizStatusActive, e1, e2, e3)
	engine := newTestEngine(store)
	ctx := context.Background()

	// Act
	_, err := engine.SaveProgress(ctx, quiz, []Answer{{ExerciseID: e1, Answer: strPtr("a")}, {ExerciseID: e2, Answer: strPtr("nope")}})
	require.NoError(t, err)
	res, err := engine.SaveProgress(ctx, quiz, []Answer{
		{ExerciseID: e2, Answer: strPtr("b")},
		{ExerciseID: uuid.New(), Answer: strPtr("stray")},
		{ExerciseID: uuid.Nil},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusActive, store.quiz(quiz).Status)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Answered)

	l1, _ := store.link(quiz, e1)
	l2, _ := store.link(quiz, e2)
	l3, _ := store.link(quiz, e3)
	require.NotNil(t, l1.IsCorrect)
	assert.True(t, *l1.IsCorrect, "earlier result is kept")
	require.NotNil(t, l2.IsCorrect)
	assert.True(t, *l2.IsCorrect, "re-answer overwrites")
	assert.Nil(t, l3.IsCorrect, "unattempted stays null")

	require.Len(t, res.View.Links, 3)
	assert.Nil(t, res.View.Links[2].IsCorrect)
}

func TestActivateQuiz(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	active := store.addQuiz(owner, entity.QuizStatusActive)
	paused := store.addQuiz(owner, entity.QuizStatusInProgress)
	fresh := store.addQuiz(owner, entity.QuizStatusNew)
	done := store.addQuiz(owner, entity.QuizStatusSubmitted)
	engine := newTestEngine(store)
	ctx := context.Background()

	view, err := engine.ActivateQuiz(ctx, paused)
	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusActive, view.Quiz.Status)
	assert.Equal(t, entity.QuizStatusInProgress, store.quiz(active).Status)

	_, err = engine.ActivateQuiz(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusInProgress, store.quiz(paused).Status)

	_, err = engine.ActivateQuiz(ctx, fresh)
	require.NoError(t, err, "activating the active quiz is a no-op")
	assert.Equal(t, entity.QuizStatusActive, store.quiz(fresh).Status)

	_, err = engine.ActivateQuiz(ctx, done)
	assert.ErrorIs(t, err, repository.ErrQuizNotActivatable)
	assert.Equal(t, entity.QuizStatusActive, store.quiz(fresh).Status, "failed activation must not demote")

	_, err = engine.ActivateQuiz(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, 1, store.activeCount(owner))
}

func TestDeactivate_Idempotent(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	quiz := store.addQuiz(owner, entity.QuizStatusActive)
	engine := newTestEngine(store)

	n, err := engine.Deactivate(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, entity.QuizStatusInProgress, store.quiz(quiz).Status)

	n, err = engine.Deactivate(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCreateQuiz(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	e1 := store.addExercise("1")
	e2 := store.addExercise("2")
	engine := newTestEngine(store)

	view, err := engine.CreateQuiz(context.Background(), owner, CreateQuizInput{
		Title:     strPtr("Mine"),
		Exercises: []entity.ExercisePosition{{ExerciseID: e2, Position: 0}, {ExerciseID: e1, Position: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusNew, view.Quiz.Status)
	require.Len(t, view.Links, 2)
	assert.Equal(t, e2, view.Links[0].ExerciseID)
	assert.Equal(t, e1, view.Links[1].ExerciseID)
	assert.Equal(t, 2, store.linkCount(view.Quiz.ID))
}

func TestCreateQuiz_RejectsWithoutPartialWrites(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	e1 := store.addExercise("1")
	engine := newTestEngine(store)

	tests := []struct {
		name      string
		owner     uuid.UUID
		in        CreateQuizInput
		wantErr   error
		wantClass error
	}{
		{
			name:      "duplicate exercise",
			owner:     owner,
			in:        CreateQuizInput{Exercises: []entity.ExercisePosition{{ExerciseID: e1, Position: 0}, {ExerciseID: e1, Position: 1}}},
			wantErr:   repository.ErrDuplicateExercise,
			wantClass: apperrors.ErrValidation,
		},
		{
			name:      "missing exercise",
			owner:     owner,
			in:        CreateQuizInput{Exercises: []entity.ExercisePosition{{ExerciseID: e1, Position: 0}, {ExerciseID: uuid.New(), Position: 1}}},
			wantErr:   repository.ErrExerciseNotFound,
			wantClass: apperrors.ErrValidation,
		},
		{
			name:      "duplicate position",
			owner:     owner,
			in:        CreateQuizInput{Exercises: []entity.ExercisePosition{{ExerciseID: e1, Position: 0}, {ExerciseID: uuid.New(), Position: 0}}},
			wantErr:   repository.ErrInvalidPosition,
			wantClass: apperrors.ErrValidation,
		},
		{
			name:      "unknown status",
			owner:     owner,
			in:        CreateQuizInput{Status: "paused"},
			wantErr:   repository.ErrInvalidStatus,
			wantClass: apperrors.ErrValidation,
		},
		{
			name:      "unknown owner",
			owner:     uuid.New(),
			in:        CreateQuizInput{Exercises: []entity.ExercisePosition{{ExerciseID: e1, Position: 0}}},
			wantErr:   apperrors.ErrNotFound,
			wantClass: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CreateQuiz(context.Background(), tt.owner, tt.in)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.wantClass)
			assert.Equal(t, 0, store.quizCount())
		})
	}
}

func TestCreateQuiz_ActiveStatusGoesThroughActivation(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	old := store.addQuiz(owner, entity.QuizStatusActive)
	engine := newTestEngine(store)

	view, err := engine.CreateQuiz(context.Background(), owner, CreateQuizInput{Status: entity.QuizStatusActive})

	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusActive, view.Quiz.Status)
	assert.Equal(t, entity.QuizStatusInProgress, store.quiz(old).Status)
	assert.Equal(t, 1, store.activeCount(owner))
}

func TestUpdateQuiz_ExercisePositionsThreeStates(t *testing.T) {
	tests := []struct {
		name      string
		exercises optional.Field[[]entity.ExercisePosition]
		wantLinks int
	}{
		{name: "omitted keeps links", exercises: optional.Field[[]entity.ExercisePosition]{}, wantLinks: 2},
		{name: "empty list clears", exercises: optional.Of([]entity.ExercisePosition{}), wantLinks: 0},
		{name: "null clears", exercises: optional.Null[[]entity.ExercisePosition](), wantLinks: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			owner := store.addUser(false)
			e1 := store.addExercise("1")
			e2 := store.addExercise("2")
			quiz := store.addQuiz(owner, entity.QuizStatusNew, e1, e2)
			engine := newTestEngine(store)

			view, err := engine.UpdateQuiz(context.Background(), quiz, UpdateQuizInput{Exercises: tt.exercises})

			require.NoError(t, err)
			assert.Len(t, view.Links, tt.wantLinks)
			assert.Equal(t, tt.wantLinks, store.linkCount(quiz))
		})
	}
}

func TestUpdateQuiz_ReplacesExercises(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	e1 := store.addExercise("1")
	e2 := store.addExercise("2")
	e3 := store.addExercise("3")
	quiz := store.addQuiz(owner, entity.QuizStatusNew, e1, e2)
	engine := newTestEngine(store)

	view, err := engine.UpdateQuiz(context.Background(), quiz, UpdateQuizInput{
		Exercises: optional.Of([]entity.ExercisePosition{{ExerciseID: e3, Position: 0}, {ExerciseID: e1, Position: 1}}),
	})

	require.NoError(t, err)
	require.Len(t, view.Links, 2)
	assert.Equal(t, e3, view.Links[0].ExerciseID)
	assert.Equal(t, e1, view.Links[1].ExerciseID)
	_, stillThere := store.link(quiz, e2)
	assert.False(t, stillThere)
}

func TestUpdateQuiz_ReplacementWithMissingExerciseRollsBack(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	e1 := store.addExercise("1")
	quiz := store.addQuiz(owner, entity.QuizStatusNew, e1)
	engine := newTestEngine(store)

	_, err := engine.UpdateQuiz(context.Background(), quiz, UpdateQuizInput{
		Title:     optional.Of("renamed"),
		Exercises: optional.Of([]entity.ExercisePosition{{ExerciseID: uuid.New(), Position: 0}}),
	})

	assert.ErrorIs(t, err, repository.ErrExerciseNotFound)
	assert.Equal(t, 1, store.linkCount(quiz))
	assert.Nil(t, store.quiz(quiz).Title)
}

func TestUpdateQuiz_TitleAndStatus(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	other := store.addQuiz(owner, entity.QuizStatusActive)
	quiz := store.addQuiz(owner, entity.QuizStatusNew)
	engine := newTestEngine(store)
	ctx := context.Background()

	view, err := engine.UpdateQuiz(ctx, quiz, UpdateQuizInput{Title: optional.Of("Renamed")})
	require.NoError(t, err)
	require.NotNil(t, view.Quiz.Title)
	assert.Equal(t, "Renamed", *view.Quiz.Title)
	assert.Equal(t, entity.QuizStatusNew, view.Quiz.Status)

	view, err = engine.UpdateQuiz(ctx, quiz, UpdateQuizInput{Title: optional.Null[string](), Status: optional.Null[string]()})
	require.NoError(t, err)
	require.NotNil(t, view.Quiz.Title, "null title is ignored")
	assert.Equal(t, "Renamed", *view.Quiz.Title)

	view, err = engine.UpdateQuiz(ctx, quiz, UpdateQuizInput{Status: optional.Of(entity.QuizStatusActive)})
	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusActive, view.Quiz.Status)
	assert.Equal(t, entity.QuizStatusInProgress, store.quiz(other).Status)
	assert.Equal(t, 1, store.activeCount(owner))

	_, err = engine.UpdateQuiz(ctx, quiz, UpdateQuizInput{Status: optional.Of("archived")})
	assert.ErrorIs(t, err, repository.ErrInvalidStatus)

	_, err = engine.UpdateQuiz(ctx, uuid.New(), UpdateQuizInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateQuiz_StatusTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		wantErr error
	}{
		{entity.QuizStatusNew, entity.QuizStatusInProgress, repository.ErrIllegalStatusChange},
		{entity.QuizStatusNew, entity.QuizStatusSubmitted, repository.ErrIllegalStatusChange},
		{entity.QuizStatusNew, entity.QuizStatusGraded, repository.ErrIllegalStatusChange},
		{entity.QuizStatusActive, entity.QuizStatusInProgress, repository.ErrIllegalStatusChange},
		{entity.QuizStatusActive, entity.QuizStatusSubmitted, repository.ErrIllegalStatusChange},
		{entity.QuizStatusActive, entity.QuizStatusGraded, repository.ErrIllegalStatusChange},
		{entity.QuizStatusInProgress, entity.QuizStatusSubmitted, repository.ErrIllegalStatusChange},
		{entity.QuizStatusInProgress, entity.QuizStatusGraded, repository.ErrIllegalStatusChange},
		{entity.QuizStatusSubmitted, entity.QuizStatusNew, repository.ErrIllegalStatusChange},
		{entity.QuizStatusSubmitted, entity.QuizStatusInProgress, repository.ErrIllegalStatusChange},
		{entity.QuizStatusSubmitted, entity.QuizStatusGraded, repository.ErrIllegalStatusChange},
		{entity.QuizStatusSubmitted, entity.QuizStatusActive, repository.ErrQuizNotActivatable},
		{entity.QuizStatusGraded, entity.QuizStatusNew, repository.ErrIllegalStatusChange},
		{entity.QuizStatusGraded, entity.QuizStatusSubmitted, repository.ErrIllegalStatusChange},
		{entity.QuizStatusGraded, entity.QuizStatusActive, repository.ErrQuizNotActivatable},
		{entity.QuizStatusNew, entity.QuizStatusNew, nil},
		{entity.QuizStatusSubmitted, entity.QuizStatusSubmitted, nil},
		{entity.QuizStatusActive, entity.QuizStatusNew, nil},
		{entity.QuizStatusInProgress, entity.QuizStatusNew, nil},
		{entity.QuizStatusInProgress, entity.QuizStatusActive, nil},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			store := newMemStore()
			owner := store.addUser(false)
			ex := store.addExercise("1")
			quiz := store.addQuiz(owner, tt.from, ex)
			engine := newTestEngine(store)

			_, err := engine.UpdateQuiz(context.Background(), quiz, UpdateQuizInput{
				Title:     optional.Of("Renamed"),
				Status:    optional.Of(tt.to),
				Exercises: optional.Null[[]entity.ExercisePosition](),
			})

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.to, store.quiz(quiz).Status)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, apperrors.ErrInvalidState)
			assert.Equal(t, tt.from, store.quiz(quiz).Status)
			assert.Nil(t, store.quiz(quiz).Title, "rejected update writes nothing")
			assert.Equal(t, 1, store.linkCount(quiz))
		})
	}
}

func TestUpdateQuiz_SubmittedQuizCannotBeReopened(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	ex := store.addExercise("42")
	quiz := store.addQuiz(owner, entity.QuizStatusActive, ex)
	engine := newTestEngine(store)
	ctx := context.Background()

	_, err := engine.SubmitQuiz(ctx, quiz, []Answer{{ExerciseID: ex, Answer: strPtr("wrong")}})
	require.NoError(t, err)

	_, err = engine.UpdateQuiz(ctx, quiz, UpdateQuizInput{Status: optional.Of(entity.QuizStatusInProgress)})
	require.ErrorIs(t, err, repository.ErrIllegalStatusChange)

	_, err = engine.ActivateQuiz(ctx, quiz)
	require.ErrorIs(t, err, repository.ErrQuizNotActivatable)

	_, err = engine.SubmitQuiz(ctx, quiz, []Answer{{ExerciseID: ex, Answer: strPtr("42")}})
	require.ErrorIs(t, err, repository.ErrOnlyActiveSubmittable)

	link, ok := store.link(quiz, ex)
	require.True(t, ok)
	require.NotNil(t, link.IsCorrect)
	assert.False(t, *link.IsCorrect)
	assert.Equal(t, entity.QuizStatusSubmitted, store.quiz(quiz).Status)
}

func TestDeleteQuiz(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	ex := store.addExercise("1")
	quiz := store.addQuiz(owner, entity.QuizStatusActive, ex)
	engine := newTestEngine(store)

	require.NoError(t, engine.DeleteQuiz(context.Background(), quiz))
	assert.Equal(t, 0, store.quizCount())
	assert.Equal(t, 0, store.linkCount(quiz))

	err := engine.DeleteQuiz(context.Background(), quiz)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListQuizzes(t *testing.T) {
	store := newMemStore()
	owner := store.addUser(false)
	first := store.addQuiz(owner, entity.QuizStatusSubmitted)
	second := store.addQuiz(owner, entity.QuizStatusActive)
	store.addQuiz(store.addUser(false), entity.QuizStatusNew)
	engine := newTestEngine(store)
	ctx := context.Background()

	quizzes, total, err := engine.ListQuizzes(ctx, owner, repository.QuizFilters{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, quizzes, 2)
	assert.Equal(t, second, quizzes[0].ID, "newest first")
	assert.Equal(t, first, quizzes[1].ID)

	quizzes, total, err = engine.ListQuizzes(ctx, owner, repository.QuizFilters{Status: entity.QuizStatusSubmitted}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first, quizzes[0].ID)

	_, _, err = engine.ListQuizzes(ctx, owner, repository.QuizFilters{Status: "bogus"}, 10, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// Случайная последовательность операций: после каждого шага у владельца не больше одной active викторины.
func TestExclusivityHoldsAcrossOperationSequences(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		store := newMemStore()
		owners := []uuid.UUID{store.addUser(false), store.addUser(false)}
		for i := 0; i < 6; i++ {
			store.addExercise("s", "t")
		}
		engine := NewEngine(store, DefaultConfig(), seededRand(seed))
		rng := seededRand(seed + 1000)
		ctx := context.Background()
		var quizzes []uuid.UUID

		for step := 0; step < 40; step++ {
			owner := owners[rng.IntN(len(owners))]
			var err error
			switch op := rng.IntN(6); {
			case op == 0 || len(quizzes) == 0:
				var v *QuizView
				v, err = engine.StartQuiz(ctx, owner, StartQuizInput{Length: intPtr(rng.IntN(4))})
				if err == nil {
					quizzes = append(quizzes, v.Quiz.ID)
				}
			case op == 1:
				var v *QuizView
				v, err = engine.CreateQuiz(ctx, owner, CreateQuizInput{Status: entity.QuizStatusActive})
				if err == nil {
					quizzes = append(quizzes, v.Quiz.ID)
				}
			case op == 2:
				_, err = engine.ActivateQuiz(ctx, quizzes[rng.IntN(len(quizzes))])
			case op == 3:
				_, err = engine.SubmitQuiz(ctx, quizzes[rng.IntN(len(quizzes))], nil)
			case op == 4:
				_, err = engine.Deactivate(ctx, owner)
			default:
				_, err = engine.UpdateQuiz(ctx, quizzes[rng.IntN(len(quizzes))], UpdateQuizInput{Status: optional.Of(entity.QuizStatusActive)})
			}
			if err != nil {
				require.True(t, errors.Is(err, apperrors.ErrInvalidState), "seed %d step %d: unexpected error %v", seed, step, err)
			}

			for _, o := range owners {
				require.LessOrEqual(t, store.activeCount(o), 1, "seed %d step %d", seed, step)
			}
		}
	}
}
