package quizengine

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
)

// RandSource - источник перестановок. *rand.Rand из math/rand/v2 подходит для тестов с seed.
type RandSource interface {
	Perm(n int) []int
}

type globalRand struct{}

// Perm использует глобальный генератор math/rand/v2, безопасный для горутин
func (globalRand) Perm(n int) []int { return rand.Perm(n) }

// ExerciseSource - часть ExerciseRepository, нужная для выборки
type ExerciseSource interface {
	SampleByTags(ctx context.Context, tags []string, limit int) ([]entity.Exercise, error)
	SampleRandom(ctx context.Context, limit int) ([]entity.Exercise, error)
}

// Sample выбирает до length упражнений и назначает им случайные позиции 0..count-1.
// Непустой tags - упражнения хотя бы с одним из тегов, иначе случайные из всего пула.
// Если подходящих меньше length, возвращаются все подходящие.
func Sample(ctx context.Context, src ExerciseSource, length int, tags []string, rng RandSource) ([]entity.QuizExercise, error) {
	if length <= 0 {
		return []entity.QuizExercise{}, nil
	}

	var (
		exercises []entity.Exercise
		err       error
	)
	if tags = normalizeTags(tags); len(tags) > 0 {
		exercises, err = src.SampleByTags(ctx, tags, length)
	} else {
		exercises, err = src.SampleRandom(ctx, length)
	}
	if err != nil {
		return nil, err
	}

	// Хранилище не обязано соблюдать limit
	if len(exercises) > length {
		exercises = exercises[:length]
	}
	return AssignPositions(exercises, rng), nil
}

// AssignPositions сопоставляет упражнениям перемешанные позиции 0..len-1.
// Порядок результата совпадает с порядком exercises.
func AssignPositions(exercises []entity.Exercise, rng RandSource) []entity.QuizExercise {
	if rng == nil {
		rng = globalRand{}
	}
	positions := rng.Perm(len(exercises))
	links := make([]entity.QuizExercise, len(exercises))
	for i := range exercises {
		ex := exercises[i]
		links[i] = entity.QuizExercise{
			ExerciseID: ex.ID,
			Position:   positions[i],
			Exercise:   &ex,
		}
	}
	return links
}

// normalizeTags обрезает пробелы, убирает пустые и повторяющиеся теги
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
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
