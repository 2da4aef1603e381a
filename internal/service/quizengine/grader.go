package quizengine

import (
	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
)

// Correction - новое значение is_correct для одной связи
type Correction struct {
	ExerciseID uuid.UUID
	IsCorrect  bool
}

// GradeReport - результат проверки пачки ответов
type GradeReport struct {
	Corrections []Correction // По одной на упражнение, в порядке position
	Unknown     []uuid.UUID  // Упражнения не из этой викторины
	Malformed   int          // Ответы без exercise_id
}

// Correct возвращает количество верных ответов
func (r GradeReport) Correct() int {
	n := 0
	for _, c := range r.Corrections {
		if c.IsCorrect {
			n++
		}
	}
	return n
}

// Grade сравнивает ответы с эталонными решениями упражнений викторины.
// Для повторяющегося exercise_id побеждает последний ответ.
// Упражнения без ответа в отчёт не попадают и сохраняют прежний is_correct.
// links должны содержать загруженные Exercise.
func Grade(links []entity.QuizExercise, answers []Answer) GradeReport {
	byExercise := make(map[uuid.UUID]*entity.Exercise, len(links))
	for i := range links {
		if links[i].Exercise != nil {
			byExercise[links[i].ExerciseID] = links[i].Exercise
		}
	}

	var report GradeReport
	results := make(map[uuid.UUID]bool, len(answers))
	for _, a := range answers {
		if a.ExerciseID == uuid.Nil {
			report.Malformed++
			continue
		}
		ex, ok := byExercise[a.ExerciseID]
		if !ok {
			report.Unknown = append(report.Unknown, a.ExerciseID)
			continue
		}
		results[a.ExerciseID] = ex.CheckAnswer(a.Answer)
	}

	for i := range links {
		if ok, answered := results[links[i].ExerciseID]; answered {
			report.Corrections = append(report.Corrections, Correction{
				ExerciseID: links[i].ExerciseID,
				IsCorrect:  ok,
			})
		}
	}
	return report
}

// Apply записывает результаты в связи (в памяти)
func (r GradeReport) Apply(links []entity.QuizExercise) {
	idx := make(map[uuid.UUID]int, len(links))
	for i := range links {
		idx[links[i].ExerciseID] = i
	}
	for _, c := range r.Corrections {
		if i, ok := idx[c.ExerciseID]; ok {
			v := c.IsCorrect
			links[i].IsCorrect = &v
		}
	}
}
