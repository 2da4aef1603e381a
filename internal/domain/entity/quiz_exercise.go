package entity

import "github.com/google/uuid"

// QuizExercise - связующая запись (quiz, exercise): позиция в викторине и результат проверки.
// IsCorrect == nil означает, что ответа ещё не было.
type QuizExercise struct {
	QuizID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"quiz_id"`
	ExerciseID uuid.UUID `gorm:"type:uuid;primaryKey" json:"exercise_id"`
	Position   int       `gorm:"not null" json:"position"`
	IsCorrect  *bool     `json:"is_correct"`

	// Заполняется только при чтении с JOIN, каскады объявлены в схеме БД
	Exercise *Exercise `gorm:"foreignKey:ExerciseID;references:ID" json:"exercise,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (QuizExercise) TableName() string {
	return "quiz_exercises"
}

// ExercisePosition - пара (упражнение, позиция) для создания и замены набора упражнений
type ExercisePosition struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Position   int       `json:"position"`
}
