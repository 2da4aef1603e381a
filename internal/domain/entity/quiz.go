package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Константы статусов викторины
const (
	QuizStatusNew        = "new"
	QuizStatusActive     = "active"
	QuizStatusInProgress = "in_progress"
	QuizStatusSubmitted  = "submitted"
	QuizStatusGraded     = "graded"
)

// IsValidQuizStatus проверяет, что статус известен
func IsValidQuizStatus(status string) bool {
	switch status {
	case QuizStatusNew, QuizStatusActive, QuizStatusInProgress, QuizStatusSubmitted, QuizStatusGraded:
		return true
	}
	return false
}

// Quiz представляет викторину пользователя.
// Связь с упражнениями хранится только в таблице quiz_exercises.
type Quiz struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Title     *string   `gorm:"size:255" json:"title"`
	Status    string    `gorm:"size:20;not null;default:'new';index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// BeforeCreate генерирует UUIDv7, если ID не задан
func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		q.ID = id
	}
	return nil
}

// IsActive проверяет, активна ли викторина
func (q *Quiz) IsActive() bool {
	return q.Status == QuizStatusActive
}

// CanActivate проверяет, можно ли перевести викторину в active
func (q *Quiz) CanActivate() bool {
	return q.Status == QuizStatusNew || q.Status == QuizStatusInProgress
}

// IsFinished возвращает true для submitted и graded: решения можно показывать
func (q *Quiz) IsFinished() bool {
	return q.Status == QuizStatusSubmitted || q.Status == QuizStatusGraded
}

// CanOverwriteStatus проверяет прямую запись статуса через обновление.
// Запись текущего статуса допустима всегда. submitted и graded конечны;
// в submitted ведёт только отправка, в in_progress только активация другой викторины,
// graded в этой версии не выставляется. В active ведёт CanActivate.
func (q *Quiz) CanOverwriteStatus(target string) bool {
	if target == q.Status {
		return true
	}
	if q.IsFinished() {
		return false
	}
	switch target {
	case QuizStatusActive:
		return q.CanActivate()
	case QuizStatusNew:
		return true
	}
	return false
}
