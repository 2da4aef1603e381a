package entity

import (
	"time"

	"github.com/google/uuid"
)

// User - владелец викторин. Таблицу ведёт сервис идентификации,
// здесь она только читается и блокируется при старте викторины.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName    *string   `gorm:"size:255" json:"full_name"`
	IsSuperuser bool      `gorm:"not null;default:false" json:"is_superuser"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// Principal - аутентифицированный вызывающий
type Principal struct {
	ID          uuid.UUID
	IsSuperuser bool
}

// CanRead проверяет право чтения ресурса владельца (владелец или суперпользователь)
func (p Principal) CanRead(ownerID uuid.UUID) bool {
	return p.ID == ownerID || p.IsSuperuser
}

// CanMutate проверяет право изменения ресурса: только владелец
func (p Principal) CanMutate(ownerID uuid.UUID) bool {
	return p.ID == ownerID
}
