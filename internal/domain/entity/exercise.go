package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Contains проверяет наличие строки в массиве
func (o StringArray) Contains(s string) bool {
	for _, v := range o {
		if v == s {
			return true
		}
	}
	return false
}

// Exercise представляет упражнение с эталонным решением и тегами
type Exercise struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SourceName   string      `gorm:"size:255;not null" json:"source_name"`
	SourceID     string      `gorm:"size:255;not null" json:"source_id"`
	Text         string      `gorm:"type:text;not null" json:"text"`
	Solution     string      `gorm:"type:text;not null" json:"-"` // Скрыто от клиента
	Answers      StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"answers"`
	Illustration StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"illustration"`
	Tags         StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Exercise) TableName() string {
	return "exercises"
}

// BeforeCreate генерирует UUIDv7, если ID не задан
func (e *Exercise) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id
	}
	return nil
}

// HasAnyTag проверяет, есть ли у упражнения хотя бы один из тегов (логическое ИЛИ)
func (e *Exercise) HasAnyTag(tags []string) bool {
	for _, t := range tags {
		if e.Tags.Contains(t) {
			return true
		}
	}
	return false
}

// CheckAnswer сравнивает ответ с эталонным решением после обрезки пробелов.
// nil-ответ трактуется как пустая строка.
func (e *Exercise) CheckAnswer(answer *string) bool {
	given := ""
	if answer != nil {
		given = *answer
	}
	return strings.TrimSpace(given) == strings.TrimSpace(e.Solution)
}
