package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда вызывающий не аутентифицирован.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда ресурс существует, но принадлежит другому пользователю.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния, которые можно повторить
	// (например, нарушение уникальности активной викторины).
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidState используется для недопустимых переходов статуса.
	ErrInvalidState = errors.New("invalid state transition")
)
