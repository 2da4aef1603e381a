package service

import (
	"fmt"

	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
)

// Ошибки доступа. Все оборачивают apperrors.ErrForbidden и отличаются от ErrNotFound.
var (
	ErrNotQuizOwner  = fmt.Errorf("only the quiz owner can modify this quiz: %w", apperrors.ErrForbidden)
	ErrNoReadAccess  = fmt.Errorf("you do not have permission to access this resource: %w", apperrors.ErrForbidden)
	ErrSuperuserOnly = fmt.Errorf("superuser privileges required: %w", apperrors.ErrForbidden)
)
