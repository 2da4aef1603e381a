package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
)

var (
	ErrTokenMalformed = fmt.Errorf("token is malformed: %w", apperrors.ErrUnauthorized)
	ErrTokenExpired   = fmt.Errorf("token is expired: %w", apperrors.ErrUnauthorized)
	ErrTokenInvalid   = fmt.Errorf("token validation failed: %w", apperrors.ErrUnauthorized)
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	IsSuperuser bool      `json:"is_superuser"`
	jwt.RegisteredClaims
}

// Principal возвращает аутентифицированного вызывающего из claims
func (c *JWTCustomClaims) Principal() entity.Principal {
	return entity.Principal{ID: c.UserID, IsSuperuser: c.IsSuperuser}
}

// JWTService подписывает и проверяет токены HS256.
// Выпуск токенов принадлежит сервису идентификации, здесь GenerateToken нужен инструментам и тестам.
type JWTService struct {
	secret        []byte
	issuer        string
	expirationHrs int
	now           func() time.Time
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret, issuer string, expirationHrs int) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required for JWTService")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	return &JWTService{
		secret:        []byte(secret),
		issuer:        issuer,
		expirationHrs: expirationHrs,
		now:           time.Now,
	}, nil
}

// GenerateToken выпускает токен для принципала
func (s *JWTService) GenerateToken(p entity.Principal) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		UserID:      p.ID,
		IsSuperuser: p.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour * time.Duration(s.expirationHrs))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись, срок действия и издателя токена
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	log := logger.Component("jwt")
	claims := &JWTCustomClaims{}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи токена
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc)
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				log.Debug("token is malformed")
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				log.WithField("user_id", claims.UserID).Debug("token is expired")
				return nil, ErrTokenExpired
			}
		}
		log.WithError(err).Debug("token validation failed")
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		log.WithField("issuer", claims.Issuer).Debug("unexpected token issuer")
		return nil, ErrTokenInvalid
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
