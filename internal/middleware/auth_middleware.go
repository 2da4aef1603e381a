package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
	"github.com/yourusername/learnhub-api/pkg/auth"
)

// Ключи контекста Gin
const (
	principalKey = "principal"
	userIDKey    = "user_id"
)

// TokenParser разбирает access-токен
type TokenParser interface {
	ParseToken(tokenString string) (*auth.JWTCustomClaims, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	tokens TokenParser
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth проверяет Bearer-токен и кладет Principal в контекст
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}

		// Проверяем формат заголовка Bearer {token}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}

		claims, err := m.tokens.ParseToken(parts[1])
		if err != nil {
			logger.FromContext(c.Request.Context()).WithError(err).Debug("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}

		principal := claims.Principal()
		c.Set(principalKey, principal)
		c.Set(userIDKey, principal.ID)

		// Добавляем пользователя в запись лога запроса
		entry := logger.FromContext(c.Request.Context()).WithField("user_id", principal.ID)
		c.Request = c.Request.WithContext(logger.WithEntry(c.Request.Context(), entry))

		c.Next()
	}
}

// SuperuserOnly пропускает только суперпользователей. Применяется после RequireAuth.
func (m *AuthMiddleware) SuperuserOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			return
		}
		if !principal.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Superuser rights required"})
			return
		}
		c.Next()
	}
}

// GetPrincipal возвращает аутентифицированного пользователя из контекста
func GetPrincipal(c *gin.Context) (entity.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return entity.Principal{}, false
	}
	p, ok := v.(entity.Principal)
	return p, ok
}

// SetPrincipal кладет пользователя в контекст (для тестов обработчиков)
func SetPrincipal(c *gin.Context, p entity.Principal) {
	c.Set(principalKey, p)
	c.Set(userIDKey, p.ID)
}
