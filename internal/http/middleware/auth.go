package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// ContextCallerKey - ключ gin.Context, под которым лежит service.Caller.
const ContextCallerKey = "caller"

type TokenParser interface {
	ParseAccess(token string) (uuid.UUID, error)
}

type CallerResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (service.Caller, error)
}

// AuthMiddleware проверяет bearer токен и вычисляет допуск пользователя по его ролям.
func AuthMiddleware(tokens TokenParser, callers CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			abortWith(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "требуется авторизация")
			return
		}

		userID, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil || userID == uuid.Nil {
			abortWith(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "токен невалиден")
			return
		}

		caller, err := callers.Resolve(c.Request.Context(), userID)
		if err != nil {
			logger.Log.WithError(err).WithField("user_id", userID).Error("auth: не удалось вычислить допуск")
			abortWith(c, http.StatusInternalServerError, apperror.ErrCodeInternal, "внутренняя ошибка сервера")
			return
		}

		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов. Ставится после AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := c.Get(ContextCallerKey)
		if !ok {
			abortWith(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "требуется авторизация")
			return
		}
		if cl, ok := caller.(service.Caller); !ok || !cl.IsAdmin() {
			abortWith(c, http.StatusForbidden, apperror.ErrCodeForbidden, "недостаточно прав")
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, status int, code apperror.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}
