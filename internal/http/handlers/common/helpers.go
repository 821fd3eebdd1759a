package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

var (
	// ErrCallerNotFound возвращается, если auth middleware не положил вызывающего в контекст.
	ErrCallerNotFound = errors.New("пользователь не найден в контексте")

	ErrInvalidUUID = errors.New("неверный формат UUID")
)

// ErrorResponse - единый формат ошибки API.
type ErrorResponse struct {
	Error string             `json:"error"`
	Code  apperror.ErrorCode `json:"code"`
}

// CurrentCaller достаёт личность и допуск, вычисленные auth middleware.
func CurrentCaller(c *gin.Context) (service.Caller, error) {
	raw, exists := c.Get(middleware.ContextCallerKey)
	if !exists {
		return service.Caller{}, ErrCallerNotFound
	}

	caller, ok := raw.(service.Caller)
	if !ok {
		return service.Caller{}, ErrCallerNotFound
	}
	return caller, nil
}

// MustCaller пишет 401 и возвращает false, если вызывающий не определён.
func MustCaller(c *gin.Context) (service.Caller, bool) {
	caller, err := CurrentCaller(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "требуется авторизация")
		return service.Caller{}, false
	}
	return caller, true
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}
	return parsed, nil
}

// BindJSON разбирает тело запроса; при ошибке сразу отвечает 400.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, apperror.ErrCodeValidation, "некорректное тело запроса")
		return false
	}
	return true
}

// RespondError отправляет ошибку в едином формате.
func RespondError(c *gin.Context, statusCode int, code apperror.ErrorCode, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: message, Code: code})
}

// RespondAppError переводит ошибку сервиса в HTTP ответ. Всё, что не AppError,
// считается внутренней ошибкой и наружу не раскрывается.
func RespondAppError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		logger.Log.WithError(err).WithField("path", c.FullPath()).Error("http: необработанная ошибка")
		appErr = apperror.Internal(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondError(c, appErr.HTTPStatus, appErr.Code, appErr.Message)
}

// RespondBadRequest отвечает 400 с кодом VALIDATION_ERROR.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, apperror.ErrCodeValidation, message)
}

// ParseIntQuery читает целый query-параметр, при ошибке возвращает fallback.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination извлекает limit и offset с ограничениями по умолчанию.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
