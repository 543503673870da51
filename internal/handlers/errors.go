package handlers

import (
	"errors"
	"net/http"

	"taskShare/internal/logger"
	"taskShare/internal/service"

	"go.uber.org/zap"
)

// handleBusinessError переводит бизнес-ошибку в HTTP-ответ.
// Возвращает false, если ошибка не бизнесовая и её должен
// обработать вызывающий.
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeInvalidOperation:
		return http.StatusUnprocessableEntity
	case service.CodeValidationError:
		return http.StatusBadRequest
	case service.CodeVersionConflict:
		return http.StatusConflict
	case service.CodeTransientFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
