package service

import "fmt"

// Коды бизнес-ошибок, по ним транспортный слой выбирает статус ответа
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeVersionConflict  = "VERSION_CONFLICT"
	CodeTransientFailure = "TRANSIENT_FAILURE"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	BusErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		BusErr.Details[detail.Key] = detail.Payload
	}

	return BusErr
}

func NewUnauthenticated() *BusinessError {
	return NewBusinessError(CodeUnauthenticated, "Запрос не аутентифицирован")
}

func NewForbidden(action string) *BusinessError {
	return NewBusinessError(CodeForbidden,
		fmt.Sprintf("Недостаточно прав: %s", action),
		ToDetail("action", action),
	)
}

func NewNotFound(resource, id string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %s не найден(а)", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewInvalidOperation(reason string, details ...Detail) *BusinessError {
	return NewBusinessError(CodeInvalidOperation,
		fmt.Sprintf("Недопустимая операция: %s", reason),
		details...,
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidationError,
		fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewVersionConflict(id string) *BusinessError {
	return NewBusinessError(CodeVersionConflict,
		fmt.Sprintf("Задача %s изменена параллельно, повторите с актуальной версией", id),
		ToDetail("id", id),
	)
}

func NewTransientFailure(message string, err error) *BusinessError {
	busErr := NewBusinessError(CodeTransientFailure, message)
	busErr.Err = err
	return busErr
}
