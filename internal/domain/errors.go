package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrGreekGodNotFound — корневая ошибка для всех NotFoundError.
	ErrGreekGodNotFound = errors.New("greek god not found")
	// ErrValidation — корневая ошибка для всех ValidationError.
	ErrValidation = errors.New("greek god validation failed")
	// ErrMalformedPayload — тело запроса не является JSON-объектом. Ошибка транспорта.
	ErrMalformedPayload = errors.New("payload must be a JSON object")
	// ErrInvalidSeed возвращается, если начальные данные нарушают инварианты коллекции.
	ErrInvalidSeed = errors.New("invalid seed data")
	// ErrOutboxMessageNotFound — сообщение outbox с таким ID отсутствует.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
)

var (
	// ErrNameRequired: Create/Replace без имени или с нестроковым именем.
	ErrNameRequired = &ValidationError{Field: "name", Message: "Name is required and must be a string"}
	// ErrNameNotString: PartialUpdate с нестроковым именем.
	ErrNameNotString = &ValidationError{Field: "name", Message: "Name must be a string"}
	// ErrNameEmpty: PartialUpdate с пустой строкой вместо имени.
	ErrNameEmpty = &ValidationError{Field: "name", Message: "Name must not be empty"}
	// ErrPowerNotString: поле power передано, но не строкой.
	ErrPowerNotString = &ValidationError{Field: "power", Message: "Power must be a string"}
	// ErrIsDemiGodNotBoolean: поле isDemiGod передано, но не boolean.
	ErrIsDemiGodNotBoolean = &ValidationError{Field: "isDemiGod", Message: "IsDemiGod must be a boolean"}
)

// NotFoundError сообщает, что записи с запрошенным идентификатором нет в коллекции.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Greek God not found by id %d", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrGreekGodNotFound
}

// StatusCode возвращает HTTP-статус для транспортного слоя.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ValidationError описывает нарушение правил типа/обязательности поля в payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StatusCode возвращает HTTP-статус для транспортного слоя.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// IsNotFound проверяет, является ли ошибка отсутствием записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGreekGodNotFound)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации payload.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
