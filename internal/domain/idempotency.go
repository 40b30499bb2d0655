package domain

import (
	"errors"
	"time"
)

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing означает, что запрос принят и ещё обрабатывается.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone означает, что ответ сохранён и будет отдан повторно.
	IdempotencyStatusDone IdempotencyStatus = "done"
)

var (
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists: ключ уже занят тем же запросом, состояние смотрят по Status записи.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch: ключ уже использован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key is used with a different request")
)

// IdempotencyRecord хранит состояние обработки запроса с Idempotency-Key.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       IdempotencyStatus
	HTTPStatus   int
	ResponseBody []byte
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired сообщает, истёк ли срок жизни записи к моменту now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// IdempotencyRepository хранит ключи идемпотентности для повторяемого создания записей.
type IdempotencyRepository interface {
	// Begin резервирует ключ. Для занятого ключа возвращает существующую запись и
	// ErrIdempotencyKeyAlreadyExists или ErrIdempotencyHashMismatch.
	Begin(key, requestHash string, expiresAt time.Time) (IdempotencyRecord, error)
	// Complete сохраняет ответ и переводит запись в IdempotencyStatusDone.
	Complete(key string, httpStatus int, responseBody []byte) error
	// Release освобождает ключ, чтобы запрос можно было повторить.
	Release(key string) error
	// DeleteExpired удаляет не более limit записей с ExpiresAt <= before; limit <= 0 снимает ограничение.
	DeleteExpired(before time.Time, limit int) (int, error)
	// Count возвращает число хранимых ключей.
	Count() int
}
