package domain

import (
	"bytes"
	"encoding/json"
)

// Optional хранит значение вместе с признаком его наличия.
// Нулевое значение Optional означает «поле не передавалось» и не совпадает с Some(zero).
type Optional[T any] struct {
	value T
	set   bool
}

// Some возвращает заполненное значение.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None возвращает пустое значение.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get возвращает значение и признак его наличия.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet сообщает, было ли значение задано.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// IsZero используется encoding/json (тег omitzero), чтобы не сериализовать незаданные поля.
func (o Optional[T]) IsZero() bool {
	return !o.set
}

// MarshalJSON сериализует только само значение; незаданное поле превращается в null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON считает null отсутствием значения.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		*o = Optional[T]{}
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func isJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
