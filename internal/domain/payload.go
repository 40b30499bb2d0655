package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	fieldName      = "name"
	fieldPower     = "power"
	fieldIsDemiGod = "isDemiGod"
)

// Payload — декодированное, но ещё не типизированное тело запроса.
// Типизированные представления получаются через Replacement и Patch, которые и выполняют валидацию.
type Payload struct {
	fields map[string]json.RawMessage
}

// ParsePayload разбирает тело запроса. Пустое тело равносильно пустому объекту.
func ParsePayload(body []byte) (Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if fields == nil {
		// Литерал null разбирается без ошибки, но объектом не является.
		return Payload{}, ErrMalformedPayload
	}

	return Payload{fields: fields}, nil
}

// Replacement применяет правила Create/Replace: имя обязательно и должно быть непустой строкой.
func (p Payload) Replacement() (Attributes, error) {
	name, err := stringField(p, fieldName, ErrNameRequired)
	if err != nil {
		return Attributes{}, err
	}
	value, ok := name.Get()
	if !ok || value == "" {
		return Attributes{}, ErrNameRequired
	}

	power, err := stringField(p, fieldPower, ErrPowerNotString)
	if err != nil {
		return Attributes{}, err
	}
	isDemiGod, err := boolField(p, fieldIsDemiGod, ErrIsDemiGodNotBoolean)
	if err != nil {
		return Attributes{}, err
	}

	return Attributes{
		Name:      value,
		Power:     power,
		IsDemiGod: isDemiGod,
	}, nil
}

// Patch применяет правила частичного обновления: имя можно не передавать, но неверный тип отклоняется.
func (p Payload) Patch() (Patch, error) {
	name, err := stringField(p, fieldName, ErrNameNotString)
	if err != nil {
		return Patch{}, err
	}
	if value, ok := name.Get(); ok && value == "" {
		return Patch{}, ErrNameEmpty
	}

	power, err := stringField(p, fieldPower, ErrPowerNotString)
	if err != nil {
		return Patch{}, err
	}
	isDemiGod, err := boolField(p, fieldIsDemiGod, ErrIsDemiGodNotBoolean)
	if err != nil {
		return Patch{}, err
	}

	return Patch{
		Name:      name,
		Power:     power,
		IsDemiGod: isDemiGod,
	}, nil
}

// raw возвращает значение ключа; null считается отсутствием.
func (p Payload) raw(key string) (json.RawMessage, bool) {
	value, ok := p.fields[key]
	if !ok || isJSONNull(value) {
		return nil, false
	}
	return value, true
}

func stringField(p Payload, key string, typeErr error) (Optional[string], error) {
	raw, ok := p.raw(key)
	if !ok {
		return None[string](), nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return None[string](), typeErr
	}
	return Some(value), nil
}

func boolField(p Payload, key string, typeErr error) (Optional[bool], error) {
	raw, ok := p.raw(key)
	if !ok {
		return None[bool](), nil
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return None[bool](), typeErr
	}
	return Some(value), nil
}
