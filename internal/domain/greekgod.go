package domain

import "errors"

// GreekGod — единственная сущность коллекции.
type GreekGod struct {
	// ID назначается хранилищем и не меняется после создания.
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Power необязателен и сериализуется, только если был передан.
	Power Optional[string] `json:"power,omitzero"`
	// IsDemiGod необязателен. Отсутствие и false различаются.
	IsDemiGod Optional[bool] `json:"isDemiGod,omitzero"`
}

// ValidateInvariants проверяет инварианты сохранённой записи и возвращает список замечаний.
func (g *GreekGod) ValidateInvariants() []error {
	var errs []error

	if g.ID <= 0 {
		errs = append(errs, errors.New("id must be positive"))
	}
	if g.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}

	return errs
}

// Attributes — проверенные поля для Create/Replace. Запись строится только из них.
type Attributes struct {
	Name      string
	Power     Optional[string]
	IsDemiGod Optional[bool]
}

// Build собирает новую запись с заданным идентификатором.
func (a Attributes) Build(id int64) GreekGod {
	return GreekGod{
		ID:        id,
		Name:      a.Name,
		Power:     a.Power,
		IsDemiGod: a.IsDemiGod,
	}
}

// Patch содержит проверенные поля частичного обновления. Незаданные поля не трогаются.
type Patch struct {
	Name      Optional[string]
	Power     Optional[string]
	IsDemiGod Optional[bool]
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p Patch) IsEmpty() bool {
	return !p.Name.IsSet() && !p.Power.IsSet() && !p.IsDemiGod.IsSet()
}

// ApplyTo переносит заданные поля в запись. ID не изменяется.
func (p Patch) ApplyTo(g *GreekGod) {
	if name, ok := p.Name.Get(); ok {
		g.Name = name
	}
	if p.Power.IsSet() {
		g.Power = p.Power
	}
	if p.IsDemiGod.IsSet() {
		g.IsDemiGod = p.IsDemiGod
	}
}
