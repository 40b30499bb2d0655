package memory

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
)

// GreekGodRepository — in-memory хранилище коллекции с автоинкрементом идентификаторов.
// Коллекция и счётчик защищены одним мьютексом, который удерживается всю операцию.
type GreekGodRepository struct {
	mu     sync.RWMutex
	items  []domain.GreekGod
	nextID int64
}

// NewGreekGodRepository создаёт хранилище с начальными данными.
// Счётчик стартует с max(seed ids)+1; для пустого набора с 1.
func NewGreekGodRepository(seed []domain.GreekGod) (*GreekGodRepository, error) {
	items := make([]domain.GreekGod, 0, len(seed))
	seen := make(map[int64]struct{}, len(seed))
	var maxID int64

	for _, god := range seed {
		if errs := god.ValidateInvariants(); len(errs) > 0 {
			return nil, fmt.Errorf("%w: record %d: %w", domain.ErrInvalidSeed, god.ID, errors.Join(errs...))
		}
		if _, dup := seen[god.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", domain.ErrInvalidSeed, god.ID)
		}
		seen[god.ID] = struct{}{}
		maxID = max(maxID, god.ID)
		items = append(items, god)
	}

	return &GreekGodRepository{
		items:  items,
		nextID: maxID + 1,
	}, nil
}

// List возвращает копию коллекции в порядке вставки.
func (r *GreekGodRepository) List() ([]domain.GreekGod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.GreekGod, len(r.items))
	copy(result, r.items)
	return result, nil
}

// Get возвращает запись или NotFoundError.
func (r *GreekGodRepository) Get(id int64) (domain.GreekGod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return domain.GreekGod{}, &domain.NotFoundError{ID: id}
	}
	return r.items[idx], nil
}

// Create проверяет payload, выдаёт следующий ID и добавляет запись в конец.
// ID из payload игнорируется.
func (r *GreekGodRepository) Create(payload domain.Payload) (domain.GreekGod, error) {
	attrs, err := payload.Replacement()
	if err != nil {
		return domain.GreekGod{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	god := attrs.Build(r.nextID)
	r.nextID++
	r.items = append(r.items, god)
	return god, nil
}

// Replace полностью заменяет запись: старые значения необязательных полей не переносятся.
// Существование проверяется раньше валидации.
func (r *GreekGodRepository) Replace(id int64, payload domain.Payload) (domain.GreekGod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return domain.GreekGod{}, &domain.NotFoundError{ID: id}
	}

	attrs, err := payload.Replacement()
	if err != nil {
		return domain.GreekGod{}, err
	}

	god := attrs.Build(id)
	r.items[idx] = god
	return god, nil
}

// PartialUpdate перезаписывает только поля, присутствующие в payload.
func (r *GreekGodRepository) PartialUpdate(id int64, payload domain.Payload) (domain.GreekGod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return domain.GreekGod{}, &domain.NotFoundError{ID: id}
	}

	patch, err := payload.Patch()
	if err != nil {
		return domain.GreekGod{}, err
	}

	patch.ApplyTo(&r.items[idx])
	return r.items[idx], nil
}

// Delete удаляет запись со сдвигом последующих и возвращает удалённое значение.
// Освободившийся ID повторно не выдаётся.
func (r *GreekGodRepository) Delete(id int64) (domain.GreekGod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return domain.GreekGod{}, &domain.NotFoundError{ID: id}
	}

	removed := r.items[idx]
	r.items = slices.Delete(r.items, idx, idx+1)
	return removed, nil
}

// Count возвращает размер коллекции.
func (r *GreekGodRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}

// NextID возвращает идентификатор, который получит следующая созданная запись.
func (r *GreekGodRepository) NextID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nextID
}

// Verify проверяет инварианты коллекции: уникальность ID, счётчик больше любого ID, непустые имена.
// Используется health check'ом.
func (r *GreekGodRepository) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{}, len(r.items))
	for _, god := range r.items {
		if _, dup := seen[god.ID]; dup {
			return fmt.Errorf("duplicate id %d", god.ID)
		}
		seen[god.ID] = struct{}{}

		if god.ID >= r.nextID {
			return fmt.Errorf("id %d is not below counter %d", god.ID, r.nextID)
		}
		if god.Name == "" {
			return fmt.Errorf("record %d has empty name", god.ID)
		}
	}
	return nil
}

// indexOf ищет позицию записи; вызывается под мьютексом.
func (r *GreekGodRepository) indexOf(id int64) int {
	return slices.IndexFunc(r.items, func(god domain.GreekGod) bool {
		return god.ID == id
	})
}

var _ domain.GreekGodRepository = (*GreekGodRepository)(nil)
