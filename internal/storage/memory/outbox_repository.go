package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
)

const defaultPullLimit = 100

// outboxRecord хранит сообщение и время постановки в очередь.
type outboxRecord struct {
	msg       domain.OutboxMessage
	createdAt time.Time
}

// OutboxRepository — in-memory outbox, сохраняющий порядок постановки сообщений.
// Обработанные сообщения удаляются сразу после MarkSent/MarkFailed.
type OutboxRepository struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*outboxRecord
	now     func() time.Time
}

// NewOutboxRepository создаёт in-memory реализацию outbox.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		records: make(map[string]*outboxRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его с назначенным ID.
func (r *OutboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if _, exists := r.records[msg.ID]; !exists {
		r.order = append(r.order, msg.ID)
	}
	r.records[msg.ID] = &outboxRecord{msg: msg, createdAt: r.now()}
	return msg, nil
}

// PullPending возвращает до limit ожидающих сообщений в порядке постановки.
func (r *OutboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = defaultPullLimit
	}

	result := make([]domain.OutboxMessage, 0, min(limit, len(r.order)))
	for _, id := range r.order[:min(limit, len(r.order))] {
		result = append(result, r.records[id].msg)
	}
	return result, nil
}

// Stats возвращает размер backlog и время самого старого pending-сообщения.
func (r *OutboxRepository) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.OutboxStats{PendingCount: len(r.order)}
	if len(r.order) > 0 {
		stats.OldestPendingAt = r.records[r.order[0]].createdAt
	}
	return stats, nil
}

// MarkSent фиксирует успешную публикацию и убирает сообщение из очереди.
func (r *OutboxRepository) MarkSent(id string) error {
	return r.remove(id)
}

// MarkFailed фиксирует окончательную ошибку публикации (сообщение уже ушло в DLQ) и убирает его из очереди.
func (r *OutboxRepository) MarkFailed(id string) error {
	return r.remove(id)
}

func (r *OutboxRepository) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return domain.ErrOutboxMessageNotFound
	}

	delete(r.records, id)
	for i, queued := range r.order {
		if queued == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AllPending возвращает копию всех ожидающих сообщений (используется в тестах).
func (r *OutboxRepository) AllPending() []domain.OutboxMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OutboxMessage, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.records[id].msg)
	}
	return result
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
