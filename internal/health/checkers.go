package health

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
)

// StoreVerifier проверяет внутреннюю согласованность хранилища.
type StoreVerifier interface {
	Verify() error
	Count() (int, error)
}

// NewStoreChecker возвращает unhealthy, если нарушены инварианты коллекции (уникальность id, счётчик больше любого id).
func NewStoreChecker(store StoreVerifier) *SimpleChecker {
	return NewSimpleChecker("store", func() error {
		if err := store.Verify(); err != nil {
			return err
		}
		_, err := store.Count()
		return err
	})
}

// OutboxChecker сообщает degraded, когда backlog событий растёт.
type OutboxChecker struct {
	stats      func() (domain.OutboxStats, error)
	maxPending int
	maxAge     time.Duration
	now        func() time.Time
}

// NewOutboxChecker создаёт проверку outbox. Нулевые пороги отключают соответствующую проверку.
func NewOutboxChecker(repo domain.OutboxRepository, maxPending int, maxAge time.Duration) *OutboxChecker {
	return &OutboxChecker{
		stats:      repo.Stats,
		maxPending: maxPending,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Check выполняет проверку.
func (c *OutboxChecker) Check() Check {
	start := c.now()
	check := Check{Name: "outbox", Status: StatusHealthy}

	stats, err := c.stats()
	switch {
	case err != nil:
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	case c.maxPending > 0 && stats.PendingCount > c.maxPending:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("%d pending events exceed limit %d", stats.PendingCount, c.maxPending)
	case c.maxAge > 0 && !stats.OldestPendingAt.IsZero() && c.now().Sub(stats.OldestPendingAt) > c.maxAge:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("oldest pending event is older than %s", c.maxAge)
	}

	check.DurationMs = c.now().Sub(start).Milliseconds()
	return check
}
