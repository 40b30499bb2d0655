package domain

import "time"

// OutboxPublisher доставляет события об изменениях коллекции за пределы процесса.
type OutboxPublisher interface {
	// Publish может вызываться повторно для того же сообщения.
	Publish(event OutboxMessage) error
}

// OutboxRepository копит события до публикации, сохраняя порядок постановки.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage — событие в outbox. AggregateID содержит id записи в десятичном виде.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats используется health-проверкой и метриками backlog.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
