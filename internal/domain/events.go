package domain

import "time"

// AggregateGreekGod — тип агрегата в outbox-сообщениях.
const AggregateGreekGod = "greekgod"

// ChangeType описывает вид изменения коллекции.
type ChangeType string

const (
	ChangeCreated  ChangeType = "greekgod.created"
	ChangeReplaced ChangeType = "greekgod.replaced"
	ChangePatched  ChangeType = "greekgod.patched"
	ChangeDeleted  ChangeType = "greekgod.deleted"
)

// ChangeEvent — полезная нагрузка outbox-сообщения об изменении записи.
type ChangeEvent struct {
	EventID    string     `json:"event_id"`
	Type       ChangeType `json:"type"`
	GreekGodID int64      `json:"greek_god_id"`
	// Record хранит состояние записи после изменения, для удаления это удалённое значение.
	Record     GreekGod  `json:"record"`
	OccurredAt time.Time `json:"occurred_at"`
}
