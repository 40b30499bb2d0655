package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// Topics по умолчанию.
const (
	TopicGreekGodEvents  = "greekgods.events"
	TopicDeadLetterQueue = "greekgods.dlq"
)

// Заголовки Kafka-сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderMessageID     = "x-message-id"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOriginalTopic = "x-original-topic"
	HeaderFailedAt      = "x-failed-at"
)

// Envelope — формат сообщения в topic событий коллекции.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// DecodeEnvelope разбирает значение Kafka-сообщения.
func DecodeEnvelope(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return env, nil
}
