package kafka

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
)

var errPublisherNotInitialized = errors.New("kafka outbox publisher is not initialized")

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер событий коллекции.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicGreekGodEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Topic возвращает topic назначения.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

// Publish заворачивает сообщение в Envelope. Ключом служит id записи: события одной записи попадают в одну партицию.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}

	envelope := Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}
	return p.producer.PublishEvent(p.topic, messageKey(event), envelope, map[string]string{
		HeaderEventType:     event.EventType,
		HeaderMessageID:     event.ID,
		HeaderAggregateType: event.AggregateType,
	})
}

// DLQPublisher отправляет сообщения, которые не удалось опубликовать, в dead letter topic.
// Payload передаётся как есть: его уже сформировал outbox worker.
type DLQPublisher struct {
	producer      *Producer
	topic         string
	originalTopic string
}

// NewDLQPublisher создаёт паблишер DLQ.
func NewDLQPublisher(producer *Producer, topic, originalTopic string) *DLQPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	if originalTopic == "" {
		originalTopic = TopicGreekGodEvents
	}
	return &DLQPublisher{
		producer:      producer,
		topic:         topic,
		originalTopic: originalTopic,
	}
}

func (p *DLQPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}

	return p.producer.Send(p.topic, messageKey(event), event.Payload, map[string]string{
		HeaderEventType:     event.EventType,
		HeaderMessageID:     event.ID,
		HeaderOriginalTopic: p.originalTopic,
		HeaderFailedAt:      time.Now().UTC().Format(time.RFC3339),
	})
}

func messageKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

var (
	_ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
	_ domain.OutboxPublisher = (*DLQPublisher)(nil)
)
