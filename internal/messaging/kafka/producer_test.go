package kafka

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func newTestProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()
	mockProducer := mocks.NewSyncProducer(t, nil)
	return NewProducerFromSync(mockProducer, log.WithField("component", "kafka-producer-test")), mockProducer
}

func headerValue(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishEvent(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicGreekGodEvents {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "16" {
			return errors.New("unexpected key " + string(key))
		}
		if headerValue(msg, HeaderEventType) != "greekgod.created" {
			return errors.New("missing event type header")
		}
		return nil
	})

	err := producer.PublishEvent(TopicGreekGodEvents, "16", map[string]any{"name": "Pan"}, map[string]string{
		HeaderEventType: "greekgod.created",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishEvent(TopicGreekGodEvents, "1", map[string]any{"name": "Zeus"}, nil)
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	if err := producer.PublishEvent(TopicGreekGodEvents, "1", make(chan int), nil); err == nil {
		t.Fatal("expected marshal error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewConfig(t *testing.T) {
	config := NewConfig("greekgods-service")

	if config.ClientID != "greekgods-service" {
		t.Errorf("expected client id greekgods-service, got %s", config.ClientID)
	}
	if !config.Producer.Idempotent {
		t.Error("producer must be idempotent")
	}
	if config.Producer.RequiredAcks != sarama.WaitForAll {
		t.Errorf("expected acks=all, got %v", config.Producer.RequiredAcks)
	}
	if config.Net.MaxOpenRequests != 1 {
		t.Errorf("idempotent producer requires MaxOpenRequests=1, got %d", config.Net.MaxOpenRequests)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("config must be valid: %v", err)
	}
}
