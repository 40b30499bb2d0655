package app

import (
	"reflect"
	"testing"

	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/messaging/kafka"
)

func TestSplitBrokers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: nil},
		{input: " , ", want: nil},
		{input: "broker1:9092", want: []string{"broker1:9092"}},
		{input: "broker1:9092, broker2:9092 ,,", want: []string{"broker1:9092", "broker2:9092"}},
	}

	for _, tt := range tests {
		if got := splitBrokers(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitBrokers(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	producer, err := initKafkaProducer(" ", logger)
	if err != nil {
		t.Errorf("expected no error for empty brokers, got %v", err)
	}
	if producer != nil {
		t.Error("expected nil producer for empty brokers")
	}
}

func TestInitKafkaProducer_InvalidBrokers(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a non-existent broker")
	}
	logger := log.WithField("test", "kafka")

	producer, err := initKafkaProducer("127.0.0.1:1", logger)
	if err == nil {
		t.Error("expected error for unreachable broker")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestCloseKafka(t *testing.T) {
	logger := log.WithField("test", "kafka")

	closeKafka(nil, logger)

	mockProducer := mocks.NewSyncProducer(t, nil)
	closeKafka(kafka.NewProducerFromSync(mockProducer, logger), logger)
}
