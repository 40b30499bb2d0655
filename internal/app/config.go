package app

import "time"

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string
	MetricsAddr string
	// GRPCAddr задаёт адрес gRPC health-сервера, пустая строка отключает его.
	GRPCAddr string

	// Seed заполняет коллекцию начальными записями при старте.
	Seed bool

	// KafkaBrokers: брокеры через запятую. Пустая строка отключает Kafka.
	KafkaBrokers  string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending задаёт порог backlog, после которого /healthz сообщает degraded. 0 отключает проверку.
	OutboxMaxPending int

	// IdempotencyTTL: сколько хранится ответ на POST с Idempotency-Key.
	IdempotencyTTL             time.Duration
	IdempotencyCleanupInterval time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		GRPCAddr:           ":50051",
		Seed:               true,
		KafkaTopic:         "greekgods.events",
		KafkaDLQTopic:      "greekgods.dlq",
		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   50 * time.Millisecond,
		OutboxMaxPending:   1000,

		IdempotencyTTL:             24 * time.Hour,
		IdempotencyCleanupInterval: 10 * time.Minute,

		ShutdownTimeout: 5 * time.Second,
	}
}
