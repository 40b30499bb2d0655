package app

import (
	"testing"
	"time"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.GRPCAddr != ":50051" {
		t.Errorf("expected GRPCAddr :50051, got %s", cfg.GRPCAddr)
	}
	if !cfg.Seed {
		t.Error("expected Seed to be enabled by default")
	}
	if cfg.KafkaBrokers != "" {
		t.Errorf("expected Kafka to be disabled by default, got %q", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "greekgods.events" || cfg.KafkaDLQTopic != "greekgods.dlq" {
		t.Errorf("unexpected topics %s / %s", cfg.KafkaTopic, cfg.KafkaDLQTopic)
	}
	if cfg.OutboxPollInterval != time.Second {
		t.Errorf("unexpected OutboxPollInterval %s", cfg.OutboxPollInterval)
	}
	if cfg.OutboxBatchSize != 100 {
		t.Errorf("unexpected OutboxBatchSize %d", cfg.OutboxBatchSize)
	}
	if cfg.OutboxMaxAttempts != 3 {
		t.Errorf("unexpected OutboxMaxAttempts %d", cfg.OutboxMaxAttempts)
	}
	if cfg.OutboxRetryDelay != 50*time.Millisecond {
		t.Errorf("unexpected OutboxRetryDelay %s", cfg.OutboxRetryDelay)
	}
	if cfg.OutboxMaxPending <= 0 {
		t.Error("expected OutboxMaxPending to be > 0")
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("unexpected IdempotencyTTL %s", cfg.IdempotencyTTL)
	}
	if cfg.IdempotencyCleanupInterval != 10*time.Minute {
		t.Errorf("unexpected IdempotencyCleanupInterval %s", cfg.IdempotencyCleanupInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("unexpected ShutdownTimeout %s", cfg.ShutdownTimeout)
	}
}
