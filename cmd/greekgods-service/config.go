package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/app"
)

const (
	envHTTPAddr           = "GODS_HTTP_ADDR"
	envMetricsAddr        = "GODS_METRICS_ADDR"
	envGRPCAddr           = "GODS_GRPC_ADDR"
	envSeed               = "GODS_SEED"
	envKafkaBrokers       = "KAFKA_BROKERS"
	envKafkaTopic         = "GODS_KAFKA_TOPIC"
	envKafkaDLQTopic      = "GODS_KAFKA_DLQ_TOPIC"
	envOutboxPollInterval = "GODS_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize    = "GODS_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts  = "GODS_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay   = "GODS_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending   = "GODS_OUTBOX_MAX_PENDING"
	envIdempotencyTTL     = "GODS_IDEMPOTENCY_TTL"
	envIdempotencyCleanup = "GODS_IDEMPOTENCY_CLEANUP_INTERVAL"
	envShutdownTimeout    = "GODS_SHUTDOWN_TIMEOUT"
	envLogLevel           = "GODS_LOG_LEVEL"
	envLogFormat          = "GODS_LOG_FORMAT"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования. Некорректные значения дают предупреждение.
func setupLogger(lookup envLookup) []string {
	var warnings []string

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if v, ok := lookup(envLogFormat); ok && strings.EqualFold(strings.TrimSpace(v), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}

	log.SetLevel(log.InfoLevel)
	if v, ok := lookup(envLogLevel); ok && strings.TrimSpace(v) != "" {
		level, err := log.ParseLevel(strings.TrimSpace(v))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s=%q: %v", envLogLevel, v, err))
		} else {
			log.SetLevel(level)
		}
	}
	return warnings
}

// readConfigFromEnv собирает app.Config из окружения. Невалидное значение оставляет default и добавляет предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q, using default: %v", key, value, err))
	}

	if v, ok := lookup(envHTTPAddr); ok && strings.TrimSpace(v) != "" {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(v) != "" {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	// Пустое значение явно отключает gRPC health-сервер.
	if v, ok := lookup(envGRPCAddr); ok {
		cfg.GRPCAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envSeed); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(envSeed, v, err)
		} else {
			cfg.Seed = parsed
		}
	}

	if v, ok := lookup(envKafkaBrokers); ok {
		cfg.KafkaBrokers = strings.TrimSpace(v)
	}
	if v, ok := lookup(envKafkaTopic); ok && strings.TrimSpace(v) != "" {
		cfg.KafkaTopic = strings.TrimSpace(v)
	}
	if v, ok := lookup(envKafkaDLQTopic); ok && strings.TrimSpace(v) != "" {
		cfg.KafkaDLQTopic = strings.TrimSpace(v)
	}

	positiveDuration := func(d time.Duration) bool { return d > 0 }
	nonNegativeDuration := func(d time.Duration) bool { return d >= 0 }
	positiveInt := func(n int) bool { return n > 0 }
	nonNegativeInt := func(n int) bool { return n >= 0 }

	if v, ok := lookup(envOutboxPollInterval); ok {
		if parsed, err := parseDuration(v, positiveDuration, "must be > 0"); err != nil {
			warn(envOutboxPollInterval, v, err)
		} else {
			cfg.OutboxPollInterval = parsed
		}
	}
	if v, ok := lookup(envOutboxBatchSize); ok {
		if parsed, err := parseInt(v, positiveInt, "must be > 0"); err != nil {
			warn(envOutboxBatchSize, v, err)
		} else {
			cfg.OutboxBatchSize = parsed
		}
	}
	if v, ok := lookup(envOutboxMaxAttempts); ok {
		if parsed, err := parseInt(v, positiveInt, "must be > 0"); err != nil {
			warn(envOutboxMaxAttempts, v, err)
		} else {
			cfg.OutboxMaxAttempts = parsed
		}
	}
	if v, ok := lookup(envOutboxRetryDelay); ok {
		if parsed, err := parseDuration(v, nonNegativeDuration, "must be >= 0"); err != nil {
			warn(envOutboxRetryDelay, v, err)
		} else {
			cfg.OutboxRetryDelay = parsed
		}
	}
	if v, ok := lookup(envOutboxMaxPending); ok {
		if parsed, err := parseInt(v, nonNegativeInt, "must be >= 0"); err != nil {
			warn(envOutboxMaxPending, v, err)
		} else {
			cfg.OutboxMaxPending = parsed
		}
	}
	if v, ok := lookup(envIdempotencyTTL); ok {
		if parsed, err := parseDuration(v, positiveDuration, "must be > 0"); err != nil {
			warn(envIdempotencyTTL, v, err)
		} else {
			cfg.IdempotencyTTL = parsed
		}
	}
	if v, ok := lookup(envIdempotencyCleanup); ok {
		if parsed, err := parseDuration(v, positiveDuration, "must be > 0"); err != nil {
			warn(envIdempotencyCleanup, v, err)
		} else {
			cfg.IdempotencyCleanupInterval = parsed
		}
	}
	if v, ok := lookup(envShutdownTimeout); ok {
		if parsed, err := parseDuration(v, positiveDuration, "must be > 0"); err != nil {
			warn(envShutdownTimeout, v, err)
		} else {
			cfg.ShutdownTimeout = parsed
		}
	}

	return cfg, warnings
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", value)
	}
}

func parseInt(value string, valid func(int) bool, constraint string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if !valid(parsed) {
		return 0, fmt.Errorf("%d %s", parsed, constraint)
	}
	return parsed, nil
}

func parseDuration(value string, valid func(time.Duration) bool, constraint string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if !valid(parsed) {
		return 0, fmt.Errorf("%s %s", parsed, constraint)
	}
	return parsed, nil
}
