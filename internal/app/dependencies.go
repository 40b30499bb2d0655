package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/greekgods/internal/health"
	"github.com/vladislavdragonenkov/greekgods/internal/metrics"
	"github.com/vladislavdragonenkov/greekgods/internal/service/greekgods"
	"github.com/vladislavdragonenkov/greekgods/internal/storage/memory"
	"github.com/vladislavdragonenkov/greekgods/internal/version"
)

// Dependencies содержит внутренние компоненты сервиса, не зависящие от сети.
type Dependencies struct {
	Repo          *memory.GreekGodRepository
	Outbox        *memory.OutboxRepository
	Service       *greekgods.Service
	Idempotency   *memory.IdempotencyRepository
	APIMetrics    *metrics.APIMetrics
	OutboxMetrics *metrics.OutboxMetrics
	IdemMetrics   *metrics.IdempotencyMetrics
	Health        *healthcheck.Handler
	Logger        *log.Entry
}

// NewDependencies собирает хранилища, прикладной сервис, метрики и health-проверки.
func NewDependencies(cfg Config, registerer prometheus.Registerer, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	var seed []domain.GreekGod
	if cfg.Seed {
		seed = domain.SeedGreekGods()
	}
	repo, err := memory.NewGreekGodRepository(seed)
	if err != nil {
		return nil, fmt.Errorf("init greek god repository: %w", err)
	}

	outboxRepo := memory.NewOutboxRepository()
	apiMetrics := metrics.NewAPIMetricsWithRegisterer(registerer)

	svc := greekgods.NewService(
		repo,
		greekgods.WithOutbox(outboxRepo),
		greekgods.WithMetrics(apiMetrics),
		greekgods.WithLogger(logger.WithField("layer", "service")),
	)

	health := healthcheck.NewHandler(version.GetVersion(), version.GetCommit())
	health.RegisterChecker("store", healthcheck.NewStoreChecker(repo))
	health.RegisterChecker("outbox", healthcheck.NewOutboxChecker(outboxRepo, cfg.OutboxMaxPending, 0))

	logger.WithFields(log.Fields{
		"seeded":  len(seed),
		"next_id": repo.NextID(),
	}).Info("collection initialized")

	return &Dependencies{
		Repo:          repo,
		Outbox:        outboxRepo,
		Service:       svc,
		Idempotency:   memory.NewIdempotencyRepository(),
		APIMetrics:    apiMetrics,
		OutboxMetrics: metrics.NewOutboxMetricsWithRegisterer(registerer),
		IdemMetrics:   metrics.NewIdempotencyMetricsWithRegisterer(registerer),
		Health:        health,
		Logger:        logger,
	}, nil
}
