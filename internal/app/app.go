package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/greekgods/internal/health"
	"github.com/vladislavdragonenkov/greekgods/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/greekgods/internal/service/idempotency"
	"github.com/vladislavdragonenkov/greekgods/internal/service/outbox"
	restsvc "github.com/vladislavdragonenkov/greekgods/internal/service/rest"
	"github.com/vladislavdragonenkov/greekgods/internal/version"
)

// GRPCHealthService — имя сервиса в gRPC health protocol.
const GRPCHealthService = "greekgods.v1.GreekGods"

const readHeaderTimeout = 5 * time.Second

// App — собранный сервис: REST API, метрики, gRPC health и outbox worker.
type App struct {
	cfg      Config
	logger   *log.Entry
	deps     *Dependencies
	producer *kafka.Producer
	worker   *outbox.Worker
	cleanup  *idempotency.CleanupWorker

	restSrv    *http.Server
	restLis    net.Listener
	metricsSrv *http.Server
	metricsLis net.Listener
	grpcSrv    *grpc.Server
	grpcHealth *health.Server
	grpcLis    net.Listener
}

// Run собирает сервис и работает до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// New собирает зависимости и занимает порты. При ошибке всё уже созданное освобождается.
func New(cfg Config) (*App, error) {
	logger := log.WithField("component", "app")
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	deps, err := NewDependencies(cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, deps: deps}

	// Недоступная Kafka не мешает запуску: события пишутся в лог.
	a.producer, _ = initKafkaProducer(cfg.KafkaBrokers, logger)
	a.worker = a.newOutboxWorker()
	a.cleanup = idempotency.NewCleanupWorker(deps.Idempotency,
		idempotency.WithLogger(logger.WithField("layer", "idempotency")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithMetrics(deps.IdemMetrics),
	)

	if err := a.listen(); err != nil {
		a.closeListeners()
		closeKafka(a.producer, logger)
		return nil, err
	}
	return a, nil
}

// HTTPAddr возвращает фактический адрес REST API.
func (a *App) HTTPAddr() string { return a.restLis.Addr().String() }

// MetricsAddr возвращает фактический адрес сервера метрик.
func (a *App) MetricsAddr() string { return a.metricsLis.Addr().String() }

// GRPCAddr возвращает адрес gRPC health-сервера или пустую строку, если он отключён.
func (a *App) GRPCAddr() string {
	if a.grpcLis == nil {
		return ""
	}
	return a.grpcLis.Addr().String()
}

func (a *App) newOutboxWorker() *outbox.Worker {
	workerLogger := a.logger.WithField("layer", "outbox")

	var publisher, dlq domain.OutboxPublisher
	if a.producer != nil {
		publisher = kafka.NewOutboxPublisher(a.producer, a.cfg.KafkaTopic)
		dlq = kafka.NewDLQPublisher(a.producer, a.cfg.KafkaDLQTopic, a.cfg.KafkaTopic)
	} else {
		publisher = outbox.NewLogPublisher(workerLogger)
	}

	options := []outbox.Option{
		outbox.WithLogger(workerLogger),
		outbox.WithMetrics(a.deps.OutboxMetrics),
		outbox.WithPollInterval(a.cfg.OutboxPollInterval),
		outbox.WithBatchSize(a.cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(a.cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(a.cfg.OutboxRetryDelay),
	}
	if dlq != nil {
		options = append(options, outbox.WithDLQPublisher(dlq))
	}
	return outbox.NewWorker(a.deps.Outbox, publisher, options...)
}

func (a *App) listen() error {
	var err error

	a.restLis, err = net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", a.cfg.HTTPAddr, err)
	}
	router := restsvc.NewRouter(a.deps.Service, a.logger.WithField("layer", "rest"),
		restsvc.WithIdempotency(a.deps.Idempotency, a.cfg.IdempotencyTTL, a.deps.IdemMetrics))
	a.restSrv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	a.metricsLis, err = net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("listen metrics %s: %w", a.cfg.MetricsAddr, err)
	}
	a.metricsSrv = newMetricsServer(a.deps.Health)

	if a.cfg.GRPCAddr == "" {
		return nil
	}
	a.grpcLis, err = net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", a.cfg.GRPCAddr, err)
	}
	a.grpcSrv, a.grpcHealth = newGRPCHealthServer(a.logger)
	return nil
}

func (a *App) closeListeners() {
	for _, lis := range []net.Listener{a.restLis, a.metricsLis, a.grpcLis} {
		if lis != nil {
			_ = lis.Close()
		}
	}
}

// Run запускает серверы и worker. Возвращает ctx.Err() при штатной остановке или ошибку упавшего сервера.
func (a *App) Run(ctx context.Context) error {
	a.logger.WithFields(log.Fields{
		"http_addr":    a.HTTPAddr(),
		"metrics_addr": a.MetricsAddr(),
		"grpc_addr":    a.GRPCAddr(),
		"kafka":        a.producer != nil,
		"build":        version.String(),
	}).Info("запускаем greekgods-service")

	errCh := make(chan error, 3)
	go serveHTTP("rest", a.restSrv, a.restLis, errCh)
	go serveHTTP("metrics", a.metricsSrv, a.metricsLis, errCh)
	if a.grpcSrv != nil {
		go func() {
			if err := a.grpcSrv.Serve(a.grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		a.worker.Run(workerCtx)
	}()

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go a.cleanup.Run(cleanupCtx)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("получен сигнал остановки")
		runErr = ctx.Err()
	case err := <-errCh:
		a.logger.WithError(err).Error("server failed")
		runErr = err
	}

	a.shutdown(workerCancel, workerDone)
	return runErr
}

// shutdown останавливает компоненты в порядке, при котором события последних запросов успевают попасть в outbox и уйти в брокер.
func (a *App) shutdown(workerCancel context.CancelFunc, workerDone <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.grpcHealth != nil {
		a.grpcHealth.Shutdown()
	}
	shutdownHTTP(ctx, a.restSrv, a.logger)
	stopGRPC(ctx, a.grpcSrv, a.logger)
	shutdownOutboxWorker(ctx, workerCancel, workerDone, a.logger)
	closeKafka(a.producer, a.logger)
	shutdownHTTP(ctx, a.metricsSrv, a.logger)

	a.logger.Info("greekgods-service остановлен")
}

func serveHTTP(name string, srv *http.Server, lis net.Listener, errCh chan<- error) {
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("%s server: %w", name, err)
	}
}

// newMetricsServer собирает служебный HTTP-сервер: /metrics и health probes.
func newMetricsServer(healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	return &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
}

// newGRPCHealthServer создаёт gRPC-сервер со стандартным health protocol, reflection и метриками.
func newGRPCHealthServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(GRPCHealthService, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)

	reflection.Register(srv)
	grpcMetrics.InitializeMetrics(srv)
	return srv, healthServer
}

// shutdownHTTP аккуратно останавливает HTTP-сервер, дожидаясь текущих запросов.
func shutdownHTTP(ctx context.Context, srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
		_ = srv.Close()
	}
}

// stopGRPC пытается выполнить GracefulStop, по таймауту останавливает принудительно.
func stopGRPC(ctx context.Context, srv *grpc.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}

// shutdownOutboxWorker останавливает worker и ждёт финального прохода по outbox.
func shutdownOutboxWorker(ctx context.Context, cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("outbox worker did not stop before shutdown timeout")
	}
}
