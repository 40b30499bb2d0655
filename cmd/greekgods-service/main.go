package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/app"
	"github.com/vladislavdragonenkov/greekgods/internal/version"
)

func main() {
	warnings := setupLogger(os.LookupEnv)
	cfg, configWarnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range append(warnings, configWarnings...) {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"seed":         cfg.Seed,
		"version":      version.GetVersion(),
	}).Info("запускаем greekgods-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}
}
