package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const (
	envLogFormat = "STOREFRONT_LOG_FORMAT"
	envLogLevel  = "STOREFRONT_LOG_LEVEL"
)

type envLookup func(string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) error {
	format, _ := lookup(envLogFormat)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level := log.InfoLevel
	if raw, ok := lookup(envLogLevel); ok && strings.TrimSpace(raw) != "" {
		parsed, err := log.ParseLevel(strings.TrimSpace(raw))
		if err != nil {
			log.SetLevel(level)
			return err
		}
		level = parsed
	}
	log.SetLevel(level)
	return nil
}

func main() {
	cfg, warnings := app.LoadConfig()
	if err := setupLogger(os.LookupEnv); err != nil {
		log.WithError(err).Warn("некорректный уровень логирования, используем info")
	}
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(version.Fields()).WithFields(log.Fields{
		"grpc_addr":    cfg.GRPCAddr,
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"broker":       cfg.Broker,
	}).Info("запускаем storefront")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("storefront остановлен")
}
