// Package app собирает сервис витрины: хранилище, доменные сервисы,
// gRPC и REST API, outbox worker и фоновые задачи.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	storefrontv1 "github.com/vladislavdragonenkov/storefront/api/storefront/v1"
	"github.com/vladislavdragonenkov/storefront/internal/httpapi"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Run запускает сервис и блокируется до отмены ctx или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close dependencies")
		}
	}()

	publishers, err := initPublishers(cfg, logger)
	if err != nil {
		return err
	}
	defer publishers.Close(logger)

	// Фоновые задачи живут до остановки серверов.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	var bg sync.WaitGroup
	defer func() {
		stopBackground()
		bg.Wait()
	}()

	workerOpts := []outbox.Option{
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	}
	if publishers.dlq != nil {
		workerOpts = append(workerOpts, outbox.WithDLQPublisher(publishers.dlq))
	}
	worker := outbox.NewWorker(deps.outboxRepo, publishers.events, workerOpts...)
	cleanup := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	bg.Add(2)
	go func() {
		defer bg.Done()
		worker.Run(bgCtx)
	}()
	go func() {
		defer bg.Done()
		cleanup.Run(bgCtx)
	}()

	consumer, err := startRestockConsumer(bgCtx, cfg, deps.catalog, publishers, logger)
	if err != nil {
		return err
	}
	if consumer != nil {
		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop restock consumer")
			}
		}()
	}

	grpcServer, healthServer := newGRPCServer(deps, logger)
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	apiLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		return err
	}

	apiHandler := httpapi.NewHandler(deps.catalog, deps.carts, deps.checkout,
		httpapi.WithIdempotency(deps.guard),
		httpapi.WithBaseURL(cfg.BaseURL),
		httpapi.WithReadiness(deps.health.Ready),
		httpapi.WithLogger(logger.WithField("component", "http")),
	)
	apiSrv := &http.Server{
		Handler:           httpapi.NewRouter(apiHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, deps.health)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()
	go func() {
		logger.Infof("REST API слушает %s", apiLis.Addr())
		if err := apiSrv.Serve(apiLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := func() {
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(cfg.ShutdownTimeout):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		stop()
		return ctx.Err()
	case err := <-errCh:
		stop()
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func newGRPCServer(deps *runtimeDependencies, logger *log.Entry) (*grpc.Server, *health.Server) {
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

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	service := grpcsvc.NewStorefrontService(deps.catalog, deps.carts, deps.checkout, deps.guard, logger.WithField("layer", "grpc"))
	storefrontv1.RegisterStorefrontServiceServer(grpcServer, service)
	grpcMetrics.InitializeMetrics(grpcServer)

	// reflection для grpcurl и нагрузочного теста
	reflection.Register(grpcServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	return grpcServer, healthServer
}
