package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/lock"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// runtimeDependencies - инфраструктура и сервисы, собранные по Config.
type runtimeDependencies struct {
	store           domain.Store
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository
	locker          lock.Locker
	payments        domain.PaymentGateway

	catalog  *catalog.Service
	carts    *cart.Service
	checkout *checkout.Service
	guard    *idempotency.Guard
	health   *healthcheck.Handler

	closers []func() error
}

// Close освобождает подключения в обратном порядке.
func (d *runtimeDependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	d.closers = nil
	return errors.Join(errs...)
}

// initRuntimeDependencies поднимает хранилище, блокировки и доменные сервисы.
// При ошибке уже открытые подключения закрываются.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (_ *runtimeDependencies, err error) {
	deps := &runtimeDependencies{health: healthcheck.NewHandler(version.GetVersion())}
	defer func() {
		if err != nil {
			_ = deps.Close()
		}
	}()

	if err := initStorage(ctx, cfg, logger, deps); err != nil {
		return nil, err
	}
	if err := initLocker(ctx, cfg, logger, deps); err != nil {
		return nil, err
	}

	var paymentOpts []payment.MockOption
	if cfg.PaymentFailureRate > 0 {
		paymentOpts = append(paymentOpts, payment.WithFailureRate(cfg.PaymentFailureRate, 1))
	}
	deps.payments = payment.NewMockGateway(paymentOpts...)

	storeMetrics := metrics.NewStoreMetrics()
	deps.catalog = catalog.NewService(deps.store,
		catalog.WithLogger(logger.WithField("component", "catalog")),
		catalog.WithMetrics(storeMetrics),
	)
	deps.carts = cart.NewService(deps.store,
		cart.WithLocker(deps.locker),
		cart.WithLogger(logger.WithField("component", "cart-service")),
		cart.WithMetrics(storeMetrics),
	)
	deps.checkout = checkout.NewService(deps.store, deps.payments,
		checkout.WithLocker(deps.locker),
		checkout.WithLogger(logger.WithField("component", "checkout")),
		checkout.WithMetrics(storeMetrics),
	)
	deps.guard = idempotency.NewGuard(deps.idempotencyRepo,
		idempotency.WithTTL(cfg.IdempotencyTTL),
		idempotency.WithGuardLogger(logger.WithField("component", "idempotency")),
	)

	if cfg.SeedDemo {
		products := catalog.DemoProducts(nowUTC())
		if err := deps.catalog.Seed(ctx, products...); err != nil {
			return nil, fmt.Errorf("seed demo catalog: %w", err)
		}
		logger.WithField("products", len(products)).Info("demo catalog seeded")
	}
	return deps, nil
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry, deps *runtimeDependencies) error {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		store := memory.NewStore()
		deps.store = store
		deps.outboxRepo = store
		deps.idempotencyRepo = memory.NewIdempotencyRepository()
		deps.health.RegisterChecker("storage", healthcheck.NewChecker("storage", store.Ping))
		logger.Info("using in-memory storage")
		return nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return errors.New("postgres dsn is required for postgres storage driver")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		deps.closers = append(deps.closers, store.Close)
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		deps.store = store
		deps.outboxRepo = store
		deps.idempotencyRepo = postgres.NewIdempotencyRepository(store)
		deps.health.RegisterChecker("storage", healthcheck.NewChecker("storage", store.Ping))
		logger.Info("using postgres storage")
		return nil

	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initLocker(ctx context.Context, cfg Config, logger *log.Entry, deps *runtimeDependencies) error {
	switch cfg.LockDriver {
	case LockDriverLocal, "":
		deps.locker = lock.NewLocal()
		return nil

	case LockDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		deps.closers = append(deps.closers, client.Close)
		locker := lock.NewRedis(client, lock.WithTTL(cfg.LockTTL))
		if err := locker.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		deps.locker = locker
		deps.health.RegisterChecker("redis", healthcheck.NewChecker("redis", locker.Ping))
		logger.WithField("addr", cfg.RedisAddr).Info("using redis visitor locks")
		return nil

	default:
		return fmt.Errorf("unsupported lock driver %q", cfg.LockDriver)
	}
}
