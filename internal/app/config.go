package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// StorageDriverMemory хранит данные в памяти процесса.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит данные в PostgreSQL.
	StorageDriverPostgres = "postgres"

	// LockDriverLocal - блокировки покупателей внутри процесса.
	LockDriverLocal = "local"
	// LockDriverRedis - распределённые блокировки для нескольких реплик.
	LockDriverRedis = "redis"

	// BrokerLog пишет события outbox в лог.
	BrokerLog = "log"
	// BrokerKafka публикует события в Kafka.
	BrokerKafka = "kafka"
	// BrokerRabbitMQ публикует события в topic exchange RabbitMQ.
	BrokerRabbitMQ = "rabbitmq"
)

// Имена переменных окружения.
const (
	envGRPCAddr                    = "STOREFRONT_GRPC_ADDR"
	envHTTPAddr                    = "STOREFRONT_HTTP_ADDR"
	envMetricsAddr                 = "STOREFRONT_METRICS_ADDR"
	envBaseURL                     = "BASE_URL"
	envStorageDriver               = "STOREFRONT_STORAGE_DRIVER"
	envPostgresDSN                 = "STOREFRONT_POSTGRES_DSN"
	envDatabaseURL                 = "DATABASE_URL"
	envPostgresAutoMigrate         = "STOREFRONT_POSTGRES_AUTO_MIGRATE"
	envSeedDemo                    = "STOREFRONT_SEED_DEMO"
	envLockDriver                  = "STOREFRONT_LOCK_DRIVER"
	envRedisAddr                   = "STOREFRONT_REDIS_ADDR"
	envRedisPassword               = "STOREFRONT_REDIS_PASSWORD"
	envRedisDB                     = "STOREFRONT_REDIS_DB"
	envLockTTL                     = "STOREFRONT_LOCK_TTL"
	envBroker                      = "STOREFRONT_BROKER"
	envKafkaBrokers                = "STOREFRONT_KAFKA_BROKERS"
	envKafkaClientID               = "STOREFRONT_KAFKA_CLIENT_ID"
	envKafkaGroupID                = "STOREFRONT_KAFKA_GROUP_ID"
	envRestockConsumer             = "STOREFRONT_RESTOCK_CONSUMER"
	envRabbitURL                   = "STOREFRONT_RABBITMQ_URL"
	envRabbitExchange              = "STOREFRONT_RABBITMQ_EXCHANGE"
	envOutboxPollInterval          = "STOREFRONT_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "STOREFRONT_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "STOREFRONT_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay            = "STOREFRONT_OUTBOX_RETRY_DELAY"
	envIdempotencyTTL              = "STOREFRONT_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "STOREFRONT_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "STOREFRONT_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envPaymentFailureRate          = "STOREFRONT_PAYMENT_FAILURE_RATE"
	envShutdownTimeout             = "STOREFRONT_SHUTDOWN_TIMEOUT"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string
	BaseURL     string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	SeedDemo            bool

	LockDriver    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	Broker          string
	KafkaBrokers    []string
	KafkaClientID   string
	KafkaGroupID    string
	RestockConsumer bool
	RabbitURL       string
	RabbitExchange  string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	PaymentFailureRate float64
	ShutdownTimeout    time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:    ":50051",
		HTTPAddr:    ":3000",
		MetricsAddr: ":9090",
		BaseURL:     "http://localhost:3000",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		SeedDemo:            true,

		LockDriver: LockDriverLocal,
		LockTTL:    10 * time.Second,

		Broker:          BrokerLog,
		KafkaClientID:   "storefront",
		KafkaGroupID:    "storefront-restock",
		RestockConsumer: true,
		RabbitExchange:  "storefront.events",

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   100 * time.Millisecond,

		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Hour,
		IdempotencyCleanupBatchSize: 500,

		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate проверяет согласованность настроек и возвращает все найденные ошибки.
func (c Config) Validate() error {
	var errs []error
	for name, addr := range map[string]string{"grpc": c.GRPCAddr, "http": c.HTTPAddr, "metrics": c.MetricsAddr} {
		if strings.TrimSpace(addr) == "" {
			errs = append(errs, fmt.Errorf("%s address is required", name))
		}
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s (or %s) is required for postgres storage", envPostgresDSN, envDatabaseURL))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	switch c.LockDriver {
	case LockDriverLocal:
	case LockDriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("%s is required for redis locks", envRedisAddr))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported lock driver %q", c.LockDriver))
	}

	switch c.Broker {
	case BrokerLog:
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, fmt.Errorf("%s is required for kafka broker", envKafkaBrokers))
		}
	case BrokerRabbitMQ:
		if c.RabbitURL == "" {
			errs = append(errs, fmt.Errorf("%s is required for rabbitmq broker", envRabbitURL))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported broker %q", c.Broker))
	}

	if c.PaymentFailureRate < 0 || c.PaymentFailureRate > 1 {
		errs = append(errs, fmt.Errorf("payment failure rate must be within [0, 1], got %v", c.PaymentFailureRate))
	}
	return errors.Join(errs...)
}

// LoadConfig читает .env (если есть) и переменные окружения.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию,
// а описание проблемы попадает в warnings.
func LoadConfig(files ...string) (Config, []string) {
	var warnings []string
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		warnings = append(warnings, fmt.Sprintf("load .env: %v", err))
	}
	cfg, envWarnings := ConfigFromEnv(os.LookupEnv)
	return cfg, append(warnings, envWarnings...)
}

type envLookup func(string) (string, bool)

// ConfigFromEnv строит Config поверх DefaultConfig.
func ConfigFromEnv(lookup envLookup) (Config, []string) {
	cfg := DefaultConfig()
	r := &envReader{lookup: lookup}

	r.envString(envGRPCAddr, &cfg.GRPCAddr)
	r.envString(envHTTPAddr, &cfg.HTTPAddr)
	r.envString(envMetricsAddr, &cfg.MetricsAddr)
	r.envString(envBaseURL, &cfg.BaseURL)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	r.envString(envStorageDriver, &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	r.envString(envDatabaseURL, &cfg.PostgresDSN)
	r.envString(envPostgresDSN, &cfg.PostgresDSN)
	r.envBool(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	if cfg.StorageDriver == StorageDriverPostgres {
		// Демо-каталог нужен только для памяти; в базе им управляет оператор.
		cfg.SeedDemo = false
	}
	r.envBool(envSeedDemo, &cfg.SeedDemo)

	r.envString(envLockDriver, &cfg.LockDriver)
	cfg.LockDriver = strings.ToLower(cfg.LockDriver)
	r.envString(envRedisAddr, &cfg.RedisAddr)
	r.envString(envRedisPassword, &cfg.RedisPassword)
	r.envInt(envRedisDB, &cfg.RedisDB, func(v int) bool { return v >= 0 }, "must be >= 0")
	r.envDuration(envLockTTL, &cfg.LockTTL, positiveDuration, "must be > 0")

	r.envString(envBroker, &cfg.Broker)
	cfg.Broker = strings.ToLower(cfg.Broker)
	r.envList(envKafkaBrokers, &cfg.KafkaBrokers)
	r.envString(envKafkaClientID, &cfg.KafkaClientID)
	r.envString(envKafkaGroupID, &cfg.KafkaGroupID)
	r.envBool(envRestockConsumer, &cfg.RestockConsumer)
	r.envString(envRabbitURL, &cfg.RabbitURL)
	r.envString(envRabbitExchange, &cfg.RabbitExchange)

	r.envDuration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	r.envInt(envOutboxBatchSize, &cfg.OutboxBatchSize, positiveInt, "must be > 0")
	r.envInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positiveInt, "must be > 0")
	r.envDuration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, func(v time.Duration) bool { return v >= 0 }, "must be >= 0")

	r.envDuration(envIdempotencyTTL, &cfg.IdempotencyTTL, positiveDuration, "must be > 0")
	r.envDuration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0")
	r.envInt(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positiveInt, "must be > 0")

	r.envFloat(envPaymentFailureRate, &cfg.PaymentFailureRate, func(v float64) bool { return v >= 0 && v <= 1 }, "must be within [0, 1]")
	r.envDuration(envShutdownTimeout, &cfg.ShutdownTimeout, positiveDuration, "must be > 0")

	return cfg, r.warnings
}

func positiveInt(v int) bool { return v > 0 }

func positiveDuration(v time.Duration) bool { return v > 0 }

type envReader struct {
	lookup   envLookup
	warnings []string
}

func (r *envReader) value(key string) (string, bool) {
	raw, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (r *envReader) warn(key, raw string, err error) {
	r.warnings = append(r.warnings, fmt.Sprintf("%s=%q ignored: %v", key, raw, err))
}

func (r *envReader) envString(key string, dst *string) {
	if raw, ok := r.value(key); ok {
		*dst = raw
	}
}

func (r *envReader) envList(key string, dst *[]string) {
	raw, ok := r.value(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func (r *envReader) envBool(key string, dst *bool) {
	raw, ok := r.value(key)
	if !ok {
		return
	}
	v, err := parseBool(raw)
	if err != nil {
		r.warn(key, raw, err)
		return
	}
	*dst = v
}

func (r *envReader) envInt(key string, dst *int, valid func(int) bool, rule string) {
	raw, ok := r.value(key)
	if !ok {
		return
	}
	v, err := parseInt(raw, valid, rule)
	if err != nil {
		r.warn(key, raw, err)
		return
	}
	*dst = v
}

func (r *envReader) envDuration(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
	raw, ok := r.value(key)
	if !ok {
		return
	}
	v, err := parseDuration(raw, valid, rule)
	if err != nil {
		r.warn(key, raw, err)
		return
	}
	*dst = v
}

func (r *envReader) envFloat(key string, dst *float64, valid func(float64) bool, rule string) {
	raw, ok := r.value(key)
	if !ok {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && !valid(v) {
		err = errors.New(rule)
	}
	if err != nil {
		r.warn(key, raw, err)
		return
	}
	*dst = v
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(v) {
		return 0, errors.New(rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(v) {
		return 0, errors.New(rule)
	}
	return v, nil
}
