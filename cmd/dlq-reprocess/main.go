// Команда dlq-reprocess перечитывает storefront.dlq и возвращает сообщения
// в рабочие topics. По умолчанию работает в режиме dry-run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
	defaultClientID    = "storefront-dlq-reprocess"
	brokersEnv         = "STOREFRONT_KAFKA_BROKERS"
)

type config struct {
	brokers     []string
	sourceTopic string
	// targetTopic пустой: outbox-события уходят в topic по типу агрегата,
	// сообщения consumer DLQ возвращаются в исходный topic.
	targetTopic string
	filter      replayFilter
	limit       int
	execute     bool
	idleTimeout time.Duration
}

// dlqConsumer - часть sarama.Consumer, которой хватает для чтения DLQ.
type dlqConsumer interface {
	Partitions(topic string) ([]int32, error)
	ConsumePartition(topic string, partition int32, offset int64) (sarama.PartitionConsumer, error)
	Close() error
}

// replayProducer реализуется *kafka.Producer.
type replayProducer interface {
	Publish(ctx context.Context, topic, key string, value []byte, headers ...sarama.RecordHeader) error
	Close() error
}

var openConsumer = func(brokers []string) (dlqConsumer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = defaultClientID
	cfg.Consumer.Return.Errors = true
	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return consumer, nil
}

var openProducer = func(brokers []string) (replayProducer, error) {
	producer, err := kafka.NewProducer(brokers, defaultClientID)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func parseConfig(args []string, getenv func(string) string, output io.Writer) (config, error) {
	var (
		brokersRaw    string
		eventTypesRaw string
		cfg           config
	)

	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: "+brokersEnv+")")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	fs.StringVar(&cfg.targetTopic, "target-topic", "", "override target topic (default: route by aggregate / original topic)")
	fs.StringVar(&eventTypesRaw, "event-type", "", "replay only these outbox event types, comma-separated (e.g. order.cancelled)")
	fs.StringVar(&cfg.filter.aggregateID, "aggregate", "", "replay only messages of this order or product id")
	fs.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max number of messages to scan")
	fs.BoolVar(&cfg.execute, "execute", false, "execute replay; default is dry-run")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = getenv(brokersEnv)
	}

	cfg.brokers = splitList(brokersRaw)
	cfg.sourceTopic = strings.TrimSpace(cfg.sourceTopic)
	cfg.targetTopic = strings.TrimSpace(cfg.targetTopic)
	cfg.filter.aggregateID = strings.TrimSpace(cfg.filter.aggregateID)
	cfg.filter.eventTypes = splitList(eventTypesRaw)

	switch {
	case len(cfg.brokers) == 0:
		return config{}, errors.New("kafka brokers are required (-brokers or " + brokersEnv + ")")
	case cfg.sourceTopic == "":
		return config{}, errors.New("source-topic is required")
	case cfg.targetTopic == cfg.sourceTopic:
		return config{}, errors.New("target-topic must differ from source-topic")
	case cfg.limit <= 0:
		return config{}, errors.New("limit must be > 0")
	case cfg.idleTimeout <= 0:
		return config{}, errors.New("idle-timeout must be > 0")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var items []string
	for _, chunk := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(chunk); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func run(ctx context.Context, cfg config) error {
	logger := log.WithFields(log.Fields{
		"source_topic": cfg.sourceTopic,
		"target_topic": cfg.targetTopic,
		"event_types":  strings.Join(cfg.filter.eventTypes, ","),
		"aggregate_id": cfg.filter.aggregateID,
		"execute":      cfg.execute,
	})
	logger.WithField("limit", cfg.limit).Info("starting dlq replay")

	consumer, err := openConsumer(cfg.brokers)
	if err != nil {
		return err
	}
	defer func() { _ = consumer.Close() }()

	var producer replayProducer
	if cfg.execute {
		if producer, err = openProducer(cfg.brokers); err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()
	}

	r := newReplayer(cfg.targetTopic, cfg.filter, producer, time.Now)
	if err := scan(ctx, consumer, cfg, r.handle); err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"scanned":  r.stats.scanned,
		"replayed": r.stats.replayed,
		"filtered": r.stats.filtered,
		"skipped":  r.stats.skipped,
	}).Info("dlq replay finished")
	return nil
}

// scan читает партиции source topic с самого начала, не больше cfg.limit
// сообщений суммарно.
func scan(ctx context.Context, consumer dlqConsumer, cfg config, handle func(context.Context, *sarama.ConsumerMessage) error) error {
	partitions, err := consumer.Partitions(cfg.sourceTopic)
	if err != nil {
		return fmt.Errorf("list partitions: %w", err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	remaining := cfg.limit
	for _, partition := range partitions {
		if remaining <= 0 {
			break
		}
		n, err := drainPartition(ctx, consumer, cfg, partition, remaining, handle)
		if err != nil {
			return fmt.Errorf("partition %d: %w", partition, err)
		}
		remaining -= n
	}
	return nil
}

// drainPartition останавливается на high watermark, по idle timeout или по лимиту.
func drainPartition(
	ctx context.Context,
	consumer dlqConsumer,
	cfg config,
	partition int32,
	limit int,
	handle func(context.Context, *sarama.ConsumerMessage) error,
) (int, error) {
	pc, err := consumer.ConsumePartition(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return 0, fmt.Errorf("consume: %w", err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(cfg.idleTimeout)
	defer idle.Stop()

	errs := pc.Errors()
	read := 0
	for read < limit {
		select {
		case <-ctx.Done():
			return read, ctx.Err()
		case <-idle.C:
			return read, nil
		case cerr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return read, cerr.Err
		case msg, ok := <-pc.Messages():
			if !ok {
				return read, nil
			}
			read++
			if err := handle(ctx, msg); err != nil {
				return read, err
			}
			if msg.Offset+1 >= pc.HighWaterMarkOffset() {
				return read, nil
			}
			idle.Reset(cfg.idleTimeout)
		}
	}
	return read, nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
