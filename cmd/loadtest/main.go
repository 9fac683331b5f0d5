// Команда loadtest гоняет конкурентных посетителей за одним товаром через gRPC
// и проверяет, что витрина не продала больше, чем было на складе.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	storefrontv1 "github.com/vladislavdragonenkov/storefront/api/storefront/v1"
)

const (
	defaultProduct = "prod_006"
	defaultQty     = 1
)

type loadMode string

const (
	// modeCheckout: каждый сценарий - новый посетитель, покупающий товар.
	modeCheckout loadMode = "checkout"
	// modeCheckoutCancel: успешный заказ сразу отменяется, остаток возвращается.
	modeCheckoutCancel loadMode = "checkout-cancel"
)

type config struct {
	addr        string
	total       int
	concurrency int
	timeout     time.Duration
	mode        loadMode
	productID   string
	qty         int32
	outputPath  string
}

func parseConfig(args []string, output io.Writer) (config, error) {
	var (
		cfg  config
		mode string
		qty  int
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	fs.IntVar(&cfg.total, "total", 200, "number of visitors to run")
	fs.IntVar(&cfg.concurrency, "concurrency", 50, "number of concurrent visitors")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-RPC timeout")
	fs.StringVar(&mode, "mode", string(modeCheckout), "load mode: checkout | checkout-cancel")
	fs.StringVar(&cfg.productID, "product", defaultProduct, "product id all visitors compete for")
	fs.IntVar(&qty, "qty", defaultQty, "units per checkout")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	var err error
	if cfg.mode, err = parseMode(mode); err != nil {
		return config{}, err
	}
	cfg.productID = strings.TrimSpace(cfg.productID)

	switch {
	case cfg.total <= 0:
		return config{}, errors.New("total must be > 0")
	case cfg.concurrency <= 0:
		return config{}, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return config{}, errors.New("timeout must be > 0")
	case qty <= 0 || qty > 1<<31-1:
		return config{}, errors.New("qty must be a positive int32")
	case cfg.productID == "":
		return config{}, errors.New("product is required")
	}
	cfg.qty = int32(qty)

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeCheckout, modeCheckoutCancel:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("load test failed")
	}

	logReport(log.StandardLogger(), result, cfg)
	if cfg.outputPath != "" {
		if err := writeReport(cfg.outputPath, result); err != nil {
			log.WithError(err).Fatal("failed to write report")
		}
	}

	if result.FailedScenarios > 0 || !result.Inventory.Consistent {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) (report, error) {
	conn, err := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return report{}, fmt.Errorf("create grpc client: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return runLoad(ctx, storefrontv1.NewStorefrontServiceClient(conn), cfg)
}

// runLoad запускает сценарии и сверяет остаток товара с числом продаж.
// Прогон должен идти на товаре, который параллельно никто не пополняет.
func runLoad(ctx context.Context, client storefrontClient, cfg config) (report, error) {
	initial, err := productStock(ctx, client, cfg)
	if err != nil {
		return report{}, fmt.Errorf("read initial stock: %w", err)
	}

	startedAt := time.Now()
	runID := uuid.NewString()[:8]
	col := newCollector()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				_, _ = runScenario(ctx, client, cfg, id, runID, col)
			}
		}()
	}

dispatch:
	for i := 0; i < cfg.total; i++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	result, err := col.buildReport(startedAt, time.Since(startedAt))
	if err != nil {
		return report{}, err
	}

	final, err := productStock(ctx, client, cfg)
	if err != nil {
		return result, fmt.Errorf("read final stock: %w", err)
	}
	result.Inventory.ProductID = cfg.productID
	result.Inventory.InitialStock = initial
	result.Inventory.FinalStock = final
	result.Inventory.Consistent = inventoryConsistent(result.Inventory, cfg)
	return result, nil
}

// inventoryConsistent проверяет отсутствие перепродажи.
func inventoryConsistent(inv inventoryReport, cfg config) bool {
	if inv.FinalStock < 0 {
		return false
	}
	if cfg.mode == modeCheckoutCancel {
		return inv.FinalStock == inv.InitialStock
	}
	return int64(inv.InitialStock)-int64(inv.FinalStock) == inv.Sold*int64(cfg.qty)
}

func writeReport(path string, result report) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func logReport(logger *log.Logger, result report, cfg config) {
	inv := result.Inventory
	logger.WithFields(log.Fields{
		"mode":         cfg.mode,
		"scenarios":    result.TotalScenarios,
		"failed":       result.FailedScenarios,
		"error_rate":   fmt.Sprintf("%.4f", result.ErrorRate),
		"rps":          fmt.Sprintf("%.2f", result.RPS),
		"p95_ms":       fmt.Sprintf("%.2f", result.ScenarioLatencyMs.P95),
		"product_id":   inv.ProductID,
		"stock_before": inv.InitialStock,
		"stock_after":  inv.FinalStock,
		"sold":         inv.Sold,
		"rejected":     inv.Rejected,
		"consistent":   inv.Consistent,
	}).Info("load test summary")

	for _, name := range result.methodNames() {
		stats := result.Methods[name]
		logger.WithFields(log.Fields{
			"method":     name,
			"calls":      stats.Calls,
			"failed":     stats.Failed,
			"error_rate": fmt.Sprintf("%.4f", stats.ErrorRate),
			"p95_ms":     fmt.Sprintf("%.2f", stats.LatencyMs.P95),
		}).Info("method summary")
	}
}
