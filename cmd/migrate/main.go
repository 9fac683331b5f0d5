package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envDSN         = "STOREFRONT_POSTGRES_DSN"
)

// migrator - часть *postgres.Store, нужная CLI.
type migrator interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	MigrationStatus(ctx context.Context) (int64, int, error)
	Migrations(ctx context.Context) ([]postgres.MigrationInfo, error)
}

func main() {
	var (
		direction string
		steps     int
		dsn       string
	)

	flag.StringVar(&direction, "direction", "up", "migration direction: up|down|status|list")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envDSN+", DATABASE_URL)")
	flag.Parse()

	dsn = resolveDSN(dsn, os.Getenv)
	if dsn == "" {
		fail("%s (or -dsn) is required", envDSN)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := run(ctx, store, direction, steps, os.Stdout); err != nil {
		fail("%v", err)
	}
}

func resolveDSN(flagValue string, getenv func(string) string) string {
	for _, candidate := range []string{flagValue, getenv(envDSN), getenv("DATABASE_URL")} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return ""
}

func run(ctx context.Context, m migrator, direction string, steps int, out io.Writer) error {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		if err := m.MigrateUp(ctx, steps); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		return printStatus(ctx, m, out, "migrate up ok")
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := m.MigrateDown(ctx, steps); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		return printStatus(ctx, m, out, "migrate down ok")
	case "status":
		return printStatus(ctx, m, out, "migration status")
	case "list":
		infos, err := m.Migrations(ctx)
		if err != nil {
			return fmt.Errorf("list migrations failed: %w", err)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED\tAPPLIED AT")
		for _, info := range infos {
			appliedAt := "-"
			if info.Applied {
				appliedAt = info.AppliedAt.Format(time.RFC3339)
			}
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", info.Version, info.Name, info.Applied, appliedAt)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported direction: %s (use up|down|status|list)", direction)
	}
}

func printStatus(ctx context.Context, m migrator, out io.Writer, prefix string) error {
	version, count, err := m.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s: version=%d applied=%d\n", prefix, version, count)
	return err
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
