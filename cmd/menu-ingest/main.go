// Command menu-ingest bulk-loads restaurant menu availability from
// gzip-compressed CSV exports. Each line is "restaurant_id,product_id,available".
//
// Files are streamed concurrently; a bloom filter drops duplicate
// (restaurant, product) pairs so the first file naming a pair wins. List the
// freshest export first.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/velstadt/foodcart/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	batchSize     = 1_000
	progressEvery = 1_000_000
)

// menuRow is one parsed availability fact.
type menuRow struct {
	restaurantID string
	productID    string
	available    bool
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no export files given: pass one or more .gz files, freshest first")
		os.Exit(1)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("menu ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("menu ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	rows := make(chan menuRow, 4*batchSize)

	g, ctx := errgroup.WithContext(ctx)

	// One reader per export file.
	readers, readerCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		readers.Go(streamExport(readerCtx, i, f, rows))
	}
	g.Go(func() error {
		defer close(rows)
		return readers.Wait()
	})

	// Single writer: the bloom filter needs no locking and batches stay
	// ordered.
	g.Go(func() error {
		return writeRows(ctx, pool, rows)
	})

	return g.Wait()
}

// streamExport parses one gzip CSV file and sends valid rows to out.
func streamExport(ctx context.Context, idx int, path string, out chan<- menuRow) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var total, skipped uint64
		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}

			total++
			if total%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.Int("file", idx+1),
					slog.Uint64("lines", total),
				)
			}

			row, ok := parseLine(scanner.Text())
			if !ok {
				skipped++
				continue
			}

			select {
			case out <- row:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("file complete",
			slog.Int("file", idx+1),
			slog.Uint64("lines", total),
			slog.Uint64("skipped", skipped),
		)
		return nil
	}
}

// parseLine parses "restaurant_id,product_id,available". Header lines and
// anything malformed is skipped.
func parseLine(line string) (menuRow, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "restaurant_id,") {
		return menuRow{}, false
	}

	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return menuRow{}, false
	}
	restaurantID := strings.TrimSpace(parts[0])
	productID := strings.TrimSpace(parts[1])
	if restaurantID == "" || productID == "" {
		return menuRow{}, false
	}

	var available bool
	switch strings.ToLower(strings.TrimSpace(parts[2])) {
	case "true", "1", "t":
		available = true
	case "false", "0", "f":
		available = false
	default:
		return menuRow{}, false
	}

	return menuRow{restaurantID: restaurantID, productID: productID, available: available}, true
}

const upsertAvailabilitySQL = `
INSERT INTO restaurant_menu_items (restaurant_id, product_id, available)
VALUES ($1, $2, $3)
ON CONFLICT (restaurant_id, product_id) DO UPDATE SET available = EXCLUDED.available
`

// writeRows deduplicates incoming rows and upserts them in batches.
func writeRows(ctx context.Context, pool *pgxpool.Pool, rows <-chan menuRow) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	batch := &pgx.Batch{}
	var written uint64

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "flush batch")
		}
		written += uint64(batch.Len())
		batch = &pgx.Batch{}
		return nil
	}

	for row := range rows {
		key := row.restaurantID + "\x00" + row.productID
		if seen.TestString(key) {
			continue
		}
		seen.AddString(key)

		batch.Queue(upsertAvailabilitySQL, row.restaurantID, row.productID, row.available)
		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	slog.Info("availability rows written", slog.Uint64("count", written))
	return nil
}
