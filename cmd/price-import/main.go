// Command price-import loads supplier price sheets (gzipped CSV) and
// updates catalog prices and stock in bulk. Sheets are parsed concurrently;
// rows are merged by product code with later sheets (lexicographic file
// order) winning, then written as a single pass of upserts.
//
// Sheet format, one row per product, no header:
//
//	code,mrp,retail_price,wholesale_price,stock
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gkpcrackers/storefront/internal/repository"
)

// priceRow is one parsed sheet row.
type priceRow struct {
	code      string
	mrp       decimal.Decimal
	retail    decimal.Decimal
	wholesale decimal.Decimal
	stock     int
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz price sheets")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("price import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("price import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list price sheets")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.csv.gz price sheets in %s", dataDir)
	}
	sort.Strings(files)

	slog.Info("parsing price sheets", slog.Int("files", len(files)))

	sheets := make([][]priceRow, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseSheet(gctx, i, f, sheets))
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "parse price sheets")
	}

	// Merge by code; later files override earlier ones.
	merged := make(map[string]priceRow)
	for _, rows := range sheets {
		for _, row := range rows {
			merged[row.code] = row
		}
	}

	slog.Info("merged price rows", slog.Int("count", len(merged)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writePrices(ctx, pool, merged)
}

func parseSheet(ctx context.Context, idx int, path string, sheets [][]priceRow) func() error {
	return func() error {
		rows, err := readSheet(ctx, path)
		if err != nil {
			return errors.Wrapf(err, "read sheet %s", path)
		}
		slog.Info("parsed sheet",
			slog.String("file", filepath.Base(path)),
			slog.Int("rows", len(rows)),
		)
		sheets[idx] = rows
		return nil
	}
}

// readSheet streams one gzipped CSV file. Malformed rows abort the import:
// a half-applied price sheet is worse than none.
func readSheet(ctx context.Context, path string) ([]priceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = 5
	r.ReuseRecord = true

	var rows []priceRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv record")
		}

		row, err := parseRow(record)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rows = append(rows, row)
	}
}

func parseRow(record []string) (priceRow, error) {
	if record[0] == "" {
		return priceRow{}, errors.New("empty product code")
	}
	mrp, err := decimal.NewFromString(record[1])
	if err != nil {
		return priceRow{}, errors.Wrap(err, "parse mrp")
	}
	retail, err := decimal.NewFromString(record[2])
	if err != nil {
		return priceRow{}, errors.Wrap(err, "parse retail price")
	}
	wholesale, err := decimal.NewFromString(record[3])
	if err != nil {
		return priceRow{}, errors.Wrap(err, "parse wholesale price")
	}
	stock, err := strconv.Atoi(record[4])
	if err != nil {
		return priceRow{}, errors.Wrap(err, "parse stock")
	}
	if mrp.IsNegative() || retail.IsNegative() || wholesale.IsNegative() || stock < 0 {
		return priceRow{}, errors.New("negative price or stock")
	}
	return priceRow{
		code:      record[0],
		mrp:       mrp,
		retail:    retail,
		wholesale: wholesale,
		stock:     stock,
	}, nil
}

const updatePricesSQL = `UPDATE products SET
	mrp = $2, retail_price = $3, wholesale_price = $4, stock = $5
	WHERE code = $1`

// writePrices applies the merged rows. Codes with no matching product are
// counted and reported, not treated as failures: sheets routinely cover
// items the store does not carry.
func writePrices(ctx context.Context, pool *pgxpool.Pool, merged map[string]priceRow) error {
	slog.Info("writing prices to database", slog.Int("count", len(merged)))

	var written, unknown int
	for _, row := range merged {
		tag, err := pool.Exec(ctx, updatePricesSQL,
			row.code, row.mrp, row.retail, row.wholesale, row.stock,
		)
		if err != nil {
			return errors.Wrapf(err, "update prices for %s", row.code)
		}
		if tag.RowsAffected() == 0 {
			unknown++
			continue
		}
		written++
		if written%100 == 0 {
			slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(merged)))
		}
	}

	slog.Info("prices written", slog.Int("updated", written), slog.Int("unknown_codes", unknown))
	return nil
}
