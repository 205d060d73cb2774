// Command seed-db loads the catalog from a JSON file, writes the default
// site settings, and provisions an admin API key. It is idempotent: every
// write is an upsert keyed on a natural identifier.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gkpcrackers/storefront/internal/domain/auth"
	"github.com/gkpcrackers/storefront/internal/domain/settings"
	"github.com/gkpcrackers/storefront/internal/repository"
)

type productJSON struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Brand          string          `json:"brand"`
	MRP            decimal.Decimal `json:"mrp"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Stock          int             `json:"stock"`
	ImageURL       string          `json:"image_url"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or GKP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or GKP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("GKP_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or GKP_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("GKP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedSettings(ctx, pool); err != nil {
		return errors.Wrap(err, "seed settings")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const (
	upsertCategoryByNameSQL = `INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertBrandByNameSQL = `INSERT INTO brands (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertProductByCodeSQL = `INSERT INTO products
		(code, name, image_url, mrp, retail_price, wholesale_price, stock, category_id, brand_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, NULLIF($9, '')::uuid, TRUE)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name, image_url = EXCLUDED.image_url, mrp = EXCLUDED.mrp,
			retail_price = EXCLUDED.retail_price, wholesale_price = EXCLUDED.wholesale_price,
			stock = EXCLUDED.stock, category_id = EXCLUDED.category_id,
			brand_id = EXCLUDED.brand_id, active = TRUE`

	upsertAPIKeySQL = `INSERT INTO api_keys (key_hash, name, scopes, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (key_hash) DO UPDATE SET
			name = EXCLUDED.name, scopes = EXCLUDED.scopes, active = TRUE`
)

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	categoryIDs := make(map[string]string)
	brandIDs := make(map[string]string)

	for _, p := range products {
		categoryID, err := resolveNamed(ctx, pool, upsertCategoryByNameSQL, p.Category, categoryIDs)
		if err != nil {
			return errors.Wrapf(err, "upsert category %s", p.Category)
		}
		brandID, err := resolveNamed(ctx, pool, upsertBrandByNameSQL, p.Brand, brandIDs)
		if err != nil {
			return errors.Wrapf(err, "upsert brand %s", p.Brand)
		}

		_, err = pool.Exec(ctx, upsertProductByCodeSQL,
			p.Code, p.Name, p.ImageURL, p.MRP, p.RetailPrice, p.WholesalePrice,
			p.Stock, categoryID, brandID,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Code)
		}

		slog.Info("upserted product", slog.String("code", p.Code), slog.String("name", p.Name))
	}

	return nil
}

// resolveNamed upserts a named row (category or brand) once and caches the
// returned id for later products. An empty name maps to no reference.
func resolveNamed(ctx context.Context, pool *pgxpool.Pool, query, name string, cache map[string]string) (string, error) {
	if name == "" {
		return "", nil
	}
	if id, ok := cache[name]; ok {
		return id, nil
	}
	var id string
	if err := pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return "", err
	}
	cache[name] = id
	return id, nil
}

// seedSettings writes the default settings rows, leaving any existing
// admin-edited values untouched.
func seedSettings(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding default site settings")

	repo := repository.NewSettingsRepository(pool)
	current, err := repo.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load settings")
	}
	// Load already materializes stored rows over defaults; saving the merge
	// persists defaults for keys that were missing.
	if err := repo.Save(ctx, current); err != nil {
		return errors.Wrap(err, "save settings")
	}

	defaults := settings.Defaults()
	slog.Info("settings ready", slog.String("store", defaults.StoreName))
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	keyHash := auth.HashKey(apiKey, []byte(pepper))

	_, err := pool.Exec(ctx, upsertAPIKeySQL, keyHash, "Admin key", []string{auth.ScopeAdmin})
	if err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("name", "Admin key"))
	return nil
}
