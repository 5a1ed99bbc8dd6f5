// Command seed-db loads restaurants, products, menu availability, and a
// back-office API key into the database. Safe to re-run: everything is
// upserted.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/velstadt/foodcart/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Special     bool            `json:"special_status"`
	Description string          `json:"description"`
}

type restaurantJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	ContactPhone string   `json:"contact_phone"`
	Menu         []string `json:"menu"`
}

func main() {
	var (
		databaseURL     string
		productsFile    string
		restaurantsFile string
		apiKey          string
		apiKeyPepper    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&restaurantsFile, "restaurants-file", "db/seed/restaurants.json", "path to restaurants JSON file")
	flag.StringVar(&apiKey, "api-key", "", "back-office API key to seed (or FOODCART_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or FOODCART_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("FOODCART_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or FOODCART_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("FOODCART_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, restaurantsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, restaurantsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedRestaurants(ctx, pool, restaurantsFile); err != nil {
		return errors.Wrap(err, "seed restaurants")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, name, price, category, image, special, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	category = EXCLUDED.category,
	image = EXCLUDED.image,
	special = EXCLUDED.special,
	description = EXCLUDED.description
`

func seedProducts(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading products file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Price, p.Category, p.Image, p.Special, p.Description)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

const upsertRestaurantSQL = `
INSERT INTO restaurants (id, name, address, contact_phone)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	contact_phone = EXCLUDED.contact_phone
`

const upsertMenuItemSQL = `
INSERT INTO restaurant_menu_items (restaurant_id, product_id, available)
VALUES ($1, $2, TRUE)
ON CONFLICT (restaurant_id, product_id) DO UPDATE SET available = TRUE
`

func seedRestaurants(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading restaurants file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read restaurants file")
	}

	var restaurants []restaurantJSON
	if err := json.Unmarshal(data, &restaurants); err != nil {
		return errors.Wrap(err, "parse restaurants JSON")
	}

	slog.Info("upserting restaurants", slog.Int("count", len(restaurants)))

	for _, r := range restaurants {
		_, err := pool.Exec(ctx, upsertRestaurantSQL, r.ID, r.Name, r.Address, r.ContactPhone)
		if err != nil {
			return errors.Wrapf(err, "upsert restaurant %s", r.ID)
		}
		for _, productID := range r.Menu {
			if _, err := pool.Exec(ctx, upsertMenuItemSQL, r.ID, productID); err != nil {
				return errors.Wrapf(err, "upsert menu item %s/%s", r.ID, productID)
			}
		}
		slog.Info("upserted restaurant",
			slog.String("id", r.ID),
			slog.String("name", r.Name),
			slog.Int("menu_items", len(r.Menu)),
		)
	}

	return nil
}

const upsertAPIKeySQL = `
INSERT INTO api_keys (id, key_hash, name, scopes, active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	key_hash = EXCLUDED.key_hash,
	name = EXCLUDED.name,
	scopes = EXCLUDED.scopes,
	active = EXCLUDED.active
`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", keyHash, "Default back-office key", []string{"backoffice"}, true)
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
