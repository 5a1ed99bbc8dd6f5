// Package app wires configuration, storage, domain services, and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/velstadt/foodcart/internal/backoffice"
	"github.com/velstadt/foodcart/internal/domain/geo"
	"github.com/velstadt/foodcart/internal/domain/order"
	"github.com/velstadt/foodcart/internal/events"
	"github.com/velstadt/foodcart/internal/geocoder"
	"github.com/velstadt/foodcart/internal/handler"
	"github.com/velstadt/foodcart/internal/storage/postgres"
	redisstore "github.com/velstadt/foodcart/internal/storage/redis"
	"github.com/velstadt/foodcart/pkg/health"
	"github.com/velstadt/foodcart/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	restaurantRepo := postgres.NewRestaurantRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	placeRepo := postgres.NewPlaceRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Optional Redis hot cache for geocoded places.
	var placeCache geo.Cache
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return errors.Wrap(err, "parse redis url")
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()

		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		placeCache = redisstore.NewPlaceCache(client, cfg.Redis.TTL)
	}

	// Geocoding: external provider behind the memoizing coordinate store.
	var geocoderOpts []geocoder.Option
	if cfg.Geocoder.BaseURL != "" {
		geocoderOpts = append(geocoderOpts, geocoder.WithBaseURL(cfg.Geocoder.BaseURL))
	}
	geoClient := geocoder.NewClient(cfg.Geocoder.APIKey, geocoderOpts...)
	coordStore := geo.NewStore(geo.StoreConfig{TrimAddresses: cfg.Geo.TrimAddresses}, placeRepo, placeCache, geoClient)

	// Optional order event stream.
	var publisher order.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	// Domain services.
	orderService := order.NewService(order.ServiceConfig{PhoneRegion: cfg.PhoneRegion}, productRepo, orderRepo, publisher)
	backofficeService := backoffice.NewService(orderRepo, restaurantRepo, productRepo, coordStore)

	// HTTP handlers.
	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		productRepo,
		orderService,
		backofficeService,
		apikeyRepo,
		[]byte(cfg.APIKeyPepper),
	)
	apiRouter := h.Router()
	routeFinder := httpmiddleware.MakeRouteFinder(apiRouter)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", apiRouter)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "Api-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("foodcart-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
