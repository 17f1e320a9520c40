package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pricegrid/gtin-price-compare/internal/aggregator"
	"github.com/pricegrid/gtin-price-compare/internal/amazon"
	"github.com/pricegrid/gtin-price-compare/internal/api/handlers"
	"github.com/pricegrid/gtin-price-compare/internal/api/middleware"
	"github.com/pricegrid/gtin-price-compare/internal/config"
	"github.com/pricegrid/gtin-price-compare/internal/ebay"
	"github.com/pricegrid/gtin-price-compare/internal/marketplace"
	"github.com/pricegrid/gtin-price-compare/internal/relevance"
	"github.com/pricegrid/gtin-price-compare/internal/store"
	"github.com/pricegrid/gtin-price-compare/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and cache janitor",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := buildStore(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer st.Close()

	clients := buildClients(cfg, log)
	if len(clients) == 0 {
		log.Warn("no marketplace credentials configured, every lookup will record a no_apis failure")
	}

	agg := aggregator.New(st, clients,
		aggregator.WithLogger(log.With("component", "aggregator")),
		aggregator.WithFilter(relevance.NewFilter(cfg.Relevance.MinKeywordMatches)),
		aggregator.WithSearchLimit(cfg.Search.Limit),
		aggregator.WithSearchTimeout(cfg.Search.Timeout),
		aggregator.WithCacheTTL(cfg.Cache.TTL()),
		aggregator.WithFailureRetention(cfg.Failures.DedupWindow, cfg.Failures.MaxRecords),
	)

	janitor, err := aggregator.NewJanitor(
		st, cfg.Cache.CleanupInterval, log.With("component", "janitor"),
	)
	if err != nil {
		return fmt.Errorf("creating cache janitor: %w", err)
	}
	janitor.Start()

	e := buildServer(cfg, st, agg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "store", cfg.Store.Driver)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	// Let a running cache sweep finish.
	<-janitor.Stop().Done()

	log.Info("server stopped")
	return nil
}

// buildStore constructs the configured store and runs migrations.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgresStore(
			ctx, cfg.Store.Database.DSN(), cfg.Store.Database.PoolSize,
		)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return st, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// buildClients constructs a marketplace client for every configured
// credential set. Unconfigured marketplaces are simply skipped.
func buildClients(cfg *config.Config, log *slog.Logger) []marketplace.Client {
	var clients []marketplace.Client

	if cfg.Ebay.Configured() {
		tokens := ebay.NewOAuthTokenProvider(
			cfg.Ebay.AppID, cfg.Ebay.CertID,
			ebay.WithTokenURL(cfg.Ebay.TokenURL),
		)
		limiter := ebay.NewRateLimiter(
			cfg.Ebay.RateLimit.PerSecond,
			cfg.Ebay.RateLimit.Burst,
			cfg.Ebay.RateLimit.DailyLimit,
		)
		clients = append(clients, ebay.NewBrowseClient(tokens,
			ebay.WithBrowseURL(cfg.Ebay.BrowseURL),
			ebay.WithRateLimiter(limiter),
		))
		log.Info("ebay client configured", "daily_limit", cfg.Ebay.RateLimit.DailyLimit)
	}

	if cfg.Amazon.Configured() {
		clients = append(clients, amazon.NewClient(cfg.Amazon.APIKey,
			amazon.WithBaseURL(cfg.Amazon.BaseURL),
		))
		log.Info("amazon client configured")
	}

	return clients
}

// buildServer assembles the Echo instance with middleware, health and
// metrics endpoints, and the Huma API routes.
func buildServer(
	cfg *config.Config,
	st store.Store,
	agg *aggregator.Aggregator,
	log *slog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("gtin-price-compare API", Version))
	handlers.RegisterCompareRoutes(api, handlers.NewCompareHandler(agg))
	handlers.RegisterFailureRoutes(api, handlers.NewFailuresHandler(st))
	handlers.RegisterCacheRoutes(api, handlers.NewCacheHandler(st))

	return e
}
