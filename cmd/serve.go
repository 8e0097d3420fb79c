package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "markov_occupancy/docs"
	"markov_occupancy/internal/cache"
	"markov_occupancy/internal/config"
	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/handlers"
	"markov_occupancy/internal/logger"
	"markov_occupancy/internal/metrics"
	"markov_occupancy/internal/repository"
	"markov_occupancy/internal/repository/db"
	"markov_occupancy/internal/server"
	"markov_occupancy/internal/service"
	"markov_occupancy/internal/telemetry"

	"github.com/spf13/cobra"
)

const cachePingTimeout = 2 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)

	shutdownTracing, err := telemetry.Init(telemetry.Config{
		Exporter:       cfg.Tracing.Exporter,
		ServiceName:    handlers.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		if terr := shutdownTracing(context.Background()); terr != nil {
			log.Warnw("tracing_shutdown_failed", "err", terr)
		}
	}()

	// open DB
	conn, err := openDB(cfg.DB.Path, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	resultCache, closeCache := openCache(cfg.Cache, log)
	defer closeCache()

	// wire dependencies
	m := metrics.New()
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Deps{
		Engine:       engine.New(engineOptions(cfg.Engine)),
		Cache:        resultCache,
		Metrics:      m,
		Log:          log,
		DefaultHours: cfg.Engine.DefaultHours,
		MaxStates:    cfg.Engine.MaxStates,
		Retention:    cfg.Runs.Retention,
		SigningKey:   cfg.Auth.SigningKey,
		TokenTTL:     cfg.Auth.TokenTTL,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Seed(ctx); err != nil {
		return err
	}

	apiHandler := handlers.NewHandler(services, log,
		handlers.WithMetrics(m),
		handlers.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		handlers.WithStream(cfg.Runs.StreamInterval, cfg.Runs.StreamLimit),
		handlers.WithAllowedOrigins(cfg.Runs.AllowedOrigins...),
	)

	// start run-history janitor
	go services.Janitor.Run(ctx, cfg.Runs.PruneInterval)

	// start HTTP server
	srv := server.New(server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, cfg.Server.ShutdownTimeout, log)
	return nil
}

// openDB initializes the SQLite database.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "occupancy.db")
		path = "occupancy.db"
	}
	return db.InitDB(path)
}

// openCache selects the result cache. An unreachable Redis degrades to no
// caching rather than failing startup.
func openCache(cfg config.CacheConfig, log *logger.Logger) (cache.Cache, func()) {
	if cfg.Driver != "redis" {
		return cache.Noop{}, func() {}
	}

	rc := cache.NewRedis(cfg.Addr, cfg.Password, cfg.DB,
		cache.WithTTL(cfg.TTL),
		cache.WithPrefix(cfg.Prefix),
	)
	ctx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warnw("cache_unavailable", "addr", cfg.Addr, "err", err)
		_ = rc.Close()
		return cache.Noop{}, func() {}
	}

	log.Infow("cache_enabled", "driver", cfg.Driver, "addr", cfg.Addr, "ttl", cfg.TTL)
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Warnw("cache_close_failed", "err", err)
		}
	}
}

func engineOptions(c config.EngineConfig) engine.Options {
	return engine.Options{
		MaxIterations:       c.MaxIterations,
		Tolerance:           c.Tolerance,
		RowTolerance:        c.RowTolerance,
		FixedPointTolerance: c.FixedPointTolerance,
		CesaroWindow:        c.CesaroWindow,
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("server_started", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
