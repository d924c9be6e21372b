package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	api "github.com/vadimbarashkov/shortlink/internal/api/http"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/database/postgres"
	redisdb "github.com/vadimbarashkov/shortlink/internal/database/redis"
	"github.com/vadimbarashkov/shortlink/internal/geo"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/internal/tracking"
	pkgpostgres "github.com/vadimbarashkov/shortlink/pkg/postgres"
)

// Run wires the application together and blocks until the context is
// cancelled or a component fails.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := httplog.NewLogger("shortlink", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  cfg.Env != config.EnvProd,
	})

	db, err := pkgpostgres.New(
		ctx,
		cfg.Postgres.DSN(),
		pkgpostgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pkgpostgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpostgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pkgpostgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pkgpostgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	urlRepo := postgres.NewURLRepository(db)
	clickRepo := postgres.NewClickRepository(db)

	var repo service.URLRepository = urlRepo

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		repo = redisdb.NewCachedURLRepository(urlRepo, redisdb.NewRedirectCache(rdb, logger.Logger))
	}

	resolver, err := newGeoResolver(cfg.GeoIP.DBPath)
	if err != nil {
		return fmt.Errorf("%s: failed to open geoip database: %w", op, err)
	}
	defer resolver.Close()

	queue := tracking.NewQueue(cfg.Tracking.QueueCapacity, logger.Logger)
	worker := tracking.NewWorker(queue, clickRepo, resolver, logger.Logger)

	urlSvc := service.NewURLService(repo, queue, logger.Logger)
	analyticsSvc := service.NewAnalyticsService(clickRepo)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        api.NewRouter(logger, urlSvc, analyticsSvc),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(ctx)
	})

	g.Go(func() error {
		return runCleanupLoop(ctx, analyticsSvc, cfg.Tracking, logger.Logger)
	})

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func newGeoResolver(dbPath string) (geo.Resolver, error) {
	if dbPath == "" {
		return geo.NoopResolver{}, nil
	}

	return geo.NewMaxMindResolver(dbPath)
}

// runCleanupLoop periodically deletes click events older than the
// configured retention period.
func runCleanupLoop(ctx context.Context, svc *service.AnalyticsService, cfg config.Tracking, logger *slog.Logger) error {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deleted, err := svc.CleanupOldClicks(ctx, cfg.Retention)
			if err != nil {
				logger.Error("failed to clean up old click events", slog.Any("err", err))
				continue
			}

			if deleted > 0 {
				logger.Info("cleaned up old click events", slog.Int64("deleted", deleted))
			}
		}
	}
}
