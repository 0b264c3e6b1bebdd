// eventix-server is the backend: auth, events, bookings, and image storage.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
	"github.com/Shivanand-hulikatti/eventix/internal/database"
	"github.com/Shivanand-hulikatti/eventix/internal/handler"
	"github.com/Shivanand-hulikatti/eventix/internal/logging"
	"github.com/Shivanand-hulikatti/eventix/internal/metrics"
	"github.com/Shivanand-hulikatti/eventix/internal/notify"
	"github.com/Shivanand-hulikatti/eventix/internal/repository"
	"github.com/Shivanand-hulikatti/eventix/internal/service"
	"github.com/Shivanand-hulikatti/eventix/internal/storage"
	"github.com/Shivanand-hulikatti/eventix/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("connected to postgres")

	// ── 2. Supporting infrastructure ──────────────────────────────────────
	revocations, closeRedis, err := newRevocations(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	tokens, err := token.NewManager(cfg.Auth, revocations)
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}

	images, err := storage.New(cfg.Storage, storage.EventImages, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	publisher := notify.New(cfg.Kafka, log)
	defer publisher.Close()

	m := metrics.New()

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	accounts := repository.NewAccountRepository(pool)
	profiles := repository.NewProfileRepository(pool)
	events := repository.NewEventRepository(pool)
	bookings := repository.NewBookingRepository(pool)

	router := handler.NewRouter(handler.Deps{
		Auth:     service.NewAuthService(accounts, profiles, tokens, log),
		Profiles: service.NewProfileService(profiles),
		Events:   service.NewEventService(events, bookings, images, publisher, log),
		Bookings: service.NewBookingService(bookings, events, publisher, m, log),
		Tokens:   tokens,
		Images:   images,
		Metrics:  m,
		Server:   cfg.Server,
		Log:      log,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newRevocations picks redis when an address is configured and process
// memory otherwise.
func newRevocations(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) (token.Revocations, func(), error) {
	if cfg.Addr == "" {
		log.Warn("no redis address configured, token revocations are kept in memory")
		return token.NewMemoryRevocations(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	log.WithField("addr", cfg.Addr).Info("connected to redis")
	return token.NewRedisRevocations(client), func() { client.Close() }, nil
}
