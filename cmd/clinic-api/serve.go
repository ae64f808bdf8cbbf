package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicore/clinic-api/internal/api"
	"github.com/clinicore/clinic-api/internal/api/handler"
	"github.com/clinicore/clinic-api/internal/core/ports"
	"github.com/clinicore/clinic-api/internal/core/service"
	"github.com/clinicore/clinic-api/internal/infrastructure/db/mongo"
	"github.com/clinicore/clinic-api/internal/infrastructure/db/postgres"
	"github.com/clinicore/clinic-api/internal/infrastructure/db/redis"
	"github.com/clinicore/clinic-api/internal/infrastructure/queue"
	"github.com/clinicore/clinic-api/internal/pkg/config"
	"github.com/clinicore/clinic-api/internal/pkg/security"
	"github.com/clinicore/clinic-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API backed by the configured store (postgres or mongo)
and the redis invitation outbox.`,
		RunE: runServe,
	}
}

// store is the subset of a backend the server needs at runtime.
type store interface {
	ports.AuthStore
	handler.Pinger
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	authStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	outbox := redis.NewInvitationOutbox(rdb, cfg.Redis.InviteStream)
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, outbox, logger.Component("notifier"))
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	signer := security.NewJWTSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, security.WithIssuer(cfg.Auth.Issuer))
	authService := service.NewAuthService(
		authStore,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		signer,
		security.NewInvitationTokens(),
		dispatcher,
		cfg.AuthSettings(),
		logger.Component("auth"),
	)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Verifier:    signer,
		Readiness: map[string]handler.Pinger{
			cfg.StoreDriver: authStore,
			"redis":         redis.Pinger{Client: rdb},
		},
		Log: log,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	cancelWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// openStore connects the backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("connected to postgres")
		return postgres.NewStore(pool), pool.Close, nil

	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		st := mongo.NewStore(client, db)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
		return st, func() { _ = client.Disconnect(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
