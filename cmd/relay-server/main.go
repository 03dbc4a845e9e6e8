package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/darklock/relay/internal/config"
	"github.com/darklock/relay/internal/logger"
	"github.com/darklock/relay/internal/server"
	"github.com/darklock/relay/internal/store"
	"github.com/darklock/relay/internal/sweeper"
	"github.com/darklock/relay/internal/version"
)

func main() {
	cmd := &cobra.Command{
		Use:   "relay-server",
		Short: "Opaque-envelope relay server",
		Long: `relay-server is the store-and-forward relay for end-to-end-encrypted clients.

It stores opaque ciphertext envelopes, delivers them to their recipients on
poll, and garbage-collects them on a retention schedule. The relay never sees
plaintext; clients authenticate with bearer tokens issued by the identity
service and signed with a secret shared with the relay.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.Int("RETENTION_TTL_DAYS", cfg.RetentionTTLDays),
		slog.Duration("SWEEP_INTERVAL", cfg.SweepInterval),
		slog.Int64("MAX_REQUEST_BODY", cfg.MaxRequestBody),
	)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout)
	defer dbCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		appLogger.Error("failed to parse database URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	poolConfig.MaxConns = cfg.DBMaxConnections
	poolConfig.MinConns = cfg.DBMinConnections
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(dbCtx, poolConfig)
	if err != nil {
		appLogger.Error("unable to create connection pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err = pool.Ping(dbCtx); err != nil {
		appLogger.Error("error pinging database via pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("connected to PostgreSQL")

	if err := store.Migrate(dbCtx, pool); err != nil {
		appLogger.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	envelopeStore := store.New(pool)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("starting server", slog.String("version", version.Get().Version))

	srv := server.NewServer(pool, envelopeStore, cfg, appLogger)
	defer srv.DatabaseShutdown()

	retentionSweeper := sweeper.New(envelopeStore, sweeper.Config{
		TTL:      cfg.RetentionTTL(),
		Interval: cfg.SweepInterval,
		Logger:   appLogger,
	})
	retentionSweeper.Start(ctx)
	defer retentionSweeper.Stop()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
