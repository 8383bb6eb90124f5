package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/socialfeed/internal/config"
	"github.com/ButyrinIA/socialfeed/internal/feed"
	"github.com/ButyrinIA/socialfeed/internal/logging"
	"github.com/ButyrinIA/socialfeed/internal/metrics"
	"github.com/ButyrinIA/socialfeed/internal/server"
	"github.com/ButyrinIA/socialfeed/internal/service"
	"github.com/ButyrinIA/socialfeed/internal/storage"
	"github.com/ButyrinIA/socialfeed/internal/storage/memory"
	"github.com/ButyrinIA/socialfeed/internal/storage/postgres"
	"github.com/ButyrinIA/socialfeed/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	storage    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "socialfeed",
		Short:         "Social feed API: posts, threaded comments, likes and a leaderboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&flags.storage, "storage", "", "storage backend: memory or postgres (overrides the config file)")

	root.AddCommand(newServeCmd(flags), newMigrateCmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.storage != "" {
		cfg.Storage = flags.storage
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	shutdownTracing, err := telemetry.Setup(cfg.Tracing.Exporter, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := service.NewHub(m.ActiveSubscribers)
	opts := feed.LeaderboardOptions{
		WindowHours: cfg.Leaderboard.WindowHours,
		TopN:        cfg.Leaderboard.TopN,
		Strict:      cfg.Leaderboard.Strict,
	}
	f, err := service.New(store, hub, opts, logger, m)
	if err != nil {
		return err
	}

	srv := server.New(cfg, server.Deps{
		Feed:     f,
		Auth:     service.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Hub:      hub,
		Store:    store,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})
	return srv.Run(ctx)
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.Storage {
	case "postgres":
		logger.Info("initializing postgres storage", "max_conns", cfg.Postgres.MaxConns)
		if err := postgres.Migrate(cfg.Postgres.DSN, cfg.Postgres.MigrationsDir, "up"); err != nil {
			return nil, err
		}
		return postgres.New(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	case "memory":
		logger.Info("initializing memory storage")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage)
	}
}

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect postgres schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return fmt.Errorf("postgres dsn is not set; use postgres.dsn or %s", config.DSNEnv)
			}
			return postgres.Migrate(cfg.Postgres.DSN, cfg.Postgres.MigrationsDir, args[0])
		},
	}
}
