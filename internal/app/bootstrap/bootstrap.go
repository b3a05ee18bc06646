package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	dispatchservice "herald/contexts/outreach/dispatch-service"
	postgresadapter "herald/contexts/outreach/dispatch-service/adapters/postgres"
	"herald/contexts/outreach/dispatch-service/adapters/telegram"
	"herald/internal/platform/config"
	"herald/internal/platform/db"
	"herald/internal/platform/httpserver"
	"herald/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	module   dispatchservice.Module
	cfg      config.Config
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	module, pg, err := buildModule(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	module, pg, err := buildModule(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		module:   module,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func buildModule(cfg config.Config, logger *slog.Logger) (dispatchservice.Module, *db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return dispatchservice.Module{}, nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return dispatchservice.Module{}, nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return dispatchservice.Module{}, nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := dispatchservice.NewModule(dispatchservice.Dependencies{
		Campaigns:   repo,
		Sessions:    repo,
		Members:     repo,
		Results:     repo,
		Connector:   telegram.Connector{Logger: logger},
		Clock:       postgresadapter.SystemClock{},
		Sleeper:     postgresadapter.SystemSleeper{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Outbox:      repo,
		OutboxRepo:  repo,
		Publisher:   kafka,
		Logger:      logger,
	})
	module.ScheduledStarter.BatchSize = cfg.WorkerBatchSize
	module.OutboxRelay.BatchSize = cfg.WorkerBatchSize
	return module, pg, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	starterTicker := time.NewTicker(w.cfg.ScheduledStarterInterval)
	defer starterTicker.Stop()
	relayTicker := time.NewTicker(w.cfg.OutboxRelayInterval)
	defer relayTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"scheduled_starter_interval", w.cfg.ScheduledStarterInterval.String(),
		"outbox_relay_interval", w.cfg.OutboxRelayInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-starterTicker.C:
			if !w.cfg.EnableScheduledStarter {
				continue
			}
			if err := w.module.ScheduledStarter.RunOnce(ctx); err != nil {
				return err
			}
		case <-relayTicker.C:
			if !w.cfg.EnableOutboxRelay {
				continue
			}
			if err := w.module.OutboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
