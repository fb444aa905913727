// Package initializer wires the infrastructure selected by configuration:
// Postgres or the in-memory store, Kafka or the in-memory bus, Redis or the
// in-memory idempotency cache.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/payledger/infra"
	infracache "github.com/amirasaad/payledger/infra/cache"
	infraeventbus "github.com/amirasaad/payledger/infra/eventbus"
	"github.com/amirasaad/payledger/infra/memory"
	infrarepository "github.com/amirasaad/payledger/infra/repository"
	"github.com/amirasaad/payledger/internal/migrations"
	"github.com/amirasaad/payledger/pkg/cache"
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/eventbus"
	"github.com/amirasaad/payledger/pkg/repository"
)

// InitializeDependencies builds every infrastructure dependency. The
// returned cleanup closes them in reverse order. On error everything built
// so far is already closed and cleanup is a no-op.
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	cleanup func(),
	err error,
) {
	logger := SetupLogger(cfg.Log)
	deps = &config.Deps{Logger: logger, Config: cfg}

	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i].Close(); cerr != nil {
				logger.Warn("Failed to close dependency", "error", cerr)
			}
		}
	}
	defer func() {
		if err != nil {
			closeAll()
			cleanup = func() {}
		}
	}()

	deps.Uow, err = initStore(cfg, logger, &closers)
	if err != nil {
		return nil, nil, err
	}

	deps.EventBus, err = initEventBus(cfg, logger, &closers)
	if err != nil {
		return nil, nil, err
	}

	deps.IdempotencyStore, err = initIdempotencyStore(cfg, logger, &closers)
	if err != nil {
		return nil, nil, err
	}

	return deps, closeAll, nil
}

func initStore(cfg *config.App, logger *slog.Logger, closers *[]io.Closer) (repository.UnitOfWork, error) {
	if cfg.DB == nil || cfg.DB.Url == "" {
		if cfg.Env == "production" {
			return nil, errors.New("DATABASE_URL is required in production")
		}
		logger.Warn("DATABASE_URL not set; using in-memory store")
		return memory.NewUoW(memory.NewStore()), nil
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, sqlDB)

	if cfg.DB.AutoMigrate {
		if err := migrations.Up(sqlDB); err != nil {
			return nil, err
		}
		version, dirty, err := migrations.Version(sqlDB)
		if err != nil {
			return nil, err
		}
		logger.Info("Database schema ready", "version", version, "dirty", dirty)
	}
	return infrarepository.NewUoW(db), nil
}

func initEventBus(cfg *config.App, logger *slog.Logger, closers *[]io.Closer) (eventbus.Bus, error) {
	if cfg.Kafka == nil || cfg.Kafka.Brokers == "" {
		return infraeventbus.NewWithMemory(logger), nil
	}
	bus, err := infraeventbus.NewWithKafka(cfg.Kafka.Brokers, logger, &infraeventbus.KafkaEventBusConfig{
		GroupID:     cfg.Kafka.GroupID,
		TopicPrefix: cfg.Kafka.TopicPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
	}
	*closers = append(*closers, bus)
	return bus, nil
}

func initIdempotencyStore(
	cfg *config.App,
	logger *slog.Logger,
	closers *[]io.Closer,
) (cache.IdempotencyStore, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		store := infracache.NewMemoryCache()
		*closers = append(*closers, store)
		return store, nil
	}
	store, err := infracache.NewRedisIdempotencyStore(context.Background(), cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	*closers = append(*closers, store)
	return store, nil
}
