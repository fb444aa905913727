package config

import (
	"log/slog"

	"github.com/amirasaad/payledger/pkg/cache"
	"github.com/amirasaad/payledger/pkg/eventbus"
	"github.com/amirasaad/payledger/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow              repository.UnitOfWork
	EventBus         eventbus.Bus
	IdempotencyStore cache.IdempotencyStore
	Logger           *slog.Logger
	Config           *App
}
