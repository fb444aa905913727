// Package app builds the application services from their infrastructure
// dependencies and registers the event handlers on the bus.
package app

import (
	"errors"
	"time"

	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/handler/audit"
	"github.com/amirasaad/payledger/pkg/service/account"
	"github.com/amirasaad/payledger/pkg/service/auth"
	"github.com/amirasaad/payledger/pkg/service/ledger"
	"github.com/amirasaad/payledger/pkg/service/request"
)

type App struct {
	Deps           *config.Deps
	Config         *config.App
	AuthService    *auth.Service
	AccountService *account.Service
	LedgerService  *ledger.Service
	RequestService *request.Service
}

func New(deps *config.Deps, cfg *config.App) (*App, error) {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	if err := app.setupEventBus(); err != nil {
		return nil, err
	}

	var err error
	app.AccountService, err = account.New(deps.Uow, deps.Logger, cfg.Ledger)
	if err != nil {
		return nil, err
	}
	app.AuthService = auth.NewWithJWT(cfg.Auth.Jwt, deps.Logger)
	app.LedgerService = ledger.New(deps.Uow, deps.EventBus, deps.Logger, cfg.Ledger)
	app.RequestService = request.New(
		deps.Uow,
		app.LedgerService,
		deps.EventBus,
		deps.Logger,
		cfg.Ledger,
	)
	return app, nil
}

// setupEventBus registers all event handlers with the event bus. Handled
// event keys share the idempotency store.
func (a *App) setupEventBus() error {
	if a.Deps.EventBus == nil {
		return nil
	}
	if a.Deps.IdempotencyStore == nil {
		return errors.New("event deduplication requires an idempotency store")
	}
	var ttl time.Duration
	if a.Config.Idempotency != nil {
		ttl = a.Config.Idempotency.EventTTL
	}
	tracker := audit.NewTracker(a.Deps.IdempotencyStore, ttl)
	audit.Register(a.Deps.EventBus, tracker, a.Deps.Logger)
	return nil
}
