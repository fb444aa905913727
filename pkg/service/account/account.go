// Package account provides account administration: opening an account for a
// principal issued by the identity provider, reading it back, the public
// receiver lookup and the verification flag.
//
// Balances are never written here. Every balance change goes through the
// ledger engine.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/google/uuid"
)

// Summary is the public view of an account used to confirm a receiver
// before sending money.
type Summary struct {
	ID         uuid.UUID
	IsVerified bool
}

// Service provides business logic for account administration.
type Service struct {
	uow     repository.UnitOfWork
	logger  *slog.Logger
	balance money.Amount
	limit   money.Amount
	now     func() time.Time
}

// New creates a Service. Opening balance and transaction limit come from
// cfg; a nil cfg uses 1000.00 and 5000.00.
func New(
	uow repository.UnitOfWork,
	logger *slog.Logger,
	cfg *config.Ledger,
) (*Service, error) {
	balance, limit := "1000.00", "5000.00"
	if cfg != nil {
		if cfg.DefaultBalance != "" {
			balance = cfg.DefaultBalance
		}
		if cfg.DefaultTransactionLimit != "" {
			limit = cfg.DefaultTransactionLimit
		}
	}
	b, err := parseDefault("default balance", balance)
	if err != nil {
		return nil, err
	}
	l, err := parseDefault("default transaction limit", limit)
	if err != nil {
		return nil, err
	}
	return &Service{
		uow:     uow,
		logger:  logger.With("service", "account"),
		balance: b,
		limit:   l,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// parseDefault accepts zero, unlike money.Parse.
func parseDefault(name, s string) (money.Amount, error) {
	if s == "0" || s == "0.00" {
		return 0, nil
	}
	a, err := money.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, s, err)
	}
	return a, nil
}

// Open creates an unverified account for the principal id with the
// configured defaults. domain.ErrAlreadyExists if one already exists.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (acc *account.Account, err error) {
	logger := s.logger.With("accountID", id)
	logger.Info("OpenAccount started")
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			logger.Error("OpenAccount failed: AccountRepository error", "error", err)
			return err
		}
		now := s.now()
		acc, err = account.New().
			WithID(id).
			WithBalance(s.balance).
			WithTransactionLimit(s.limit).
			WithCreatedAt(now).
			WithUpdatedAt(now).
			Build()
		if err != nil {
			return err
		}
		return repo.Create(ctx, acc)
	})
	if err != nil {
		acc = nil
		logger.Warn("OpenAccount failed", "error", err)
		return
	}
	logger.Info("OpenAccount successful", "balance", acc.Balance.String())
	return
}

// Get returns the full account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (acc *account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Lookup returns the public summary of an account.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*Summary, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Summary{ID: acc.ID, IsVerified: acc.IsVerified}, nil
}

// SetVerified sets the verification flag. The row is locked so a concurrent
// transfer never overwrites the change.
func (s *Service) SetVerified(
	ctx context.Context,
	id uuid.UUID,
	verified bool,
) (acc *account.Account, err error) {
	logger := s.logger.With("accountID", id, "verified", verified)
	logger.Info("SetVerified started")
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if acc.IsVerified == verified {
			return nil
		}
		acc.IsVerified = verified
		acc.UpdatedAt = s.now()
		return repo.Update(ctx, acc)
	})
	if err != nil {
		acc = nil
		logger.Warn("SetVerified failed", "error", err)
		return
	}
	logger.Info("SetVerified successful")
	return
}
