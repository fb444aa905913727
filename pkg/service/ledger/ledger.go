// Package ledger is the money-movement engine. Every balance change in the
// system goes through it: transfers between accounts, deposits from outside
// the system, and the request counter bump when a payment request is made.
//
// Each operation runs in one unit of work. Accounts are locked in ascending
// id order so two opposite transfers cannot deadlock, and a unit that loses a
// race in the store is re-run under the configured retry policy. Events are
// published only after the unit commits.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/eventbus"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/google/uuid"
)

const defaultHistoryLimit = 100

// TransferInput describes a movement between two accounts.
// An empty Kind means KindTransfer and an empty Reference means
// account.ReferenceTransaction.
type TransferInput struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     money.Amount
	Kind       account.Kind
	Reference  string
}

// DepositInput describes funds entering the system.
type DepositInput struct {
	AccountID uuid.UUID
	Amount    money.Amount
	Reference string
}

// Service provides the ledger operations.
type Service struct {
	uow          repository.UnitOfWork
	bus          eventbus.Bus
	logger       *slog.Logger
	retry        repository.RetryPolicy
	historyLimit int
	clock        Clock
}

// New creates a Service. A nil cfg selects the default retry policy and
// history limit.
func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	logger *slog.Logger,
	cfg *config.Ledger,
) *Service {
	s := &Service{
		uow:          uow,
		bus:          bus,
		logger:       logger.With("service", "ledger"),
		retry:        repository.DefaultRetryPolicy(),
		historyLimit: defaultHistoryLimit,
		clock:        newMonotonicClock(nil),
	}
	if cfg != nil {
		if cfg.RetryAttempts > 0 {
			s.retry.MaxAttempts = cfg.RetryAttempts
		}
		if cfg.RetryInterval > 0 {
			s.retry.InitialInterval = cfg.RetryInterval
		}
		if cfg.HistoryLimit > 0 {
			s.historyLimit = cfg.HistoryLimit
		}
	}
	return s
}

// Now returns the engine clock. Callers that stamp rows in the same unit as
// a ledger operation use it so timestamps stay ordered.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Transfer moves in.Amount from sender to receiver and records one entry.
func (s *Service) Transfer(
	ctx context.Context,
	in TransferInput,
) (entry *account.Entry, err error) {
	logger := s.logger.With(
		"sender", in.SenderID,
		"receiver", in.ReceiverID,
		"amount", in.Amount.String(),
		"kind", in.Kind,
	)
	logger.Info("Transfer started")

	err = repository.Atomic(ctx, s.uow, s.retry, func(uow repository.UnitOfWork) error {
		var txErr error
		entry, txErr = s.transfer(ctx, uow, in)
		return txErr
	})
	if err != nil {
		entry = nil
		logger.Warn("Transfer failed", "error", err)
		return
	}
	s.PublishEntry(ctx, entry)
	logger.Info("Transfer successful", "entryID", entry.ID, "code", entry.Code)
	return
}

// TransferWithin performs a transfer inside the caller's unit of work. Nothing
// is published; the caller publishes after its unit commits.
func (s *Service) TransferWithin(
	ctx context.Context,
	uow repository.UnitOfWork,
	in TransferInput,
) (*account.Entry, error) {
	return s.transfer(ctx, uow, in)
}

func (s *Service) transfer(
	ctx context.Context,
	uow repository.UnitOfWork,
	in TransferInput,
) (*account.Entry, error) {
	kind := in.Kind
	if kind == "" {
		kind = account.KindTransfer
	}
	if _, err := account.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if !kind.Transferable() {
		return nil, fmt.Errorf("%w: %s cannot move money between accounts", account.ErrInvalidKind, kind)
	}
	reference := in.Reference
	if reference == "" {
		reference = account.ReferenceTransaction
	}
	if len(reference) > account.MaxReferenceLength {
		return nil, account.ErrReferenceTooLong
	}
	if in.Amount <= 0 {
		return nil, account.ErrInvalidAmount
	}
	if in.SenderID == in.ReceiverID {
		return nil, account.ErrSameAccount
	}

	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	entries, err := uow.EntryRepository()
	if err != nil {
		return nil, err
	}

	locked, err := lockInOrder(ctx, accounts, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	src, dst := locked[in.SenderID], locked[in.ReceiverID]

	if err := src.ValidateTransfer(dst, in.Amount); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := src.Debit(in.Amount, now); err != nil {
		return nil, err
	}
	if err := dst.Credit(in.Amount, now); err != nil {
		return nil, err
	}
	entry, err := account.NewEntry(src.ID, dst.ID, in.Amount, kind, reference, now)
	if err != nil {
		return nil, err
	}
	if err := accounts.Update(ctx, src); err != nil {
		return nil, err
	}
	if err := accounts.Update(ctx, dst); err != nil {
		return nil, err
	}
	if err := entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// lockInOrder row-locks the given accounts in ascending id order.
func lockInOrder(
	ctx context.Context,
	repo repository.AccountRepository,
	a, b uuid.UUID,
) (map[uuid.UUID]*account.Account, error) {
	first, second := a, b
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	out := make(map[uuid.UUID]*account.Account, 2)
	for _, id := range []uuid.UUID{first, second} {
		acc, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = acc
	}
	return out, nil
}

// Deposit credits an account with funds from outside the system. Verification
// and the transaction limit do not apply and no counter moves.
func (s *Service) Deposit(
	ctx context.Context,
	in DepositInput,
) (entry *account.Entry, err error) {
	logger := s.logger.With("accountID", in.AccountID, "amount", in.Amount.String())
	logger.Info("Deposit started")

	reference := in.Reference
	if reference == "" {
		reference = account.ReferenceTransaction
	}

	err = repository.Atomic(ctx, s.uow, s.retry, func(uow repository.UnitOfWork) error {
		if len(reference) > account.MaxReferenceLength {
			return account.ErrReferenceTooLong
		}
		if in.Amount <= 0 {
			return account.ErrInvalidAmount
		}
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		entries, err := uow.EntryRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.GetForUpdate(ctx, in.AccountID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := acc.Deposit(in.Amount, now); err != nil {
			return err
		}
		e, err := account.NewEntry(
			account.ExternalSourceID, acc.ID, in.Amount, account.KindDeposit, reference, now,
		)
		if err != nil {
			return err
		}
		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
		if err := entries.Create(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		entry = nil
		logger.Warn("Deposit failed", "error", err)
		return
	}
	s.PublishEntry(ctx, entry)
	logger.Info("Deposit successful", "entryID", entry.ID, "code", entry.Code)
	return
}

// RecordRequestReceived bumps the payer's request counter inside the caller's
// unit of work.
func (s *Service) RecordRequestReceived(
	ctx context.Context,
	uow repository.UnitOfWork,
	payerID uuid.UUID,
) error {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return err
	}
	acc, err := accounts.GetForUpdate(ctx, payerID)
	if err != nil {
		return err
	}
	acc.RecordRequestReceived(s.clock.Now())
	return accounts.Update(ctx, acc)
}

// History lists entries the account is party to, newest first. A zero or
// oversized page limit is clamped to the configured history limit.
func (s *Service) History(
	ctx context.Context,
	accountID uuid.UUID,
	page repository.Page,
) (entries []*account.Entry, err error) {
	if page.Limit <= 0 || page.Limit > s.historyLimit {
		page.Limit = s.historyLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if _, err := s.requireAccount(ctx, uow, accountID); err != nil {
			return err
		}
		repo, err := uow.EntryRepository()
		if err != nil {
			return err
		}
		entries, err = repo.ListByAccount(ctx, accountID, page)
		return err
	})
	if err != nil {
		s.logger.Error("History failed", "accountID", accountID, "error", err)
		return nil, err
	}
	return entries, nil
}

// LatestSent returns the newest entry the account sent.
func (s *Service) LatestSent(ctx context.Context, accountID uuid.UUID) (*account.Entry, error) {
	return s.latest(ctx, accountID, repository.EntryRepository.LatestSent)
}

// LatestReceived returns the newest entry the account received.
func (s *Service) LatestReceived(ctx context.Context, accountID uuid.UUID) (*account.Entry, error) {
	return s.latest(ctx, accountID, repository.EntryRepository.LatestReceived)
}

func (s *Service) latest(
	ctx context.Context,
	accountID uuid.UUID,
	find func(repository.EntryRepository, context.Context, uuid.UUID) (*account.Entry, error),
) (entry *account.Entry, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if _, err := s.requireAccount(ctx, uow, accountID); err != nil {
			return err
		}
		repo, err := uow.EntryRepository()
		if err != nil {
			return err
		}
		entry, err = find(repo, ctx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) requireAccount(
	ctx context.Context,
	uow repository.UnitOfWork,
	id uuid.UUID,
) (*account.Account, error) {
	repo, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// PublishEntry emits EntryRecorded for a committed entry. Publish failures
// are logged; the entry is already durable.
func (s *Service) PublishEntry(ctx context.Context, entry *account.Entry) {
	if s.bus == nil || entry == nil {
		return
	}
	if err := s.bus.Emit(ctx, EntryRecordedEvent(entry)); err != nil {
		s.logger.Error("Publish EntryRecorded failed", "entryID", entry.ID, "error", err)
	}
}

// EntryRecordedEvent builds the event for entry.
func EntryRecordedEvent(entry *account.Entry) *events.EntryRecorded {
	return &events.EntryRecorded{
		EntryID:    entry.ID,
		Code:       entry.Code,
		SenderID:   entry.SenderID,
		ReceiverID: entry.ReceiverID,
		Amount:     entry.Amount.Int64(),
		Kind:       string(entry.Kind),
		Reference:  entry.Reference,
		CreatedAt:  entry.CreatedAt,
	}
}
