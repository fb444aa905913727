// Package request manages payment requests: one account asking another to
// pay it. Accepting a request moves the money through the ledger engine in
// the same unit of work that flips the request status, so a request is never
// Accepted without its payment entry.
package request

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/eventbus"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/amirasaad/payledger/pkg/service/ledger"
	"github.com/google/uuid"
)

// CreateInput describes a new payment request.
type CreateInput struct {
	RequesterID uuid.UUID
	PayerID     uuid.UUID
	Amount      money.Amount
	Description string
}

// ResolveInput moves a request to a terminal status. ActorID is the caller;
// uuid.Nil means a trusted system caller and skips the party checks.
type ResolveInput struct {
	RequestID uuid.UUID
	Status    request.Status
	ActorID   uuid.UUID
	Reference string
}

// Service provides request lifecycle operations.
type Service struct {
	uow    repository.UnitOfWork
	ledger *ledger.Service
	bus    eventbus.Bus
	logger *slog.Logger
	retry  repository.RetryPolicy
}

// New creates a Service. Balance changes are delegated to engine.
func New(
	uow repository.UnitOfWork,
	engine *ledger.Service,
	bus eventbus.Bus,
	logger *slog.Logger,
	cfg *config.Ledger,
) *Service {
	retry := repository.DefaultRetryPolicy()
	if cfg != nil {
		if cfg.RetryAttempts > 0 {
			retry.MaxAttempts = cfg.RetryAttempts
		}
		if cfg.RetryInterval > 0 {
			retry.InitialInterval = cfg.RetryInterval
		}
	}
	return &Service{
		uow:    uow,
		ledger: engine,
		bus:    bus,
		logger: logger.With("service", "request"),
		retry:  retry,
	}
}

// Create stores a Pending request and counts it against the payer.
func (s *Service) Create(
	ctx context.Context,
	in CreateInput,
) (req *request.Request, err error) {
	logger := s.logger.With(
		"requester", in.RequesterID,
		"payer", in.PayerID,
		"amount", in.Amount.String(),
	)
	logger.Info("CreateRequest started")

	if _, err = request.New(in.RequesterID, in.PayerID, in.Amount, in.Description, s.ledger.Now()); err != nil {
		logger.Warn("CreateRequest failed: invalid input", "error", err)
		return nil, err
	}

	err = repository.Atomic(ctx, s.uow, s.retry, func(uow repository.UnitOfWork) error {
		repo, err := uow.RequestRepository()
		if err != nil {
			return err
		}
		if err := s.ledger.RecordRequestReceived(ctx, uow, in.PayerID); err != nil {
			return err
		}
		r, err := request.New(in.RequesterID, in.PayerID, in.Amount, in.Description, s.ledger.Now())
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, r); err != nil {
			return err
		}
		req = r
		return nil
	})
	if err != nil {
		req = nil
		logger.Warn("CreateRequest failed", "error", err)
		return
	}

	s.emit(ctx, &events.RequestCreated{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		PayerID:     req.PayerID,
		Amount:      req.Amount.Int64(),
		CreatedAt:   req.CreatedAt,
	})
	logger.Info("CreateRequest successful", "requestID", req.ID)
	return
}

// Resolve accepts or cancels a Pending request. Accepting pays the request
// from the payer to the requester; if that payment fails nothing changes and
// the request stays Pending.
func (s *Service) Resolve(
	ctx context.Context,
	in ResolveInput,
) (req *request.Request, entry *account.Entry, err error) {
	logger := s.logger.With(
		"requestID", in.RequestID,
		"status", in.Status,
		"actor", in.ActorID,
	)
	logger.Info("ResolveRequest started")

	if _, err = request.ParseStatus(string(in.Status)); err != nil {
		logger.Warn("ResolveRequest failed: invalid status", "error", err)
		return nil, nil, err
	}
	if !in.Status.Terminal() {
		err = fmt.Errorf("%w: target %s is not terminal", request.ErrInvalidTransition, in.Status)
		logger.Warn("ResolveRequest failed", "error", err)
		return nil, nil, err
	}

	err = repository.Atomic(ctx, s.uow, s.retry, func(uow repository.UnitOfWork) error {
		// reset captured results on every attempt
		req, entry = nil, nil

		repo, err := uow.RequestRepository()
		if err != nil {
			return err
		}
		r, err := repo.GetForUpdate(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if err := authorize(r, in.ActorID, in.Status); err != nil {
			return err
		}
		if err := r.CheckTransition(in.Status); err != nil {
			return err
		}

		var e *account.Entry
		if in.Status == request.StatusAccepted {
			reference := in.Reference
			if reference == "" {
				reference = account.ReferencePayment
			}
			e, err = s.ledger.TransferWithin(ctx, uow, ledger.TransferInput{
				SenderID:   r.PayerID,
				ReceiverID: r.RequesterID,
				Amount:     r.Amount,
				Kind:       account.KindPayment,
				Reference:  reference,
			})
			if err != nil {
				return err
			}
		}

		if err := r.Resolve(in.Status, s.ledger.Now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, r); err != nil {
			return err
		}
		req, entry = r, e
		return nil
	})
	if err != nil {
		logger.Warn("ResolveRequest failed", "error", err)
		return nil, nil, err
	}

	resolved := &events.RequestResolved{
		RequestID: req.ID,
		Status:    string(req.Status),
		ActorID:   in.ActorID,
		At:        req.UpdatedAt,
	}
	if entry != nil {
		s.ledger.PublishEntry(ctx, entry)
		resolved.EntryID = &entry.ID
	}
	s.emit(ctx, resolved)
	logger.Info("ResolveRequest successful", "finalStatus", req.Status)
	return req, entry, nil
}

// authorize checks the actor may move r to status. Only the payer accepts;
// either party cancels. Non-parties are refused before anything about the
// request's state is revealed.
func authorize(r *request.Request, actor uuid.UUID, status request.Status) error {
	if actor == uuid.Nil {
		return nil
	}
	if !r.Involves(actor) {
		return fmt.Errorf("%w: not a party to request %s", domain.ErrForbidden, r.ID)
	}
	if status == request.StatusAccepted && actor != r.PayerID {
		return fmt.Errorf("%w: only the payer can accept a request", domain.ErrForbidden)
	}
	return nil
}

// Get returns a request by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (req *request.Request, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.RequestRepository()
		if err != nil {
			return err
		}
		req, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// List returns the account's requests in the given direction, newest first.
func (s *Service) List(
	ctx context.Context,
	accountID uuid.UUID,
	dir request.Direction,
) (reqs []*request.Request, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.RequestRepository()
		if err != nil {
			return err
		}
		reqs, err = repo.List(ctx, accountID, dir)
		return err
	})
	if err != nil {
		s.logger.Error("ListRequests failed", "accountID", accountID, "direction", dir, "error", err)
		return nil, err
	}
	return reqs, nil
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, event); err != nil {
		s.logger.Error("Publish event failed", "type", event.Type(), "error", err)
	}
}
