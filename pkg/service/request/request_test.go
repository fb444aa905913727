package request_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/payledger/infra/eventbus"
	"github.com/amirasaad/payledger/infra/memory"
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/amirasaad/payledger/pkg/domain/money"
	domainrequest "github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/amirasaad/payledger/pkg/service/ledger"
	"github.com/amirasaad/payledger/pkg/service/request"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uow    *memory.UoW
	bus    *infraeventbus.MemoryEventBus
	engine *ledger.Service
	svc    *request.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := memory.NewUoW(memory.NewStore())
	bus := infraeventbus.NewWithMemory(logger)
	cfg := &config.Ledger{RetryAttempts: 3, RetryInterval: time.Millisecond, HistoryLimit: 100}
	engine := ledger.New(uow, bus, logger, cfg)
	return &fixture{
		uow:    uow,
		bus:    bus,
		engine: engine,
		svc:    request.New(uow, engine, bus, logger, cfg),
	}
}

func (f *fixture) open(t *testing.T, balance string, verified bool) uuid.UUID {
	t.Helper()
	acc, err := account.New().
		WithBalance(money.MustParse(balance)).
		WithTransactionLimit(money.MustParse("5000.00")).
		WithVerified(verified).
		Build()
	require.NoError(t, err)
	repo, err := f.uow.AccountRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), acc))
	return acc.ID
}

func (f *fixture) account(t *testing.T, id uuid.UUID) *account.Account {
	t.Helper()
	repo, err := f.uow.AccountRepository()
	require.NoError(t, err)
	acc, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return acc
}

func (f *fixture) create(t *testing.T, requester, payer uuid.UUID, amount string) *domainrequest.Request {
	t.Helper()
	req, err := f.svc.Create(context.Background(), request.CreateInput{
		RequesterID: requester,
		PayerID:     payer,
		Amount:      money.MustParse(amount),
		Description: "  dinner  ",
	})
	require.NoError(t, err)
	return req
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "150.00", true)

	req := f.create(t, requester, payer, "25.00")
	assert.Equal(t, domainrequest.StatusPending, req.Status)
	assert.Equal(t, "dinner", req.Description)
	assert.Nil(t, req.ResolvedAt)
	assert.Equal(t, int64(1), f.account(t, payer).RequestsReceivedCount)
	assert.Zero(t, f.account(t, requester).RequestsReceivedCount)

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.RequestCreatedType.String(), published[0].Type())
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "100.00", true)

	tests := []struct {
		name string
		in   request.CreateInput
		want error
	}{
		{"missing payer", request.CreateInput{RequesterID: requester, PayerID: uuid.New(), Amount: 100, Description: "x"}, account.ErrAccountNotFound},
		{"blank description", request.CreateInput{RequesterID: requester, PayerID: payer, Amount: 100, Description: "   "}, domainrequest.ErrMissingDescription},
		{"zero amount", request.CreateInput{RequesterID: requester, PayerID: payer, Amount: 0, Description: "x"}, money.ErrInvalidAmount},
		{"self request", request.CreateInput{RequesterID: payer, PayerID: payer, Amount: 100, Description: "x"}, account.ErrSameAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.account(t, payer).RequestsReceivedCount)

	reqs, err := f.svc.List(context.Background(), requester, domainrequest.DirectionAll)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestResolve_AcceptPaysRequester(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "150.00", true)
	req := f.create(t, requester, payer, "25.00")
	f.bus.ClearPublished()

	resolved, entry, err := f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: req.ID,
		Status:    domainrequest.StatusAccepted,
		ActorID:   payer,
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, domainrequest.StatusAccepted, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, account.KindPayment, entry.Kind)
	assert.Equal(t, account.ReferencePayment, entry.Reference)
	assert.Equal(t, payer, entry.SenderID)
	assert.Equal(t, requester, entry.ReceiverID)

	assert.Equal(t, "125.00", f.account(t, requester).Balance.String())
	assert.Equal(t, "125.00", f.account(t, payer).Balance.String())

	history, err := f.engine.History(context.Background(), payer, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, history, 1)

	published := f.bus.Published()
	require.Len(t, published, 2)
	assert.Equal(t, events.EntryRecordedType.String(), published[0].Type())
	rr, ok := published[1].(*events.RequestResolved)
	require.True(t, ok)
	require.NotNil(t, rr.EntryID)
	assert.Equal(t, entry.ID, *rr.EntryID)
}

func TestResolve_CancelMovesNoMoney(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "150.00", true)
	req := f.create(t, requester, payer, "25.00")

	resolved, entry, err := f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: req.ID,
		Status:    domainrequest.StatusCanceled,
		ActorID:   requester,
	})
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, domainrequest.StatusCanceled, resolved.Status)
	assert.Equal(t, "100.00", f.account(t, requester).Balance.String())
	assert.Equal(t, "150.00", f.account(t, payer).Balance.String())
}

func TestResolve_TerminalIsFinal(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "150.00", true)
	req := f.create(t, requester, payer, "25.00")

	_, _, err := f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: req.ID, Status: domainrequest.StatusAccepted, ActorID: payer,
	})
	require.NoError(t, err)

	for _, status := range []domainrequest.Status{domainrequest.StatusAccepted, domainrequest.StatusCanceled} {
		_, _, err = f.svc.Resolve(context.Background(), request.ResolveInput{
			RequestID: req.ID, Status: status, ActorID: payer,
		})
		assert.ErrorIs(t, err, domainrequest.ErrRequestAlreadyResolved)
	}
	assert.Equal(t, "125.00", f.account(t, payer).Balance.String())
}

func TestResolve_ConcurrentAcceptPaysOnce(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "150.00", true)
	req := f.create(t, requester, payer, "25.00")

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.Resolve(context.Background(), request.ResolveInput{
				RequestID: req.ID, Status: domainrequest.StatusAccepted, ActorID: payer,
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domainrequest.ErrRequestAlreadyResolved)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, "125.00", f.account(t, payer).Balance.String())
}

func TestResolve_Authorization(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "150.00", true)
	stranger := f.open(t, "10.00", true)
	req := f.create(t, requester, payer, "25.00")

	_, _, err := f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: req.ID, Status: domainrequest.StatusAccepted, ActorID: requester,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: req.ID, Status: domainrequest.StatusCanceled, ActorID: stranger,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domainrequest.StatusPending, got.Status)

	// system actor
	_, _, err = f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: req.ID, Status: domainrequest.StatusCanceled,
	})
	assert.NoError(t, err)
}

func TestResolve_EngineFailureKeepsPending(t *testing.T) {
	f := newFixture(t)
	requester := f.open(t, "100.00", true)
	payer := f.open(t, "10.00", true)
	req := f.create(t, requester, payer, "25.00")

	_, _, err := f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: req.ID, Status: domainrequest.StatusAccepted, ActorID: payer,
	})
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)

	got, err := f.svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domainrequest.StatusPending, got.Status)
	assert.Nil(t, got.ResolvedAt)
	assert.Equal(t, "10.00", f.account(t, payer).Balance.String())
}

func TestResolve_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: uuid.New(), Status: domainrequest.StatusPending,
	})
	assert.ErrorIs(t, err, domainrequest.ErrInvalidTransition)

	_, _, err = f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: uuid.New(), Status: "Paid",
	})
	assert.ErrorIs(t, err, domainrequest.ErrInvalidStatus)

	_, _, err = f.svc.Resolve(context.Background(), request.ResolveInput{
		RequestID: uuid.New(), Status: domainrequest.StatusCanceled,
	})
	assert.ErrorIs(t, err, domainrequest.ErrRequestNotFound)
}

func TestList_Directions(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "100.00", true)
	b := f.open(t, "100.00", true)

	first := f.create(t, a, b, "1.00")
	second := f.create(t, b, a, "2.00")

	all, err := f.svc.List(context.Background(), a, domainrequest.DirectionAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	sent, err := f.svc.List(context.Background(), a, domainrequest.DirectionSent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, first.ID, sent[0].ID)

	received, err := f.svc.List(context.Background(), a, domainrequest.DirectionReceived)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, second.ID, received[0].ID)
}
