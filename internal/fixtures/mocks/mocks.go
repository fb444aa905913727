// Package mocks holds testify mocks for the repository and event bus contracts.
package mocks

import (
	"context"
	"reflect"

	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/eventbus"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// UnitOfWork is a mock of repository.UnitOfWork.
type UnitOfWork struct {
	mock.Mock
}

// Do returns the configured error. A configured
// func(context.Context, func(repository.UnitOfWork) error) error is called instead.
func (m *UnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	args := m.Called(ctx, fn)
	if rf, ok := args.Get(0).(func(context.Context, func(repository.UnitOfWork) error) error); ok {
		return rf(ctx, fn)
	}
	return args.Error(0)
}

func (m *UnitOfWork) GetRepository(repoType reflect.Type) (any, error) {
	args := m.Called(repoType)
	return args.Get(0), args.Error(1)
}

func (m *UnitOfWork) AccountRepository() (repository.AccountRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.AccountRepository)
	return repo, args.Error(1)
}

func (m *UnitOfWork) EntryRepository() (repository.EntryRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.EntryRepository)
	return repo, args.Error(1)
}

func (m *UnitOfWork) RequestRepository() (repository.RequestRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.RequestRepository)
	return repo, args.Error(1)
}

// AccountRepository is a mock of repository.AccountRepository.
type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*account.Account)
	return acc, args.Error(1)
}

func (m *AccountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*account.Account)
	return acc, args.Error(1)
}

func (m *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	return m.Called(ctx, acc).Error(0)
}

// Bus is a mock of eventbus.Bus.
type Bus struct {
	mock.Mock
}

func (m *Bus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	m.Called(eventType, handler)
}

func (m *Bus) Emit(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

// RequestRepository is a mock of repository.RequestRepository.
type RequestRepository struct {
	mock.Mock
}

func (m *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	return m.Called(ctx, req).Error(0)
}

func (m *RequestRepository) Get(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*request.Request)
	return req, args.Error(1)
}

func (m *RequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*request.Request)
	return req, args.Error(1)
}

func (m *RequestRepository) Update(ctx context.Context, req *request.Request) error {
	return m.Called(ctx, req).Error(0)
}

func (m *RequestRepository) List(
	ctx context.Context,
	accountID uuid.UUID,
	dir request.Direction,
) ([]*request.Request, error) {
	args := m.Called(ctx, accountID, dir)
	out, _ := args.Get(0).([]*request.Request)
	return out, args.Error(1)
}

var (
	_ repository.UnitOfWork        = (*UnitOfWork)(nil)
	_ repository.AccountRepository = (*AccountRepository)(nil)
	_ repository.RequestRepository = (*RequestRepository)(nil)
	_ eventbus.Bus                 = (*Bus)(nil)
)
