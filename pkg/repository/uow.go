package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Do runs fn inside one atomic unit. Every repository obtained from the UnitOfWork
// passed to fn shares that unit; if fn returns an error nothing it wrote is kept.
// Calling Do on a UnitOfWork that is already inside a unit joins it.
//
//	repoAny, err := uow.GetRepository(reflect.TypeOf((*AccountRepository)(nil)).Elem())
//	repo := repoAny.(AccountRepository)
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (AccountRepository, error)
	EntryRepository() (EntryRepository, error)
	RequestRepository() (RequestRepository, error)
}

// Repository types usable with GetRepository.
var (
	AccountRepositoryType = reflect.TypeOf((*AccountRepository)(nil)).Elem()
	EntryRepositoryType   = reflect.TypeOf((*EntryRepository)(nil)).Elem()
	RequestRepositoryType = reflect.TypeOf((*RequestRepository)(nil)).Elem()
)
