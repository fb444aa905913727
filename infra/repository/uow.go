package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/payledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories handed out inside Do share the transaction's session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			repository.AccountRepositoryType: func(db *gorm.DB) any { return NewAccountRepository(db) },
			repository.EntryRepositoryType:   func(db *gorm.DB) any { return NewEntryRepository(db) },
			repository.RequestRepositoryType: func(db *gorm.DB) any { return NewRequestRepository(db) },
		},
	}
}

// Do runs fn in a database transaction. A UoW already bound to a transaction
// runs fn in that transaction. Commit-time serialization failures surface as
// domain.ErrStorageConflict.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
	})
	if conflict := mapConflict(err); conflict != nil {
		return conflict
	}
	return err
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// GetRepository returns a repository bound to the current session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	repo, err := u.GetRepository(repository.AccountRepositoryType)
	if err != nil {
		return nil, err
	}
	return repo.(repository.AccountRepository), nil
}

func (u *UoW) EntryRepository() (repository.EntryRepository, error) {
	repo, err := u.GetRepository(repository.EntryRepositoryType)
	if err != nil {
		return nil, err
	}
	return repo.(repository.EntryRepository), nil
}

func (u *UoW) RequestRepository() (repository.RequestRepository, error) {
	repo, err := u.GetRepository(repository.RequestRepositoryType)
	if err != nil {
		return nil, err
	}
	return repo.(repository.RequestRepository), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
