// Package memory is an in-process implementation of the repository contracts.
// One store-wide mutex is held for the duration of a unit of work, so units are
// serialized; writes are staged and only applied when the unit succeeds.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/google/uuid"
)

// Store holds committed state.
type Store struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]account.Account
	entries  []account.Entry
	requests map[uuid.UUID]request.Request
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]account.Account),
		requests: make(map[uuid.UUID]request.Request),
	}
}

// txState is the write set of one unit of work.
type txState struct {
	store    *Store
	accounts map[uuid.UUID]account.Account
	entries  []account.Entry
	requests map[uuid.UUID]request.Request
}

func newTx(s *Store) *txState {
	return &txState{
		store:    s,
		accounts: make(map[uuid.UUID]account.Account),
		requests: make(map[uuid.UUID]request.Request),
	}
}

func (t *txState) account(id uuid.UUID) (account.Account, bool) {
	if a, ok := t.accounts[id]; ok {
		return a, true
	}
	a, ok := t.store.accounts[id]
	return a, ok
}

func (t *txState) request(id uuid.UUID) (request.Request, bool) {
	if r, ok := t.requests[id]; ok {
		return r, true
	}
	r, ok := t.store.requests[id]
	return r, ok
}

// commit applies the write set. The caller holds store.mu.
func (t *txState) commit() {
	for id, a := range t.accounts {
		t.store.accounts[id] = a
	}
	for id, r := range t.requests {
		t.store.requests[id] = r
	}
	t.store.entries = append(t.store.entries, t.entries...)
}

// UoW implements repository.UnitOfWork over a Store.
type UoW struct {
	store        *Store
	tx           *txState
	repoRegistry map[reflect.Type]func(*UoW) any
}

// NewUoW creates a new UoW for the given store.
func NewUoW(store *Store) *UoW {
	return &UoW{
		store: store,
		repoRegistry: map[reflect.Type]func(*UoW) any{
			repository.AccountRepositoryType: func(u *UoW) any { return &accountRepository{uow: u} },
			repository.EntryRepositoryType:   func(u *UoW) any { return &entryRepository{uow: u} },
			repository.RequestRepositoryType: func(u *UoW) any { return &requestRepository{uow: u} },
		},
	}
}

// Do runs fn with exclusive access to the store. Staged writes are applied only
// if fn succeeds and ctx is still live.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	tx := newTx(u.store)
	if err := fn(&UoW{store: u.store, tx: tx, repoRegistry: u.repoRegistry}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// with runs op against the current unit, or a single-operation unit when
// the repository is used outside Do.
func (u *UoW) with(ctx context.Context, op func(tx *txState) error) error {
	if u.tx != nil {
		return op(u.tx)
	}
	return u.Do(ctx, func(inner repository.UnitOfWork) error {
		return op(inner.(*UoW).tx)
	})
}

// GetRepository returns a repository bound to this unit.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u), nil
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
