package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/google/uuid"
)

type accountRepository struct {
	uow *UoW
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (acc *account.Account, err error) {
	err = r.uow.with(ctx, func(tx *txState) error {
		a, ok := tx.account(id)
		if !ok {
			return account.ErrAccountNotFound
		}
		acc = &a
		return nil
	})
	return
}

// GetForUpdate is Get: the unit already holds the store lock.
func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.Get(ctx, id)
}

func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	return r.uow.with(ctx, func(tx *txState) error {
		if _, ok := tx.account(acc.ID); ok {
			return domain.ErrAlreadyExists
		}
		tx.accounts[acc.ID] = *acc
		return nil
	})
}

func (r *accountRepository) Update(ctx context.Context, acc *account.Account) error {
	return r.uow.with(ctx, func(tx *txState) error {
		if _, ok := tx.account(acc.ID); !ok {
			return account.ErrAccountNotFound
		}
		tx.accounts[acc.ID] = *acc
		return nil
	})
}

type entryRepository struct {
	uow *UoW
}

func (r *entryRepository) Create(ctx context.Context, entry *account.Entry) error {
	return r.uow.with(ctx, func(tx *txState) error {
		tx.entries = append(tx.entries, *entry)
		return nil
	})
}

// matching returns entries visible to tx that satisfy keep, newest first.
// Later inserts win ties on CreatedAt.
func (tx *txState) matching(keep func(e *account.Entry) bool) []*account.Entry {
	all := make([]account.Entry, 0, len(tx.store.entries)+len(tx.entries))
	all = append(all, tx.store.entries...)
	all = append(all, tx.entries...)

	out := make([]*account.Entry, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if keep(&all[i]) {
			e := all[i]
			out = append(out, &e)
		}
	}
	slices.SortStableFunc(out, func(a, b *account.Entry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (r *entryRepository) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	page repository.Page,
) (out []*account.Entry, err error) {
	err = r.uow.with(ctx, func(tx *txState) error {
		all := tx.matching(func(e *account.Entry) bool { return e.Involves(accountID) })
		start := min(max(page.Offset, 0), len(all))
		end := len(all)
		if page.Limit > 0 {
			end = min(start+page.Limit, len(all))
		}
		out = all[start:end]
		return nil
	})
	return
}

func (r *entryRepository) latest(ctx context.Context, keep func(e *account.Entry) bool) (entry *account.Entry, err error) {
	err = r.uow.with(ctx, func(tx *txState) error {
		all := tx.matching(keep)
		if len(all) == 0 {
			return account.ErrEntryNotFound
		}
		entry = all[0]
		return nil
	})
	return
}

func (r *entryRepository) LatestSent(ctx context.Context, accountID uuid.UUID) (*account.Entry, error) {
	return r.latest(ctx, func(e *account.Entry) bool { return e.SenderID == accountID })
}

func (r *entryRepository) LatestReceived(ctx context.Context, accountID uuid.UUID) (*account.Entry, error) {
	return r.latest(ctx, func(e *account.Entry) bool { return e.ReceiverID == accountID })
}

type requestRepository struct {
	uow *UoW
}

func (r *requestRepository) Create(ctx context.Context, req *request.Request) error {
	return r.uow.with(ctx, func(tx *txState) error {
		if _, ok := tx.request(req.ID); ok {
			return domain.ErrAlreadyExists
		}
		tx.requests[req.ID] = *req
		return nil
	})
}

func (r *requestRepository) Get(ctx context.Context, id uuid.UUID) (req *request.Request, err error) {
	err = r.uow.with(ctx, func(tx *txState) error {
		found, ok := tx.request(id)
		if !ok {
			return request.ErrRequestNotFound
		}
		req = &found
		return nil
	})
	return
}

func (r *requestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return r.Get(ctx, id)
}

func (r *requestRepository) Update(ctx context.Context, req *request.Request) error {
	return r.uow.with(ctx, func(tx *txState) error {
		if _, ok := tx.request(req.ID); !ok {
			return request.ErrRequestNotFound
		}
		tx.requests[req.ID] = *req
		return nil
	})
}

func (r *requestRepository) List(
	ctx context.Context,
	accountID uuid.UUID,
	dir request.Direction,
) (out []*request.Request, err error) {
	err = r.uow.with(ctx, func(tx *txState) error {
		seen := make(map[uuid.UUID]request.Request, len(tx.store.requests)+len(tx.requests))
		for id, req := range tx.store.requests {
			seen[id] = req
		}
		for id, req := range tx.requests {
			seen[id] = req
		}
		out = make([]*request.Request, 0)
		for _, req := range seen {
			if matchesDirection(&req, accountID, dir) {
				out = append(out, &req)
			}
		}
		slices.SortFunc(out, func(a, b *request.Request) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID.String(), b.ID.String())
		})
		return nil
	})
	return
}

func matchesDirection(req *request.Request, accountID uuid.UUID, dir request.Direction) bool {
	switch dir {
	case request.DirectionSent:
		return req.RequesterID == accountID
	case request.DirectionReceived:
		return req.PayerID == accountID
	default:
		return req.Involves(accountID)
	}
}
