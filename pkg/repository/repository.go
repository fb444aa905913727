package repository

import (
	"context"

	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/google/uuid"
)

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

// AccountRepository defines the interface for account data access operations.
// GetForUpdate locks the row until the surrounding unit of work ends.
type AccountRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)
	Create(ctx context.Context, acc *account.Account) error
	Update(ctx context.Context, acc *account.Account) error
}

// EntryRepository is the append-only ledger entry store.
type EntryRepository interface {
	Create(ctx context.Context, entry *account.Entry) error
	// ListByAccount returns entries where accountID is sender or receiver, newest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, page Page) ([]*account.Entry, error)
	LatestSent(ctx context.Context, accountID uuid.UUID) (*account.Entry, error)
	LatestReceived(ctx context.Context, accountID uuid.UUID) (*account.Entry, error)
}

// RequestRepository defines the interface for payment request data access.
type RequestRepository interface {
	Create(ctx context.Context, req *request.Request) error
	Get(ctx context.Context, id uuid.UUID) (*request.Request, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error)
	Update(ctx context.Context, req *request.Request) error
	// List returns requests the account is party to, newest first.
	List(ctx context.Context, accountID uuid.UUID, dir request.Direction) ([]*request.Request, error)
}
