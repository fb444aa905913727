package repository

import (
	"context"
	"errors"

	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*account.Account, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(lockForUpdate)
	}
	var m Account
	if err := q.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, account.ErrAccountNotFound
		}
		return nil, MapGormErrorToDomain(err)
	}
	return accountFromModel(&m), nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate issues SELECT ... FOR UPDATE.
func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.get(ctx, id, true)
}

func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(accountToModel(acc)).Error
	})
}

func (r *accountRepository) Update(ctx context.Context, acc *account.Account) error {
	result := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", acc.ID).
		Updates(map[string]any{
			"balance":                 acc.Balance.Int64(),
			"is_verified":             acc.IsVerified,
			"transaction_limit":       acc.TransactionLimit.Int64(),
			"money_sent_count":        acc.MoneySentCount,
			"money_received_count":    acc.MoneyReceivedCount,
			"requests_received_count": acc.RequestsReceivedCount,
			"updated_at":              acc.UpdatedAt,
		})
	if result.Error != nil {
		return MapGormErrorToDomain(result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

type entryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) repository.EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry *account.Entry) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(entryToModel(entry)).Error
	})
}

func (r *entryRepository) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	page repository.Page,
) ([]*account.Entry, error) {
	q := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", accountID, accountID).
		Order("created_at desc, id desc")
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}

	var rows []LedgerEntry
	if err := q.Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Entry, 0, len(rows))
	for i := range rows {
		out = append(out, entryFromModel(&rows[i]))
	}
	return out, nil
}

func (r *entryRepository) latest(ctx context.Context, column string, accountID uuid.UUID) (*account.Entry, error) {
	var m LedgerEntry
	err := r.db.WithContext(ctx).
		Where(column+" = ?", accountID).
		Order("created_at desc, id desc").
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, account.ErrEntryNotFound
		}
		return nil, MapGormErrorToDomain(err)
	}
	return entryFromModel(&m), nil
}

func (r *entryRepository) LatestSent(ctx context.Context, accountID uuid.UUID) (*account.Entry, error) {
	return r.latest(ctx, "sender_id", accountID)
}

func (r *entryRepository) LatestReceived(ctx context.Context, accountID uuid.UUID) (*account.Entry, error) {
	return r.latest(ctx, "receiver_id", accountID)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *request.Request) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(requestToModel(req)).Error
	})
}

func (r *requestRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*request.Request, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(lockForUpdate)
	}
	var m PaymentRequest
	if err := q.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, request.ErrRequestNotFound
		}
		return nil, MapGormErrorToDomain(err)
	}
	return requestFromModel(&m), nil
}

func (r *requestRepository) Get(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return r.get(ctx, id, false)
}

func (r *requestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return r.get(ctx, id, true)
}

func (r *requestRepository) Update(ctx context.Context, req *request.Request) error {
	result := r.db.WithContext(ctx).
		Model(&PaymentRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":      string(req.Status),
			"updated_at":  req.UpdatedAt,
			"resolved_at": req.ResolvedAt,
		})
	if result.Error != nil {
		return MapGormErrorToDomain(result.Error)
	}
	if result.RowsAffected == 0 {
		return request.ErrRequestNotFound
	}
	return nil
}

func (r *requestRepository) List(
	ctx context.Context,
	accountID uuid.UUID,
	dir request.Direction,
) ([]*request.Request, error) {
	q := r.db.WithContext(ctx)
	switch dir {
	case request.DirectionSent:
		q = q.Where("requester_id = ?", accountID)
	case request.DirectionReceived:
		q = q.Where("payer_id = ?", accountID)
	default:
		q = q.Where("requester_id = ? OR payer_id = ?", accountID, accountID)
	}

	var rows []PaymentRequest
	if err := q.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*request.Request, 0, len(rows))
	for i := range rows {
		out = append(out, requestFromModel(&rows[i]))
	}
	return out, nil
}
