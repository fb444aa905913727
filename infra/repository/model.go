package repository

import (
	"time"

	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/google/uuid"
)

// Account represents an account record in the database.
type Account struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Balance               int64     `gorm:"not null"`
	IsVerified            bool      `gorm:"not null"`
	TransactionLimit      int64     `gorm:"not null"`
	MoneySentCount        int64     `gorm:"not null"`
	MoneyReceivedCount    int64     `gorm:"not null"`
	RequestsReceivedCount int64     `gorm:"not null"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Account) TableName() string { return "accounts" }

// LedgerEntry represents an immutable ledger entry record.
type LedgerEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code       string    `gorm:"size:10;not null;index"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount     int64     `gorm:"not null"`
	Kind       string    `gorm:"size:16;not null"`
	Reference  string    `gorm:"size:140;not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// PaymentRequest represents a payment request record.
type PaymentRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index"`
	PayerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount      int64     `gorm:"not null"`
	Description string    `gorm:"size:280;not null"`
	Status      string    `gorm:"size:16;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}

func (PaymentRequest) TableName() string { return "payment_requests" }

func accountToModel(a *account.Account) *Account {
	return &Account{
		ID:                    a.ID,
		Balance:               a.Balance.Int64(),
		IsVerified:            a.IsVerified,
		TransactionLimit:      a.TransactionLimit.Int64(),
		MoneySentCount:        a.MoneySentCount,
		MoneyReceivedCount:    a.MoneyReceivedCount,
		RequestsReceivedCount: a.RequestsReceivedCount,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func accountFromModel(m *Account) *account.Account {
	return &account.Account{
		ID:                    m.ID,
		Balance:               money.Amount(m.Balance),
		IsVerified:            m.IsVerified,
		TransactionLimit:      money.Amount(m.TransactionLimit),
		MoneySentCount:        m.MoneySentCount,
		MoneyReceivedCount:    m.MoneyReceivedCount,
		RequestsReceivedCount: m.RequestsReceivedCount,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func entryToModel(e *account.Entry) *LedgerEntry {
	return &LedgerEntry{
		ID:         e.ID,
		Code:       e.Code,
		SenderID:   e.SenderID,
		ReceiverID: e.ReceiverID,
		Amount:     e.Amount.Int64(),
		Kind:       string(e.Kind),
		Reference:  e.Reference,
		CreatedAt:  e.CreatedAt,
	}
}

func entryFromModel(m *LedgerEntry) *account.Entry {
	return &account.Entry{
		ID:         m.ID,
		Code:       m.Code,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Amount:     money.Amount(m.Amount),
		Kind:       account.Kind(m.Kind),
		Reference:  m.Reference,
		CreatedAt:  m.CreatedAt,
	}
}

func requestToModel(r *request.Request) *PaymentRequest {
	return &PaymentRequest{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		PayerID:     r.PayerID,
		Amount:      r.Amount.Int64(),
		Description: r.Description,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ResolvedAt:  r.ResolvedAt,
	}
}

func requestFromModel(m *PaymentRequest) *request.Request {
	return &request.Request{
		ID:          m.ID,
		RequesterID: m.RequesterID,
		PayerID:     m.PayerID,
		Amount:      money.Amount(m.Amount),
		Description: m.Description,
		Status:      request.Status(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ResolvedAt:  m.ResolvedAt,
	}
}
