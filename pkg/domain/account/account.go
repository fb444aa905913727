package account

import (
	"errors"
	"time"

	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/google/uuid"
)

var (
	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrSameAccount is returned when a transfer names the same account on both sides.
	ErrSameAccount = errors.New("cannot transfer to same account")

	// ErrUnverifiedAccount is returned when either party of a transfer is not verified.
	ErrUnverifiedAccount = errors.New("account is not verified")

	// ErrInvalidAmount is returned when a transaction amount is not positive.
	ErrInvalidAmount = money.ErrInvalidAmount

	// ErrLimitExceeded is returned when an amount exceeds the sender's per-transaction limit.
	ErrLimitExceeded = errors.New("amount exceeds transaction limit")

	// ErrInsufficientFunds is returned when the sender's balance is lower than the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBalanceOverflow is returned when a credit would overflow the receiver's balance.
	ErrBalanceOverflow = errors.New("balance would overflow")

	// ErrNilAccount is returned when a nil account is handed to an operation.
	ErrNilAccount = errors.New("nil account")
)

// Account holds a participant's spendable balance and activity counters.
//
// Invariants:
//   - Balance is never negative.
//   - The counters only grow.
//   - Balance and counters change only through Debit, Credit, Deposit and
//     RecordRequestReceived, which the ledger engine calls inside a unit of work.
type Account struct {
	ID                    uuid.UUID
	Balance               money.Amount
	IsVerified            bool
	TransactionLimit      money.Amount
	MoneySentCount        int64
	MoneyReceivedCount    int64
	RequestsReceivedCount int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	acc Account
}

// New creates a Builder with a fresh id.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{acc: Account{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}}
}

// WithID sets the account id. The identity provider's principal id is used here.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.acc.ID = id
	return b
}

// WithBalance sets the balance in minor units.
func (b *Builder) WithBalance(balance money.Amount) *Builder {
	b.acc.Balance = balance
	return b
}

// WithTransactionLimit sets the per-transaction ceiling in minor units.
func (b *Builder) WithTransactionLimit(limit money.Amount) *Builder {
	b.acc.TransactionLimit = limit
	return b
}

// WithVerified sets the verification flag.
func (b *Builder) WithVerified(verified bool) *Builder {
	b.acc.IsVerified = verified
	return b
}

// WithCounters hydrates the activity counters from storage.
func (b *Builder) WithCounters(sent, received, requestsReceived int64) *Builder {
	b.acc.MoneySentCount = sent
	b.acc.MoneyReceivedCount = received
	b.acc.RequestsReceivedCount = requestsReceived
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.acc.CreatedAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.acc.UpdatedAt = t
	return b
}

// Build validates the invariants and returns the account.
func (b *Builder) Build() (*Account, error) {
	if b.acc.ID == uuid.Nil {
		return nil, errors.New("account id is required")
	}
	if b.acc.Balance < 0 {
		return nil, errors.New("balance cannot be negative")
	}
	if b.acc.TransactionLimit < 0 {
		return nil, errors.New("transaction limit cannot be negative")
	}
	acc := b.acc
	return &acc, nil
}

// ValidateTransfer checks every precondition of moving amount from a to dest.
// Checks run in a fixed order so callers see a stable error for a given input.
func (a *Account) ValidateTransfer(dest *Account, amount money.Amount) error {
	if a == nil || dest == nil {
		return ErrNilAccount
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.ID == dest.ID {
		return ErrSameAccount
	}
	if !a.IsVerified || !dest.IsVerified {
		return ErrUnverifiedAccount
	}
	if amount > a.TransactionLimit {
		return ErrLimitExceeded
	}
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	if _, ok := money.AddChecked(dest.Balance, amount); !ok {
		return ErrBalanceOverflow
	}
	return nil
}

// ValidateDeposit checks that amount can be credited without overflow.
func (a *Account) ValidateDeposit(amount money.Amount) error {
	if a == nil {
		return ErrNilAccount
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if _, ok := money.AddChecked(a.Balance, amount); !ok {
		return ErrBalanceOverflow
	}
	return nil
}

// Debit removes amount from the balance and counts an outgoing transfer.
func (a *Account) Debit(amount money.Amount, at time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	a.Balance -= amount
	a.MoneySentCount++
	a.UpdatedAt = at
	return nil
}

// Credit adds amount to the balance and counts an incoming transfer.
func (a *Account) Credit(amount money.Amount, at time.Time) error {
	if err := a.ValidateDeposit(amount); err != nil {
		return err
	}
	a.Balance += amount
	a.MoneyReceivedCount++
	a.UpdatedAt = at
	return nil
}

// Deposit adds externally sourced funds. Deposits do not count as received transfers.
func (a *Account) Deposit(amount money.Amount, at time.Time) error {
	if err := a.ValidateDeposit(amount); err != nil {
		return err
	}
	a.Balance += amount
	a.UpdatedAt = at
	return nil
}

// RecordRequestReceived counts a payment request addressed to this account.
func (a *Account) RecordRequestReceived(at time.Time) {
	a.RequestsReceivedCount++
	a.UpdatedAt = at
}
