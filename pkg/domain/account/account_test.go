package account_test

import (
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	domainaccount "github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

func newVerified(t *testing.T, balance string) *domainaccount.Account {
	t.Helper()
	acc, err := domainaccount.New().
		WithBalance(money.MustParse(balance)).
		WithTransactionLimit(money.MustParse("5000")).
		WithVerified(true).
		Build()
	require.NoError(t, err)
	return acc
}

func TestNewAccount(t *testing.T) {
	t.Parallel()
	acc, err := domainaccount.New().Build()
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, acc.ID)
	assert.False(t, acc.IsVerified)

	_, err = domainaccount.New().WithID(uuid.Nil).Build()
	require.Error(t, err)

	_, err = domainaccount.New().WithBalance(-1).Build()
	require.Error(t, err)
}

func TestValidateTransfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(src, dst *domainaccount.Account)
		amount  money.Amount
		wantErr error
	}{
		{name: "ok", amount: money.MustParse("25")},
		{name: "zero amount", amount: 0, wantErr: domainaccount.ErrInvalidAmount},
		{name: "negative amount", amount: -100, wantErr: domainaccount.ErrInvalidAmount},
		{
			name:    "same account",
			amount:  100,
			setup:   func(src, dst *domainaccount.Account) { dst.ID = src.ID },
			wantErr: domainaccount.ErrSameAccount,
		},
		{
			name:    "unverified sender",
			amount:  100,
			setup:   func(src, _ *domainaccount.Account) { src.IsVerified = false },
			wantErr: domainaccount.ErrUnverifiedAccount,
		},
		{
			name:    "unverified receiver",
			amount:  100,
			setup:   func(_, dst *domainaccount.Account) { dst.IsVerified = false },
			wantErr: domainaccount.ErrUnverifiedAccount,
		},
		{
			name:    "over limit",
			amount:  money.MustParse("6000"),
			setup:   func(src, _ *domainaccount.Account) { src.Balance = money.MustParse("10000") },
			wantErr: domainaccount.ErrLimitExceeded,
		},
		{
			name:    "insufficient funds",
			amount:  money.MustParse("100.01"),
			wantErr: domainaccount.ErrInsufficientFunds,
		},
		{
			name:    "receiver overflow",
			amount:  100,
			setup:   func(_, dst *domainaccount.Account) { dst.Balance = math.MaxInt64 - 10 },
			wantErr: domainaccount.ErrBalanceOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newVerified(t, "100")
			dst := newVerified(t, "100")
			if tt.setup != nil {
				tt.setup(src, dst)
			}
			err := src.ValidateTransfer(dst, tt.amount)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDebitCredit(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	src := newVerified(t, "100")
	dst := newVerified(t, "100")

	require.NoError(t, src.Debit(money.MustParse("25"), now))
	require.NoError(t, dst.Credit(money.MustParse("25"), now))

	assert.Equal(t, money.MustParse("75"), src.Balance)
	assert.Equal(t, money.MustParse("125"), dst.Balance)
	assert.Equal(t, int64(1), src.MoneySentCount)
	assert.Equal(t, int64(0), src.MoneyReceivedCount)
	assert.Equal(t, int64(1), dst.MoneyReceivedCount)

	err := src.Debit(money.MustParse("1000"), now)
	assert.ErrorIs(t, err, domainaccount.ErrInsufficientFunds)
	assert.Equal(t, money.MustParse("75"), src.Balance, "failed debit leaves balance untouched")
}

func TestDeposit(t *testing.T) {
	t.Parallel()
	acc, err := domainaccount.New().WithBalance(money.MustParse("10")).Build()
	require.NoError(t, err)

	require.NoError(t, acc.Deposit(money.MustParse("5.25"), time.Now()))
	assert.Equal(t, money.MustParse("15.25"), acc.Balance)
	assert.Zero(t, acc.MoneyReceivedCount, "deposits do not count as received transfers")

	assert.ErrorIs(t, acc.Deposit(0, time.Now()), domainaccount.ErrInvalidAmount)
	acc.Balance = math.MaxInt64
	assert.ErrorIs(t, acc.Deposit(1, time.Now()), domainaccount.ErrBalanceOverflow)
}

func TestRecordRequestReceived(t *testing.T) {
	t.Parallel()
	acc := newVerified(t, "1")
	acc.RecordRequestReceived(time.Now())
	acc.RecordRequestReceived(time.Now())
	assert.Equal(t, int64(2), acc.RequestsReceivedCount)
}
