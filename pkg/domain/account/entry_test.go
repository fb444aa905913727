package account_test

import (
	"testing"
	"time"

	domainaccount "github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	t.Parallel()
	a, b := uuid.New(), uuid.New()
	now := time.Now().UTC()

	e, err := domainaccount.NewEntry(a, b, 500, domainaccount.KindTransfer, domainaccount.ReferenceTransaction, now)
	require.NoError(t, err)
	assert.Len(t, e.Code, 10)
	assert.True(t, e.Involves(a))
	assert.True(t, e.Involves(b))
	assert.False(t, e.Involves(uuid.New()))
	assert.Equal(t, "sent", e.DirectionFor(a))
	assert.Equal(t, "received", e.DirectionFor(b))

	_, err = domainaccount.NewEntry(a, a, 500, domainaccount.KindPayment, "", now)
	assert.ErrorIs(t, err, domainaccount.ErrSameAccount)

	_, err = domainaccount.NewEntry(a, b, 0, domainaccount.KindPayment, "", now)
	assert.ErrorIs(t, err, domainaccount.ErrInvalidAmount)

	_, err = domainaccount.NewEntry(a, b, 1, domainaccount.Kind("Bogus"), "", now)
	assert.ErrorIs(t, err, domainaccount.ErrInvalidKind)

	long := make([]byte, domainaccount.MaxReferenceLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = domainaccount.NewEntry(a, b, 1, domainaccount.KindPayment, string(long), now)
	assert.ErrorIs(t, err, domainaccount.ErrReferenceTooLong)
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	for _, k := range []string{"Payment", "Transfer", "Deposit", "Refund"} {
		kind, err := domainaccount.ParseKind(k)
		require.NoError(t, err)
		assert.Equal(t, k, string(kind))
	}
	_, err := domainaccount.ParseKind("payment")
	assert.ErrorIs(t, err, domainaccount.ErrInvalidKind)

	assert.False(t, domainaccount.KindDeposit.Transferable())
	assert.True(t, domainaccount.KindRefund.Transferable())
}
