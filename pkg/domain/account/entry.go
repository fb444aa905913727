package account

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/google/uuid"
)

// Kind classifies a ledger entry.
type Kind string

const (
	KindPayment  Kind = "Payment"
	KindTransfer Kind = "Transfer"
	KindDeposit  Kind = "Deposit"
	KindRefund   Kind = "Refund"
)

// Default references attached to entries.
const (
	ReferenceTransaction = "Transaction ID"
	ReferencePayment     = "Payment for services"
)

// MaxReferenceLength bounds the free-text reference stored with an entry.
const MaxReferenceLength = 140

// ExternalSourceID is the sender recorded on deposit entries.
var ExternalSourceID = uuid.Nil

var (
	// ErrInvalidKind is returned for an unknown kind or a kind not allowed for the operation.
	ErrInvalidKind = errors.New("invalid transaction kind")
	// ErrReferenceTooLong is returned when the reference exceeds MaxReferenceLength.
	ErrReferenceTooLong = errors.New("reference too long")
	// ErrEntryNotFound is returned when no ledger entry matches a query.
	ErrEntryNotFound = errors.New("transaction not found")
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPayment, KindTransfer, KindDeposit, KindRefund:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Transferable reports whether an account-to-account transfer may carry this kind.
func (k Kind) Transferable() bool {
	return k == KindPayment || k == KindTransfer || k == KindRefund
}

// Entry is an immutable record of a completed money movement.
type Entry struct {
	ID         uuid.UUID
	Code       string
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     money.Amount
	Kind       Kind
	Reference  string
	CreatedAt  time.Time
}

// NewEntry builds an entry with a fresh id and display code.
func NewEntry(
	senderID, receiverID uuid.UUID,
	amount money.Amount,
	kind Kind,
	reference string,
	at time.Time,
) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if kind != KindDeposit && senderID == receiverID {
		return nil, ErrSameAccount
	}
	if len(reference) > MaxReferenceLength {
		return nil, ErrReferenceTooLong
	}
	code, err := newCode()
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:         uuid.New(),
		Code:       code,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Kind:       kind,
		Reference:  reference,
		CreatedAt:  at,
	}, nil
}

// Involves reports whether id is either party of the entry.
func (e *Entry) Involves(id uuid.UUID) bool {
	return e.SenderID == id || e.ReceiverID == id
}

// DirectionFor returns "sent" or "received" from the point of view of id.
func (e *Entry) DirectionFor(id uuid.UUID) string {
	if e.SenderID == id {
		return "sent"
	}
	return "received"
}

// newCode returns a 10-character hex reference shown to users. Codes may
// repeat; Entry.ID is the identity.
func newCode() (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate transaction code: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
