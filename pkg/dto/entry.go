package dto

import (
	"time"

	"github.com/google/uuid"
)

// EntryRead is the API representation of a ledger entry. Direction is
// "sent" or "received" relative to the viewing account, empty otherwise.
type EntryRead struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Amount     string    `json:"amount"`
	Kind       string    `json:"kind"`
	Reference  string    `json:"reference"`
	Direction  string    `json:"direction,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
