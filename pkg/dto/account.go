package dto

import (
	"time"

	"github.com/google/uuid"
)

// AccountRead is the API representation of an account. Amounts are decimal
// strings in major units.
type AccountRead struct {
	ID                    uuid.UUID `json:"id"`
	Balance               string    `json:"balance"`
	IsVerified            bool      `json:"is_verified"`
	TransactionLimit      string    `json:"transaction_limit"`
	MoneySentCount        int64     `json:"money_sent_count"`
	MoneyReceivedCount    int64     `json:"money_received_count"`
	RequestsReceivedCount int64     `json:"requests_received_count"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// AccountSummary is the public view returned by the receiver lookup.
type AccountSummary struct {
	ID         uuid.UUID `json:"id"`
	IsVerified bool      `json:"is_verified"`
}
