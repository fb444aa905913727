package dto

import (
	"time"

	"github.com/google/uuid"
)

// RequestRead is the API representation of a payment request.
type RequestRead struct {
	ID          uuid.UUID  `json:"id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	PayerID     uuid.UUID  `json:"payer_id"`
	Amount      string     `json:"amount"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// ResolveResult is returned by the resolve endpoint. Entry is set when the
// request was accepted.
type ResolveResult struct {
	Request RequestRead `json:"request"`
	Entry   *EntryRead  `json:"entry,omitempty"`
}
