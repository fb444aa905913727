package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//revive:disable

// CreateRequest is the body of POST /requests.
type CreateRequest struct {
	PayerID     uuid.UUID       `json:"payer_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=280"`
}

// ResolveRequest is the body of POST /requests/:id/resolve.
type ResolveRequest struct {
	Status    string `json:"status" validate:"required,oneof=Accepted Canceled"`
	Reference string `json:"reference" validate:"omitempty,max=140"`
}
