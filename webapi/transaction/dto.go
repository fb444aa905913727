package transaction

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//revive:disable

// TransferRequest is the body of POST /transfers. Amount accepts a JSON
// number or string in major units.
type TransferRequest struct {
	ReceiverID uuid.UUID       `json:"receiver_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Kind       string          `json:"kind" validate:"omitempty,oneof=Payment Transfer Refund"`
	Reference  string          `json:"reference" validate:"omitempty,max=140"`
}

// DepositRequest is the body of POST /deposits.
type DepositRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"omitempty,max=140"`
}

