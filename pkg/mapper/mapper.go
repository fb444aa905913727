// Package mapper converts domain records to their API DTOs.
package mapper

import (
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/dto"
	"github.com/google/uuid"
)

// MapAccountToRead maps a domain Account to dto.AccountRead.
func MapAccountToRead(a *account.Account) *dto.AccountRead {
	return &dto.AccountRead{
		ID:                    a.ID,
		Balance:               a.Balance.String(),
		IsVerified:            a.IsVerified,
		TransactionLimit:      a.TransactionLimit.String(),
		MoneySentCount:        a.MoneySentCount,
		MoneyReceivedCount:    a.MoneyReceivedCount,
		RequestsReceivedCount: a.RequestsReceivedCount,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

// MapEntryToRead maps an Entry as seen by viewer. A nil viewer leaves
// Direction empty.
func MapEntryToRead(e *account.Entry, viewer uuid.UUID) *dto.EntryRead {
	out := &dto.EntryRead{
		ID:         e.ID,
		Code:       e.Code,
		SenderID:   e.SenderID,
		ReceiverID: e.ReceiverID,
		Amount:     e.Amount.String(),
		Kind:       string(e.Kind),
		Reference:  e.Reference,
		CreatedAt:  e.CreatedAt,
	}
	if viewer != uuid.Nil && e.Involves(viewer) {
		out.Direction = e.DirectionFor(viewer)
	}
	return out
}

// MapEntriesToRead maps a history page.
func MapEntriesToRead(entries []*account.Entry, viewer uuid.UUID) []*dto.EntryRead {
	out := make([]*dto.EntryRead, 0, len(entries))
	for _, e := range entries {
		out = append(out, MapEntryToRead(e, viewer))
	}
	return out
}

// MapRequestToRead maps a payment request.
func MapRequestToRead(r *request.Request) *dto.RequestRead {
	return &dto.RequestRead{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		PayerID:     r.PayerID,
		Amount:      r.Amount.String(),
		Description: r.Description,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ResolvedAt:  r.ResolvedAt,
	}
}

// MapRequestsToRead maps a request listing.
func MapRequestsToRead(reqs []*request.Request) []*dto.RequestRead {
	out := make([]*dto.RequestRead, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, MapRequestToRead(r))
	}
	return out
}
