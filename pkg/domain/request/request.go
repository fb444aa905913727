// Package request models payment requests: one account asking another to pay it.
package request

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/google/uuid"
)

var (
	// ErrRequestNotFound is returned when a request id does not resolve.
	ErrRequestNotFound = errors.New("request not found")
	// ErrRequestAlreadyResolved is returned when resolving a request that is no longer pending.
	ErrRequestAlreadyResolved = errors.New("request already resolved")
	// ErrMissingDescription is returned when a request is created without a description.
	ErrMissingDescription = errors.New("description is required")
	// ErrInvalidTransition is returned when the target status is not a terminal status.
	ErrInvalidTransition = errors.New("invalid request status transition")
	// ErrSelfRequest is returned when requester and payer are the same account.
	ErrSelfRequest = fmt.Errorf("%w: cannot request money from yourself", account.ErrSameAccount)
	// ErrInvalidStatus is returned for an unknown status name.
	ErrInvalidStatus = errors.New("invalid request status")
)

// MaxDescriptionLength bounds the free-text description.
const MaxDescriptionLength = 280

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusCanceled Status = "Canceled"
)

// transitions lists the allowed target states per source state.
var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusCanceled},
	StatusAccepted: nil,
	StatusCanceled: nil,
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether s -> to is allowed.
func (s Status) CanTransitionTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Direction selects which side of a request an account is on.
type Direction string

const (
	DirectionAll      Direction = "all"
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// ParseDirection validates a direction, defaulting to DirectionAll when empty.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case "":
		return DirectionAll, nil
	case DirectionAll, DirectionSent, DirectionReceived:
		return d, nil
	}
	return "", fmt.Errorf("%w: invalid direction %q", domain.ErrValidation, s)
}

// Request asks PayerID to pay Amount to RequesterID.
type Request struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
	PayerID     uuid.UUID
	Amount      money.Amount
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}

// New validates the input and returns a pending request.
func New(requesterID, payerID uuid.UUID, amount money.Amount, description string, at time.Time) (*Request, error) {
	if amount <= 0 {
		return nil, money.ErrInvalidAmount
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrMissingDescription
	}
	if len(description) > MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description longer than %d characters", domain.ErrValidation, MaxDescriptionLength)
	}
	if requesterID == payerID {
		return nil, ErrSelfRequest
	}
	return &Request{
		ID:          uuid.New(),
		RequesterID: requesterID,
		PayerID:     payerID,
		Amount:      amount,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   at,
		UpdatedAt:   at,
	}, nil
}

// CheckTransition validates moving the request to status to.
func (r *Request) CheckTransition(to Status) error {
	if r.Status.Terminal() {
		return ErrRequestAlreadyResolved
	}
	if !r.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	return nil
}

// Resolve moves the request to a terminal status.
func (r *Request) Resolve(to Status, at time.Time) error {
	if err := r.CheckTransition(to); err != nil {
		return err
	}
	r.Status = to
	r.UpdatedAt = at
	r.ResolvedAt = &at
	return nil
}

// Involves reports whether id is requester or payer.
func (r *Request) Involves(id uuid.UUID) bool {
	return r.RequesterID == id || r.PayerID == id
}
