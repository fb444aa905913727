// Package events defines the facts published after a ledger unit of work commits.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an event on the bus and, for Kafka, its topic suffix.
type EventType string

func (t EventType) String() string { return string(t) }

const (
	EntryRecordedType   EventType = "ledger.entry.recorded"
	RequestCreatedType  EventType = "request.created"
	RequestResolvedType EventType = "request.resolved"
)

// Event is implemented by every published fact.
type Event interface {
	Type() string
}

// EntryRecorded is emitted once per committed ledger entry.
type EntryRecorded struct {
	EntryID    uuid.UUID `json:"entry_id"`
	Code       string    `json:"code"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Amount     int64     `json:"amount"`
	Kind       string    `json:"kind"`
	Reference  string    `json:"reference"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e *EntryRecorded) Type() string { return EntryRecordedType.String() }

// RequestCreated is emitted when a payment request is stored.
type RequestCreated struct {
	RequestID   uuid.UUID `json:"request_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	PayerID     uuid.UUID `json:"payer_id"`
	Amount      int64     `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e *RequestCreated) Type() string { return RequestCreatedType.String() }

// RequestResolved is emitted when a request reaches a terminal status.
// EntryID is set when the request was accepted.
type RequestResolved struct {
	RequestID uuid.UUID  `json:"request_id"`
	Status    string     `json:"status"`
	ActorID   uuid.UUID  `json:"actor_id"`
	EntryID   *uuid.UUID `json:"entry_id,omitempty"`
	At        time.Time  `json:"at"`
}

func (e *RequestResolved) Type() string { return RequestResolvedType.String() }

// EventTypes maps a type name to a constructor, used when decoding envelopes.
var EventTypes = map[EventType]func() Event{
	EntryRecordedType:   func() Event { return &EntryRecorded{} },
	RequestCreatedType:  func() Event { return &RequestCreated{} },
	RequestResolvedType: func() Event { return &RequestResolved{} },
}
