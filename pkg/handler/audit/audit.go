// Package audit logs every committed ledger fact published on the event bus.
package audit

import (
	"context"
	"log/slog"

	"github.com/amirasaad/payledger/pkg/domain/events"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/eventbus"
)

// Handle returns a handler that writes one structured audit line per event.
func Handle(logger *slog.Logger) eventbus.HandlerFunc {
	log := logger.With("handler", "audit")
	return func(ctx context.Context, e events.Event) error {
		switch ev := e.(type) {
		case *events.EntryRecorded:
			log.InfoContext(ctx, "entry recorded",
				"entry_id", ev.EntryID,
				"code", ev.Code,
				"sender_id", ev.SenderID,
				"receiver_id", ev.ReceiverID,
				"amount", money.Amount(ev.Amount).String(),
				"kind", ev.Kind,
				"reference", ev.Reference,
				"created_at", ev.CreatedAt,
			)
		case *events.RequestCreated:
			log.InfoContext(ctx, "request created",
				"request_id", ev.RequestID,
				"requester_id", ev.RequesterID,
				"payer_id", ev.PayerID,
				"amount", money.Amount(ev.Amount).String(),
			)
		case *events.RequestResolved:
			attrs := []any{
				"request_id", ev.RequestID,
				"status", ev.Status,
				"actor_id", ev.ActorID,
			}
			if ev.EntryID != nil {
				attrs = append(attrs, "entry_id", *ev.EntryID)
			}
			log.InfoContext(ctx, "request resolved", attrs...)
		default:
			log.WarnContext(ctx, "unexpected event", "type", e.Type())
		}
		return nil
	}
}

// Register subscribes the audit handler to every domain event type,
// skipping deliveries tracker has already seen.
func Register(bus eventbus.Bus, tracker *Tracker, logger *slog.Logger) {
	handler := Deduplicate(Handle(logger), tracker, EventKey, "audit", logger)
	for _, t := range []events.EventType{
		events.EntryRecordedType,
		events.RequestCreatedType,
		events.RequestResolvedType,
	} {
		bus.Register(t, handler)
	}
}
