package events

import (
	"context"
	"fmt"

	"marina/pkg/kafka"
	"marina/pkg/logger"
)

var knownTypes = map[string]bool{
	BerthCreated:       true,
	BerthUpdated:       true,
	BerthDeleted:       true,
	ReservationCreated: true,
	ReservationUpdated: true,
	ReservationDeleted: true,
}

// AuditHandler writes one structured audit record per lifecycle event.
// Undecodable or unknown events are permanent failures and go to the DLQ.
func AuditHandler(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("failed to decode event", err)
		}
		if !knownTypes[event.Type] {
			return kafka.NewPermanentError(fmt.Sprintf("unknown event type %q", event.Type), nil)
		}

		log.Info("Audit",
			"event_type", event.Type,
			"berth_number", event.BerthNumber,
			"resource_id", event.ResourceID,
			"occurred_at", event.OccurredAt,
			"event_id", msg.GetEventID(),
			"correlation_id", msg.GetCorrelationID(),
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return nil
	}
}
