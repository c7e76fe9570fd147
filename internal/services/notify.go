package services

import (
	"context"

	"santiye/internal/amqp"
	"santiye/internal/core"
	"santiye/internal/log"
)

// syncNotifier records pending spreadsheet writes and nudges the worker.
// Both steps are best effort: the entity is already stored, and a missed
// message is picked up by the worker's periodic drain.
type syncNotifier struct {
	queue     SyncEnqueuer
	publisher Publisher
	logger    *log.Logger
}

func (n syncNotifier) notify(ctx context.Context, kind core.SyncKind, id int64) {
	if n.queue == nil {
		return
	}
	if _, err := n.queue.EnqueueSync(ctx, kind, id); err != nil {
		n.logger.ErrorContext(ctx, "Failed to enqueue sheet sync",
			"kind", kind, "entity_id", id, log.FieldError, err)
		return
	}

	if n.publisher == nil {
		n.logger.DebugContext(ctx, "AMQP client not available, skipping sync message",
			"kind", kind, "entity_id", id)
		return
	}
	if err := n.publisher.Publish(ctx, amqp.NewSyncMessage(kind, id)); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish sync message",
			"kind", kind, "entity_id", id, log.FieldError, err)
	}
}
