package audit

import (
	"context"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
	domoutbox "github.com/bookmesh/bookledger/internal/domain/outbox"
	"github.com/bookmesh/bookledger/internal/observability"
)

// Worker subscribes to every catalog event and writes one structured audit
// entry per accepted mutation. The audit trail is write-only from the system's
// point of view; nothing reads it back.
type Worker struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func New(subscriber domoutbox.Subscriber, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		log:        logger.With(observability.F("component", "audit_worker")),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(catalog.BookAddedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(catalog.BookUpdatedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(catalog.BookRemovedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(catalog.BookSoldEvent{}.EventName(), w.handle)
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) error {
	_ = ctx

	switch evt := e.(type) {
	case catalog.BookAddedEvent:
		w.log.Info("audit_book_added",
			observability.F("event_id", evt.EventID),
			observability.F("book_id", evt.BookID),
			observability.F("title", evt.Title),
			observability.F("author", evt.Author),
			observability.F("price", evt.Price),
			observability.F("quantity", evt.Quantity),
			observability.F("occurred_at", evt.OccurredAt),
		)
	case catalog.BookUpdatedEvent:
		w.log.Info("audit_book_updated",
			observability.F("event_id", evt.EventID),
			observability.F("book_id", evt.BookID),
			observability.F("price", evt.Price),
			observability.F("quantity", evt.Quantity),
			observability.F("occurred_at", evt.OccurredAt),
		)
	case catalog.BookRemovedEvent:
		w.log.Info("audit_book_removed",
			observability.F("event_id", evt.EventID),
			observability.F("book_id", evt.BookID),
			observability.F("occurred_at", evt.OccurredAt),
		)
	case catalog.BookSoldEvent:
		w.log.Info("audit_book_sold",
			observability.F("event_id", evt.EventID),
			observability.F("book_id", evt.BookID),
			observability.F("quantity", evt.Quantity),
			observability.F("buyer", evt.Buyer.String()),
			observability.F("occurred_at", evt.OccurredAt),
		)
	}
	return nil
}
