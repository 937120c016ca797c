package outbox

import (
	"context"
	"runtime/debug"
	"sync"

	domoutbox "github.com/bookmesh/bookledger/internal/domain/outbox"
	"github.com/bookmesh/bookledger/internal/observability"
	"github.com/bookmesh/bookledger/internal/observability/logctx"
)

const componentOutbox = "outbox"

// Bus is an in-memory event bus acting as the append-only audit feed for the
// ledger. Events are dispatched in publish order, one at a time, so subscribers
// observe mutations in the order the ledger accepted them. It is not durable;
// a production deployment would persist events (true outbox) and dispatch from
// a worker.
type Bus struct {
	mu        sync.RWMutex
	subs      map[string][]domoutbox.Handler
	queue     chan domoutbox.Event
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	log       observability.Logger
}

func NewBus(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:  make(map[string][]domoutbox.Handler),
		queue: make(chan domoutbox.Event, 1024),
		done:  make(chan struct{}),
		log:   logger.With(observability.F("component", componentOutbox)),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop closes the queue; the dispatch loop drains what is already enqueued and
// then exits.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.queue)
		<-b.done
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	select {
	case b.queue <- e:
		return nil
	case <-ctx.Done():
		b.log.Warn("event_enqueue_aborted",
			observability.F("event", e.EventName()),
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for e := range b.queue {
		b.dispatch(ctx, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	for _, h := range handlers {
		b.invoke(ctx, name, h, e)
	}
}

func (b *Bus) invoke(ctx context.Context, name string, h domoutbox.Handler, e domoutbox.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event_handler_panic",
				observability.F("event", name),
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
	}()

	ctx = logctx.With(ctx, b.log.With(observability.F("event", name)))
	if err := h(ctx, e); err != nil {
		b.log.Warn("event_handler_error",
			observability.F("event", name),
			observability.F("error", err),
		)
	}
}
