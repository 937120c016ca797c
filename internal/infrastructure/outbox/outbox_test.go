package outbox

import (
	"context"
	"sync"
	"testing"

	domoutbox "github.com/bookmesh/bookledger/internal/domain/outbox"
)

type stubEvent struct{ name string }

func (e stubEvent) EventName() string { return e.name }

func TestBus_DeliversInPublishOrder(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	var seen []string
	bus.Subscribe("stock.changed", func(_ context.Context, e domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventName())
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)

	for i := 0; i < 3; i++ {
		if err := bus.Publish(ctx, stubEvent{name: "stock.changed"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	// Stop drains the queue before returning.
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(seen))
	}
}

func TestBus_DropsEventsWithoutSubscriber(t *testing.T) {
	bus := NewBus(nil)
	ctx := context.Background()
	bus.Start(ctx)

	if err := bus.Publish(ctx, stubEvent{name: "nobody.listens"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	bus.Stop(ctx)
}

func TestBus_SurvivesPanickingHandler(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	delivered := 0
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error {
		panic("handler bug")
	})
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	if err := bus.Publish(ctx, stubEvent{name: "boom"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	if delivered != 1 {
		t.Errorf("panicking handler must not block the others, delivered %d", delivered)
	}
}

func TestBus_PublishNilIsNoop(t *testing.T) {
	bus := NewBus(nil)
	if err := bus.Publish(context.Background(), nil); err != nil {
		t.Fatalf("publishing nil should be a no-op, got %v", err)
	}
}
