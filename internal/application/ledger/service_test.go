package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
	domoutbox "github.com/bookmesh/bookledger/internal/domain/outbox"
	"github.com/bookmesh/bookledger/internal/identity"
	"github.com/bookmesh/bookledger/internal/infrastructure/memory"
)

const (
	owner    = identity.Actor("alice")
	stranger = identity.Actor("mallory")
	buyer    = identity.Actor("bob")
)

// capturingPublisher records every published event.
type capturingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

func newTestService() (*Service, *capturingPublisher) {
	pub := &capturingPublisher{}
	svc := NewService(owner, memory.NewCatalogRepository(), pub, nil)
	return svc, pub
}

func asActor(actor identity.Actor) context.Context {
	return identity.WithActor(context.Background(), actor)
}

func addDune(t *testing.T, svc *Service) uint64 {
	t.Helper()
	id, err := svc.AddBook(asActor(owner), AddBookInput{
		Title:       "Dune",
		Description: "desert planet",
		Price:       100,
		Author:      "Frank Herbert",
		Quantity:    5,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	return id
}

func TestAddBook_AssignsSequentialIDs(t *testing.T) {
	svc, _ := newTestService()

	id := addDune(t, svc)
	if id != 0 {
		t.Errorf("expected first id 0, got %d", id)
	}

	count, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	book, err := svc.GetBook(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if book.Title != "Dune" || book.Description != "desert planet" ||
		book.Price != 100 || book.Author != "Frank Herbert" || book.Quantity != 5 {
		t.Errorf("stored record differs from input: %+v", book)
	}

	second, err := svc.AddBook(asActor(owner), AddBookInput{Title: "Hyperion", Author: "Dan Simmons", Quantity: 1})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if second != 1 {
		t.Errorf("expected second id 1, got %d", second)
	}
}

func TestAddBook_NonOwnerRejected(t *testing.T) {
	svc, pub := newTestService()

	_, err := svc.AddBook(asActor(stranger), AddBookInput{Title: "Dune", Quantity: 5})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	count, _ := svc.Count(context.Background())
	if count != 0 {
		t.Errorf("rejected add must not allocate an id, count %d", count)
	}
	if len(pub.names()) != 0 {
		t.Errorf("rejected add must not emit events, got %v", pub.names())
	}
}

func TestAddBook_AnonymousRejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddBook(context.Background(), AddBookInput{Title: "Dune"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestUpdateBook(t *testing.T) {
	svc, pub := newTestService()
	id := addDune(t, svc)

	if err := svc.UpdateBook(asActor(owner), id, 50, 2); err != nil {
		t.Fatalf("update: %v", err)
	}

	book, _ := svc.GetBook(context.Background(), id)
	if book.Price != 50 || book.Quantity != 2 {
		t.Errorf("expected price 50 quantity 2, got %d/%d", book.Price, book.Quantity)
	}
	if book.Title != "Dune" || book.Author != "Frank Herbert" {
		t.Error("update must not touch descriptive fields")
	}

	names := pub.names()
	if names[len(names)-1] != "catalog.book_updated" {
		t.Errorf("expected book_updated event, got %v", names)
	}
}

func TestUpdateBook_NonOwnerRejected(t *testing.T) {
	svc, _ := newTestService()
	id := addDune(t, svc)

	err := svc.UpdateBook(asActor(stranger), id, 50, 2)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	book, _ := svc.GetBook(context.Background(), id)
	if book.Price != 100 || book.Quantity != 5 {
		t.Errorf("rejected update must not change the record, got %d/%d", book.Price, book.Quantity)
	}
}

func TestUpdateBook_UnknownID(t *testing.T) {
	svc, _ := newTestService()

	err := svc.UpdateBook(asActor(owner), 42, 50, 2)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBook_UnknownID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetBook(context.Background(), 42)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPurchase(t *testing.T) {
	svc, pub := newTestService()
	id := addDune(t, svc)

	if err := svc.Purchase(asActor(buyer), id, 3); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	book, _ := svc.GetBook(context.Background(), id)
	if book.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", book.Quantity)
	}

	// second purchase exceeds remaining stock
	err := svc.Purchase(asActor(buyer), id, 5)
	if !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	book, _ = svc.GetBook(context.Background(), id)
	if book.Quantity != 2 {
		t.Errorf("failed purchase must not change quantity, got %d", book.Quantity)
	}

	var sold *catalog.BookSoldEvent
	for _, e := range pub.events {
		if evt, ok := e.(catalog.BookSoldEvent); ok {
			sold = &evt
		}
	}
	if sold == nil {
		t.Fatal("expected a book_sold event")
	}
	if sold.Buyer != buyer || sold.Quantity != 3 {
		t.Errorf("sold event should carry buyer and quantity, got %+v", sold)
	}
}

func TestPurchase_OpenToAnyCaller(t *testing.T) {
	svc, _ := newTestService()
	id := addDune(t, svc)

	if err := svc.Purchase(context.Background(), id, 1); err != nil {
		t.Fatalf("anonymous purchase should pass the stock gate: %v", err)
	}
}

func TestRemoveBook(t *testing.T) {
	svc, _ := newTestService()
	id := addDune(t, svc)

	if err := svc.RemoveBook(asActor(owner), id); err != nil {
		t.Fatalf("remove: %v", err)
	}

	book, err := svc.GetBook(context.Background(), id)
	if err != nil {
		t.Fatalf("removed book must stay readable: %v", err)
	}
	if book.Price != 0 || book.Quantity != 0 {
		t.Errorf("expected zeroed price and quantity, got %d/%d", book.Price, book.Quantity)
	}
	if book.Title != "Dune" || book.Description != "desert planet" || book.Author != "Frank Herbert" {
		t.Error("removal must keep descriptive fields")
	}
	if !book.Removed {
		t.Error("expected removed flag set")
	}

	// unpurchasable until the owner restocks
	if err := svc.Purchase(asActor(buyer), id, 1); !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock on removed book, got %v", err)
	}

	if err := svc.UpdateBook(asActor(owner), id, 80, 3); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if err := svc.Purchase(asActor(buyer), id, 1); err != nil {
		t.Fatalf("restocked book must be purchasable: %v", err)
	}
}

func TestRemoveBook_NonOwnerRejected(t *testing.T) {
	svc, _ := newTestService()
	id := addDune(t, svc)

	if err := svc.RemoveBook(asActor(stranger), id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	book, _ := svc.GetBook(context.Background(), id)
	if book.Quantity != 5 {
		t.Errorf("rejected remove must not change the record, got quantity %d", book.Quantity)
	}
}

func TestRemoveBook_DoesNotRecycleIDs(t *testing.T) {
	svc, _ := newTestService()
	id := addDune(t, svc)

	if err := svc.RemoveBook(asActor(owner), id); err != nil {
		t.Fatalf("remove: %v", err)
	}

	next, err := svc.AddBook(asActor(owner), AddBookInput{Title: "Hyperion", Quantity: 1})
	if err != nil {
		t.Fatalf("add after remove: %v", err)
	}
	if next != 1 {
		t.Errorf("identifiers must never be reused, got %d", next)
	}

	count, _ := svc.Count(context.Background())
	if count != 2 {
		t.Errorf("count reports ids ever allocated, got %d", count)
	}
}

func TestListBooks_IncludesRemoved(t *testing.T) {
	svc, _ := newTestService()
	first := addDune(t, svc)
	addDune(t, svc)

	if err := svc.RemoveBook(asActor(owner), first); err != nil {
		t.Fatalf("remove: %v", err)
	}

	books, err := svc.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 records, got %d", len(books))
	}
	if !books[0].Removed || books[1].Removed {
		t.Error("expected first record removed, second on the shelf")
	}
}
