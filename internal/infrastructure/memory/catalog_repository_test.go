package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
)

func TestCreate_AllocatesMonotonicIDs(t *testing.T) {
	repo := NewCatalogRepository()
	ctx := context.Background()

	for want := uint64(0); want < 3; want++ {
		id, err := repo.Create(ctx, catalog.NewBook("T", "D", "A", 10, 1))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if id != want {
			t.Errorf("expected id %d, got %d", want, id)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestGet_Unknown(t *testing.T) {
	repo := NewCatalogRepository()

	_, err := repo.Get(context.Background(), 99)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_ReturnsClone(t *testing.T) {
	repo := NewCatalogRepository()
	ctx := context.Background()

	id, _ := repo.Create(ctx, catalog.NewBook("T", "D", "A", 10, 5))

	book, _ := repo.Get(ctx, id)
	book.Quantity = 0

	again, _ := repo.Get(ctx, id)
	if again.Quantity != 5 {
		t.Error("mutating a returned record must not touch the store")
	}
}

func TestReprice_Unknown(t *testing.T) {
	repo := NewCatalogRepository()

	_, err := repo.Reprice(context.Background(), 99, 1, 1)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove_KeepsIdentifier(t *testing.T) {
	repo := NewCatalogRepository()
	ctx := context.Background()

	id, _ := repo.Create(ctx, catalog.NewBook("T", "D", "A", 10, 5))
	if _, err := repo.Remove(ctx, id); err != nil {
		t.Fatalf("remove: %v", err)
	}

	book, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("removed record must stay readable: %v", err)
	}
	if !book.Removed || book.Quantity != 0 || book.Price != 0 {
		t.Errorf("unexpected removed record: %+v", book)
	}

	next, _ := repo.Create(ctx, catalog.NewBook("T2", "D2", "A2", 10, 5))
	if next != 1 {
		t.Errorf("identifiers must not be recycled, got %d", next)
	}
}

func TestDeduct_Insufficient(t *testing.T) {
	repo := NewCatalogRepository()
	ctx := context.Background()

	id, _ := repo.Create(ctx, catalog.NewBook("T", "D", "A", 10, 2))

	_, err := repo.Deduct(ctx, id, 5)
	if !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	book, _ := repo.Get(ctx, id)
	if book.Quantity != 2 {
		t.Errorf("failed deduct must not change quantity, got %d", book.Quantity)
	}
}

func TestDeduct_Concurrent(t *testing.T) {
	initialStock := uint32(20)
	totalRequests := 50

	repo := NewCatalogRepository()
	ctx := context.Background()
	id, _ := repo.Create(ctx, catalog.NewBook("T", "D", "A", 10, initialStock))

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Deduct(ctx, id, 1); err == nil {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}

	book, _ := repo.Get(ctx, id)
	if book.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", book.Quantity)
	}
}

func TestList_OrderedByID(t *testing.T) {
	repo := NewCatalogRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, catalog.NewBook("T", "D", "A", 10, 1)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	books, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 records, got %d", len(books))
	}
	for i, b := range books {
		if b.ID != uint64(i) {
			t.Errorf("expected id %d at position %d, got %d", i, i, b.ID)
		}
	}
}

func TestPurchaseCounter(t *testing.T) {
	counter := NewPurchaseCounter()
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		total, err := counter.Increment(ctx)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if total != want {
			t.Errorf("expected total %d, got %d", want, total)
		}
	}

	total, err := counter.Total(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
}
