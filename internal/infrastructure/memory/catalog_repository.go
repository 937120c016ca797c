package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
)

// CatalogRepository keeps catalog records in process memory. All mutating
// operations run under one mutex, so each read-check-write span is atomic.
type CatalogRepository struct {
	mu     sync.RWMutex
	books  map[uint64]*catalog.Book
	nextID uint64
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		books: make(map[uint64]*catalog.Book),
	}
}

func (r *CatalogRepository) Create(ctx context.Context, book *catalog.Book) (uint64, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneBook(book)
	stored.ID = r.nextID
	r.books[stored.ID] = stored
	r.nextID++

	return stored.ID, nil
}

func (r *CatalogRepository) Get(ctx context.Context, id uint64) (*catalog.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return cloneBook(book), nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]*catalog.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*catalog.Book, 0, len(r.books))
	for _, book := range r.books {
		out = append(out, cloneBook(book))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CatalogRepository) Count(ctx context.Context) (uint64, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nextID, nil
}

func (r *CatalogRepository) Reprice(ctx context.Context, id uint64, price uint64, quantity uint32) (*catalog.Book, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	book.Reprice(price, quantity)
	return cloneBook(book), nil
}

func (r *CatalogRepository) Remove(ctx context.Context, id uint64) (*catalog.Book, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	book.Remove()
	return cloneBook(book), nil
}

func (r *CatalogRepository) Deduct(ctx context.Context, id uint64, quantity uint32) (*catalog.Book, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	if err := book.Sell(quantity); err != nil {
		return nil, err
	}
	return cloneBook(book), nil
}

func cloneBook(book *catalog.Book) *catalog.Book {
	if book == nil {
		return nil
	}
	clone := *book
	return &clone
}
