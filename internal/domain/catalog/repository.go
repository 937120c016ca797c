package catalog

import (
	"context"
)

// Repository persists catalog records. Identifiers are allocated by Create as
// a monotonic counter starting at 0 and are never reused, removal included.
//
// Every mutating call is atomic inside the adapter: the read-check-write span
// runs under the adapter's own lock (or compare-and-swap), so a failed call
// leaves the record untouched.
type Repository interface {
	Create(ctx context.Context, book *Book) (uint64, error)
	Get(ctx context.Context, id uint64) (*Book, error)
	List(ctx context.Context) ([]*Book, error)
	// Count reports the number of identifiers ever allocated, not the number
	// of books currently purchasable.
	Count(ctx context.Context) (uint64, error)
	Reprice(ctx context.Context, id uint64, price uint64, quantity uint32) (*Book, error)
	Remove(ctx context.Context, id uint64) (*Book, error)
	Deduct(ctx context.Context, id uint64, quantity uint32) (*Book, error)
}
