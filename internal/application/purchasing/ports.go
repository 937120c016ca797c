package purchasing

import (
	"context"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
)

// LedgerClient is the proxy's view of a ledger instance: a public read plus
// the authoritative purchase. The proxy never touches ledger state through any
// other path.
type LedgerClient interface {
	GetBook(ctx context.Context, id uint64) (*catalog.Book, error)
	Purchase(ctx context.Context, id uint64, quantity uint32) error
}

// Registry resolves a caller-specified ledger handle to a client.
type Registry interface {
	Resolve(handle string) (LedgerClient, error)
}

// PurchaseCounter persists the running count of purchases the proxy has
// brokered.
type PurchaseCounter interface {
	Increment(ctx context.Context) (uint64, error)
	Total(ctx context.Context) (uint64, error)
}
