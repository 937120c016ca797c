package registry

import (
	"sync"

	appledger "github.com/bookmesh/bookledger/internal/application/ledger"
	"github.com/bookmesh/bookledger/internal/application/purchasing"
)

// Static is an in-process ledger registry. Handles are registered at
// composition time; the proxy resolves them through the client port and the
// HTTP surface looks them up directly, so one registration serves both.
type Static struct {
	mu      sync.RWMutex
	ledgers map[string]*appledger.Service
}

func NewStatic() *Static {
	return &Static{ledgers: make(map[string]*appledger.Service)}
}

func (r *Static) Register(handle string, svc *appledger.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers[handle] = svc
}

func (r *Static) Resolve(handle string) (purchasing.LedgerClient, error) {
	svc, ok := r.Lookup(handle)
	if !ok {
		return nil, purchasing.ErrUnknownLedger
	}
	return svc, nil
}

// Lookup returns the registered ledger service for handle.
func (r *Static) Lookup(handle string) (*appledger.Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.ledgers[handle]
	return svc, ok
}
