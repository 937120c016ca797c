package registry

import (
	"errors"
	"testing"

	appledger "github.com/bookmesh/bookledger/internal/application/ledger"
	"github.com/bookmesh/bookledger/internal/application/purchasing"
	"github.com/bookmesh/bookledger/internal/identity"
	"github.com/bookmesh/bookledger/internal/infrastructure/memory"
)

func newLedger() *appledger.Service {
	return appledger.NewService(identity.Actor("alice"), memory.NewCatalogRepository(), nil, nil)
}

// A single Register must make the ledger reachable through both the proxy's
// client port and the direct lookup used by the HTTP surface.
func TestRegister_ServesResolveAndLookup(t *testing.T) {
	reg := NewStatic()
	svc := newLedger()
	reg.Register("main", svc)

	client, err := reg.Resolve("main")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if client != purchasing.LedgerClient(svc) {
		t.Error("expected the registered service back from Resolve")
	}

	got, ok := reg.Lookup("main")
	if !ok {
		t.Fatal("expected the handle to be known")
	}
	if got != svc {
		t.Error("expected the registered service back from Lookup")
	}
}

func TestResolve_Unknown(t *testing.T) {
	reg := NewStatic()

	_, err := reg.Resolve("nowhere")
	if !errors.Is(err, purchasing.ErrUnknownLedger) {
		t.Fatalf("expected ErrUnknownLedger, got %v", err)
	}

	if _, ok := reg.Lookup("nowhere"); ok {
		t.Error("expected the handle to be unknown")
	}
}
