package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
	"github.com/bookmesh/bookledger/internal/observability"
	"github.com/bookmesh/bookledger/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownLedger is returned when the caller-specified handle resolves to no
// registered ledger.
var ErrUnknownLedger = errors.New("purchasing: unknown ledger handle")

const (
	serviceName     = "purchase-proxy"
	useCasePurchase = "proxy.purchase"
	peerLedger      = "ledger"
)

// Service brokers purchases against an arbitrary ledger instance. It owns no
// inventory; its only state is the running purchase counter, incremented once
// per successfully delegated purchase.
type Service struct {
	ledgers Registry
	counter PurchaseCounter

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
	purchases    observability.Counter
}

func NewService(ledgers Registry, counter PurchaseCounter, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Service{
		ledgers: ledgers,
		counter: counter,
		log: tel.Logger().With(
			observability.F("service", serviceName),
		),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		purchases:    metrics.Counter(observability.MProxyPurchases),
	}
}

// Purchase resolves the ledger handle, reads the book, performs an advisory
// stock check, and delegates the purchase to the ledger. The advisory check is
// an early exit only; the ledger repeats it authoritatively and is the sole
// source of truth for stock decisions. The counter moves only after the
// delegated call succeeds.
func (s *Service) Purchase(ctx context.Context, handle string, bookID uint64, quantity uint32) (err error) {
	ctx, span := s.tracer.Start(ctx, "Proxy.Purchase",
		attribute.String("ledger.handle", handle),
		attribute.Int64("book.id", int64(bookID)),
		attribute.Int64("book.quantity", int64(quantity)),
	)
	defer s.finish(span, time.Now(), &err)

	client, err := s.ledgers.Resolve(handle)
	if err != nil {
		return fmt.Errorf("purchasing: resolve %q: %w", handle, err)
	}

	book, err := s.callGetBook(ctx, client, bookID)
	if err != nil {
		return fmt.Errorf("purchasing: read book: %w", err)
	}

	if book.Quantity < quantity {
		return fmt.Errorf("purchasing: advisory stock check: %w", catalog.ErrInsufficientStock)
	}

	if err = s.callPurchase(ctx, client, bookID, quantity); err != nil {
		return fmt.Errorf("purchasing: delegate purchase: %w", err)
	}

	total, err := s.counter.Increment(ctx)
	if err != nil {
		return fmt.Errorf("purchasing: count purchase: %w", err)
	}

	s.purchases.Add(1)
	logctx.FromOr(ctx, s.log).Info("purchase_brokered",
		observability.F("ledger", handle),
		observability.F("book_id", bookID),
		observability.F("quantity", quantity),
		observability.F("total_purchases", total),
	)
	return nil
}

// TotalPurchases reports how many purchases this proxy has brokered so far.
func (s *Service) TotalPurchases(ctx context.Context) (uint64, error) {
	total, err := s.counter.Total(ctx)
	if err != nil {
		return 0, fmt.Errorf("purchasing: total: %w", err)
	}
	return total, nil
}

func (s *Service) callGetBook(ctx context.Context, client LedgerClient, bookID uint64) (*catalog.Book, error) {
	start := time.Now()
	book, err := client.GetBook(ctx, bookID)
	s.observeCall("get_book", start, err)
	return book, err
}

func (s *Service) callPurchase(ctx context.Context, client LedgerClient, bookID uint64, quantity uint32) error {
	start := time.Now()
	err := client.Purchase(ctx, bookID, quantity)
	s.observeCall("purchase", start, err)
	return err
}

func (s *Service) observeCall(endpoint string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.extCounter.Add(1,
		observability.L("peer", peerLedger),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	s.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerLedger),
		observability.L("endpoint", endpoint),
	)
}

func (s *Service) finish(span trace.Span, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = "error"
		span.RecordError(*err)
		span.SetStatus(codes.Error, useCasePurchase)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	s.reqCounter.Add(1,
		observability.L("use_case", useCasePurchase),
		observability.L("outcome", outcome),
	)
	s.durHistogram.Observe(time.Since(start).Seconds(),
		observability.L("use_case", useCasePurchase),
	)
}
