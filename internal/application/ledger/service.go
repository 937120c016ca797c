package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
	domoutbox "github.com/bookmesh/bookledger/internal/domain/outbox"
	"github.com/bookmesh/bookledger/internal/identity"
	"github.com/bookmesh/bookledger/internal/observability"
	"github.com/bookmesh/bookledger/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotOwner is returned by every inventory-shaping operation invoked by an
// identity other than the ledger's owner.
var ErrNotOwner = errors.New("ledger: caller is not the owner")

const (
	serviceName = "inventory-ledger"
	spanPrefix  = "Ledger."

	useCaseAddBook    = "ledger.add_book"
	useCaseUpdateBook = "ledger.update_book"
	useCaseRemoveBook = "ledger.remove_book"
	useCasePurchase   = "ledger.purchase"
)

// Service is the sole authority over catalog records. The owner identity is
// fixed at construction and gates add/update/remove; reads and purchases are
// open to any caller, purchases being protected by the stock invariant alone.
type Service struct {
	owner     identity.Actor
	books     catalog.Repository
	publisher domoutbox.Publisher

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	soldCounter  observability.Counter
	bookCounter  observability.Counter
}

func NewService(owner identity.Actor, books catalog.Repository, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Service{
		owner:     owner,
		books:     books,
		publisher: publisher,
		log: tel.Logger().With(
			observability.F("service", serviceName),
		),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		soldCounter:  metrics.Counter(observability.MLedgerBooksSold),
		bookCounter:  metrics.Counter(observability.MLedgerBooks),
	}
}

// Owner reports the identity allowed to shape the inventory.
func (s *Service) Owner() identity.Actor {
	return s.owner
}

type AddBookInput struct {
	Title       string
	Description string
	Author      string
	Price       uint64
	Quantity    uint32
}

// AddBook shelves a new book and allocates the next identifier. Owner only.
func (s *Service) AddBook(ctx context.Context, input AddBookInput) (_ uint64, err error) {
	ctx, span := s.tracer.Start(ctx, spanPrefix+"AddBook",
		attribute.String("book.title", input.Title),
		attribute.String("book.author", input.Author),
	)
	defer s.finish(span, useCaseAddBook, time.Now(), &err)

	if err = s.authorize(ctx); err != nil {
		return 0, err
	}

	book := catalog.NewBook(input.Title, input.Description, input.Author, input.Price, input.Quantity)
	id, err := s.books.Create(ctx, book)
	if err != nil {
		return 0, fmt.Errorf("ledger: create: %w", err)
	}
	book.ID = id

	if err = s.publish(ctx, catalog.NewBookAddedEvent(book)); err != nil {
		return 0, err
	}

	s.bookCounter.Add(1)
	logctx.FromOr(ctx, s.log).Info("book_added",
		observability.F("book_id", id),
		observability.F("title", book.Title),
		observability.F("quantity", book.Quantity),
	)
	return id, nil
}

// UpdateBook overwrites price and quantity of an existing book, leaving the
// descriptive fields untouched. Owner only. Updating a removed book puts it
// back on the shelf.
func (s *Service) UpdateBook(ctx context.Context, id uint64, price uint64, quantity uint32) (err error) {
	ctx, span := s.tracer.Start(ctx, spanPrefix+"UpdateBook",
		attribute.Int64("book.id", int64(id)),
	)
	defer s.finish(span, useCaseUpdateBook, time.Now(), &err)

	if err = s.authorize(ctx); err != nil {
		return err
	}

	book, err := s.books.Reprice(ctx, id, price, quantity)
	if err != nil {
		return fmt.Errorf("ledger: reprice: %w", err)
	}

	if err = s.publish(ctx, catalog.NewBookUpdatedEvent(book)); err != nil {
		return err
	}

	logctx.FromOr(ctx, s.log).Info("book_updated",
		observability.F("book_id", id),
		observability.F("price", price),
		observability.F("quantity", quantity),
	)
	return nil
}

// RemoveBook soft-deletes a book: price and quantity drop to zero while the
// record and its identifier survive. Owner only.
func (s *Service) RemoveBook(ctx context.Context, id uint64) (err error) {
	ctx, span := s.tracer.Start(ctx, spanPrefix+"RemoveBook",
		attribute.Int64("book.id", int64(id)),
	)
	defer s.finish(span, useCaseRemoveBook, time.Now(), &err)

	if err = s.authorize(ctx); err != nil {
		return err
	}

	if _, err = s.books.Remove(ctx, id); err != nil {
		return fmt.Errorf("ledger: remove: %w", err)
	}

	if err = s.publish(ctx, catalog.NewBookRemovedEvent(id)); err != nil {
		return err
	}

	logctx.FromOr(ctx, s.log).Info("book_removed",
		observability.F("book_id", id),
	)
	return nil
}

// GetBook returns the record at id. Open to any caller, no side effects.
func (s *Service) GetBook(ctx context.Context, id uint64) (*catalog.Book, error) {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: get: %w", err)
	}
	return book, nil
}

// ListBooks returns every record ever created, removed ones included, in
// identifier order. Open to any caller.
func (s *Service) ListBooks(ctx context.Context) ([]*catalog.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	return books, nil
}

// Count reports the number of identifiers ever allocated. Open to any caller.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	count, err := s.books.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return count, nil
}

// Purchase deducts the requested quantity from stock. Open to any caller; the
// only gate is the stock invariant, checked and applied atomically by the
// repository. The attested caller identity is recorded on the sold event.
func (s *Service) Purchase(ctx context.Context, id uint64, quantity uint32) (err error) {
	buyer := identity.ActorFromContext(ctx)

	ctx, span := s.tracer.Start(ctx, spanPrefix+"Purchase",
		attribute.Int64("book.id", int64(id)),
		attribute.Int64("book.quantity", int64(quantity)),
	)
	defer s.finish(span, useCasePurchase, time.Now(), &err)

	book, err := s.books.Deduct(ctx, id, quantity)
	if err != nil {
		return fmt.Errorf("ledger: deduct: %w", err)
	}

	if err = s.publish(ctx, catalog.NewBookSoldEvent(id, quantity, buyer)); err != nil {
		return err
	}

	s.soldCounter.Add(float64(quantity))
	logctx.FromOr(ctx, s.log).Info("book_sold",
		observability.F("book_id", id),
		observability.F("quantity", quantity),
		observability.F("remaining", book.Quantity),
		observability.F("buyer", buyer.String()),
	)
	return nil
}

func (s *Service) authorize(ctx context.Context) error {
	caller := identity.ActorFromContext(ctx)
	if caller.IsAnonymous() || caller != s.owner {
		return ErrNotOwner
	}
	return nil
}

func (s *Service) publish(ctx context.Context, e domoutbox.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		return fmt.Errorf("ledger: publish %s: %w", e.EventName(), err)
	}
	return nil
}

func (s *Service) finish(span trace.Span, useCase string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = "error"
		span.RecordError(*err)
		span.SetStatus(codes.Error, useCase)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	s.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	s.durHistogram.Observe(time.Since(start).Seconds(),
		observability.L("use_case", useCase),
	)
}
