package catalog

import (
	"time"

	"github.com/bookmesh/bookledger/internal/identity"
	"github.com/google/uuid"
)

// BookAddedEvent is emitted when the owner shelves a new book.
type BookAddedEvent struct {
	EventID     string
	BookID      uint64
	Title       string
	Description string
	Author      string
	Price       uint64
	Quantity    uint32
	OccurredAt  time.Time
}

func (BookAddedEvent) EventName() string { return "catalog.book_added" }

func NewBookAddedEvent(b *Book) BookAddedEvent {
	return BookAddedEvent{
		EventID:     uuid.NewString(),
		BookID:      b.ID,
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		Price:       b.Price,
		Quantity:    b.Quantity,
		OccurredAt:  time.Now().UTC(),
	}
}

// BookUpdatedEvent is emitted when the owner reprices or restocks a book.
type BookUpdatedEvent struct {
	EventID    string
	BookID     uint64
	Price      uint64
	Quantity   uint32
	OccurredAt time.Time
}

func (BookUpdatedEvent) EventName() string { return "catalog.book_updated" }

func NewBookUpdatedEvent(b *Book) BookUpdatedEvent {
	return BookUpdatedEvent{
		EventID:    uuid.NewString(),
		BookID:     b.ID,
		Price:      b.Price,
		Quantity:   b.Quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// BookRemovedEvent is emitted when the owner soft-deletes a book.
type BookRemovedEvent struct {
	EventID    string
	BookID     uint64
	OccurredAt time.Time
}

func (BookRemovedEvent) EventName() string { return "catalog.book_removed" }

func NewBookRemovedEvent(id uint64) BookRemovedEvent {
	return BookRemovedEvent{
		EventID:    uuid.NewString(),
		BookID:     id,
		OccurredAt: time.Now().UTC(),
	}
}

// BookSoldEvent is emitted on every accepted purchase, carrying the attested
// buyer identity.
type BookSoldEvent struct {
	EventID    string
	BookID     uint64
	Quantity   uint32
	Buyer      identity.Actor
	OccurredAt time.Time
}

func (BookSoldEvent) EventName() string { return "catalog.book_sold" }

func NewBookSoldEvent(id uint64, quantity uint32, buyer identity.Actor) BookSoldEvent {
	return BookSoldEvent{
		EventID:    uuid.NewString(),
		BookID:     id,
		Quantity:   quantity,
		Buyer:      buyer,
		OccurredAt: time.Now().UTC(),
	}
}
