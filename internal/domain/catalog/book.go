package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: book not found")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// Book is one catalog record. Title, Description, and Author are fixed at
// creation; Price and Quantity change through updates and sales. Removal is a
// soft delete: the record keeps its identifier and descriptive fields forever.
type Book struct {
	ID          uint64
	Title       string
	Description string
	Author      string
	Price       uint64
	Quantity    uint32
	Removed     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewBook(title, description, author string, price uint64, quantity uint32) *Book {
	now := time.Now().UTC()
	return &Book{
		Title:       title,
		Description: description,
		Author:      author,
		Price:       price,
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Reprice overwrites price and quantity, leaving the descriptive fields
// untouched. Repricing a removed book restores it to the shelf.
func (b *Book) Reprice(price uint64, quantity uint32) {
	b.Price = price
	b.Quantity = quantity
	b.Removed = false
	b.touch()
}

// Remove soft-deletes the book: price and quantity are zeroed, identity and
// descriptive fields are preserved.
func (b *Book) Remove() {
	b.Price = 0
	b.Quantity = 0
	b.Removed = true
	b.touch()
}

// Sell decrements quantity by the requested amount. Quantity never goes
// negative; an oversized request fails and leaves the book unchanged.
func (b *Book) Sell(quantity uint32) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	if quantity > b.Quantity {
		return ErrInsufficientStock
	}
	b.Quantity -= quantity
	b.touch()
	return nil
}

func (b *Book) touch() {
	b.UpdatedAt = time.Now().UTC()
}
