package catalog

import (
	"errors"
	"testing"
)

func TestSell(t *testing.T) {
	b := NewBook("Dune", "desert planet", "Frank Herbert", 100, 5)

	if err := b.Sell(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", b.Quantity)
	}
}

func TestSell_InsufficientStock(t *testing.T) {
	b := NewBook("Dune", "desert planet", "Frank Herbert", 100, 2)

	err := b.Sell(5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if b.Quantity != 2 {
		t.Errorf("failed sale must not change quantity, got %d", b.Quantity)
	}
}

func TestSell_ZeroQuantity(t *testing.T) {
	b := NewBook("Dune", "desert planet", "Frank Herbert", 100, 2)

	if err := b.Sell(0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestRemove_PreservesDescriptiveFields(t *testing.T) {
	b := NewBook("Dune", "desert planet", "Frank Herbert", 100, 5)
	b.ID = 7

	b.Remove()

	if b.Price != 0 || b.Quantity != 0 {
		t.Errorf("expected zeroed price and quantity, got %d/%d", b.Price, b.Quantity)
	}
	if !b.Removed {
		t.Error("expected removed flag set")
	}
	if b.ID != 7 || b.Title != "Dune" || b.Description != "desert planet" || b.Author != "Frank Herbert" {
		t.Error("removal must not touch identity or descriptive fields")
	}
}

func TestReprice_RestoresRemovedBook(t *testing.T) {
	b := NewBook("Dune", "desert planet", "Frank Herbert", 100, 5)
	b.Remove()

	b.Reprice(50, 2)

	if b.Removed {
		t.Error("repricing must put a removed book back on the shelf")
	}
	if b.Price != 50 || b.Quantity != 2 {
		t.Errorf("expected price 50 quantity 2, got %d/%d", b.Price, b.Quantity)
	}
	if err := b.Sell(1); err != nil {
		t.Errorf("restored book must be sellable: %v", err)
	}
}
