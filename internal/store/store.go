// Package store persists transactions. Every backend assigns ids on insert,
// starting from 1, and resets the counter when cleared.
package store

import (
	"context"
	"errors"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

var (
	// ErrUnavailable means the backend cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
	// ErrBlocked means a clear could not run because another session holds the store.
	ErrBlocked = errors.New("store blocked by another session")
	// ErrNoID is returned when updating a record that was never inserted.
	ErrNoID = errors.New("transaction has no id")
	// ErrNotFound is returned when updating an id the store does not hold.
	ErrNotFound = errors.New("transaction not found")
)

// Store is the durable record store behind the ledger.
type Store interface {
	// GetAll returns every record in insertion order.
	GetAll(ctx context.Context) ([]model.Transaction, error)
	// Insert stores rec (its ID is ignored) and returns the assigned id.
	Insert(ctx context.Context, rec model.Transaction) (int64, error)
	// Update replaces the record with rec.ID.
	Update(ctx context.Context, rec model.Transaction) error
	// Clear erases all records and resets the id counter.
	Clear(ctx context.Context) error
	Close() error
}
