package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

// ErrNoSuchTransaction is returned for a position outside the collection.
var ErrNoSuchTransaction = errors.New("no such transaction")

// Collection is the session's in-memory list of accepted transactions in
// insertion order. Positions are stable until the collection is reset.
//
// Every reset starts a new generation; id assignments that arrive for an
// older generation are dropped.
type Collection struct {
	mu   sync.RWMutex
	recs []model.Transaction
	gen  uint64
}

// NewCollection creates a collection holding recs.
func NewCollection(recs ...model.Transaction) *Collection {
	c := &Collection{}
	c.recs = append(c.recs, recs...)
	return c
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recs)
}

// All returns a copy of the records in insertion order.
func (c *Collection) All() []model.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Transaction, len(c.recs))
	copy(out, c.recs)
	return out
}

// Get returns the record at pos.
func (c *Collection) Get(pos int) (model.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if pos < 0 || pos >= len(c.recs) {
		return model.Transaction{}, false
	}
	return c.recs[pos], true
}

// Contains reports whether a record with the same dedupe key is present.
func (c *Collection) Contains(t model.Transaction) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return IsDuplicate(t, c.recs)
}

// Append adds t and returns its position and the current generation.
func (c *Collection) Append(t model.Transaction) (int, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, t)
	return len(c.recs) - 1, c.gen
}

// SetCustomDescription changes the label of the record at pos and returns the
// updated record.
func (c *Collection) SetCustomDescription(pos int, text string) (model.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.recs) {
		return model.Transaction{}, fmt.Errorf("%w: position %d", ErrNoSuchTransaction, pos)
	}
	c.recs[pos].CustomDescription = text
	return c.recs[pos], nil
}

// Replace swaps in recs (used when hydrating from the store).
func (c *Collection) Replace(recs []model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append([]model.Transaction(nil), recs...)
	c.gen++
}

// Reset empties the collection.
func (c *Collection) Reset() {
	c.Replace(nil)
}

// Generation returns the current generation.
func (c *Collection) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// getAt returns the record at pos if gen is still current.
func (c *Collection) getAt(gen uint64, pos int) (model.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if gen != c.gen || pos < 0 || pos >= len(c.recs) {
		return model.Transaction{}, false
	}
	return c.recs[pos], true
}

// assignID records the store id for pos if gen is still current.
func (c *Collection) assignID(gen uint64, pos int, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || pos < 0 || pos >= len(c.recs) {
		return false
	}
	c.recs[pos].ID = id
	return true
}
