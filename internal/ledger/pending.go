package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Op names a persistence operation.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpClear  Op = "clear"
)

// Outcome is the result of a persistence operation.
type Outcome struct {
	Op       Op
	Position int   // collection position; -1 for clear
	ID       int64 // id assigned by an insert
	Skipped  bool  // nothing was sent to the store
	Err      error
}

// Failed reports whether the operation reached the store and failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// Notice describes a failed operation for the user.
func (o Outcome) Notice() string {
	if o.Op == OpClear {
		return fmt.Sprintf("clear failed: %v", o.Err)
	}
	return fmt.Sprintf("%s of transaction #%d failed: %v", o.Op, o.Position, o.Err)
}

// Pending is a persistence operation running in the background.
type Pending struct {
	op      Op
	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

func newPending(op Op) *Pending {
	return &Pending{op: op, done: make(chan struct{})}
}

func resolvedPending(o Outcome) *Pending {
	p := newPending(o.Op)
	p.resolve(o)
	return p
}

func (p *Pending) resolve(o Outcome) {
	p.once.Do(func() {
		p.outcome = o
		close(p.done)
	})
}

// Op returns the operation kind.
func (p *Pending) Op() Op { return p.op }

// Done is closed once the outcome is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the operation finishes or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Result returns the outcome and whether it is available yet.
func (p *Pending) Result() (Outcome, bool) {
	select {
	case <-p.done:
		return p.outcome, true
	default:
		return Outcome{}, false
	}
}
