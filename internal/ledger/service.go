// Package ledger owns the session's transactions: it ingests bank exports,
// rejects duplicates, and mirrors accepted records and edits to a store in the
// background.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/importer"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/logging"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/store"
)

// Status describes whether accepted records are being persisted.
type Status string

const (
	StatusPersisted  Status = "persisted"
	StatusMemoryOnly Status = "memory-only"
)

// BatchResult summarizes one ingestion.
type BatchResult struct {
	DataLines  int
	Accepted   int
	Duplicates int
	Malformed  int
	Status     Status
	Pending    []*Pending // one insert per accepted record when persisting
}

// Message is the user-facing summary of the batch.
func (r BatchResult) Message() string {
	if r.Accepted > 0 {
		return fmt.Sprintf("Added %d New Transactions. Skipped %d Duplicates", r.Accepted, r.Duplicates)
	}
	return "No New Transactions Found -> All Transactions Already Added"
}

const defaultTimeout = 30 * time.Second

// Service is the ingestion pipeline plus the edit and clear actions.
// User actions are serialized; persistence runs in the background.
type Service struct {
	mu      sync.Mutex
	coll    *Collection
	parser  importer.Parser
	store   store.Store // nil when running memory-only
	logger  *log.Logger
	timeout time.Duration

	pmu      sync.Mutex
	inflight []*Pending       // unresolved operations only
	inserts  map[int]*Pending // unresolved insert per position, current generation
	tail     *Pending         // last insert or clear; the next one runs after it
	failures []Outcome        // failed inserts and updates not yet reported
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCollection injects the collection the service operates on.
func WithCollection(c *Collection) Option {
	return func(s *Service) { s.coll = c }
}

// WithTimeout bounds each background store call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a Service. A nil store runs the session memory-only.
func NewService(parser importer.Parser, st store.Store, opts ...Option) *Service {
	s := &Service{
		parser:  parser,
		store:   st,
		logger:  logging.Discard(),
		timeout: defaultTimeout,
		inserts: make(map[int]*Pending),
	}
	for _, o := range opts {
		o(s)
	}
	if s.coll == nil {
		s.coll = NewCollection()
	}
	return s
}

// Status reports whether the store is in use.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Service) status() Status {
	if s.store == nil {
		return StatusMemoryOnly
	}
	return StatusPersisted
}

// Collection returns the collection the service mutates.
func (s *Service) Collection() *Collection { return s.coll }

// Transactions returns the accepted records in insertion order.
func (s *Service) Transactions() []model.Transaction { return s.coll.All() }

// Hydrate loads every stored record into the collection. When the store
// cannot be read the service drops to memory-only and returns the error as
// a notice; the session continues either way.
func (s *Service) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	recs, err := s.store.GetAll(ctx)
	if err != nil {
		s.logger.Error("loading transactions failed, continuing memory-only", "err", err)
		if cerr := s.store.Close(); cerr != nil {
			s.logger.Warn("closing unavailable store", "err", cerr)
		}
		s.store = nil
		return fmt.Errorf("%w: loading transactions: %v", store.ErrUnavailable, err)
	}
	s.coll.Replace(recs)
	s.resetInserts()
	s.logger.Info("loaded transactions", "count", len(recs))
	return nil
}

// IngestFile reads and ingests a bank export. Unreadable or non-CSV files
// return importer.ErrInputRejected and leave the collection untouched.
func (s *Service) IngestFile(path string) (BatchResult, error) {
	text, err := importer.ReadFile(path)
	if err != nil {
		return BatchResult{}, err
	}
	return s.Ingest(text), nil
}

// Ingest parses text and accepts every candidate not already present,
// checking each one against the collection as it stands (so a line repeated
// within the batch is accepted once).
func (s *Service) Ingest(text string) BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := importer.Collect(s.parser, text)
	res := BatchResult{
		DataLines: batch.DataLines,
		Malformed: batch.Malformed,
		Status:    s.status(),
	}
	for _, rec := range batch.Candidates {
		if s.coll.Contains(rec) {
			res.Duplicates++
			s.logger.Debug("skipped duplicate transaction", "date", rec.Date, "amount", rec.Amount, "description", truncate(rec.Description, 50))
			continue
		}

		rec.ID = 0
		pos, gen := s.coll.Append(rec)
		res.Accepted++
		if p := s.persistInsert(pos, gen, rec); p != nil {
			res.Pending = append(res.Pending, p)
		}
	}

	s.logger.Info("ingested batch",
		"lines", res.DataLines,
		"accepted", res.Accepted,
		"duplicates", res.Duplicates,
		"malformed", res.Malformed,
		"status", res.Status,
	)
	return res
}

// UpdateDescription sets the custom description of the record at pos and
// persists the change. Records that never received an id are updated in
// memory only; the returned outcome is then Skipped.
func (s *Service) UpdateDescription(pos int, text string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.coll.SetCustomDescription(pos, text); err != nil {
		return nil, err
	}
	s.logger.Info("updated custom description", "position", pos, "description", text)

	if s.store == nil {
		return resolvedPending(Outcome{Op: OpUpdate, Position: pos, Skipped: true}), nil
	}

	gen := s.coll.Generation()
	s.pmu.Lock()
	after := s.inserts[pos]
	s.pmu.Unlock()

	st := s.store
	return s.dispatch(OpUpdate, pos, after, func(ctx context.Context) (Outcome, error) {
		rec, ok := s.coll.getAt(gen, pos)
		if !ok {
			return Outcome{Skipped: true}, nil
		}
		if !rec.HasID() {
			s.logger.Warn("transaction has no id, update not persisted", "position", pos)
			return Outcome{Skipped: true}, nil
		}
		return Outcome{ID: rec.ID}, st.Update(ctx, rec)
	}), nil
}

// ClearStatus classifies the outcome of a clear-all request.
type ClearStatus string

const (
	ClearOK         ClearStatus = "cleared"
	ClearMemoryOnly ClearStatus = "memory-only"
	ClearBlocked    ClearStatus = "blocked"
	ClearFailed     ClearStatus = "failed"
)

// ClassifyClear maps a clear outcome to a ClearStatus.
func ClassifyClear(o Outcome) ClearStatus {
	switch {
	case o.Skipped:
		return ClearMemoryOnly
	case errors.Is(o.Err, store.ErrBlocked):
		return ClearBlocked
	case o.Err != nil:
		return ClearFailed
	default:
		return ClearOK
	}
}

// ClearAll empties the collection immediately and erases the store in the
// background once earlier persistence work has settled. If the durable clear
// fails or is blocked, memory stays cleared.
func (s *Service) ClearAll() *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coll.Reset()
	s.resetInserts()
	s.logger.Info("cleared in-memory transactions")

	if s.store == nil {
		return resolvedPending(Outcome{Op: OpClear, Position: -1, Skipped: true})
	}

	s.pmu.Lock()
	prior := append([]*Pending(nil), s.inflight...)
	s.pmu.Unlock()

	st := s.store
	return s.dispatch(OpClear, -1, nil, func(ctx context.Context) (Outcome, error) {
		for _, p := range prior {
			<-p.Done()
		}
		return Outcome{}, st.Clear(ctx)
	})
}

// Flush waits for all background persistence dispatched so far and returns
// the insert and update failures not yet reported (see TakeFailures).
func (s *Service) Flush(ctx context.Context) ([]Outcome, error) {
	s.pmu.Lock()
	pending := append([]*Pending(nil), s.inflight...)
	s.pmu.Unlock()

	for _, p := range pending {
		if _, err := p.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return s.TakeFailures(), nil
}

// TakeFailures returns the insert and update failures recorded since the last
// call and forgets them. Clear outcomes are not included; ClearAll's caller
// receives those directly.
func (s *Service) TakeFailures() []Outcome {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	out := s.failures
	s.failures = nil
	return out
}

// Close waits for background work and closes the store.
func (s *Service) Close(ctx context.Context) error {
	if _, err := s.Flush(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// persistInsert queues the insert behind the previous insert or clear, so
// stores hand out ids in acceptance order.
func (s *Service) persistInsert(pos int, gen uint64, rec model.Transaction) *Pending {
	if s.store == nil {
		return nil
	}
	st := s.store
	s.pmu.Lock()
	after := s.tail
	s.pmu.Unlock()
	return s.dispatch(OpInsert, pos, after, func(ctx context.Context) (Outcome, error) {
		id, err := st.Insert(ctx, rec)
		if err != nil {
			return Outcome{}, err
		}
		if !s.coll.assignID(gen, pos, id) {
			s.logger.Debug("insert completed after reset", "id", id)
		}
		s.logger.Debug("transaction saved", "id", id)
		return Outcome{ID: id}, nil
	})
}

// dispatch registers the operation and runs fn in the background after
// `after` (if any) resolves. Inserts and clears become the new tail.
func (s *Service) dispatch(op Op, pos int, after *Pending, fn func(context.Context) (Outcome, error)) *Pending {
	p := newPending(op)
	s.pmu.Lock()
	s.inflight = append(s.inflight, p)
	switch op {
	case OpInsert:
		s.inserts[pos] = p
		s.tail = p
	case OpClear:
		s.tail = p
	}
	s.pmu.Unlock()

	go func() {
		if after != nil {
			<-after.Done()
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		o, err := fn(ctx)
		o.Op = op
		o.Position = pos
		if err != nil {
			o.Err = err
			s.logger.Error("persistence failed", "op", op, "position", pos, "err", err)
		}
		s.settle(p, o)
		p.resolve(o)
	}()
	return p
}

// settle forgets p and records its failure. It runs before p resolves so a
// waiter that wakes up sees the failure already recorded.
func (s *Service) settle(p *Pending, o Outcome) {
	s.pmu.Lock()
	defer s.pmu.Unlock()

	s.inflight = slices.DeleteFunc(s.inflight, func(q *Pending) bool { return q == p })
	if o.Op == OpInsert && s.inserts[o.Position] == p {
		delete(s.inserts, o.Position)
	}
	if s.tail == p {
		s.tail = nil
	}
	if o.Failed() && o.Op != OpClear {
		s.failures = append(s.failures, o)
	}
}

func (s *Service) resetInserts() {
	s.pmu.Lock()
	s.inserts = make(map[int]*Pending)
	s.pmu.Unlock()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
