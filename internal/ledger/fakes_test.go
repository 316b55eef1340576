package ledger

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/importer"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/rules"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/store"
)

var errDiskFull = errors.New("disk full")

// fakeStore wraps a MemoryStore with switchable failures and an optional gate
// that holds inserts until released.
type fakeStore struct {
	*store.MemoryStore

	mu        sync.Mutex
	insertErr error
	updateErr error
	clearErr  error
	getAllErr error
	gate      chan struct{}
	updates   int
	closed    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: store.NewMemoryStore()}
}

func (f *fakeStore) GetAll(ctx context.Context) ([]model.Transaction, error) {
	f.mu.Lock()
	err := f.getAllErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.MemoryStore.GetAll(ctx)
}

func (f *fakeStore) Insert(ctx context.Context, rec model.Transaction) (int64, error) {
	f.mu.Lock()
	gate, err := f.gate, f.insertErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return 0, err
	}
	return f.MemoryStore.Insert(ctx, rec)
}

func (f *fakeStore) Update(ctx context.Context, rec model.Transaction) error {
	f.mu.Lock()
	f.updates++
	err := f.updateErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Update(ctx, rec)
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	err := f.clearErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Clear(ctx)
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return f.MemoryStore.Close()
}

func (f *fakeStore) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func newParser() importer.Parser {
	return importer.NewWellsFargoParser(rules.Default())
}

const starbucksLine = `"01/15/2025","-45.00",x,,"STARBUCKS STORE #123"`

func fixtureText(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/wellsfargo_checking.csv")
	require.NoError(t, err)
	return string(data)
}
