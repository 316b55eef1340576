package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "id,date,description,amount,custom_description"

const (
	numFields     = 5
	colID         = 0
	colDate       = 1
	colDesc       = 2
	colAmount     = 3
	colCustomDesc = 4

	dataFile    = "transactions.csv"
	sessionsDir = "sessions"
	lockSuffix  = ".lock"
)

// FileStore keeps transactions in <dir>/transactions.csv.
//
// Each open FileStore registers a lock file holding its pid under
// <dir>/sessions. Clear refuses to run while another live session's lock
// exists; locks left behind by dead processes are removed. Ids are taken from
// the file on every insert, so sessions sharing a directory never reuse one.
type FileStore struct {
	dir     string
	session string

	mu sync.Mutex
}

// OpenFileStore opens (creating if needed) the store in dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, sessionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data dir: %v", ErrUnavailable, err)
	}

	s := &FileStore{dir: dir, session: uuid.NewString()}
	if err := os.WriteFile(s.lockPath(), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("%w: writing session lock: %v", ErrUnavailable, err)
	}

	if _, err := s.read(); err != nil {
		_ = os.Remove(s.lockPath())
		return nil, err
	}
	return s, nil
}

// Session returns this store's session identifier.
func (s *FileStore) Session() string { return s.session }

func (s *FileStore) GetAll(_ context.Context) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Insert(_ context.Context, rec model.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read()
	if err != nil {
		return 0, err
	}
	path := s.dataPath()
	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	rec.ID = maxID(recs) + 1
	cw := csv.NewWriter(f)
	if isNew {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return 0, fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalTransaction(rec)); err != nil {
		return 0, fmt.Errorf("writing transaction: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("writing transaction: %w", err)
	}
	return rec.ID, nil
}

func (s *FileStore) Update(_ context.Context, rec model.Transaction) error {
	if !rec.HasID() {
		return ErrNoID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read()
	if err != nil {
		return err
	}
	found := false
	for i := range recs {
		if recs[i].ID == rec.ID {
			recs[i] = rec
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: id %d", ErrNotFound, rec.ID)
	}
	return s.write(recs)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	others, err := s.otherSessions()
	if err != nil {
		return err
	}
	if len(others) > 0 {
		return fmt.Errorf("%w: %d other session(s) open", ErrBlocked, len(others))
	}

	if err := os.Remove(s.dataPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing transactions: %w", err)
	}
	return nil
}

// Close releases this session's lock.
func (s *FileStore) Close() error {
	if err := os.Remove(s.lockPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session lock: %w", err)
	}
	return nil
}

func (s *FileStore) dataPath() string { return filepath.Join(s.dir, dataFile) }

func (s *FileStore) lockPath() string {
	return filepath.Join(s.dir, sessionsDir, s.session+lockSuffix)
}

func (s *FileStore) otherSessions() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, sessionsDir))
	if err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, lockSuffix) {
			continue
		}
		if strings.TrimSuffix(name, lockSuffix) == s.session {
			continue
		}
		path := filepath.Join(s.dir, sessionsDir, name)
		if staleLock(path) {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("removing stale lock %s: %w", name, err)
			}
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// staleLock reports whether the lock at path names a process that is gone.
// Unreadable locks are treated as live.
func staleLock(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	return !processAlive(pid)
}

func (s *FileStore) read() ([]model.Transaction, error) {
	f, err := os.Open(s.dataPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	recs, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.dataPath(), err)
	}
	return recs, nil
}

// write replaces the data file atomically.
func (s *FileStore) write(recs []model.Transaction) error {
	tmp, err := os.CreateTemp(s.dir, dataFile+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTransactions(tmp, recs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.dataPath()); err != nil {
		return fmt.Errorf("replacing transactions: %w", err)
	}
	return nil
}

// ReadTransactions reads all rows from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var recs []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		recs = append(recs, t)
	}
	return recs, nil
}

// WriteTransactions writes rows (including header).
func WriteTransactions(w io.Writer, recs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range recs {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(t.ID, 10)
	row[colDate] = t.Date
	row[colDesc] = t.Description
	row[colAmount] = t.Amount
	row[colCustomDesc] = t.CustomDescription
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	id, err := strconv.ParseInt(record[colID], 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing id %q: %w", record[colID], err)
	}
	return model.Transaction{
		ID:                id,
		Date:              record[colDate],
		Description:       record[colDesc],
		Amount:            record[colAmount],
		CustomDescription: record[colCustomDesc],
	}, nil
}

func maxID(recs []model.Transaction) int64 {
	var m int64
	for _, t := range recs {
		if t.ID > m {
			m = t.ID
		}
	}
	return m
}
