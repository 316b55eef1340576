package present

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/importer"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/ledger"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/rules"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/store"
)

type testServer struct {
	router *gin.Engine
	svc    *ledger.Service
	book   *rules.Book
}

func setupServer(t *testing.T, st store.Store) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	table := rules.NewTable(rules.MustRule("STARBUCKS", "Coffee"), rules.MustRule("NETFLIX", "Streaming"))
	book := &rules.Book{Table: table, Path: filepath.Join(t.TempDir(), "rules", "categorization-rules.yaml")}
	svc := ledger.NewService(importer.NewWellsFargoParser(table), st)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Close(ctx)
	})

	h := NewHandler(svc, book, log.New(&bytes.Buffer{}))
	return &testServer{router: NewRouter(h), svc: svc, book: book}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/transactions/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func fixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/wellsfargo_checking.csv")
	require.NoError(t, err)
	return data
}

func TestUploadStatement(t *testing.T) {
	s := setupServer(t, store.NewMemoryStore())

	w := s.do(t, uploadRequest(t, "checking.csv", fixture(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res batchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 7, res.DataLines)
	assert.Equal(t, 5, res.Accepted)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Malformed)
	assert.Equal(t, ledger.StatusPersisted, res.Status)
	assert.Equal(t, "Added 5 New Transactions. Skipped 1 Duplicates", res.Message)

	w = s.do(t, uploadRequest(t, "checking.csv", fixture(t)))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, "No New Transactions Found -> All Transactions Already Added", res.Message)
	assert.Len(t, s.svc.Transactions(), 5)
}

func TestUploadStatement_Rejected(t *testing.T) {
	s := setupServer(t, store.NewMemoryStore())

	w := s.do(t, uploadRequest(t, "statement.pdf", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not a CSV file")

	req := httptest.NewRequest(http.MethodPost, "/transactions/upload", nil)
	w = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no file selected")

	assert.Empty(t, s.svc.Transactions())
}

func TestGetTransactions(t *testing.T) {
	s := setupServer(t, nil)
	s.svc.Ingest(string(fixture(t)))

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res transactionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, ledger.StatusMemoryOnly, res.Status)
	assert.Equal(t, 5, res.Count)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "February 2025", res.Groups[0].Label)
	assert.Equal(t, "January 2025", res.Groups[1].Label)

	var coffee *Row
	for i, r := range res.Groups[1].Rows {
		if strings.HasPrefix(r.Transaction.Description, "STARBUCKS") {
			coffee = &res.Groups[1].Rows[i]
		}
	}
	require.NotNil(t, coffee)
	assert.Equal(t, 0, coffee.Position)
	assert.Equal(t, "Coffee", coffee.Transaction.CustomDescription)
}

// failingStore accepts reads and clears but refuses every insert.
type failingStore struct {
	*store.MemoryStore
}

func (failingStore) Insert(context.Context, model.Transaction) (int64, error) {
	return 0, errors.New("disk full")
}

func TestGetTransactions_ReportsFailedSavesOnce(t *testing.T) {
	s := setupServer(t, failingStore{store.NewMemoryStore()})

	w := s.do(t, uploadRequest(t, "checking.csv", fixture(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var notices []string
	require.Eventually(t, func() bool {
		w := s.do(t, httptest.NewRequest(http.MethodGet, "/transactions", nil))
		var res transactionsResponse
		if json.Unmarshal(w.Body.Bytes(), &res) != nil {
			return false
		}
		notices = append(notices, res.Notices...)
		return len(notices) >= 5
	}, 5*time.Second, 10*time.Millisecond)

	require.Len(t, notices, 5)
	assert.Contains(t, notices, "insert of transaction #0 failed: disk full")
	assert.Len(t, s.svc.Transactions(), 5, "memory keeps the records")

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notices":[]`)
}

func TestGetTransactions_Empty(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"groups":[]`)
}

func TestUpdateDescription(t *testing.T) {
	st := store.NewMemoryStore()
	s := setupServer(t, st)
	s.svc.Ingest(string(fixture(t)))

	body := strings.NewReader(`{"customDescription":"Morning coffee"}`)
	req := httptest.NewRequest(http.MethodPut, "/transactions/0/description", body)
	req.Header.Set("Content-Type", "application/json")
	w := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var row Row
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, 0, row.Position)
	assert.Equal(t, "Morning coffee", row.Transaction.CustomDescription)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	failed, err := s.svc.Flush(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)

	stored, err := st.GetAll(ctx)
	require.NoError(t, err)
	var labels []string
	for _, rec := range stored {
		if strings.HasPrefix(rec.Description, "STARBUCKS") {
			labels = append(labels, rec.CustomDescription)
		}
	}
	assert.Equal(t, []string{"Morning coffee"}, labels)
}

func TestUpdateDescription_BadRequests(t *testing.T) {
	s := setupServer(t, nil)
	s.svc.Ingest(string(fixture(t)))

	put := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return s.do(t, req).Code
	}

	assert.Equal(t, http.StatusBadRequest, put("/transactions/abc/description", `{"customDescription":"x"}`))
	assert.Equal(t, http.StatusBadRequest, put("/transactions/0/description", `not json`))
	assert.Equal(t, http.StatusNotFound, put("/transactions/99/description", `{"customDescription":"x"}`))
	assert.Equal(t, http.StatusNotFound, put("/transactions/-1/description", `{"customDescription":"x"}`))
}

func TestClearAll(t *testing.T) {
	s := setupServer(t, store.NewMemoryStore())
	s.svc.Ingest(string(fixture(t)))

	w := s.do(t, httptest.NewRequest(http.MethodDelete, "/transactions", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res clearResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, ledger.ClearOK, res.Status)
	assert.True(t, res.MemoryCleared)
	assert.Empty(t, s.svc.Transactions())
}

func TestClearAll_MemoryOnly(t *testing.T) {
	s := setupServer(t, nil)
	s.svc.Ingest(string(fixture(t)))

	w := s.do(t, httptest.NewRequest(http.MethodDelete, "/transactions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res clearResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, ledger.ClearMemoryOnly, res.Status)
}

func TestClearAll_Blocked(t *testing.T) {
	dir := t.TempDir()
	st, err := store.OpenFileStore(dir)
	require.NoError(t, err)
	other, err := store.OpenFileStore(dir)
	require.NoError(t, err)
	defer other.Close()

	s := setupServer(t, st)
	s.svc.Ingest(string(fixture(t)))

	w := s.do(t, httptest.NewRequest(http.MethodDelete, "/transactions", nil))
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var res clearResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, ledger.ClearBlocked, res.Status)
	assert.True(t, res.MemoryCleared)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, s.svc.Transactions())
}

func TestRules(t *testing.T) {
	s := setupServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/rules", strings.NewReader(`{"pattern":"UNKNOWN VENDOR","label":"Misc"}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []ruleJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, ruleJSON{Pattern: "UNKNOWN VENDOR", Label: "Misc"}, got[0])
	assert.FileExists(t, s.book.Path)

	s.svc.Ingest(string(fixture(t)))
	var labels []string
	for _, txn := range s.svc.Transactions() {
		if txn.Description == "UNKNOWN VENDOR XYZ" {
			labels = append(labels, txn.CustomDescription)
		}
	}
	assert.Equal(t, []string{"Misc"}, labels)
}

func TestRules_Shadowed(t *testing.T) {
	s := setupServer(t, nil)
	require.NoError(t, s.book.Table.Prepend("STARBUCKS", "Snacks"))

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []ruleJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, ruleJSON{Pattern: "STARBUCKS", Label: "Snacks"}, got[0])
	assert.Equal(t, ruleJSON{Pattern: "STARBUCKS", Label: "Coffee", Shadowed: true}, got[1])
	assert.False(t, got[2].Shadowed)
}

func TestCreateRule_Invalid(t *testing.T) {
	s := setupServer(t, nil)

	for _, body := range []string{`{"pattern":"","label":"x"}`, `{"pattern":"(","label":"x"}`, `nope`} {
		req := httptest.NewRequest(http.MethodPost, "/rules", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, s.do(t, req).Code, body)
	}
	assert.Equal(t, 2, s.book.Table.Len())
}

func TestRecorder(t *testing.T) {
	s := setupServer(t, nil)
	var got []string
	h := NewHandler(s.svc, s.book, log.New(&bytes.Buffer{}))
	h.SetRecorder(func(action, details string) { got = append(got, action+": "+details) })
	s.router = NewRouter(h)

	s.do(t, uploadRequest(t, "checking.csv", fixture(t)))
	req := httptest.NewRequest(http.MethodPut, "/transactions/0/description", strings.NewReader(`{"customDescription":"Latte"}`))
	req.Header.Set("Content-Type", "application/json")
	s.do(t, req)
	s.do(t, httptest.NewRequest(http.MethodDelete, "/transactions", nil))

	assert.Equal(t, []string{
		"import: checking.csv: Added 5 New Transactions. Skipped 1 Duplicates",
		`edit: #0 -> "Latte"`,
		"clear: memory-only",
	}, got)
}
