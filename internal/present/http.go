package present

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/activity"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/importer"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/ledger"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/rules"
)

// maxUploadBytes caps a single statement upload.
const maxUploadBytes = 10 << 20

// Ledger is the set of user actions the HTTP presenter drives.
type Ledger interface {
	Transactions() []model.Transaction
	Ingest(text string) ledger.BatchResult
	UpdateDescription(pos int, text string) (*ledger.Pending, error)
	ClearAll() *ledger.Pending
	Status() ledger.Status
	TakeFailures() []ledger.Outcome
}

// RuleBook lists and adds categorization rules.
type RuleBook interface {
	Rules() []rules.Rule
	Shadowed() []int
	Add(pattern, label string) error
}

// Recorder receives a note for every change made through the API.
type Recorder func(action, details string)

// Handler serves the ledger over HTTP.
type Handler struct {
	ledger Ledger
	rules  RuleBook
	logger *log.Logger
	record Recorder
}

// NewHandler creates a Handler.
func NewHandler(l Ledger, rb RuleBook, logger *log.Logger) *Handler {
	return &Handler{ledger: l, rules: rb, logger: logger, record: func(string, string) {}}
}

// SetRecorder installs r to be told about uploads, edits, clears and new rules.
func (h *Handler) SetRecorder(r Recorder) { h.record = r }

// NewRouter wires the handler's routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/transactions", h.GetTransactions)
	r.POST("/transactions/upload", h.UploadStatement)
	r.PUT("/transactions/:position/description", h.UpdateDescription)
	r.DELETE("/transactions", h.ClearAll)
	r.GET("/rules", h.GetRules)
	r.POST("/rules", h.CreateRule)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type transactionsResponse struct {
	Status  ledger.Status `json:"status"`
	Count   int           `json:"count"`
	Groups  []Group       `json:"groups"`
	Notices []string      `json:"notices"`
}

// GetTransactions lists the ledger by month. Background saves that failed
// since the previous listing are reported once in notices.
func (h *Handler) GetTransactions(c *gin.Context) {
	txns := h.ledger.Transactions()
	groups := GroupByMonth(txns)
	if groups == nil {
		groups = []Group{}
	}
	notices := []string{}
	for _, o := range h.ledger.TakeFailures() {
		notices = append(notices, o.Notice())
	}
	c.JSON(http.StatusOK, transactionsResponse{
		Status:  h.ledger.Status(),
		Count:   len(txns),
		Groups:  groups,
		Notices: notices,
	})
}

type batchResponse struct {
	DataLines  int           `json:"dataLines"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Malformed  int           `json:"malformed"`
	Status     ledger.Status `json:"status"`
	Message    string        `json:"message"`
}

func (h *Handler) UploadStatement(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": importer.ErrInputRejected.Error() + ": no file selected"})
		return
	}
	if !importer.IsCSV(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": importer.ErrInputRejected.Error() + ": " + fh.Filename + " is not a CSV file"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.ledger.Ingest(string(data))
	h.record(activity.ActionImport, fh.Filename+": "+res.Message())
	c.JSON(http.StatusOK, batchResponse{
		DataLines:  res.DataLines,
		Accepted:   res.Accepted,
		Duplicates: res.Duplicates,
		Malformed:  res.Malformed,
		Status:     res.Status,
		Message:    res.Message(),
	})
}

type descriptionRequest struct {
	CustomDescription string `json:"customDescription"`
}

func (h *Handler) UpdateDescription(c *gin.Context) {
	pos, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.ledger.UpdateDescription(pos, req.CustomDescription); err != nil {
		if errors.Is(err, ledger.ErrNoSuchTransaction) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	txns := h.ledger.Transactions()
	if pos >= len(txns) {
		c.JSON(http.StatusNotFound, gin.H{"error": ledger.ErrNoSuchTransaction.Error()})
		return
	}
	t := txns[pos]
	h.record(activity.ActionEdit, fmt.Sprintf("#%d -> %q", pos, req.CustomDescription))
	c.JSON(http.StatusOK, Row{Position: pos, Transaction: t, AmountClass: t.AmountClass()})
}

type clearResponse struct {
	Status        ledger.ClearStatus `json:"status"`
	MemoryCleared bool               `json:"memoryCleared"`
	Error         string             `json:"error,omitempty"`
}

func (h *Handler) ClearAll(c *gin.Context) {
	p := h.ledger.ClearAll()
	o, err := p.Wait(c.Request.Context())
	if err != nil {
		// Memory is already cleared; the durable clear keeps running.
		c.JSON(http.StatusAccepted, clearResponse{MemoryCleared: true, Error: err.Error()})
		return
	}

	status := ledger.ClassifyClear(o)
	h.record(activity.ActionClear, string(status))
	resp := clearResponse{Status: status, MemoryCleared: true}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}

	switch status {
	case ledger.ClearBlocked:
		c.JSON(http.StatusConflict, resp)
	case ledger.ClearFailed:
		c.JSON(http.StatusInternalServerError, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

type ruleJSON struct {
	Pattern  string `json:"pattern"`
	Label    string `json:"label"`
	Shadowed bool   `json:"shadowed,omitempty"`
}

func (h *Handler) GetRules(c *gin.Context) {
	rs := h.rules.Rules()
	out := make([]ruleJSON, len(rs))
	for i, r := range rs {
		out[i] = ruleJSON{Pattern: r.Pattern, Label: r.Label}
	}
	for _, i := range h.rules.Shadowed() {
		if i < len(out) {
			out[i].Shadowed = true
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateRule(c *gin.Context) {
	var req ruleJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.rules.Add(req.Pattern, req.Label); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.record(activity.ActionAddRule, fmt.Sprintf("%q -> %s", req.Pattern, req.Label))
	c.JSON(http.StatusCreated, ruleJSON{Pattern: req.Pattern, Label: req.Label})
}
