package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one bank statement row accepted into the ledger.
// Date and Amount keep the exact source text; they are only interpreted for display.
type Transaction struct {
	ID                int64  `json:"id,omitempty"` // 0 until the store assigns one
	Date              string `json:"date"`
	Description       string `json:"description"`
	Amount            string `json:"amount"`
	CustomDescription string `json:"customDescription"`
}

// Key identifies a transaction for deduplication.
type Key struct {
	Date        string
	Amount      string
	Description string
}

// Key returns the dedupe key (date, amount, description).
func (t Transaction) Key() Key {
	return Key{Date: t.Date, Amount: t.Amount, Description: t.Description}
}

// HasID reports whether the store has assigned an identifier.
func (t Transaction) HasID() bool {
	return t.ID != 0
}

// AmountClass classifies an amount for display.
type AmountClass string

const (
	AmountPositive AmountClass = "positive-amount"
	AmountNegative AmountClass = "negative-amount"
	AmountZero     AmountClass = "no-amount"
	AmountUnknown  AmountClass = ""
)

// AmountClass returns the display class for the amount text.
func (t Transaction) AmountClass() AmountClass {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(t.Amount, `"`, "")))
	if err != nil {
		return AmountUnknown
	}
	switch d.Sign() {
	case 1:
		return AmountPositive
	case -1:
		return AmountNegative
	default:
		return AmountZero
	}
}

// dateLayouts are tried in order when coercing a source date for display.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"01/02/06",
	"1/2/06",
}

// ParsedDate coerces the source date text to a calendar date.
// The second result is false when no known layout matches.
func (t Transaction) ParsedDate() (time.Time, bool) {
	s := strings.TrimSpace(t.Date)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
