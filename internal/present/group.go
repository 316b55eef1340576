// Package present turns the ledger into display order and renders it.
package present

import (
	"sort"
	"time"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

// UnknownMonth labels records whose date cannot be read.
const UnknownMonth = "Unknown Date"

// Row is one display row. Position is the record's index in the ledger
// collection and is what edits must refer to.
type Row struct {
	Position    int               `json:"position"`
	Transaction model.Transaction `json:"transaction"`
	AmountClass model.AmountClass `json:"amountClass"`
}

// Group is the rows of one calendar month, newest first.
type Group struct {
	Label string `json:"label"`
	Rows  []Row  `json:"rows"`
}

type datedRow struct {
	Row
	date time.Time
	ok   bool
}

// GroupByMonth orders records by date descending and groups them by month
// ("January 2025"). Records with unreadable dates come last under
// UnknownMonth. Ties keep insertion order. recs is not modified.
func GroupByMonth(recs []model.Transaction) []Group {
	rows := make([]datedRow, len(recs))
	for i, t := range recs {
		d, ok := t.ParsedDate()
		rows[i] = datedRow{
			Row:  Row{Position: i, Transaction: t, AmountClass: t.AmountClass()},
			date: d,
			ok:   ok,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.date.After(b.date)
	})

	var groups []Group
	for _, r := range rows {
		label := UnknownMonth
		if r.ok {
			label = r.date.Format("January 2006")
		}
		if len(groups) == 0 || groups[len(groups)-1].Label != label {
			groups = append(groups, Group{Label: label})
		}
		g := &groups[len(groups)-1]
		g.Rows = append(g.Rows, r.Row)
	}
	return groups
}
