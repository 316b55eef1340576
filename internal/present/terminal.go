package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

var (
	monthColor    = color.New(color.Bold, color.FgCyan)
	positiveColor = color.New(color.FgGreen)
	negativeColor = color.New(color.FgRed)
	zeroColor     = color.New(color.FgHiBlack)
	labelColor    = color.New(color.FgYellow)
)

// Terminal renders grouped transactions as text.
type Terminal struct {
	w io.Writer
}

// NewTerminal creates a renderer writing to w. Colors follow fatih/color's
// detection (disabled for non-terminals and when NO_COLOR is set).
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Render writes every group with a month header followed by its rows.
func (t *Terminal) Render(groups []Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(t.w, "No transactions.")
		return err
	}
	for i, g := range groups {
		if i > 0 {
			if _, err := fmt.Fprintln(t.w); err != nil {
				return err
			}
		}
		if _, err := monthColor.Fprintln(t.w, g.Label); err != nil {
			return err
		}
		for _, r := range g.Rows {
			if err := t.renderRow(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Terminal) renderRow(r Row) error {
	txn := r.Transaction
	amount := fmt.Sprintf("%12s", txn.Amount)
	switch r.AmountClass {
	case model.AmountPositive:
		amount = positiveColor.Sprint(amount)
	case model.AmountNegative:
		amount = negativeColor.Sprint(amount)
	case model.AmountZero:
		amount = zeroColor.Sprint(amount)
	}

	label := ""
	if txn.CustomDescription != "" {
		label = "  " + labelColor.Sprint(txn.CustomDescription)
	}
	_, err := fmt.Fprintf(t.w, "  #%-4d %-10s %s  %s%s\n",
		r.Position, txn.Date, amount, truncateDesc(txn.Description, 48), label)
	return err
}

func truncateDesc(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s + strings.Repeat(" ", n-len(r))
	}
	return string(r[:n-3]) + "..."
}
