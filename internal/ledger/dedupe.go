package ledger

import "github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"

// IsDuplicate reports whether existing already holds a record with the same
// date, amount and description as candidate. Fields are compared as exact
// strings: "-5.00" and "-5" are different amounts.
func IsDuplicate(candidate model.Transaction, existing []model.Transaction) bool {
	key := candidate.Key()
	for _, t := range existing {
		if t.Key() == key {
			return true
		}
	}
	return false
}
