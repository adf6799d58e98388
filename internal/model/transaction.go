package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one normalized bank operation, ready for HomeBank.
type Transaction struct {
	Key      int64 // unique within a Statement; orders the output
	Date     time.Time
	PayMode  PayMode
	Info     string // check number, "CB" marker, ...
	Payee    string
	Memo     string          // full original description
	Amount   decimal.Decimal // negative = debit, positive = credit
	Category string          // always empty
	Tags     string          // always empty
}

// Statement is the ordered output of parsing one export file.
type Statement struct {
	Format       string
	Header       string // QIF header line from the source, if any
	Transactions []Transaction
	Skipped      int // records rejected while parsing
}

// Sort orders the transactions by ascending key. Equal keys keep their
// relative order.
func (s *Statement) Sort() {
	sort.SliceStable(s.Transactions, func(i, j int) bool {
		return s.Transactions[i].Key < s.Transactions[j].Key
	})
}

// Len returns the number of transactions.
func (s *Statement) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Transactions)
}
