package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// QIFRecord is one "^"-terminated entry of a Boursorama QIF export.
type QIFRecord struct {
	Key         int64
	Line        int // first line of the record in the source file
	Date        time.Time
	Amount      decimal.Decimal
	Description string // P line
	Memo        string // M line, rarely present in bank exports
}

// INGRecord is one row of an ING-DiBa "Umsatzanzeige" CSV export.
type INGRecord struct {
	Key          int64
	Line         int
	Booking      time.Time // Buchung
	Value        time.Time // Valuta
	Counterparty string    // Auftraggeber/Empfänger
	BookingText  string    // Buchungstext
	Note         string    // Notiz
	Purpose      string    // Verwendungszweck
	Balance      decimal.Decimal
	HasBalance   bool
	Amount       decimal.Decimal // Betrag
	Currency     string
}

// LinxoRecord is one row of a Linxo tab-delimited export.
type LinxoRecord struct {
	Key         int64
	Line        int
	Date        time.Time
	Label       string // Libellé
	Category    string // Catégorie
	Amount      decimal.Decimal
	Notes       string
	CheckNumber string // N° de chèque
	Labels      string
}
