package homebank

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/hbconv/internal/model"
)

// CSVHeader is the HomeBank transaction import header.
const CSVHeader = "date;paymode;info;payee;wording;amount;category;tags"

const (
	numFields   = 8
	colDate     = 0
	colPayMode  = 1
	colInfo     = 2
	colPayee    = 3
	colWording  = 4
	colAmount   = 5
	colCategory = 6
	colTags     = 7
)

// MarshalRow converts a Transaction to a CSV row.
func (w *Writer) MarshalRow(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = txn.Date.Format(w.DateLayout)
	row[colPayMode] = txn.PayMode.Code()
	row[colInfo] = txn.Info
	row[colPayee] = txn.Payee
	row[colWording] = txn.Memo
	row[colAmount] = txn.Amount.String()
	row[colCategory] = txn.Category
	row[colTags] = txn.Tags
	return row
}

// WriteCSV writes the header and one row per transaction in key order.
// Transactions that cannot be rendered are logged and skipped. It returns
// the number of rows written.
func (w *Writer) WriteCSV(out io.Writer, txns []model.Transaction) (int, error) {
	cw := csv.NewWriter(out)
	cw.Comma = ';'

	if err := cw.Write(strings.Split(CSVHeader, ";")); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	count := 0
	for _, txn := range ordered(txns) {
		if err := check(txn); err != nil {
			w.Log.Error().Err(err).Msg("transaction not exported to CSV")
			continue
		}
		if err := cw.Write(w.MarshalRow(txn)); err != nil {
			return count, fmt.Errorf("writing row %d: %w", count+2, err)
		}
		count++
	}
	cw.Flush()
	return count, cw.Error()
}

// ExportCSV writes stmt to path as CSV. When the file cannot be created,
// typically because a spreadsheet holds it open, the error is logged with
// a hint and returned; nothing else is affected.
func (w *Writer) ExportCSV(path string, stmt *model.Statement) (int, error) {
	f, err := create(path)
	if err != nil {
		w.Log.Error().Err(err).Str("path", path).Msg("cannot open the CSV file, is it open in another application?")
		return 0, err
	}

	n, err := w.WriteCSV(f, stmt.Transactions)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %s: %w", path, cerr)
	}
	if err != nil {
		return n, err
	}
	w.Log.Info().Int("entries", n).Str("path", path).Msg("CSV exported")
	return n, nil
}
