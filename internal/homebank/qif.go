package homebank

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/hbconv/internal/model"
)

// WriteQIF writes header, then one D/T/P/M record per transaction in key
// order, each closed by "^". It returns the number of records written.
func (w *Writer) WriteQIF(out io.Writer, header string, txns []model.Transaction) (int, error) {
	header = strings.TrimRight(header, "\r\n")
	if header == "" {
		w.Log.Warn().Str("header", DefaultQIFHeader).Msg("no QIF header defined, using default")
		header = DefaultQIFHeader
	}

	bw := bufio.NewWriter(out)
	if _, err := fmt.Fprintln(bw, header); err != nil {
		return 0, fmt.Errorf("writing QIF header: %w", err)
	}

	count := 0
	for _, txn := range ordered(txns) {
		if err := check(txn); err != nil {
			w.Log.Error().Err(err).Msg("transaction not exported to QIF")
			continue
		}
		_, err := fmt.Fprintf(bw, "D%s\nT%s\nP%s\nM%s\n^\n",
			txn.Date.Format(w.DateLayout),
			txn.Amount.String(),
			oneLine(txn.Payee),
			oneLine(txn.Memo))
		if err != nil {
			return count, fmt.Errorf("writing QIF record %d: %w", count+1, err)
		}
		count++
	}
	if err := bw.Flush(); err != nil {
		return count, fmt.Errorf("flushing QIF: %w", err)
	}
	return count, nil
}

// ExportQIF writes stmt to path as QIF.
func (w *Writer) ExportQIF(path string, stmt *model.Statement) (int, error) {
	f, err := create(path)
	if err != nil {
		return 0, err
	}

	n, err := w.WriteQIF(f, stmt.Header, stmt.Transactions)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %s: %w", path, cerr)
	}
	if err != nil {
		return n, err
	}
	w.Log.Info().Int("entries", n).Str("path", path).Msg("QIF exported")
	return n, nil
}
