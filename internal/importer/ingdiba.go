package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/hbconv/internal/model"
	"github.com/cleared-dev/hbconv/internal/normalize"
)

// INGDiBaParser parses ING-DiBa "Umsatzanzeige" CSV exports: a free-form
// preamble, then semicolon-separated rows in Windows-1252.
type INGDiBaParser struct {
	Log zerolog.Logger
}

const (
	ingDateLayout = "02.01.2006"
	ingHeaderMark = "Buchung"

	ingColBooking      = "Buchung"
	ingColValue        = "Valuta"
	ingColCounterparty = "Auftraggeber/Empfänger"
	ingColBookingText  = "Buchungstext"
	ingColNote         = "Notiz"
	ingColPurpose      = "Verwendungszweck"
	ingColBalance      = "Saldo"
	ingColCurrency     = "Währung"
	ingColAmount       = "Betrag"
)

var ingRequired = []string{ingColBooking, ingColValue, ingColCounterparty, ingColBookingText, ingColPurpose, ingColAmount}

var errNoINGHeader = errors.New("no \"Buchung\" header row found")

// Format returns the parser name.
func (p *INGDiBaParser) Format() string { return FormatINGDiBa }

// Parse reads an Umsatzanzeige export and returns its operations in key order.
func (p *INGDiBaParser) Parse(r io.Reader) (*model.Statement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading ING CSV: %w", err)
	}
	recs, rejected, err := p.Read(data)
	if err != nil {
		return nil, err
	}

	stmt := &model.Statement{Format: p.Format(), Skipped: rejected}
	for _, rec := range recs {
		stmt.Transactions = append(stmt.Transactions, normalize.ING(rec))
	}
	stmt.Sort()
	p.Log.Debug().Int("operations", stmt.Len()).Int("rejected", rejected).Msg("ING CSV parsed")
	return stmt, nil
}

// Read returns the keyed rows in input order and the number of rejected rows.
func (p *INGDiBaParser) Read(data []byte) ([]model.INGRecord, int, error) {
	text, err := decodeLegacy(data)
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, 0, model.ErrEmptyInput
	}

	start := headerOffset(text, ingHeaderMark)
	if start < 0 {
		return nil, 0, fmt.Errorf("%w: %w", model.ErrFormatDetection, errNoINGHeader)
	}
	lineOffset := strings.Count(text[:start], "\n")

	// The preamble is dropped; rows are read from a scratch copy.
	scratch := bytes.NewBufferString(text[start:])
	cr := csv.NewReader(scratch)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading ING header: %w", err)
	}
	cols := newColumns(head, func(s string) string { return strings.TrimRight(strings.TrimSpace(s), `" `) })
	if err := cols.require(ingRequired...); err != nil {
		return nil, 0, err
	}
	p.Log.Debug().Strs("header", cols.names).Msg("ING header")

	keys := keySet{}
	var recs []model.INGRecord
	rejected := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, 0, fmt.Errorf("reading ING CSV: %w", err)
			}
			rejected++
			p.Log.Error().Err(err).Int("line", perr.StartLine+lineOffset).Msg("row rejected")
			continue
		}
		line, _ := cr.FieldPos(0)
		line += lineOffset

		rec, err := p.readRow(cols, row, line)
		if err != nil {
			rejected++
			p.Log.Error().Err(err).Int("line", line).Strs("row", row).Msg("row rejected")
			continue
		}
		rec.Key = keys.assign(rec.Booking)
		recs = append(recs, rec)
	}
	return recs, rejected, nil
}

func (p *INGDiBaParser) readRow(cols columns, row []string, line int) (model.INGRecord, error) {
	content := strings.Join(row, ";")
	if len(row) != cols.len() {
		return model.INGRecord{}, &RecordError{Line: line, Content: content,
			Err: fmt.Errorf("expected %d fields, got %d", cols.len(), len(row))}
	}

	booking, err := parseDate(ingDateLayout, cols.get(row, ingColBooking))
	if err != nil {
		return model.INGRecord{}, &RecordError{Line: line, Content: content, Err: err}
	}
	value, err := parseDate(ingDateLayout, cols.get(row, ingColValue))
	if err != nil {
		return model.INGRecord{}, &RecordError{Line: line, Content: content, Err: err}
	}
	amount, err := parseEuropeanAmount(cols.get(row, ingColAmount))
	if err != nil {
		return model.INGRecord{}, &RecordError{Line: line, Content: content, Err: fmt.Errorf("parsing amount: %w", err)}
	}

	rec := model.INGRecord{
		Line:         line,
		Booking:      booking,
		Value:        value,
		Counterparty: cols.get(row, ingColCounterparty),
		BookingText:  cols.get(row, ingColBookingText),
		Note:         cols.get(row, ingColNote),
		Purpose:      cols.get(row, ingColPurpose),
		Amount:       amount,
		Currency:     cols.get(row, ingColCurrency),
	}
	if s := cols.get(row, ingColBalance); s != "" {
		balance, err := parseEuropeanAmount(s)
		if err != nil {
			return model.INGRecord{}, &RecordError{Line: line, Content: content, Err: fmt.Errorf("parsing balance: %w", err)}
		}
		rec.Balance = balance
		rec.HasBalance = true
	}
	return rec, nil
}

// headerOffset returns the byte offset of the first line starting with
// mark, ignoring a leading quote, or -1.
func headerOffset(text, mark string) int {
	off := 0
	for off < len(text) {
		line := text[off:]
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		if strings.HasPrefix(strings.TrimLeft(line, `" `), mark) {
			return off
		}
		off += len(line) + 1
	}
	return -1
}

func parseDate(layout, s string) (time.Time, error) {
	date, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return date, nil
}
