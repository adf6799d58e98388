package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/hbconv/internal/model"
	"github.com/cleared-dev/hbconv/internal/normalize"
)

// LinxoParser parses Linxo "opérations.csv" exports: UTF-16, tab-separated.
type LinxoParser struct {
	Log zerolog.Logger
}

const (
	linxoDateLayout = "02/01/2006"

	linxoColDate     = "Date"
	linxoColLabel    = "Libellé"
	linxoColCategory = "Catégorie"
	linxoColAmount   = "Montant"
	linxoColNotes    = "Notes"
	linxoColCheck    = "N° de chèque"
	linxoColLabels   = "Labels"
)

var linxoRequired = []string{linxoColDate, linxoColLabel, linxoColAmount}

var errUndecodable = errors.New("row contains undecodable characters")

// Format returns the parser name.
func (p *LinxoParser) Format() string { return FormatLinxo }

// Parse reads a Linxo export and returns its operations in key order.
func (p *LinxoParser) Parse(r io.Reader) (*model.Statement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading Linxo CSV: %w", err)
	}
	recs, rejected, err := p.Read(data)
	if err != nil {
		return nil, err
	}

	stmt := &model.Statement{Format: p.Format(), Skipped: rejected}
	for _, rec := range recs {
		stmt.Transactions = append(stmt.Transactions, normalize.Linxo(rec))
	}
	stmt.Sort()
	p.Log.Debug().Int("operations", stmt.Len()).Int("rejected", rejected).Msg("Linxo CSV parsed")
	return stmt, nil
}

// Read returns the keyed rows in input order and the number of rejected rows.
func (p *LinxoParser) Read(data []byte) ([]model.LinxoRecord, int, error) {
	text, err := decodeUTF16(data)
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, 0, model.ErrEmptyInput
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading Linxo header: %w", err)
	}
	cols := newColumns(head, strings.TrimSpace)
	if err := cols.require(linxoRequired...); err != nil {
		return nil, 0, err
	}
	p.Log.Debug().Strs("header", cols.names).Msg("Linxo header")

	keys := keySet{}
	var recs []model.LinxoRecord
	rejected := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, 0, fmt.Errorf("reading Linxo CSV: %w", err)
			}
			rejected++
			p.Log.Error().Err(err).Int("line", perr.StartLine).Msg("row rejected")
			continue
		}
		line, _ := cr.FieldPos(0)

		rec, err := p.readRow(cols, row, line)
		if err != nil {
			rejected++
			p.Log.Error().Err(err).Int("line", line).Strs("row", row).Msg("row rejected")
			continue
		}
		rec.Key = keys.assign(rec.Date)
		recs = append(recs, rec)
	}
	return recs, rejected, nil
}

func (p *LinxoParser) readRow(cols columns, row []string, line int) (model.LinxoRecord, error) {
	content := strings.Join(row, "\t")
	if len(row) != cols.len() {
		return model.LinxoRecord{}, &RecordError{Line: line, Content: content,
			Err: fmt.Errorf("expected %d fields, got %d", cols.len(), len(row))}
	}
	if hasDecodeErrors(row) {
		return model.LinxoRecord{}, &RecordError{Line: line, Content: content, Err: errUndecodable}
	}

	date, err := parseDate(linxoDateLayout, cols.get(row, linxoColDate))
	if err != nil {
		return model.LinxoRecord{}, &RecordError{Line: line, Content: content, Err: err}
	}
	amount, err := parseEuropeanAmount(cols.get(row, linxoColAmount))
	if err != nil {
		return model.LinxoRecord{}, &RecordError{Line: line, Content: content, Err: fmt.Errorf("parsing amount: %w", err)}
	}

	return model.LinxoRecord{
		Line:        line,
		Date:        date,
		Label:       cols.get(row, linxoColLabel),
		Category:    cols.get(row, linxoColCategory),
		Amount:      amount,
		Notes:       cols.get(row, linxoColNotes),
		CheckNumber: cols.get(row, linxoColCheck),
		Labels:      cols.get(row, linxoColLabels),
	}, nil
}
