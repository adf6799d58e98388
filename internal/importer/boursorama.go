package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/hbconv/internal/classify"
	"github.com/cleared-dev/hbconv/internal/model"
	"github.com/cleared-dev/hbconv/internal/normalize"
)

// BoursoramaParser parses Boursorama QIF exports. The same layout is
// served under the QIF and Quicken 2000 download options.
type BoursoramaParser struct {
	Variant    string // format key; defaults to FormatBoursorama
	Log        zerolog.Logger
	Classifier *classify.Classifier
}

const (
	qifRecordSep  = "^"
	qifDateLayout = "1/2/2006"
)

var errNoQIFHeader = errors.New("missing QIF header line")

// NewBoursoramaParser returns a parser registered under variant.
func NewBoursoramaParser(variant string, log zerolog.Logger) *BoursoramaParser {
	return &BoursoramaParser{Variant: variant, Log: log, Classifier: classify.New(log)}
}

// Format returns the parser name.
func (p *BoursoramaParser) Format() string {
	if p.Variant == "" {
		return FormatBoursorama
	}
	return p.Variant
}

// Parse reads a QIF export and returns its operations in key order.
func (p *BoursoramaParser) Parse(r io.Reader) (*model.Statement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading QIF: %w", err)
	}
	header, recs, rejected, err := p.Read(data)
	if err != nil {
		return nil, err
	}

	classifier := p.Classifier
	if classifier == nil {
		classifier = classify.New(p.Log)
	}

	stmt := &model.Statement{Format: p.Format(), Header: header, Skipped: rejected}
	unclassified := 0
	for _, rec := range recs {
		res := classifier.Classify(rec.Description)
		if !res.Matched() {
			unclassified++
		}
		stmt.Transactions = append(stmt.Transactions, normalize.QIF(rec, res))
	}
	stmt.Sort()
	p.Log.Debug().Int("operations", stmt.Len()).Int("rejected", rejected).Int("unclassified", unclassified).Msg("QIF parsed")
	return stmt, nil
}

// Read splits a QIF export into keyed records. It returns the header line,
// the records in input order and the number of rejected records.
func (p *BoursoramaParser) Read(data []byte) (string, []model.QIFRecord, int, error) {
	text, err := decodeLegacy(data)
	if err != nil {
		return "", nil, 0, err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil, 0, model.ErrEmptyInput
	}

	header, body, _ := strings.Cut(text, "\n")
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "!") {
		return "", nil, 0, fmt.Errorf("%w: %w", model.ErrFormatDetection, errNoQIFHeader)
	}
	header = strings.ReplaceAll(header, "Ccard", "CCard")

	chunks := strings.Split(body, qifRecordSep)
	p.Log.Debug().Int("chunks", len(chunks)).Msg("QIF records split")

	keys := keySet{}
	var recs []model.QIFRecord
	rejected := 0
	line := 2
	for _, chunk := range chunks {
		start := line
		line += strings.Count(chunk, "\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		rec, fields, err := p.readRecord(chunk, start)
		if err != nil {
			rejected++
			var recErr *RecordError
			if errors.As(err, &recErr) {
				p.Log.Error().Err(recErr.Err).Int("line", recErr.Line).Str("content", recErr.Content).Msg("record rejected")
			}
			continue
		}
		if fields < 2 {
			rejected++
			p.Log.Warn().Int("line", rec.Line).Str("content", strings.TrimSpace(chunk)).Msg("empty record dropped")
			continue
		}
		rec.Key = keys.assign(rec.Date)
		recs = append(recs, rec)
	}
	return header, recs, rejected, nil
}

// readRecord parses the lines of one record and returns how many fields
// were recognized.
func (p *BoursoramaParser) readRecord(chunk string, startLine int) (model.QIFRecord, int, error) {
	rec := model.QIFRecord{}
	var hasDate, hasAmount bool
	fields := 0

	for i, raw := range strings.Split(chunk, "\n") {
		item := strings.TrimRight(raw, "\r")
		if item == "" {
			continue
		}
		lineNo := startLine + i
		if rec.Line == 0 {
			rec.Line = lineNo
		}

		value := item[1:]
		switch item[0] {
		case 'D':
			date, err := parseQIFDate(value)
			if err != nil {
				return rec, fields, &RecordError{Line: lineNo, Content: item, Err: err}
			}
			rec.Date = date
			hasDate = true
		case 'T':
			amount, err := parseQIFAmount(value)
			if err != nil {
				return rec, fields, &RecordError{Line: lineNo, Content: item, Err: err}
			}
			rec.Amount = amount
			hasAmount = true
		case 'P':
			rec.Description = strings.TrimSpace(value)
		case 'M':
			rec.Memo = strings.TrimSpace(value)
		default:
			p.Log.Error().Int("line", lineNo).Str("content", item).Msg("unsupported QIF field skipped")
			continue
		}
		fields++
	}

	if fields >= 2 && !hasDate {
		return rec, fields, &RecordError{Line: rec.Line, Content: strings.TrimSpace(chunk), Err: errors.New("record has no date")}
	}
	if fields >= 2 && !hasAmount {
		return rec, fields, &RecordError{Line: rec.Line, Content: strings.TrimSpace(chunk), Err: errors.New("record has no amount")}
	}
	return rec, fields, nil
}

// parseQIFDate parses MM/DD/YYYY, accepting the MM/DD'YY short form and
// the space padded " 3/ 2'21" that Quicken writes.
func parseQIFDate(s string) (time.Time, error) {
	s = strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), "'", "/20"), " ", "")
	date, err := time.Parse(qifDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return date, nil
}

// parseQIFAmount parses "-1,234.56".
func parseQIFAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return amount, nil
}
