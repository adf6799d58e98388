// Package homebank writes transactions in the QIF and CSV dialects that
// HomeBank imports.
package homebank

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/hbconv/internal/model"
)

const (
	// DefaultDateLayout is MM/DD/YYYY, which the QIF reader accepts back.
	DefaultDateLayout = "01/02/2006"
	// DefaultQIFHeader is used when the source carried no header.
	DefaultQIFHeader = "!Type:Bank"
)

// Writer renders transactions. The zero value is not usable; see NewWriter.
type Writer struct {
	DateLayout string
	Log        zerolog.Logger
}

// NewWriter returns a Writer. An empty layout selects DefaultDateLayout.
func NewWriter(log zerolog.Logger, dateLayout string) *Writer {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Writer{DateLayout: dateLayout, Log: log}
}

// SerializationError reports a transaction that cannot be rendered.
type SerializationError struct {
	Key   int64
	Field string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("transaction %d: field %s: %v", e.Key, e.Field, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Is makes every SerializationError match model.ErrSerialization.
func (e *SerializationError) Is(target error) bool { return target == model.ErrSerialization }

var (
	errInvalidUTF8 = errors.New("not valid UTF-8")
	errNoDate      = errors.New("missing date")
)

// check rejects transactions whose fields cannot be written as text.
func check(txn model.Transaction) error {
	if txn.Date.IsZero() {
		return &SerializationError{Key: txn.Key, Field: "date", Err: errNoDate}
	}
	if !txn.PayMode.Valid() {
		return &SerializationError{Key: txn.Key, Field: "paymode", Err: fmt.Errorf("unknown payment mode %d", int(txn.PayMode))}
	}
	fields := []struct{ name, value string }{
		{"info", txn.Info},
		{"payee", txn.Payee},
		{"memo", txn.Memo},
		{"category", txn.Category},
		{"tags", txn.Tags},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return &SerializationError{Key: txn.Key, Field: f.name, Err: errInvalidUTF8}
		}
	}
	return nil
}

// ordered returns a copy of txns sorted by ascending key.
func ordered(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// oneLine folds line breaks so a value cannot split a QIF record.
func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}

func create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFileAccess, err)
	}
	return f, nil
}
