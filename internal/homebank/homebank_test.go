package homebank

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/hbconv/internal/importer"
	"github.com/cleared-dev/hbconv/internal/model"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func txn(key int64, date time.Time, mode model.PayMode, payee, memo, amount string) model.Transaction {
	return model.Transaction{
		Key:     key,
		Date:    date,
		PayMode: mode,
		Payee:   payee,
		Memo:    memo,
		Amount:  decimal.RequireFromString(amount),
	}
}

func sample() []model.Transaction {
	d1, d2 := day(2021, 3, 2), day(2021, 3, 15)
	return []model.Transaction{
		txn(d2.Unix(), d2, model.PayModeTransfer, "EDF", "PRLV SEPA EDF", "-60.10"),
		txn(d1.Unix(), d1, model.PayModeDebitCard, "SNCF", "CB SNCF 020321", "-45"),
		txn(d1.Unix()+1, d1, model.PayModeUncategorized, "DAB PARIS", "RETRAIT DAB PARIS", "-20"),
	}
}

func TestWriteQIF(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(zerolog.Nop(), "")
	n, err := w.WriteQIF(&buf, "!Type:Bank\n", sample())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want := "!Type:Bank\n" +
		"D03/02/2021\nT-45\nPSNCF\nMCB SNCF 020321\n^\n" +
		"D03/02/2021\nT-20\nPDAB PARIS\nMRETRAIT DAB PARIS\n^\n" +
		"D03/15/2021\nT-60.1\nPEDF\nMPRLV SEPA EDF\n^\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteQIF_DefaultHeader(t *testing.T) {
	var logs, buf bytes.Buffer
	w := NewWriter(zerolog.New(&logs), "")
	_, err := w.WriteQIF(&buf, "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultQIFHeader+"\n", buf.String())
	assert.Contains(t, logs.String(), "no QIF header defined")
}

func TestWriteQIF_FoldsLineBreaks(t *testing.T) {
	var buf bytes.Buffer
	d := day(2021, 1, 4)
	w := NewWriter(zerolog.Nop(), "")
	_, err := w.WriteQIF(&buf, "", []model.Transaction{txn(d.Unix(), d, model.PayModeNone, "A\nB", "x\r\ny", "1")})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "PA B\nMx y\n^")
}

func TestWriteQIF_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(zerolog.Nop(), "")
	in := sample()
	_, err := w.WriteQIF(&buf, "!Type:Bank", in)
	require.NoError(t, err)

	p := importer.NewBoursoramaParser(importer.FormatBoursorama, zerolog.Nop())
	header, recs, rejected, err := p.Read(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "!Type:Bank", header)
	assert.Zero(t, rejected)
	require.Len(t, recs, len(in))

	sorted := ordered(in)
	for i, rec := range recs {
		assert.True(t, rec.Date.Equal(sorted[i].Date), "date %d", i)
		assert.True(t, rec.Amount.Equal(sorted[i].Amount), "amount %d", i)
		assert.Equal(t, sorted[i].Payee, rec.Description)
		assert.Equal(t, sorted[i].Memo, rec.Memo)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(zerolog.Nop(), "")
	n, err := w.WriteCSV(&buf, sample())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, CSVHeader, lines[0])
	assert.Equal(t, "03/02/2021;6;;SNCF;CB SNCF 020321;-45;;", lines[1])
	assert.Equal(t, "03/02/2021;;;DAB PARIS;RETRAIT DAB PARIS;-20;;", lines[2])
	assert.Equal(t, "03/15/2021;4;;EDF;PRLV SEPA EDF;-60.1;;", lines[3])
}

func TestWriteCSV_QuotesSeparator(t *testing.T) {
	var buf bytes.Buffer
	d := day(2021, 1, 4)
	w := NewWriter(zerolog.Nop(), "")
	_, err := w.WriteCSV(&buf, []model.Transaction{
		txn(d.Unix(), d, model.PayModeNone, "A;B", "m", "1"),
		txn(d.Unix()+1, d, model.PayModeNone, "PLAIN", "m", "2"),
	})
	require.NoError(t, err)

	// Only the field holding the separator is quoted.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `;"A;B";`)
	assert.NotContains(t, lines[2], `"`)

	r := csv.NewReader(&buf)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A;B", rows[1][colPayee])
	assert.Equal(t, "PLAIN", rows[2][colPayee])
}

func TestWriteCSV_Idempotent(t *testing.T) {
	w := NewWriter(zerolog.Nop(), "")
	var a, b bytes.Buffer
	_, err := w.WriteCSV(&a, sample())
	require.NoError(t, err)
	_, err = w.WriteCSV(&b, sample())
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestWriteCSV_CustomDateLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(zerolog.Nop(), "2006-01-02")
	_, err := w.WriteCSV(&buf, sample()[:1])
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2021-03-15;4;")
}

func TestWriters_SkipUnserializable(t *testing.T) {
	d := day(2021, 1, 4)
	bad := []model.Transaction{
		txn(d.Unix(), d, model.PayModeNone, "ok", "ok", "1"),
		txn(d.Unix()+1, d, model.PayModeNone, "bad\xff", "m", "2"),
		txn(d.Unix()+2, d, model.PayMode(42), "mode", "m", "3"),
		txn(0, time.Time{}, model.PayModeNone, "nodate", "m", "4"),
	}

	var logs bytes.Buffer
	w := NewWriter(zerolog.New(&logs), "")

	var csvOut, qifOut bytes.Buffer
	n, err := w.WriteCSV(&csvOut, bad)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotContains(t, csvOut.String(), "nodate")

	n, err = w.WriteQIF(&qifOut, "!Type:Bank", bad)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, logs.String(), "field payee")
	assert.Contains(t, logs.String(), "unknown payment mode 42")
}

func TestSerializationError(t *testing.T) {
	err := check(txn(5, day(2021, 1, 1), model.PayModeNone, "x", "\xfe", "1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSerialization)
	assert.Equal(t, "transaction 5: field memo: not valid UTF-8", err.Error())

	var serr *SerializationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "memo", serr.Field)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	stmt := &model.Statement{Header: "!Type:Bank", Transactions: sample()}
	w := NewWriter(zerolog.Nop(), "")

	n, err := w.ExportQIF(filepath.Join(dir, "out.qif"), stmt)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = w.ExportCSV(filepath.Join(dir, "out.csv"), stmt)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), CSVHeader+"\n"))
}

func TestExportCSV_Unwritable(t *testing.T) {
	var logs bytes.Buffer
	w := NewWriter(zerolog.New(&logs), "")
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	_, err := w.ExportCSV(path, &model.Statement{Transactions: sample()})
	assert.ErrorIs(t, err, model.ErrFileAccess)
	assert.Contains(t, logs.String(), "open in another application")
}
