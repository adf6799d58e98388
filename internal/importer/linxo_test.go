package importer

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/cleared-dev/hbconv/internal/model"
)

const linxoHeader = "Date\tLibellé\tCatégorie\tMontant\tNotes\tN° de chèque\tLabels\n"

// encodeUTF16 returns body as Linxo writes it: UTF-16 with a byte order mark.
func encodeUTF16(t *testing.T, body string, endian unicode.Endianness) []byte {
	t.Helper()
	out, err := unicode.UTF16(endian, unicode.UseBOM).NewEncoder().String(body)
	require.NoError(t, err)
	return []byte(out)
}

func linxoFixture(t *testing.T) []byte {
	return encodeUTF16(t, linxoHeader+
		"02/03/2021\tSNCF VOYAGES\tTransports\t-45,00\t\t\t\n"+
		"02/03/2021\tCARREFOUR\tAlimentation\t-1.234,56\t\t\t\n"+
		"03/03/2021\tBROKEN ROW\t-3,00\n"+
		"04/03/2021\tVIREMENT SALAIRE\tSalaire\t2.500,00\tfévrier\t\tpro\n", unicode.LittleEndian)
}

func TestLinxoParser_Parse(t *testing.T) {
	var buf bytes.Buffer
	p := &LinxoParser{Log: zerolog.New(&buf)}
	stmt, err := p.Parse(bytes.NewReader(linxoFixture(t)))
	require.NoError(t, err)

	assert.Equal(t, FormatLinxo, stmt.Format)
	require.Len(t, stmt.Transactions, 3)
	assert.Equal(t, 1, stmt.Skipped)
	assert.Contains(t, buf.String(), "expected 7 fields, got 3")

	sncf := stmt.Transactions[0]
	assert.True(t, sncf.Date.Equal(day(2021, 3, 2)))
	assert.Equal(t, "SNCF VOYAGES", sncf.Payee)
	assert.Equal(t, "SNCF VOYAGES", sncf.Memo)
	assert.Equal(t, "-45", sncf.Amount.String())
	assert.Equal(t, model.PayModeNone, sncf.PayMode)

	carrefour := stmt.Transactions[1]
	assert.Equal(t, "-1234.56", carrefour.Amount.String())
	assert.Equal(t, sncf.Key+1, carrefour.Key)

	salary := stmt.Transactions[2]
	assert.Equal(t, "2500", salary.Amount.String())
	assert.True(t, salary.Date.Equal(day(2021, 3, 4)))
}

func TestLinxoParser_ReadTypedFields(t *testing.T) {
	p := &LinxoParser{Log: zerolog.Nop()}
	recs, rejected, err := p.Read(linxoFixture(t))
	require.NoError(t, err)
	assert.Equal(t, 1, rejected)
	require.Len(t, recs, 3)

	assert.Equal(t, "Transports", recs[0].Category)
	assert.Equal(t, "février", recs[2].Notes)
	assert.Equal(t, "pro", recs[2].Labels)
	assert.Empty(t, recs[2].CheckNumber)
	assert.Equal(t, 5, recs[2].Line)
}

func TestLinxoParser_BigEndianBOM(t *testing.T) {
	data := encodeUTF16(t, linxoHeader+"01/02/2021\tLOYER\tLogement\t-800,00\t\t\t\n", unicode.BigEndian)
	p := &LinxoParser{Log: zerolog.Nop()}
	stmt, err := p.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "LOYER", stmt.Transactions[0].Payee)
	assert.True(t, stmt.Transactions[0].Date.Equal(day(2021, 2, 1)))
}

func TestLinxoParser_BadDate(t *testing.T) {
	data := encodeUTF16(t, linxoHeader+
		"2021-02-01\tLOYER\tLogement\t-800,00\t\t\t\n"+
		"01/02/2021\tEDF\tLogement\t-60,00\t\t\t\n", unicode.LittleEndian)
	p := &LinxoParser{Log: zerolog.Nop()}
	stmt, err := p.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "EDF", stmt.Transactions[0].Payee)
	assert.Equal(t, 1, stmt.Skipped)
}

func TestLinxoParser_MissingColumns(t *testing.T) {
	data := encodeUTF16(t, "Date\tMontant\n01/02/2021\t1,00\n", unicode.LittleEndian)
	p := &LinxoParser{Log: zerolog.Nop()}
	_, err := p.Parse(bytes.NewReader(data))
	assert.ErrorIs(t, err, model.ErrFormatDetection)
}

func TestLinxoParser_Empty(t *testing.T) {
	p := &LinxoParser{Log: zerolog.Nop()}
	_, err := p.Parse(bytes.NewReader(encodeUTF16(t, "\n", unicode.LittleEndian)))
	assert.ErrorIs(t, err, model.ErrEmptyInput)
}

func TestHasDecodeErrors(t *testing.T) {
	assert.False(t, hasDecodeErrors([]string{"é", "abc"}))
	assert.True(t, hasDecodeErrors([]string{"ok", "bad\uFFFD"}))
}
