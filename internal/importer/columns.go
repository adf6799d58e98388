package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// columns maps header names to positions, computed once per file. When a
// name repeats (ING exports carry two "Währung" columns) the first wins.
type columns struct {
	names []string
	index map[string]int
}

func newColumns(header []string, clean func(string) string) columns {
	c := columns{names: make([]string, len(header)), index: make(map[string]int, len(header))}
	for i, h := range header {
		name := clean(h)
		c.names[i] = name
		if _, dup := c.index[name]; !dup {
			c.index[name] = i
		}
	}
	return c
}

// require returns an error naming every absent column.
func (c columns) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := c.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return missingColumns(missing)
	}
	return nil
}

// get returns the trimmed cell for name, or "" when the column is absent.
func (c columns) get(row []string, name string) string {
	i, ok := c.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return cleanCell(row[i])
}

func (c columns) len() int { return len(c.names) }

func cleanCell(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"`))
}

// parseEuropeanAmount parses "1.234,56": dots group thousands and the comma
// is the decimal separator.
func parseEuropeanAmount(s string) (decimal.Decimal, error) {
	s = cleanCell(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}
