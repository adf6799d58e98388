package importer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/cleared-dev/hbconv/internal/model"
)

// Format keys, as accepted by --type.
const (
	FormatINGDiBa             = "ingdiba_csv"
	FormatBoursorama          = "boursorama_qif"
	FormatBoursoramaQuick2000 = "boursorama_quick2000"
	FormatLinxo               = "linxo_csv"
)

// DefaultPatterns returns the filename pattern of each format's export.
func DefaultPatterns() map[string]string {
	return map[string]string{
		FormatINGDiBa:             `Umsatzanzeige_[0-9]{10}_[0-9]{8}.*\.csv$`,
		FormatBoursorama:          `[0-9]{11}_Q[0-9]{8}.*\.qif$`,
		FormatBoursoramaQuick2000: `[0-9]{11}_R[0-9]{8}.*\.qif$`,
		FormatLinxo:               `opérations\.csv$`,
	}
}

type formatPattern struct {
	format string
	source string
	re     *regexp.Regexp
}

// Detector picks a format from a file name. Patterns are anchored at the
// start of the base name.
type Detector struct {
	patterns []formatPattern
}

// NewDetector compiles patterns (format key to regular expression).
func NewDetector(patterns map[string]string) (*Detector, error) {
	keys := make([]string, 0, len(patterns))
	for k := range patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := &Detector{}
	for _, k := range keys {
		re, err := regexp.Compile("^(?:" + patterns[k] + ")")
		if err != nil {
			return nil, fmt.Errorf("compiling pattern for %s: %w", k, err)
		}
		d.patterns = append(d.patterns, formatPattern{format: k, source: patterns[k], re: re})
	}
	return d, nil
}

// Detect returns the format key for path.
func (d *Detector) Detect(path string) (string, error) {
	name := norm.NFC.String(filepath.Base(path))
	for _, p := range d.patterns {
		if p.re.MatchString(name) {
			return p.format, nil
		}
	}
	return "", fmt.Errorf("%w: no known export matches %q", model.ErrFormatDetection, name)
}

// Formats returns the known format keys, sorted.
func (d *Detector) Formats() []string {
	out := make([]string, len(d.patterns))
	for i, p := range d.patterns {
		out[i] = p.format
	}
	return out
}

// Pattern returns the source pattern for format.
func (d *Detector) Pattern(format string) string {
	for _, p := range d.patterns {
		if p.format == format {
			return p.source
		}
	}
	return ""
}
