package importer

import (
	"fmt"

	"github.com/cleared-dev/hbconv/internal/model"
)

// ParseError is fatal for one input file.
type ParseError struct {
	Path   string
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing %s export: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("parsing %s export %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RecordError describes a single rejected record. The rest of the file is
// still converted.
type RecordError struct {
	Line    int
	Content string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Is makes every RecordError match model.ErrRecordParse.
func (e *RecordError) Is(target error) bool { return target == model.ErrRecordParse }

func missingColumns(cols []string) error {
	return fmt.Errorf("%w: header lacks column(s) %q", model.ErrFormatDetection, cols)
}
