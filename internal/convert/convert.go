// Package convert drives a conversion run: detect each input's format,
// parse it, and write the HomeBank QIF and CSV files.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/hbconv/internal/homebank"
	"github.com/cleared-dev/hbconv/internal/importer"
	"github.com/cleared-dev/hbconv/internal/model"
	"github.com/cleared-dev/hbconv/internal/runlog"
)

// DefaultSuffix is appended to output names written next to their input.
const DefaultSuffix = "conv"

// Options control where outputs go and what is recorded.
type Options struct {
	OutputDir    string // empty writes next to each input
	OutputSuffix string
	QIFHeader    string // used when the input carried no header
	ArchiveDir   string // converted inputs are moved here when set
	RunLog       string // run summary CSV when set
}

// Converter converts bank exports one file at a time.
type Converter struct {
	registry *importer.Registry
	detector *importer.Detector
	writer   *homebank.Writer
	log      zerolog.Logger
	opts     Options
	runID    string
	now      func() time.Time
}

// New returns a Converter. Every row it appends to the run log carries the
// same run ID.
func New(registry *importer.Registry, detector *importer.Detector, writer *homebank.Writer, log zerolog.Logger, opts Options) *Converter {
	return &Converter{
		registry: registry,
		detector: detector,
		writer:   writer,
		log:      log,
		opts:     opts,
		runID:    runlog.NewRunID(),
		now:      time.Now,
	}
}

// RunID identifies this converter's rows in the run log.
func (c *Converter) RunID() string { return c.runID }

// Result describes the conversion of one input file.
type Result struct {
	Input   string
	Format  string
	Outputs []string
	Records int // rows written to the CSV, or the QIF when the CSV failed
	Skipped int // records rejected by the parser
	Err     error
	CSVErr  error
}

// Status returns the run log status for r.
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return runlog.StatusFailed
	case r.CSVErr != nil:
		return runlog.StatusPartial
	default:
		return runlog.StatusOK
	}
}

func (r Result) failure() error {
	if r.Err != nil {
		return r.Err
	}
	return r.CSVErr
}

// Summary aggregates the results of a batch.
type Summary struct {
	Results []Result
	Ignored []string // files no pattern matched
}

// Failed returns the number of files that were not fully converted.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Status() != runlog.StatusOK {
			n++
		}
	}
	return n
}

// Records returns the total number of records written.
func (s Summary) Records() int {
	n := 0
	for _, r := range s.Results {
		n += r.Records
	}
	return n
}

// Err joins the per-file errors, or returns nil when every file converted.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if err := r.failure(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(r.Input), err))
		}
	}
	return errors.Join(errs...)
}

// OutputPaths returns the QIF and CSV destinations for input.
func (c *Converter) OutputPaths(input string) (qif, csv string) {
	dir, suffix := c.opts.OutputDir, c.opts.OutputSuffix
	if dir == "" {
		dir = filepath.Dir(input)
		if suffix == "" {
			suffix = DefaultSuffix
		}
	}

	name := filepath.Base(input)
	base := strings.TrimSuffix(name, filepath.Ext(name)) + suffix
	qif = filepath.Join(dir, base+".qif")
	if samePath(qif, input) {
		base += DefaultSuffix
		qif = filepath.Join(dir, base+".qif")
	}
	csv = filepath.Join(dir, base+".csv")
	if samePath(csv, input) {
		base += DefaultSuffix
		qif = filepath.Join(dir, base+".qif")
		csv = filepath.Join(dir, base+".csv")
	}
	return qif, csv
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// ConvertFile converts one input. An empty format selects detection by
// file name.
func (c *Converter) ConvertFile(path, format string) Result {
	res := c.convert(path, format)
	c.record(res)
	return res
}

func (c *Converter) convert(path, format string) Result {
	res := Result{Input: path, Format: format}
	log := c.log.With().Str("input", path).Logger()

	if format == "" {
		detected, err := c.detector.Detect(path)
		if err != nil {
			log.Error().Err(err).Msg("cannot detect the export format, use --type")
			res.Err = err
			return res
		}
		res.Format = detected
	}

	parser := c.registry.Get(res.Format)
	if parser == nil {
		res.Err = fmt.Errorf("%w: unknown format %q", model.ErrFormatDetection, res.Format)
		log.Error().Err(res.Err).Strs("formats", c.registry.Formats()).Msg("unsupported format")
		return res
	}
	res.Format = parser.Format()
	log = log.With().Str("format", res.Format).Logger()

	stmt, err := importer.ParseFile(parser, path)
	if err != nil {
		log.Error().Err(err).Msg("file not converted")
		res.Err = err
		return res
	}
	res.Skipped = stmt.Skipped
	if stmt.Header == "" {
		stmt.Header = c.opts.QIFHeader
	}

	qifPath, csvPath := c.OutputPaths(path)
	if err := os.MkdirAll(filepath.Dir(qifPath), 0o755); err != nil {
		res.Err = fmt.Errorf("%w: creating output dir: %w", model.ErrFileAccess, err)
		log.Error().Err(res.Err).Msg("file not converted")
		return res
	}

	n, err := c.writer.ExportQIF(qifPath, stmt)
	if err != nil {
		log.Error().Err(err).Str("path", qifPath).Msg("QIF export failed")
		res.Err = err
		return res
	}
	res.Outputs = append(res.Outputs, qifPath)
	res.Records = n

	n, err = c.writer.ExportCSV(csvPath, stmt)
	if err != nil {
		res.CSVErr = err
		return res
	}
	res.Outputs = append(res.Outputs, csvPath)
	res.Records = n

	log.Info().Int("records", res.Records).Int("skipped", res.Skipped).Msg("file converted")
	return res
}

// record archives a fully converted input and appends the run log row.
// Failures here are logged and do not change the result.
func (c *Converter) record(res Result) {
	if c.opts.ArchiveDir != "" && res.Status() == runlog.StatusOK {
		if err := importer.Archive(res.Input, c.opts.ArchiveDir); err != nil {
			c.log.Warn().Err(err).Str("input", res.Input).Msg("input not archived")
		}
	}

	if c.opts.RunLog == "" {
		return
	}
	entry := runlog.Entry{
		Timestamp: c.now().UTC(),
		RunID:     c.runID,
		Input:     res.Input,
		Format:    res.Format,
		Outputs:   res.Outputs,
		Records:   res.Records,
		Skipped:   res.Skipped,
		Status:    res.Status(),
	}
	if err := res.failure(); err != nil {
		entry.Error = err.Error()
	}
	if err := runlog.Append(c.opts.RunLog, []runlog.Entry{entry}); err != nil {
		c.log.Warn().Err(err).Str("path", c.opts.RunLog).Msg("run log not updated")
	}
}

// ConvertDir converts every export found in dir. Files whose name matches
// no pattern are logged and left alone. A file that fails does not stop
// the batch.
func (c *Converter) ConvertDir(dir string) (Summary, error) {
	var sum Summary

	files, err := importer.Scan(dir)
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		c.log.Warn().Str("dir", dir).Msg("no exports to convert")
		return sum, nil
	}

	for _, f := range files {
		format, err := c.detector.Detect(f.Path)
		if err != nil {
			c.log.Warn().Str("input", f.Path).Msg("no known export pattern matches, file skipped")
			sum.Ignored = append(sum.Ignored, f.Path)
			continue
		}
		sum.Results = append(sum.Results, c.ConvertFile(f.Path, format))
	}

	c.log.Info().
		Int("files", len(sum.Results)).
		Int("failed", sum.Failed()).
		Int("ignored", len(sum.Ignored)).
		Int("records", sum.Records()).
		Msg("batch complete")
	return sum, nil
}
