package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/hbconv/internal/model"
)

// Parser converts one bank export into a Statement.
type Parser interface {
	Parse(r io.Reader) (*model.Statement, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes an export file in the input directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format keys, sorted.
func (r *Registry) Formats() []string {
	keys := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry(log zerolog.Logger) *Registry {
	r := NewRegistry()
	r.Register(&INGDiBaParser{Log: log})
	r.Register(NewBoursoramaParser(FormatBoursorama, log))
	r.Register(NewBoursoramaParser(FormatBoursoramaQuick2000, log))
	r.Register(&LinxoParser{Log: log})
	return r
}

// ParseFile reads path fully and parses it with p. Any failure is a
// *ParseError for this file only.
func ParseFile(p Parser, path string) (*model.Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Format: p.Format(), Err: fmt.Errorf("%w: %w", model.ErrFileAccess, err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Path: path, Format: p.Format(), Err: model.ErrEmptyInput}
	}

	stmt, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Path: path, Format: p.Format(), Err: err}
	}
	return stmt, nil
}

// exportExts are the extensions Scan considers.
var exportExts = map[string]bool{".csv": true, ".qif": true}

// Scan returns export files directly inside dir, sorted by name. A missing
// directory yields no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !exportExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// Archive moves a converted export into archiveDir.
func Archive(path, archiveDir string) error {
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	name := filepath.Base(path)
	dst := filepath.Join(archiveDir, name)
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("moving %s to archive: %w", name, err)
	}
	return nil
}
