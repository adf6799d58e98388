package model

import "errors"

// Conversion error classes. Concrete errors wrap one of these so callers can
// branch with errors.Is.
var (
	ErrFileAccess      = errors.New("file access")
	ErrEmptyInput      = errors.New("empty input")
	ErrFormatDetection = errors.New("format detection")
	ErrRecordParse     = errors.New("record parse")
	ErrUnclassified    = errors.New("unclassified description")
	ErrSerialization   = errors.New("serialization")
)
