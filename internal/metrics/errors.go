package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks a result filename outside the sweep naming grammar
	ErrParse = errors.New("result name parse error")
	// ErrFormat marks a result file without a usable trailing data line
	ErrFormat = errors.New("result format error")
	// ErrNotSwept is returned when a best row is requested from a single run
	ErrNotSwept = errors.New("result was not swept")
)

// ParseError reports a result file whose name does not carry two coordinates
type ParseError struct {
	File   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.File, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// FormatError reports a cell whose result file cannot be reduced
type FormatError struct {
	File   string
	Line   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("format %s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("format %s: %s (line %q)", e.File, e.Reason, e.Line)
}

func (e *FormatError) Unwrap() error { return ErrFormat }
