// Package apperr defines the error taxonomy shared by the analysis packages.
//
// Every failure is an *Error carrying a Kind. Callers branch on the kind with
// errors.Is against the package sentinels:
//
//	if errors.Is(err, apperr.ErrParse) {
//		// recoverable, keep going
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindInput means the source tree could not be read at all.
	KindInput Kind = iota + 1
	// KindParse means one file's structural parse failed.
	KindParse
	// KindExtraction means one file's flow extraction failed.
	KindExtraction
	// KindExport means writing one export artifact failed.
	KindExport
)

// String returns the taxonomy name of the kind
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "InputError"
	case KindParse:
		return "ParseError"
	case KindExtraction:
		return "ExtractionError"
	case KindExport:
		return "ExportError"
	default:
		return "UnknownError"
	}
}

// Recoverable reports whether a run should continue after this kind of failure.
func (k Kind) Recoverable() bool {
	return k == KindParse || k == KindExtraction
}

// Error is a classified failure tied to an operation and, usually, a path.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// Sentinels for errors.Is.
var (
	ErrInput      = &Error{Kind: KindInput}
	ErrParse      = &Error{Kind: KindParse}
	ErrExtraction = &Error{Kind: KindExtraction}
	ErrExport     = &Error{Kind: KindExport}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Path != "" || t.Err != nil {
		return e == t
	}
	return e.Kind == t.Kind
}

// New wraps err with a kind, an operation name and a path.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Input builds an InputError.
func Input(op, path string, err error) *Error { return New(KindInput, op, path, err) }

// Parse builds a ParseError.
func Parse(path string, err error) *Error { return New(KindParse, "parse", path, err) }

// Extraction builds an ExtractionError.
func Extraction(path string, err error) *Error { return New(KindExtraction, "extract", path, err) }

// Export builds an ExportError.
func Export(format, path string, err error) *Error {
	return New(KindExport, fmt.Sprintf("export %s", format), path, err)
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
