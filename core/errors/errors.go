// Package errors provides the error kinds shared by every LUT reader and writer.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per error kind.
var (
	// ErrInvalidFormat indicates the file is not this format at all.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrSyntax indicates a grammar mismatch at a known line.
	ErrSyntax = errors.New("syntax error")
	// ErrSemantic indicates structurally valid but invalid content.
	ErrSemantic = errors.New("semantic error")
	// ErrUnsupportedVersion indicates a file newer than this implementation.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrReferenceNotFound indicates a referenced file could not be located.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrInternal indicates a broken invariant.
	ErrInternal = errors.New("internal error")
)

// Kind classifies a FormatError.
type Kind int

const (
	KindInvalidFormat Kind = iota
	KindSyntax
	KindSemantic
	KindUnsupportedVersion
	KindReferenceNotFound
	KindInternal
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidFormat:
		return ErrInvalidFormat
	case KindSyntax:
		return ErrSyntax
	case KindSemantic:
		return ErrSemantic
	case KindUnsupportedVersion:
		return ErrUnsupportedVersion
	case KindReferenceNotFound:
		return ErrReferenceNotFound
	default:
		return ErrInternal
	}
}

// String returns the kind name.
func (k Kind) String() string {
	return k.sentinel().Error()
}

// FormatError is the error returned by readers, writers and the resolver.
type FormatError struct {
	Kind    Kind
	Format  string // Format display name (e.g. "Resolve .cube", "CTF/CLF")
	Path    string // File being read or written, if known
	Line    int    // 1-based line number, 0 when unknown
	Content string // Offending line, echoed back for syntax errors
	Message string // What went wrong
	Err     error  // Underlying error, if any
}

// Error renders the message. Errors carrying a format and a path use the
// "Error parsing <FORMAT> file (<PATH>)." shape; a line number adds the
// "At line (<N>)" suffix, echoing the offending line when it is known.
func (e *FormatError) Error() string {
	if e.Format == "" {
		return e.Message
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error parsing %s file (%s). ", e.Format, e.Path)
	b.WriteString(strings.TrimSpace(e.Message))
	if e.Line > 0 {
		msg := strings.TrimSpace(e.Message)
		if !strings.HasSuffix(msg, ".") {
			b.WriteString(".")
		}
		fmt.Fprintf(&b, " At line (%d)", e.Line)
		if e.Content != "" {
			fmt.Fprintf(&b, ": '%s'", e.Content)
		}
		b.WriteString(".")
	}
	return b.String()
}

// Unwrap returns the underlying error, or the kind sentinel when there is none.
func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// Helper functions for creating common errors

// NewSyntax creates a syntax error located at line with the echoed content.
func NewSyntax(format, path string, line int, content, message string) *FormatError {
	return &FormatError{
		Kind:    KindSyntax,
		Format:  format,
		Path:    path,
		Line:    line,
		Content: content,
		Message: message,
	}
}

// NewSemantic creates a semantic error. Format and path may be empty, in
// which case the message is returned verbatim.
func NewSemantic(format, path, message string) *FormatError {
	return &FormatError{
		Kind:    KindSemantic,
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewSemanticf creates a semantic error without file context.
func NewSemanticf(format string, args ...any) *FormatError {
	return &FormatError{
		Kind:    KindSemantic,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInvalidFormat creates an error telling the caller the file is not of
// the expected format.
func NewInvalidFormat(format, path, message string) *FormatError {
	return &FormatError{
		Kind:    KindInvalidFormat,
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupportedVersion creates an unsupported-version error.
func NewUnsupportedVersion(message string) *FormatError {
	return &FormatError{
		Kind:    KindUnsupportedVersion,
		Message: message,
	}
}

// NewReferenceNotFound creates the error returned when a referenced file is
// missing.
func NewReferenceNotFound(path string) *FormatError {
	return &FormatError{
		Kind:    KindReferenceNotFound,
		Message: fmt.Sprintf("File '%s' could not be located.", path),
	}
}

// NewRecursion creates the error returned when resolving a path that is
// already being resolved.
func NewRecursion(path string) *FormatError {
	return &FormatError{
		Kind:    KindSemantic,
		Message: fmt.Sprintf("File '%s' is creating a recursion.", path),
	}
}

// NewInternal creates an internal error.
func NewInternal(message string) *FormatError {
	return &FormatError{
		Kind:    KindInternal,
		Message: message,
	}
}

// WithContext returns a copy of err located in the given file and line. It
// is used by readers that detect an error deep in a helper that has no file
// context.
func WithContext(err error, format, path string, line int) error {
	var fe *FormatError
	if !errors.As(err, &fe) {
		return &FormatError{
			Kind:    KindInternal,
			Format:  format,
			Path:    path,
			Line:    line,
			Message: err.Error(),
			Err:     err,
		}
	}
	cp := *fe
	if cp.Format == "" {
		cp.Format = format
		cp.Path = path
	}
	if cp.Line == 0 {
		cp.Line = line
	}
	return &cp
}

// KindOf returns the kind of err, or KindInternal if err is not a FormatError.
func KindOf(err error) Kind {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
