package content

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrMalformedMetadata marks a document whose metadata block is missing,
	// lacks a required field, or holds a field of the wrong shape.
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrUnterminatedBlock marks a metadata block opened but never closed.
	ErrUnterminatedBlock = errors.New("unterminated metadata block")
)

// Error kind names, as reported by LoadError.Kind and used as metric labels.
const (
	KindMalformedMetadata = "MalformedMetadata"
	KindUnterminatedBlock = "UnterminatedBlock"
)

// LoadError is a per-document failure. It never aborts a batch load.
type LoadError struct {
	ID     string // source identifier
	Line   int    // 1-based line in the source, 0 when unknown
	Field  string // offending front-matter key, if any
	Err    error  // ErrMalformedMetadata or ErrUnterminatedBlock
	Detail string
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.ID)
	if e.Line > 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.Line))
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Field != "" {
		b.WriteString(" (")
		b.WriteString(e.Field)
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Kind returns KindUnterminatedBlock or KindMalformedMetadata.
func (e *LoadError) Kind() string {
	if errors.Is(e.Err, ErrUnterminatedBlock) {
		return KindUnterminatedBlock
	}
	return KindMalformedMetadata
}

// ValidationIssue is a non-fatal invariant violation in a parsed post.
type ValidationIssue struct {
	ID      string
	Field   string
	Message string
}

func (v ValidationIssue) String() string {
	return v.ID + ": " + v.Field + ": " + v.Message
}
