// Package diagnostics defines the coded errors reported by the lexer,
// interpreter and import resolver. Every fatal error carries a code, the
// source position of the offending token and, when raised inside an
// import chain, the chain of importing files.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/facto-lang/facto/internal/token"
)

type ErrorCode string

const (
	// Lexical errors
	ErrL001 ErrorCode = "L001" // malformed token

	// Syntax errors
	ErrP001 ErrorCode = "P001" // wrong token
	ErrP002 ErrorCode = "P002" // unbalanced delimiter
	ErrP003 ErrorCode = "P003" // construction specs nested too deeply

	// Type errors
	ErrT001 ErrorCode = "T001" // declared/inferred type mismatch
	ErrT002 ErrorCode = "T002" // heterogeneous sequence
	ErrT003 ErrorCode = "T003" // retrieval type mismatch

	// Reference errors
	ErrR001 ErrorCode = "R001" // unresolved reference

	// Import errors
	ErrI001 ErrorCode = "I001" // import not found
	ErrI002 ErrorCode = "I002" // import cycle
	ErrI003 ErrorCode = "I003" // import depth exceeded

	// Construction errors
	ErrC001 ErrorCode = "C001" // factory construction failure
)

var messages = map[ErrorCode]string{
	ErrL001: "lexical error: %s",
	ErrP001: "syntax error: expected %s, found %s ('%s')",
	ErrP002: "syntax error: unbalanced delimiters, expected '%s'",
	ErrP003: "construction specs nested deeper than %d levels",
	ErrT001: "type error: %s",
	ErrT002: "type error: heterogeneous sequence: element %d has type %s, expected %s",
	ErrT003: "type error: variable '%s' holds %s, which is not assignable to %s",
	ErrR001: "unresolved reference: no variable named '%s'",
	ErrI001: "import error: cannot open \"%s\" (tried \"%s\" and \"%s\")",
	ErrI002: "import cycle detected: %s",
	ErrI003: "import depth exceeded: more than %d nested imports",
	ErrC001: "construction of %s failed: %s",
}

// DiagnosticError is a fatal interpreter error. File is filled in by the
// evaluation driver once the current file is known (empty when evaluating
// a raw string or stream), Chain by the import resolver.
type DiagnosticError struct {
	Code    ErrorCode
	Message string
	File    string
	Line    int
	Column  int
	Chain   []string
}

func NewError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	format, ok := messages[code]
	if !ok {
		format = "unknown error"
	}
	return &DiagnosticError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

func (e *DiagnosticError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		fmt.Fprintf(&sb, "%s:", e.File)
	}
	fmt.Fprintf(&sb, "%d:%d: [%s] %s", e.Line, e.Column, e.Code, e.Message)
	if len(e.Chain) > 0 {
		fmt.Fprintf(&sb, "\n\timported via: %s", strings.Join(e.Chain, " -> "))
	}
	return sb.String()
}
