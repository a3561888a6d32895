package diagnostics

import (
	"fmt"
	"sort"

	"github.com/funvibe/sigcheck/internal/token"
)

type ErrorCode string

const (
	ErrP001 ErrorCode = "P001" // Source could not be parsed
	ErrL001 ErrorCode = "L001" // Manifest entry is malformed

	ErrT001 ErrorCode = "T001" // Wrong number of arguments
	ErrT002 ErrorCode = "T002" // Incompatible argument type
	ErrT003 ErrorCode = "T003" // Type variable resolved inconsistently
	ErrT004 ErrorCode = "T004" // Undefined function, class or attribute

	ErrI001 ErrorCode = "I001" // The pass was interrupted
)

var codeNames = map[ErrorCode]string{
	ErrP001: "ParseError",
	ErrL001: "ManifestError",
	ErrT001: "ArityError",
	ErrT002: "TypeMismatchError",
	ErrT003: "TypeVariableConflictError",
	ErrT004: "UndefinedNameError",
	ErrI001: "InterruptedError",
}

// Name returns the taxonomy name of the code (e.g. "ArityError").
func (c ErrorCode) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return string(c)
}

// DiagnosticError is one reported problem. It is a value, never a reason to
// stop the pass.
type DiagnosticError struct {
	Code     ErrorCode   `json:"code"`
	Token    token.Token `json:"-"`
	File     string      `json:"file,omitempty"`
	Line     int         `json:"line"`
	Column   int         `json:"column"`
	Callee   string      `json:"callee,omitempty"`
	ArgIndex int         `json:"arg_index,omitempty"` // 1-based; 0 when the whole call is at fault
	Expected string      `json:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty"`
	Message  string      `json:"message"`
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Token:   tok,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: msg,
	}
}

func NewErrorf(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return NewError(code, tok, fmt.Sprintf(format, args...))
}

func (e *DiagnosticError) Error() string {
	return e.Message
}

// Position restores the token after a JSON round trip, which only keeps
// line and column.
func (e *DiagnosticError) Position() token.Token {
	if e.Token.Line == 0 && e.Line != 0 {
		return token.Token{Line: e.Line, Column: e.Column}
	}
	return e.Token
}

// Key identifies a diagnostic for deduplication:
// "file:line:col:code:arg:message". One call can carry several errors of
// the same code at the same place, so the message is part of the key.
func (e *DiagnosticError) Key() string {
	pos := e.Position()
	return fmt.Sprintf("%s:%d:%d:%s:%d:%s", e.File, pos.Line, pos.Column, e.Code, e.ArgIndex, e.Message)
}

// Sort orders diagnostics by file, position and argument index.
func Sort(errs []*DiagnosticError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		pa, pb := a.Position(), b.Position()
		if pa.Line != pb.Line || pa.Column != pb.Column {
			return pa.Before(pb)
		}
		return a.ArgIndex < b.ArgIndex
	})
}

// Dedup drops repeated diagnostics, keeping the first of each key.
func Dedup(errs []*DiagnosticError) []*DiagnosticError {
	seen := make(map[string]bool, len(errs))
	result := make([]*DiagnosticError, 0, len(errs))
	for _, e := range errs {
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, e)
	}
	return result
}
