// Package verify compares produced diagnostics against the expectations
// written into the checked input.
package verify

import (
	"fmt"
	"io"
	"sort"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/diagnostics"
)

// Result is the outcome for one file.
type Result struct {
	File       string
	Missing    []ast.Expectation              // Expected but not produced
	Unexpected []*diagnostics.DiagnosticError // Produced but not expected
}

// OK reports whether the diagnostics matched the expectations exactly.
func (r Result) OK() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}

// Compare matches diagnostics to expectations by message and line. Each
// expectation consumes at most one diagnostic, so a message expected once
// but reported twice leaves one unexpected.
func Compare(file string, expectations []ast.Expectation, errs []*diagnostics.DiagnosticError) Result {
	used := make([]bool, len(expectations))
	res := Result{File: file}
	for _, err := range errs {
		if err.File != "" && err.File != file {
			continue
		}
		if i := match(expectations, used, err); i >= 0 {
			used[i] = true
			continue
		}
		res.Unexpected = append(res.Unexpected, err)
	}

	for i, exp := range expectations {
		if !used[i] {
			res.Missing = append(res.Missing, exp)
		}
	}
	sort.SliceStable(res.Missing, func(i, j int) bool { return res.Missing[i].Line < res.Missing[j].Line })
	return res
}

func match(expectations []ast.Expectation, used []bool, err *diagnostics.DiagnosticError) int {
	line := err.Position().Line
	for i, exp := range expectations {
		if !used[i] && exp.Message == err.Message && exp.Covers(line) {
			return i
		}
	}
	return -1
}

// Write prints the mismatches of r, one per line.
func Write(w io.Writer, r Result) error {
	for _, exp := range r.Missing {
		if _, err := fmt.Fprintf(w, "%s:%d: missing: %s\n", r.File, exp.Line, exp.Message); err != nil {
			return err
		}
	}
	for _, e := range r.Unexpected {
		if _, err := fmt.Fprintf(w, "%s:%d: unexpected: %s  [%s]\n", r.File, e.Position().Line, e.Message, e.Code); err != nil {
			return err
		}
	}
	return nil
}
