package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/funvibe/sigcheck/internal/diagnostics"
)

type Format int

const (
	TextFormat Format = iota
	JSONFormat
)

// Reporter writes the diagnostics of a run.
type Reporter struct {
	w      io.Writer
	format Format
	color  painter
}

func New(w io.Writer, format Format, color bool) *Reporter {
	return &Reporter{w: w, format: format, color: painter(color)}
}

// Report writes errs, already sorted, followed by a summary line in text
// format. checked is the number of files that were checked.
func (r *Reporter) Report(checked int, errs []*diagnostics.DiagnosticError) error {
	if r.format == JSONFormat {
		return r.writeJSON(errs)
	}
	for _, err := range errs {
		if _, e := fmt.Fprintln(r.w, r.Line(err)); e != nil {
			return e
		}
	}
	_, err := fmt.Fprintln(r.w, r.Summary(checked, errs))
	return err
}

// Line renders one diagnostic as <file>:<line>: error: <message>  [<code>].
func (r *Reporter) Line(err *diagnostics.DiagnosticError) string {
	pos := err.Position()
	return fmt.Sprintf("%s:%d: %s %s  [%s]",
		r.color.paint(ansiBold, err.File), pos.Line, r.color.paint(ansiRed, "error:"), err.Message, err.Code)
}

// Summary renders the closing line of a text report.
func (r *Reporter) Summary(checked int, errs []*diagnostics.DiagnosticError) string {
	if len(errs) == 0 {
		return r.color.paint(ansiGreen, fmt.Sprintf("Success: no issues found in %s", plural(checked, "source file")))
	}
	files := make(map[string]bool)
	for _, err := range errs {
		files[err.File] = true
	}
	msg := fmt.Sprintf("Found %s in %s (checked %s)",
		plural(len(errs), "error"), plural(len(files), "file"), plural(checked, "source file"))
	return r.color.paint(ansiRed+ansiBold, msg)
}

func (r *Reporter) writeJSON(errs []*diagnostics.DiagnosticError) error {
	if errs == nil {
		errs = []*diagnostics.DiagnosticError{}
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(errs)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
