package report

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/token"
)

func diag(file string, line int, code diagnostics.ErrorCode, msg string) *diagnostics.DiagnosticError {
	err := diagnostics.NewError(code, token.Token{Line: line, Column: 1}, msg)
	err.File = file
	return err
}

var sample = []*diagnostics.DiagnosticError{
	diag("square.py", 10, diagnostics.ErrT002, `Argument 1 to "square" has incompatible type "str"; expected "int"`),
	diag("square.py", 12, diagnostics.ErrT001, `Too many arguments for "square"`),
	diag("example.py", 4, diagnostics.ErrT003, `Value of type variable "Anystr" of "concat" cannot be "object"`),
}

func TestTextReport(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, TextFormat, false).Report(3, sample); err != nil {
		t.Fatal(err)
	}
	want := `square.py:10: error: Argument 1 to "square" has incompatible type "str"; expected "int"  [T002]
square.py:12: error: Too many arguments for "square"  [T001]
example.py:4: error: Value of type variable "Anystr" of "concat" cannot be "object"  [T003]
Found 3 errors in 2 files (checked 3 source files)
`
	if buf.String() != want {
		t.Errorf("report:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestSummary(t *testing.T) {
	r := New(nil, TextFormat, false)
	tests := []struct {
		checked int
		errs    []*diagnostics.DiagnosticError
		want    string
	}{
		{1, nil, "Success: no issues found in 1 source file"},
		{2, nil, "Success: no issues found in 2 source files"},
		{1, sample[:1], "Found 1 error in 1 file (checked 1 source file)"},
		{4, sample[:2], "Found 2 errors in 1 file (checked 4 source files)"},
	}
	for _, tt := range tests {
		if got := r.Summary(tt.checked, tt.errs); got != tt.want {
			t.Errorf("Summary(%d, %d errors) = %q, want %q", tt.checked, len(tt.errs), got, tt.want)
		}
	}
}

func TestColoredLine(t *testing.T) {
	line := New(nil, TextFormat, true).Line(sample[0])
	if !strings.Contains(line, ansiRed+"error:"+ansiReset) || !strings.HasSuffix(line, "[T002]") {
		t.Errorf("colored line = %q", line)
	}
}

func TestJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, JSONFormat, true).Report(1, sample[:1]); err != nil {
		t.Fatal(err)
	}
	var got []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if len(got) != 1 || got[0]["code"] != "T002" || got[0]["line"] != float64(10) || got[0]["file"] != "square.py" {
		t.Errorf("decoded = %v", got)
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Error("JSON output must never be colored")
	}

	buf.Reset()
	if err := New(&buf, JSONFormat, false).Report(1, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty report = %q", buf.String())
	}
}

func TestUseColor(t *testing.T) {
	if !UseColor(config.ColorAlways, nil) {
		t.Error("always should force color")
	}
	if UseColor(config.ColorNever, os.Stdout) {
		t.Error("never should disable color")
	}
	t.Setenv("NO_COLOR", "1")
	if UseColor(config.ColorAuto, os.Stdout) {
		t.Error("NO_COLOR should disable auto color")
	}
}
