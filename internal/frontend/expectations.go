package frontend

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/config"
)

const commentQuery = `(comment) @comment`

// collectExpectations gathers "# error: <message>" comments. A trailing
// comment applies to its own line; a comment on a line of its own applies
// to the nearest code line above it.
func (x *extraction) collectExpectations(root *sitter.Node) error {
	query, err := sitter.NewQuery([]byte(commentQuery), python.GetLanguage())
	if err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(query, root)

	lines := strings.Split(string(x.src), "\n")
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			text := strings.TrimSpace(strings.TrimPrefix(x.text(c.Node), "#"))
			if !strings.HasPrefix(text, config.ExpectedErrorTag) {
				continue
			}
			p := c.Node.StartPoint()
			x.program.Expectations = append(x.program.Expectations, ast.Expectation{
				Line:    codeLineFor(lines, int(p.Row), int(p.Column)),
				Message: strings.TrimSpace(strings.TrimPrefix(text, config.ExpectedErrorTag)),
				Token:   x.tokenOf(c.Node),
			})
		}
	}
	return nil
}

// codeLineFor returns the 1-based line a comment at row/col refers to.
func codeLineFor(lines []string, row, col int) int {
	if row < len(lines) && col <= len(lines[row]) && strings.TrimSpace(lines[row][:col]) != "" {
		return row + 1
	}
	for r := row - 1; r >= 0; r-- {
		t := strings.TrimSpace(lines[r])
		if t != "" && !strings.HasPrefix(t, "#") {
			return r + 1
		}
	}
	return row + 1
}
