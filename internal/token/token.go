package token

import "fmt"

// Token marks a location in a source file. Line and Column are 1-based;
// a zero Line means the position is unknown (e.g. manifest entries without
// a line).
type Token struct {
	Line   int
	Column int
	Lexeme string // Source text at this position, if any
}

func (t Token) String() string {
	if t.Line == 0 {
		return "?"
	}
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}

// Before orders tokens by line, then column.
func (t Token) Before(other Token) bool {
	if t.Line != other.Line {
		return t.Line < other.Line
	}
	return t.Column < other.Column
}
