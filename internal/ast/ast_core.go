package ast

import (
	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// TokenProvider is an interface for anything that can provide its primary
// token. This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Arg is one argument at a call site, already typed.
type Arg struct {
	Type  typesystem.Type
	Token token.Token
	Text  string // Source text of the argument expression
}

func (a Arg) GetToken() token.Token { return a.Token }

// CallSite is a call to a function, a class constructor (Callee set) or a
// method on a typed receiver (Receiver and Method set).
type CallSite struct {
	Callee   string
	Receiver typesystem.Type
	Method   string
	Args     []Arg
	File     string
	Token    token.Token
	Text     string // Source text of the whole call
}

func (c *CallSite) GetToken() token.Token {
	if c == nil {
		return token.Token{}
	}
	return c.Token
}

// IsMethodCall reports whether the call goes through a receiver.
func (c *CallSite) IsMethodCall() bool {
	return c.Receiver != nil
}

// Name is the call's target as written: "square" or "photos.append".
func (c *CallSite) Name() string {
	if c.IsMethodCall() {
		return c.Receiver.String() + "." + c.Method
	}
	return c.Callee
}

// ArgTypes returns the argument types in order.
func (c *CallSite) ArgTypes() []typesystem.Type {
	types := make([]typesystem.Type, len(c.Args))
	for i, a := range c.Args {
		types[i] = a.Type
	}
	return types
}

// Expectation is an expected diagnostic written into the source as a
// "# error: <message>" comment. Line is the code line it applies to.
type Expectation struct {
	Line    int
	EndLine int // Last line the expectation covers; 0 means Line only
	Message string
	Token   token.Token // The comment itself
}

// Covers reports whether a diagnostic on line satisfies the expectation.
func (e Expectation) Covers(line int) bool {
	end := e.EndLine
	if end < e.Line {
		end = e.Line
	}
	return line >= e.Line && line <= end
}

func (e Expectation) GetToken() token.Token { return e.Token }

// Program is everything extracted from one input: definitions live in the
// symbol table, this holds the call sites in source order.
type Program struct {
	File         string
	Calls        []*CallSite
	Expectations []Expectation
}
