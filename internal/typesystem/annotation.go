package typesystem

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/funvibe/sigcheck/internal/config"
)

// NameResolver maps a non-primitive name in an annotation to a type: a
// class, a generic class constructor or a type variable.
type NameResolver interface {
	ResolveTypeName(name string) (Type, bool)
}

// ParseAnnotation parses the text of a type annotation, e.g.
// "Optional[int]", "Tuple[int, int]", "List['Photo']", "int | None".
func ParseAnnotation(text string, resolver NameResolver) (Type, error) {
	p := &annotationParser{text: text, resolver: resolver}
	if err := p.tokenize(); err != nil {
		return nil, err
	}
	t, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("annotation %q: unexpected %q", text, p.peek().text)
	}
	return t, nil
}

type annTokenKind int

const (
	annName annTokenKind = iota
	annString
	annPunct
)

type annToken struct {
	kind annTokenKind
	text string
}

type annotationParser struct {
	text     string
	resolver NameResolver
	tokens   []annToken
	pos      int
}

func (p *annotationParser) tokenize() error {
	src := []rune(p.text)
	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case strings.ContainsRune("[](),|", r):
			p.tokens = append(p.tokens, annToken{kind: annPunct, text: string(r)})
			i++
		case r == '\'' || r == '"':
			end := i + 1
			for end < len(src) && src[end] != r {
				end++
			}
			if end == len(src) {
				return fmt.Errorf("annotation %q: unterminated string", p.text)
			}
			p.tokens = append(p.tokens, annToken{kind: annString, text: string(src[i+1 : end])})
			i = end + 1
		case r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r):
			start := i
			for i < len(src) && (src[i] == '_' || src[i] == '.' || unicode.IsLetter(src[i]) || unicode.IsDigit(src[i])) {
				i++
			}
			p.tokens = append(p.tokens, annToken{kind: annName, text: string(src[start:i])})
		default:
			return fmt.Errorf("annotation %q: unexpected character %q", p.text, r)
		}
	}
	if len(p.tokens) == 0 {
		return fmt.Errorf("empty annotation")
	}
	return nil
}

func (p *annotationParser) done() bool { return p.pos >= len(p.tokens) }

func (p *annotationParser) peek() annToken {
	if p.done() {
		return annToken{kind: annPunct, text: "<end>"}
	}
	return p.tokens[p.pos]
}

func (p *annotationParser) accept(punct string) bool {
	if t := p.peek(); t.kind == annPunct && t.text == punct {
		p.pos++
		return true
	}
	return false
}

func (p *annotationParser) expect(punct string) error {
	if !p.accept(punct) {
		return fmt.Errorf("annotation %q: expected %q, got %q", p.text, punct, p.peek().text)
	}
	return nil
}

// union := atom ('|' atom)*
func (p *annotationParser) parseUnion() (Type, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	members := []Type{first}
	for p.accept("|") {
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	return p.union(members)
}

// union accepts only the Optional shape: T | None.
func (p *annotationParser) union(members []Type) (Type, error) {
	if len(members) == 1 {
		return members[0], nil
	}
	var rest []Type
	hasNone := false
	for _, m := range members {
		if _, ok := m.(TNone); ok {
			hasNone = true
			continue
		}
		if !containsType(rest, m) {
			rest = append(rest, m)
		}
	}
	switch {
	case len(rest) == 0:
		return TNone{}, nil
	case len(rest) == 1 && hasNone:
		return NewOptional(rest[0]), nil
	case len(rest) == 1:
		return rest[0], nil
	default:
		return nil, &UnsupportedAnnotationError{Text: p.text, Reason: "only unions with None are supported"}
	}
}

func (p *annotationParser) parseAtom() (Type, error) {
	tok := p.peek()
	switch tok.kind {
	case annString:
		p.pos++
		// Forward reference
		return ParseAnnotation(tok.text, p.resolver)
	case annPunct:
		return nil, fmt.Errorf("annotation %q: unexpected %q", p.text, tok.text)
	}
	p.pos++
	name := strings.TrimPrefix(tok.text, "typing.")

	var args []Type
	hasArgs := false
	if p.accept("[") {
		hasArgs = true
		var err error
		if args, err = p.parseArgs(); err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
	}
	return p.build(name, args, hasArgs)
}

// args := '(' ')' | union (',' union)*
func (p *annotationParser) parseArgs() ([]Type, error) {
	if p.accept("(") {
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return []Type{}, nil
	}
	var args []Type
	for {
		arg, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(",") {
			return args, nil
		}
	}
}

func (p *annotationParser) build(name string, args []Type, hasArgs bool) (Type, error) {
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("annotation %q: %s expects %d type argument(s), got %d", p.text, name, n, len(args))
		}
		return nil
	}

	switch name {
	case config.NoneTypeName:
		return TNone{}, nil
	case config.AnyTypeName:
		return TAny{}, nil
	case config.OptionalTypeName:
		if err := arity(1); err != nil {
			return nil, err
		}
		return NewOptional(args[0]), nil
	case config.UnionTypeName:
		if len(args) == 0 {
			return nil, fmt.Errorf("annotation %q: empty Union", p.text)
		}
		return p.union(args)
	case config.TupleTypeName, "tuple":
		if !hasArgs {
			// Unknown shape
			return TAny{}, nil
		}
		return TTuple{Elements: args}, nil
	case config.TypingListName, config.ListTypeName:
		if !hasArgs {
			return ListOf(TAny{}), nil
		}
		if err := arity(1); err != nil {
			return nil, err
		}
		return ListOf(args[0]), nil
	}

	if prim, ok := Primitives[name]; ok {
		if hasArgs {
			return nil, fmt.Errorf("annotation %q: %s takes no type arguments", p.text, name)
		}
		return prim, nil
	}

	if p.resolver == nil {
		return nil, NewSymbolNotFoundError(name)
	}
	resolved, ok := p.resolver.ResolveTypeName(name)
	if !ok {
		return nil, NewSymbolNotFoundError(name)
	}
	if !hasArgs {
		return resolved, nil
	}
	cls, ok := resolved.(TClass)
	if !ok {
		return nil, fmt.Errorf("annotation %q: %s is not generic", p.text, name)
	}
	return TApp{Constructor: cls, Args: args}, nil
}

func containsType(ts []Type, t Type) bool {
	for _, x := range ts {
		if Equal(x, t) {
			return true
		}
	}
	return false
}
