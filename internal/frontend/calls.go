package frontend

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// scope types the names and calls of an expression.
type scope interface {
	lookup(name string) (typesystem.Type, bool)
	call(x *extraction, n *sitter.Node) typesystem.Type
}

// paramScope types expressions inside a method body from its parameters.
// Calls there are never recorded.
type paramScope map[string]typesystem.Type

func (s paramScope) lookup(name string) (typesystem.Type, bool) {
	t, ok := s[name]
	return t, ok
}

func (paramScope) call(*extraction, *sitter.Node) typesystem.Type {
	return typesystem.TAny{}
}

// moduleScope types module-level expressions from the variables bound so
// far, recording every call it meets.
type moduleScope struct{}

func (moduleScope) lookup(string) (typesystem.Type, bool) {
	return nil, false
}

func (moduleScope) call(x *extraction, n *sitter.Node) typesystem.Type {
	return x.callSite(n)
}

// walkStatements records the calls of module-level statements in source
// order. Bodies of compound statements are walked too; def and class
// bodies are not.
func (x *extraction) walkStatements(n *sitter.Node) {
	for _, stmt := range namedChildren(n) {
		x.statement(stmt)
	}
}

func (x *extraction) statement(n *sitter.Node) {
	switch n.Type() {
	case "function_definition", "class_definition", "decorated_definition",
		"import_statement", "import_from_statement", "future_import_statement", "comment":
		return
	case "block":
		x.walkStatements(n)
		return
	case "expression_statement":
		if _, call := typeVarAssignment(n); x.isTypeVarCall(call) {
			return
		}
		for _, expr := range namedChildren(n) {
			switch expr.Type() {
			case "assignment":
				x.assign(expr)
			case "augmented_assignment":
				x.typeOf(expr.ChildByFieldName("right"), moduleScope{})
			default:
				x.typeOf(expr, moduleScope{})
			}
		}
		return
	}

	for _, c := range namedChildren(n) {
		if c.Type() == "block" || strings.HasSuffix(c.Type(), "_clause") {
			x.statement(c)
		} else {
			x.typeOf(c, moduleScope{})
		}
	}
}

// assign binds the targets of an assignment. A declared annotation wins
// over the inferred type of the value.
func (x *extraction) assign(n *sitter.Node) typesystem.Type {
	var t typesystem.Type = typesystem.TAny{}
	if right := n.ChildByFieldName("right"); right != nil {
		if right.Type() == "assignment" {
			t = x.assign(right)
		} else {
			t = x.typeOf(right, moduleScope{})
		}
	}
	if typ := n.ChildByFieldName("type"); typ != nil {
		t = x.annotation(typ)
	}
	x.bind(n.ChildByFieldName("left"), t)
	return t
}

func (x *extraction) bind(target *sitter.Node, t typesystem.Type) {
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		x.st.DefineVariable(x.text(target), t)
	case "pattern_list", "tuple_pattern", "list_pattern":
		targets := namedChildren(target)
		tuple, ok := t.(typesystem.TTuple)
		for i, c := range targets {
			if ok && len(tuple.Elements) == len(targets) {
				x.bind(c, tuple.Elements[i])
			} else {
				x.bind(c, typesystem.TAny{})
			}
		}
	default:
		// obj.attr = ... and xs[i] = ... may still contain calls
		x.typeOf(target, moduleScope{})
	}
}

// callSite records a call and returns its result type. Calls passing
// keyword arguments or unpacking are not checked, but the calls nested in
// them are.
func (x *extraction) callSite(n *sitter.Node) typesystem.Type {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	site := &ast.CallSite{File: x.file, Token: x.tokenOf(n), Text: x.text(n)}

	checkable := true
	switch fn.Type() {
	case "identifier":
		site.Callee = x.text(fn)
	case "attribute":
		site.Receiver = x.typeOf(fn.ChildByFieldName("object"), moduleScope{})
		site.Method = x.text(fn.ChildByFieldName("attribute"))
	default:
		x.typeOf(fn, moduleScope{})
		checkable = false
	}

	if args != nil && args.Type() == "argument_list" {
		for _, a := range namedChildren(args) {
			switch a.Type() {
			case "comment":
			case "keyword_argument", "list_splat", "dictionary_splat":
				x.typeOf(a, moduleScope{})
				checkable = false
			default:
				site.Args = append(site.Args, ast.Arg{
					Type:  x.typeOf(a, moduleScope{}),
					Token: x.tokenOf(a),
					Text:  x.text(a),
				})
			}
		}
	} else if args != nil {
		// f(x for x in xs)
		x.typeOf(args, moduleScope{})
		checkable = false
	}

	if !checkable {
		return typesystem.TAny{}
	}
	x.program.Calls = append(x.program.Calls, site)
	typ, _ := x.analyzer.Check(site)
	return typ
}

// typeOf infers the type of an expression. Anything outside literals,
// names, attributes and calls is Any, but its subexpressions are still
// visited so nested calls are recorded.
func (x *extraction) typeOf(n *sitter.Node, sc scope) typesystem.Type {
	if n == nil {
		return typesystem.TAny{}
	}

	switch n.Type() {
	case "integer":
		if strings.ContainsAny(x.text(n), "jJ") {
			return typesystem.TAny{}
		}
		return typesystem.Int
	case "float":
		if strings.ContainsAny(x.text(n), "jJ") {
			return typesystem.TAny{}
		}
		return typesystem.Float
	case "string":
		return x.stringType(n)
	case "concatenated_string":
		return x.stringType(n.NamedChild(0))
	case "true", "false":
		return typesystem.Bool
	case "none":
		return typesystem.TNone{}
	case "identifier":
		return x.nameType(x.text(n), sc)
	case "parenthesized_expression":
		if n.NamedChildCount() == 0 {
			return typesystem.TAny{}
		}
		return x.typeOf(n.NamedChild(0), sc)
	case "tuple":
		var elems []typesystem.Type
		for _, c := range namedChildren(n) {
			elems = append(elems, x.typeOf(c, sc))
		}
		return typesystem.TTuple{Elements: elems}
	case "list":
		var elems []typesystem.Type
		for _, c := range namedChildren(n) {
			elems = append(elems, x.typeOf(c, sc))
		}
		// An empty list holds Any
		return typesystem.ListOf(x.assigner.JoinAll(elems))
	case "call":
		return sc.call(x, n)
	case "attribute":
		return x.attributeType(n, sc)
	case "subscript":
		return x.subscriptType(n, sc)
	case "unary_operator":
		t := x.typeOf(n.ChildByFieldName("argument"), sc)
		if typesystem.Equal(t, typesystem.Bool) {
			return typesystem.Int
		}
		if typesystem.Equal(t, typesystem.Int) || typesystem.Equal(t, typesystem.Float) {
			return t
		}
		return typesystem.TAny{}
	case "not_operator", "comparison_operator":
		x.visitChildren(n, sc)
		return typesystem.Bool
	case "keyword_argument":
		return x.typeOf(n.ChildByFieldName("value"), sc)
	case "lambda":
		return typesystem.TAny{}
	}

	x.visitChildren(n, sc)
	return typesystem.TAny{}
}

func (x *extraction) visitChildren(n *sitter.Node, sc scope) {
	for _, c := range namedChildren(n) {
		x.typeOf(c, sc)
	}
}

// stringType tells bytes from str by the literal prefix.
func (x *extraction) stringType(n *sitter.Node) typesystem.Type {
	text := x.text(n)
	prefix := strings.ToLower(text[:strings.IndexAny(text+`"`, `"'`)])
	if strings.Contains(prefix, "b") {
		return typesystem.Bytes
	}
	return typesystem.Str
}

func (x *extraction) nameType(name string, sc scope) typesystem.Type {
	if t, ok := sc.lookup(name); ok {
		return t
	}
	if _, isParams := sc.(paramScope); isParams {
		return typesystem.TAny{}
	}
	if t, ok := x.st.LookupVariable(name); ok {
		return t
	}
	// Functions and classes used as values are not modelled
	return typesystem.TAny{}
}

func (x *extraction) attributeType(n *sitter.Node, sc scope) typesystem.Type {
	obj := x.typeOf(n.ChildByFieldName("object"), sc)
	cls, ok := obj.(typesystem.TClass)
	if !ok {
		return typesystem.TAny{}
	}
	if t, ok := x.st.FindAttribute(cls.Name, x.text(n.ChildByFieldName("attribute"))); ok {
		return t
	}
	return typesystem.TAny{}
}

// subscriptType types indexing into a list or a tuple with a literal index.
func (x *extraction) subscriptType(n *sitter.Node, sc scope) typesystem.Type {
	value := x.typeOf(n.ChildByFieldName("value"), sc)
	index := n.ChildByFieldName("subscript")
	x.typeOf(index, sc)

	switch v := value.(type) {
	case typesystem.TApp:
		if len(v.Args) == 1 && index != nil && index.Type() != "slice" {
			return v.Args[0]
		}
	case typesystem.TTuple:
		if index != nil && index.Type() == "integer" {
			// Hex, octal and out of range literals stay Any
			i, err := strconv.Atoi(x.text(index))
			if err == nil && i >= 0 && i < len(v.Elements) {
				return v.Elements[i]
			}
		}
	}
	return typesystem.TAny{}
}
