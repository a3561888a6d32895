package frontend

import (
	"errors"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/symbols"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// collectDefinitions fills the symbol table from top-level statements.
// Imported names bind first so local definitions shadow them, and class
// names are known before any annotation is parsed so forward references
// resolve.
func (x *extraction) collectDefinitions(root *sitter.Node) {
	stmts := namedChildren(root)

	for _, n := range stmts {
		x.defineImports(n)
	}
	for _, n := range stmts {
		if def, _ := definition(n); def != nil && def.Type() == "class_definition" {
			cls := symbols.NewClass(x.text(def.ChildByFieldName("name")))
			cls.Token = x.tokenOf(def)
			x.st.DefineClass(cls)
		}
	}
	for _, n := range stmts {
		if left, call := typeVarAssignment(n); call != nil {
			x.defineTypeVar(left, call)
		}
	}
	for _, n := range stmts {
		def, _ := definition(n)
		if def == nil {
			continue
		}
		switch def.Type() {
		case "function_definition":
			x.st.DefineFunction(x.signature(def, false))
		case "class_definition":
			x.defineClass(def)
		}
	}
}

// definition unwraps a possibly decorated def or class statement.
func definition(n *sitter.Node) (*sitter.Node, []*sitter.Node) {
	switch n.Type() {
	case "function_definition", "class_definition":
		return n, nil
	case "decorated_definition":
		var decorators []*sitter.Node
		for _, c := range namedChildren(n) {
			if c.Type() == "decorator" {
				decorators = append(decorators, c)
			}
		}
		return n.ChildByFieldName("definition"), decorators
	}
	return nil, nil
}

func (x *extraction) hasDecorator(decorators []*sitter.Node, name string) bool {
	for _, d := range decorators {
		if strings.TrimSpace(strings.TrimPrefix(x.text(d), "@")) == name {
			return true
		}
	}
	return false
}

// defineImports binds imported names as untyped variables.
func (x *extraction) defineImports(n *sitter.Node) {
	var names []*sitter.Node
	switch n.Type() {
	case "import_statement":
		names = namedChildren(n)
	case "import_from_statement":
		// The first named child is the module itself
		names = namedChildren(n)[1:]
	default:
		return
	}

	for _, name := range names {
		var bound string
		switch name.Type() {
		case "aliased_import":
			bound = x.text(name.ChildByFieldName("alias"))
		case "dotted_name":
			parts := strings.Split(x.text(name), ".")
			if n.Type() == "import_statement" {
				// import os.path binds os
				bound = parts[0]
			} else {
				bound = parts[len(parts)-1]
			}
		}
		if bound != "" {
			x.st.DefineVariable(bound, typesystem.TAny{})
		}
	}
}

// typeVarAssignment matches X = TypeVar('X', ...) and returns the target
// and the call.
func typeVarAssignment(n *sitter.Node) (*sitter.Node, *sitter.Node) {
	if n.Type() != "expression_statement" || n.NamedChildCount() == 0 {
		return nil, nil
	}
	assign := n.NamedChild(0)
	if assign.Type() != "assignment" {
		return nil, nil
	}
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || left.Type() != "identifier" || right == nil || right.Type() != "call" {
		return nil, nil
	}
	return left, right
}

func (x *extraction) isTypeVarCall(call *sitter.Node) bool {
	if call == nil || call.Type() != "call" {
		return false
	}
	fn := x.text(call.ChildByFieldName("function"))
	return fn == config.TypeVarFuncName || strings.HasSuffix(fn, "."+config.TypeVarFuncName)
}

// defineTypeVar registers a type variable with its bound set. Keyword
// arguments such as bound= and covariant= are ignored.
func (x *extraction) defineTypeVar(left, call *sitter.Node) {
	if !x.isTypeVarCall(call) {
		return
	}
	tv := typesystem.TVar{Name: x.text(left)}
	args := namedChildren(call.ChildByFieldName("arguments"))
	for i, arg := range args {
		if arg.Type() == "keyword_argument" || arg.Type() == "comment" {
			continue
		}
		if i == 0 {
			if name := unquote(x.text(arg)); name != tv.Name {
				x.report(diagnostics.ErrP001, arg, "String argument 1 %q to TypeVar(...) does not match variable name %q", name, tv.Name)
			}
			continue
		}
		tv.Constraints = append(tv.Constraints, x.annotationText(arg, unquote(x.text(arg))))
	}
	x.st.DefineTypeVar(tv)
}

// signature builds the signature of a def. Methods drop their first
// parameter (self); an unannotated return is Any.
func (x *extraction) signature(def *sitter.Node, method bool) *symbols.FunctionSignature {
	params := x.parameters(def.ChildByFieldName("parameters"), method)
	var ret typesystem.Type = typesystem.TAny{}
	if rt := def.ChildByFieldName("return_type"); rt != nil {
		ret = x.annotation(rt)
	}
	sig := symbols.NewFunction(x.text(def.ChildByFieldName("name")), params, ret)
	sig.Token = x.tokenOf(def)
	return sig
}

// parameters collects the positional parameters. *args becomes a trailing
// variadic parameter; keyword-only parameters and **kwargs cannot be
// filled positionally and are left out.
func (x *extraction) parameters(list *sitter.Node, dropFirst bool) []symbols.Param {
	var params []symbols.Param
	keywordOnly := false
	for i, n := range namedChildren(list) {
		if dropFirst && i == 0 {
			continue
		}
		if keywordOnly {
			break
		}

		switch n.Type() {
		case "identifier":
			params = append(params, symbols.Param{Name: x.text(n), Type: typesystem.TAny{}})
		case "typed_parameter":
			inner := n.NamedChild(0)
			typ := x.annotation(n.ChildByFieldName("type"))
			switch inner.Type() {
			case "list_splat_pattern":
				params = append(params, symbols.Param{Name: x.text(inner.NamedChild(0)), Type: typ, Variadic: true})
				keywordOnly = true
			case "dictionary_splat_pattern":
			default:
				params = append(params, symbols.Param{Name: x.text(inner), Type: typ})
			}
		case "default_parameter":
			params = append(params, symbols.Param{
				Name:       x.text(n.ChildByFieldName("name")),
				Type:       typesystem.TAny{},
				HasDefault: true,
			})
		case "typed_default_parameter":
			params = append(params, symbols.Param{
				Name:       x.text(n.ChildByFieldName("name")),
				Type:       x.annotation(n.ChildByFieldName("type")),
				HasDefault: true,
			})
		case "list_splat_pattern":
			params = append(params, symbols.Param{Name: x.text(n.NamedChild(0)), Type: typesystem.TAny{}, Variadic: true})
			keywordOnly = true
		case "keyword_separator":
			keywordOnly = true
		}
	}
	return params
}

// defineClass fills in a class registered by name in the first pass.
func (x *extraction) defineClass(def *sitter.Node) {
	cls, ok := x.st.LookupClass(x.text(def.ChildByFieldName("name")))
	if !ok {
		return
	}
	cls.Base = x.baseClass(def.ChildByFieldName("superclasses"))

	for _, stmt := range namedChildren(def.ChildByFieldName("body")) {
		if fn, decorators := definition(stmt); fn != nil && fn.Type() == "function_definition" {
			static := x.hasDecorator(decorators, "staticmethod")
			sig := x.signature(fn, !static)
			if sig.Name == config.InitMethodName {
				cls.Init = sig.Params
				cls.HasInit = true
			} else {
				cls.AddMethod(sig)
			}
			if !static {
				x.collectSelfAttributes(cls, fn, sig.Params)
			}
			continue
		}

		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		left := assign.ChildByFieldName("left")
		if assign.Type() != "assignment" || left == nil || left.Type() != "identifier" {
			continue
		}
		if typ := assign.ChildByFieldName("type"); typ != nil {
			cls.Attributes[x.text(left)] = x.annotation(typ)
		} else {
			cls.Attributes[x.text(left)] = x.typeOf(assign.ChildByFieldName("right"), paramScope{})
		}
	}
}

// baseClass returns the first named base other than object. Generic[...]
// and keyword arguments like metaclass= are skipped.
func (x *extraction) baseClass(superclasses *sitter.Node) string {
	for _, n := range namedChildren(superclasses) {
		var name string
		switch n.Type() {
		case "identifier":
			name = x.text(n)
		case "attribute":
			name = x.text(n.ChildByFieldName("attribute"))
		default:
			continue
		}
		if name != config.ObjectTypeName {
			return name
		}
	}
	return ""
}

// collectSelfAttributes records self.x = ... assignments in a method body.
// The first assignment of an attribute decides its type.
func (x *extraction) collectSelfAttributes(cls *symbols.ClassDefinition, fn *sitter.Node, params []symbols.Param) {
	list := namedChildren(fn.ChildByFieldName("parameters"))
	if len(list) == 0 || list[0].Type() != "identifier" {
		return
	}
	self := x.text(list[0])
	scope := paramScope{}
	for _, p := range params {
		if !p.Variadic {
			scope[p.Name] = p.Type
		}
	}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition", "class_definition", "lambda":
			return
		case "assignment":
			left := n.ChildByFieldName("left")
			if left != nil && left.Type() == "attribute" && x.text(left.ChildByFieldName("object")) == self {
				name := x.text(left.ChildByFieldName("attribute"))
				if _, seen := cls.Attributes[name]; !seen {
					if typ := n.ChildByFieldName("type"); typ != nil {
						cls.Attributes[name] = x.annotation(typ)
					} else {
						cls.Attributes[name] = x.typeOf(n.ChildByFieldName("right"), scope)
					}
				}
			}
		}
		for _, c := range namedChildren(n) {
			visit(c)
		}
	}
	for _, stmt := range namedChildren(fn.ChildByFieldName("body")) {
		visit(stmt)
	}
}

// annotation parses a type annotation node. Problems are reported and the
// annotation degrades to Any.
func (x *extraction) annotation(n *sitter.Node) typesystem.Type {
	if n == nil {
		return typesystem.TAny{}
	}
	return x.annotationText(n, x.text(n))
}

func (x *extraction) annotationText(n *sitter.Node, text string) typesystem.Type {
	t, err := typesystem.ParseAnnotation(text, x.st)
	if err == nil {
		return t
	}
	var notFound *typesystem.SymbolNotFoundError
	if errors.As(err, &notFound) {
		x.report(diagnostics.ErrT004, n, "Name %q is not defined", notFound.Name)
	} else {
		x.report(diagnostics.ErrP001, n, "%s", err)
	}
	return typesystem.TAny{}
}

// unquote strips the quotes of a plain string literal.
func unquote(s string) string {
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
