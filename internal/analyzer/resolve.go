package analyzer

import (
	"fmt"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/symbols"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// Resolve finds the signature a call site targets: a function, a class
// constructor, or a method bound to its receiver's type arguments. A nil
// signature with no diagnostics means the target is untyped (Any) and the
// call is accepted as is.
func (a *Analyzer) Resolve(call *ast.CallSite) (*symbols.FunctionSignature, []*diagnostics.DiagnosticError) {
	if call.IsMethodCall() {
		return a.resolveMethod(call, call.Receiver)
	}

	switch a.symbolTable.Kind(call.Callee) {
	case symbols.FunctionSymbol:
		sig, _ := a.symbolTable.LookupFunction(call.Callee)
		return sig, nil
	case symbols.ClassSymbol:
		sig, _ := a.symbolTable.Constructor(call.Callee)
		return sig, nil
	case symbols.TypeVarSymbol:
		return nil, []*diagnostics.DiagnosticError{
			a.newError(diagnostics.ErrT004, call, call.Token, fmt.Sprintf("\"%s\" not callable", call.Callee)),
		}
	case symbols.VariableSymbol:
		// Calling a value: nothing known about its signature
		return nil, nil
	default:
		return nil, []*diagnostics.DiagnosticError{
			a.newError(diagnostics.ErrT004, call, call.Token, fmt.Sprintf("Name \"%s\" is not defined", call.Callee)),
		}
	}
}

func (a *Analyzer) resolveMethod(call *ast.CallSite, receiver typesystem.Type) (*symbols.FunctionSignature, []*diagnostics.DiagnosticError) {
	switch recv := receiver.(type) {
	case typesystem.TClass:
		return a.lookupMethod(call, recv, nil)
	case typesystem.TApp:
		return a.lookupMethod(call, recv.Constructor, recv.Args)
	case typesystem.TOptional:
		noneErr := a.newError(diagnostics.ErrT004, call, call.Token,
			fmt.Sprintf("Item \"None\" of \"%s\" has no attribute \"%s\"", recv, call.Method))
		sig, errs := a.resolveMethod(call, recv.Elem)
		return sig, append([]*diagnostics.DiagnosticError{noneErr}, errs...)
	case typesystem.TNone:
		return nil, []*diagnostics.DiagnosticError{
			a.newError(diagnostics.ErrT004, call, call.Token, fmt.Sprintf("\"None\" has no attribute \"%s\"", call.Method)),
		}
	case typesystem.TCon, typesystem.TTuple, typesystem.TAny, typesystem.TVar:
		// Methods of primitives and tuples are not modelled
		return nil, nil
	default:
		return nil, nil
	}
}

// lookupMethod finds method on cls and binds the class type parameters to
// the receiver's type arguments (list[Photo].append takes a Photo).
func (a *Analyzer) lookupMethod(call *ast.CallSite, cls typesystem.TClass, args []typesystem.Type) (*symbols.FunctionSignature, []*diagnostics.DiagnosticError) {
	if _, ok := a.symbolTable.LookupClass(cls.Name); !ok {
		return nil, []*diagnostics.DiagnosticError{
			a.newError(diagnostics.ErrT004, call, call.Token, fmt.Sprintf("Name \"%s\" is not defined", cls.Name)),
		}
	}
	sig, owner, ok := a.symbolTable.FindMethod(cls.Name, call.Method)
	if !ok {
		return nil, []*diagnostics.DiagnosticError{
			a.newError(diagnostics.ErrT004, call, call.Token, fmt.Sprintf("\"%s\" has no attribute \"%s\"", cls.Name, call.Method)),
		}
	}
	if len(owner.TypeParams) == 0 {
		return sig, nil
	}
	subst := typesystem.Subst{}
	for i, tp := range owner.TypeParams {
		if i < len(args) {
			subst[tp.Name] = args[i]
		} else {
			subst[tp.Name] = typesystem.TAny{}
		}
	}
	return sig.Apply(subst), nil
}
