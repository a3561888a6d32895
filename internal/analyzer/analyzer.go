package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/symbols"
	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// Analyzer checks call sites against the definitions in a symbol table.
// It never mutates the table, so one Analyzer can check calls from many
// goroutines.
type Analyzer struct {
	symbolTable *symbols.SymbolTable
	assigner    typesystem.Assigner
}

func New(symbolTable *symbols.SymbolTable, policy config.Policy) *Analyzer {
	return &Analyzer{
		symbolTable: symbolTable,
		assigner:    typesystem.NewAssigner(policy, symbolTable),
	}
}

// Assigner exposes the assignability rules in use, e.g. for joining
// element types of literals.
func (a *Analyzer) Assigner() typesystem.Assigner {
	return a.assigner
}

// Check resolves the callee of call and checks the call against it. The
// returned type is a best effort even when diagnostics are reported, so
// enclosing calls can still be typed.
func (a *Analyzer) Check(call *ast.CallSite) (typesystem.Type, []*diagnostics.DiagnosticError) {
	sig, errs := a.Resolve(call)
	if sig == nil {
		return typesystem.TAny{}, errs
	}
	ret, checkErrs := a.CheckSignature(sig, call)
	return ret, append(errs, checkErrs...)
}

// CheckSignature checks call against sig: arity first, then every
// argument, then the type variables the arguments bound. On success the
// diagnostics are empty and the type is the resolved return type.
func (a *Analyzer) CheckSignature(sig *symbols.FunctionSignature, call *ast.CallSite) (typesystem.Type, []*diagnostics.DiagnosticError) {
	if err := a.checkArity(sig, call); err != nil {
		return typesystem.Erase(sig.Return), []*diagnostics.DiagnosticError{err}
	}

	var errs []*diagnostics.DiagnosticError
	var uses []typesystem.Use
	for i, arg := range call.Args {
		param := paramAt(sig, i)
		if a.assigner.Match(param.Type, arg.Type, i+1, &uses) {
			continue
		}
		errs = append(errs, a.mismatch(sig, call, i, param))
	}

	subst, conflicts := a.assigner.Solve(uses)
	for _, c := range conflicts {
		errs = append(errs, a.conflict(sig, call, c))
	}
	return typesystem.Erase(sig.Return.Apply(subst)), errs
}

// paramAt returns the parameter bound to argument i. Arity has been
// checked, so i is either in range or absorbed by a trailing *args.
func paramAt(sig *symbols.FunctionSignature, i int) symbols.Param {
	if i < len(sig.Params) && !sig.Params[i].Variadic {
		return sig.Params[i]
	}
	return sig.Params[len(sig.Params)-1]
}

func (a *Analyzer) checkArity(sig *symbols.FunctionSignature, call *ast.CallSite) *diagnostics.DiagnosticError {
	n := len(call.Args)
	if n > len(sig.Params) && !sig.IsVariadic() {
		err := a.newError(diagnostics.ErrT001, call, call.Token, fmt.Sprintf("Too many arguments for %s", sig.DisplayName()))
		err.ArgIndex = len(sig.Params) + 1
		err.Expected = fmt.Sprintf("%d argument(s)", len(sig.Params))
		err.Actual = fmt.Sprintf("%d argument(s)", n)
		return err
	}

	var missing []string
	for i, p := range sig.Params {
		if i >= n && !p.HasDefault && !p.Variadic {
			missing = append(missing, fmt.Sprintf("%q", p.Name))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	noun := "argument"
	if len(missing) > 1 {
		noun = "arguments"
	}
	msg := fmt.Sprintf("Missing positional %s %s in call to %s", noun, strings.Join(missing, ", "), sig.DisplayName())
	err := a.newError(diagnostics.ErrT001, call, call.Token, msg)
	err.Expected = fmt.Sprintf("%d argument(s)", sig.Required())
	err.Actual = fmt.Sprintf("%d argument(s)", n)
	return err
}

func (a *Analyzer) mismatch(sig *symbols.FunctionSignature, call *ast.CallSite, i int, param symbols.Param) *diagnostics.DiagnosticError {
	arg := call.Args[i]
	expected := param.Type.String()
	actual := arg.Type.String()
	msg := fmt.Sprintf("Argument %d to %s has incompatible type \"%s\"; expected \"%s\"", i+1, sig.DisplayName(), actual, expected)
	err := a.newError(diagnostics.ErrT002, call, arg.Token, msg)
	err.ArgIndex = i + 1
	err.Expected = expected
	err.Actual = actual
	return err
}

func (a *Analyzer) conflict(sig *symbols.FunctionSignature, call *ast.CallSite, c typesystem.Conflict) *diagnostics.DiagnosticError {
	tok := call.Token
	if c.ArgIndex >= 1 && c.ArgIndex <= len(call.Args) {
		tok = call.Args[c.ArgIndex-1].Token
	}
	msg := fmt.Sprintf("Value of type variable \"%s\" of %s cannot be \"%s\"", c.Var.Name, sig.DisplayName(), c.Join)
	err := a.newError(diagnostics.ErrT003, call, tok, msg)
	err.ArgIndex = c.ArgIndex
	err.Expected = c.Var.Describe()
	err.Actual = c.Join.String()
	return err
}

func (a *Analyzer) newError(code diagnostics.ErrorCode, call *ast.CallSite, tok token.Token, msg string) *diagnostics.DiagnosticError {
	if tok.Line == 0 {
		tok = call.Token
	}
	err := diagnostics.NewError(code, tok, msg)
	err.File = call.File
	if call.IsMethodCall() {
		err.Callee = call.Method
	} else {
		err.Callee = call.Callee
	}
	return err
}
