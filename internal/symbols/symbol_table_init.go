package symbols

import (
	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// InitBuiltins registers the prelude: the generic list class and the few
// builtin functions the snippets call.
func (s *SymbolTable) InitBuiltins() {
	elem := typesystem.TVar{Name: "_T"}

	list := NewClass(config.ListTypeName)
	list.TypeParams = []typesystem.TVar{elem}
	list.AddMethod(NewFunction(config.AppendMethod, []Param{{Name: "object", Type: elem}}, typesystem.TNone{}))
	list.AddMethod(NewFunction(config.InsertMethod, []Param{
		{Name: "index", Type: typesystem.Int},
		{Name: "object", Type: elem},
	}, typesystem.TNone{}))
	list.AddMethod(NewFunction(config.PopMethod, []Param{{Name: "index", Type: typesystem.Int, HasDefault: true}}, elem))
	s.DefineClass(list)
	s.builtins[list.Name] = true

	s.DefineFunction(NewFunction(config.LenFuncName, []Param{{Name: "obj", Type: typesystem.Object}}, typesystem.Int))
	s.builtins[config.LenFuncName] = true

	s.DefineFunction(NewFunction(config.PrintFuncName, []Param{{Name: "values", Type: typesystem.Object, Variadic: true}}, typesystem.TNone{}))
	s.builtins[config.PrintFuncName] = true
}
