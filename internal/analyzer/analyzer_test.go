package analyzer

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/symbols"
	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// exampleTable defines square, Photo, Foo, get_foo and concat.
func exampleTable() *symbols.SymbolTable {
	st := symbols.NewSymbolTable()

	st.DefineFunction(symbols.NewFunction("square", []symbols.Param{{Name: "x", Type: typesystem.Int}}, typesystem.Int))

	photo := symbols.NewClass("Photo")
	photo.HasInit = true
	photo.Init = []symbols.Param{{Name: "width", Type: typesystem.Int}, {Name: "height", Type: typesystem.Int}}
	photo.Attributes["width"] = typesystem.Int
	photo.Attributes["height"] = typesystem.Int
	photo.AddMethod(symbols.NewFunction("get_dimensions", nil, typesystem.TTuple{Elements: []typesystem.Type{typesystem.Int, typesystem.Int}}))
	st.DefineClass(photo)

	foo := symbols.NewClass("Foo")
	foo.HasInit = true
	foo.Init = []symbols.Param{{Name: "id", Type: typesystem.Int}}
	st.DefineClass(foo)

	st.DefineFunction(symbols.NewFunction("get_foo",
		[]symbols.Param{{Name: "foo_id", Type: typesystem.NewOptional(typesystem.Int)}},
		typesystem.NewOptional(typesystem.TClass{Name: "Foo"})))

	anystr := typesystem.TVar{Name: "Anystr", Constraints: []typesystem.Type{typesystem.Str, typesystem.Bytes}}
	st.DefineTypeVar(anystr)
	st.DefineFunction(symbols.NewFunction("concat",
		[]symbols.Param{{Name: "a", Type: anystr}, {Name: "b", Type: anystr}}, anystr))

	return st
}

func call(line int, callee string, args ...typesystem.Type) *ast.CallSite {
	c := &ast.CallSite{Callee: callee, Token: token.Token{Line: line, Column: 1}}
	for i, t := range args {
		c.Args = append(c.Args, ast.Arg{Type: t, Token: token.Token{Line: line, Column: 10 + i*5}})
	}
	return c
}

func methodCall(line int, receiver typesystem.Type, method string, args ...typesystem.Type) *ast.CallSite {
	c := call(line, "", args...)
	c.Receiver = receiver
	c.Method = method
	return c
}

func newAnalyzer() *Analyzer {
	return New(exampleTable(), config.DefaultPolicy())
}

func expectClean(t *testing.T, a *Analyzer, c *ast.CallSite) typesystem.Type {
	t.Helper()
	typ, errs := a.Check(c)
	for _, e := range errs {
		t.Errorf("%s: unexpected diagnostic: %s", c.Name(), e)
	}
	return typ
}

func expectOne(t *testing.T, a *Analyzer, c *ast.CallSite, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	_, errs := a.Check(c)
	if len(errs) != 1 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("%s: want exactly one %s, got %d:\n%s", c.Name(), code, len(errs), strings.Join(msgs, "\n"))
	}
	if errs[0].Code != code {
		t.Fatalf("%s: code = %s (%s), want %s", c.Name(), errs[0].Code, errs[0], code)
	}
	return errs[0]
}

func TestWellTypedExampleCalls(t *testing.T) {
	a := newAnalyzer()
	tests := []struct {
		name string
		call *ast.CallSite
		want string
	}{
		{"square(3)", call(1, "square", typesystem.Int), "int"},
		{"get_foo(3)", call(2, "get_foo", typesystem.Int), "Optional[Foo]"},
		{"get_foo(None)", call(3, "get_foo", typesystem.TNone{}), "Optional[Foo]"},
		{"concat('foo', 'bar')", call(4, "concat", typesystem.Str, typesystem.Str), "str"},
		{"concat(b'a', b'b')", call(5, "concat", typesystem.Bytes, typesystem.Bytes), "bytes"},
		{"Photo(320, 320)", call(6, "Photo", typesystem.Int, typesystem.Int), "Photo"},
		{"Foo(1)", call(7, "Foo", typesystem.Int), "Foo"},
		{"square(True)", call(8, "square", typesystem.Bool), "int"},
		{"photos.append(Photo)", methodCall(9, typesystem.ListOf(typesystem.TClass{Name: "Photo"}), "append", typesystem.TClass{Name: "Photo"}), "None"},
		{"photos.pop()", methodCall(10, typesystem.ListOf(typesystem.TClass{Name: "Photo"}), "pop"), "Photo"},
		{"p.get_dimensions()", methodCall(11, typesystem.TClass{Name: "Photo"}, "get_dimensions"), "Tuple[int, int]"},
		{"print(1, 'a', None)", call(12, "print", typesystem.Int, typesystem.Str, typesystem.TNone{}), "None"},
		{"len(photos)", call(13, "len", typesystem.ListOf(typesystem.TClass{Name: "Photo"})), "int"},
		{"square(unknown)", call(14, "square", typesystem.TAny{}), "int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := expectClean(t, a, tt.call)
			if typ.String() != tt.want {
				t.Errorf("result type = %s, want %s", typ, tt.want)
			}
		})
	}
}

func TestSquareWithStringIsOneMismatch(t *testing.T) {
	a := newAnalyzer()
	err := expectOne(t, a, call(10, "square", typesystem.Str), diagnostics.ErrT002)
	if err.ArgIndex != 1 || err.Expected != "int" || err.Actual != "str" || err.Callee != "square" {
		t.Errorf("diagnostic = %+v", err)
	}
	want := `Argument 1 to "square" has incompatible type "str"; expected "int"`
	if err.Message != want {
		t.Errorf("message = %q, want %q", err.Message, want)
	}
	if err.Code.Name() != "TypeMismatchError" {
		t.Errorf("code name = %s", err.Code.Name())
	}
}

func TestConcatStrBytesIsVariableConflict(t *testing.T) {
	a := newAnalyzer()
	err := expectOne(t, a, call(20, "concat", typesystem.Str, typesystem.Bytes), diagnostics.ErrT003)
	want := `Value of type variable "Anystr" of "concat" cannot be "object"`
	if err.Message != want {
		t.Errorf("message = %q, want %q", err.Message, want)
	}
	if err.ArgIndex != 2 || err.Expected != "Anystr (str, bytes)" || err.Actual != "object" {
		t.Errorf("diagnostic = %+v", err)
	}
	if err.Token.Column != 15 {
		t.Errorf("diagnostic should point at argument 2, got %s", err.Token)
	}
}

func TestConcatNonMemberIsVariableConflict(t *testing.T) {
	a := newAnalyzer()
	err := expectOne(t, a, call(21, "concat", typesystem.Int, typesystem.Int), diagnostics.ErrT003)
	if !strings.Contains(err.Message, `cannot be "int"`) || err.ArgIndex != 1 {
		t.Errorf("diagnostic = %+v", err)
	}
}

func TestAppendStrToPhotoList(t *testing.T) {
	a := newAnalyzer()
	photos := typesystem.ListOf(typesystem.TClass{Name: "Photo"})
	err := expectOne(t, a, methodCall(30, photos, "append", typesystem.Str), diagnostics.ErrT002)
	want := `Argument 1 to "append" of "list" has incompatible type "str"; expected "Photo"`
	if err.Message != want {
		t.Errorf("message = %q, want %q", err.Message, want)
	}
	if err.Callee != "append" {
		t.Errorf("callee = %q", err.Callee)
	}
}

func TestMismatchReportsEveryArgument(t *testing.T) {
	a := newAnalyzer()
	_, errs := a.Check(call(40, "Photo", typesystem.Str, typesystem.Bytes))
	if len(errs) != 2 {
		t.Fatalf("want 2 diagnostics, got %v", errs)
	}
	if errs[0].ArgIndex != 1 || errs[1].ArgIndex != 2 {
		t.Errorf("arg indexes = %d, %d", errs[0].ArgIndex, errs[1].ArgIndex)
	}
	if errs[1].Message != `Argument 2 to "Photo" has incompatible type "bytes"; expected "int"` {
		t.Errorf("message = %q", errs[1].Message)
	}
}

func TestArity(t *testing.T) {
	a := newAnalyzer()
	tests := []struct {
		name    string
		call    *ast.CallSite
		message string
	}{
		{"too many", call(1, "square", typesystem.Int, typesystem.Int), `Too many arguments for "square"`},
		{"missing one", call(2, "square"), `Missing positional argument "x" in call to "square"`},
		{"missing two", call(3, "Photo"), `Missing positional arguments "width", "height" in call to "Photo"`},
		{"method too many", methodCall(4, typesystem.ListOf(typesystem.Int), "append", typesystem.Int, typesystem.Int), `Too many arguments for "append" of "list"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := expectOne(t, a, tt.call, diagnostics.ErrT001)
			if err.Message != tt.message {
				t.Errorf("message = %q, want %q", err.Message, tt.message)
			}
		})
	}
}

func TestArityFailureStillReturnsDeclaredType(t *testing.T) {
	a := newAnalyzer()
	typ, errs := a.Check(call(1, "get_foo"))
	if len(errs) != 1 || typ.String() != "Optional[Foo]" {
		t.Errorf("type = %s, errs = %v", typ, errs)
	}
}

func TestUndefinedNames(t *testing.T) {
	a := newAnalyzer()
	tests := []struct {
		name    string
		call    *ast.CallSite
		message string
	}{
		{"unknown function", call(1, "cube", typesystem.Int), `Name "cube" is not defined`},
		{"type variable", call(2, "Anystr"), `"Anystr" not callable`},
		{"unknown method", methodCall(3, typesystem.TClass{Name: "Photo"}, "resize"), `"Photo" has no attribute "resize"`},
		{"method on None", methodCall(4, typesystem.TNone{}, "get_dimensions"), `"None" has no attribute "get_dimensions"`},
		{"unknown receiver class", methodCall(5, typesystem.TClass{Name: "Video"}, "play"), `Name "Video" is not defined`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := expectOne(t, a, tt.call, diagnostics.ErrT004)
			if err.Message != tt.message {
				t.Errorf("message = %q, want %q", err.Message, tt.message)
			}
		})
	}
}

func TestMethodOnOptionalReceiver(t *testing.T) {
	st := exampleTable()
	foo, _ := st.LookupClass("Foo")
	foo.AddMethod(symbols.NewFunction("rename", []symbols.Param{{Name: "name", Type: typesystem.Str}}, typesystem.TNone{}))
	a := New(st, config.DefaultPolicy())

	_, errs := a.Check(methodCall(1, typesystem.NewOptional(typesystem.TClass{Name: "Foo"}), "rename", typesystem.Int))
	if len(errs) != 2 {
		t.Fatalf("want None-item and mismatch diagnostics, got %v", errs)
	}
	if errs[0].Code != diagnostics.ErrT004 || !strings.HasPrefix(errs[0].Message, `Item "None" of "Optional[Foo]"`) {
		t.Errorf("first = %s", errs[0])
	}
	if errs[1].Code != diagnostics.ErrT002 {
		t.Errorf("second = %s", errs[1])
	}
}

func TestMissingMethodOnOptionalReceiver(t *testing.T) {
	a := newAnalyzer()
	errs := a.CheckAll([]*ast.CallSite{methodCall(7, typesystem.NewOptional(typesystem.TClass{Name: "Foo"}), "bar")})
	want := []string{
		`Item "None" of "Optional[Foo]" has no attribute "bar"`,
		`"Foo" has no attribute "bar"`,
	}
	if len(errs) != len(want) {
		t.Fatalf("got %d diagnostics, want %d: %v", len(errs), len(want), errs)
	}
	for i, err := range errs {
		if err.Code != diagnostics.ErrT004 || err.Message != want[i] {
			t.Errorf("errs[%d] = %s %q, want T004 %q", i, err.Code, err.Message, want[i])
		}
	}
}

func TestUntypedTargetsAreAccepted(t *testing.T) {
	st := exampleTable()
	st.DefineVariable("callback", typesystem.TAny{})
	a := New(st, config.DefaultPolicy())

	expectClean(t, a, call(1, "callback", typesystem.Int, typesystem.Str))
	expectClean(t, a, methodCall(2, typesystem.Str, "upper"))
	expectClean(t, a, methodCall(3, typesystem.TAny{}, "anything", typesystem.Int))
}

func TestPolicyControlsNumericTower(t *testing.T) {
	a := New(exampleTable(), config.Policy{BoolIsInt: false})
	expectOne(t, a, call(1, "square", typesystem.Bool), diagnostics.ErrT002)
}

func TestSubclassArgument(t *testing.T) {
	st := exampleTable()
	thumb := symbols.NewClass("Thumbnail")
	thumb.Base = "Photo"
	st.DefineClass(thumb)
	st.DefineFunction(symbols.NewFunction("show", []symbols.Param{{Name: "p", Type: typesystem.TClass{Name: "Photo"}}}, typesystem.TNone{}))
	a := New(st, config.DefaultPolicy())

	expectClean(t, a, call(1, "show", typesystem.TClass{Name: "Thumbnail"}))
	expectClean(t, a, call(2, "Thumbnail", typesystem.Int, typesystem.Int))
	expectOne(t, a, call(3, "show", typesystem.TClass{Name: "Foo"}), diagnostics.ErrT002)
}

func exampleCalls() []*ast.CallSite {
	return []*ast.CallSite{
		call(1, "square", typesystem.Int),
		call(2, "square", typesystem.Str),
		call(3, "get_foo", typesystem.Int),
		call(4, "get_foo", typesystem.TNone{}),
		call(5, "concat", typesystem.Str, typesystem.Str),
		call(6, "concat", typesystem.Str, typesystem.Bytes),
		methodCall(7, typesystem.ListOf(typesystem.TClass{Name: "Photo"}), "append", typesystem.Str),
		call(8, "Photo", typesystem.Str, typesystem.Bytes),
		call(9, "nope"),
	}
}

func TestCheckAllCollectsEverything(t *testing.T) {
	a := newAnalyzer()
	errs := a.CheckAll(exampleCalls())
	var codes []diagnostics.ErrorCode
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	want := []diagnostics.ErrorCode{
		diagnostics.ErrT002, // square('...')
		diagnostics.ErrT003, // concat('foo', b'bar')
		diagnostics.ErrT002, // append
		diagnostics.ErrT002, // Photo arg 1
		diagnostics.ErrT002, // Photo arg 2
		diagnostics.ErrT004, // nope
	}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("codes = %v, want %v", codes, want)
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	a := newAnalyzer()
	calls := exampleCalls()
	first := a.CheckAll(calls)
	second := a.CheckAll(calls)
	if !reflect.DeepEqual(first, second) {
		t.Error("second pass differs from the first")
	}
}

func TestCheckParallelMatchesSequential(t *testing.T) {
	a := newAnalyzer()
	calls := exampleCalls()
	results, err := a.CheckParallel(context.Background(), calls, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(calls) {
		t.Fatalf("got %d results for %d calls", len(results), len(calls))
	}
	for i, r := range results {
		if r.Call != calls[i] {
			t.Errorf("result %d is for the wrong call", i)
		}
	}
	if !reflect.DeepEqual(Collect(results), a.CheckAll(calls)) {
		t.Error("parallel diagnostics differ from sequential ones")
	}
}

func TestCheckParallelHonorsCancellation(t *testing.T) {
	a := newAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.CheckParallel(ctx, exampleCalls(), 2); err == nil {
		t.Error("expected context error")
	}
}

func TestDiagnosticsStopsWhenConsumerStops(t *testing.T) {
	a := newAnalyzer()
	n := 0
	for range a.Diagnostics(exampleCalls()) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("consumed %d diagnostics", n)
	}

	clean := []*ast.CallSite{call(1, "square", typesystem.Int), call(2, "concat", typesystem.Str, typesystem.Str)}
	for err := range a.Diagnostics(clean) {
		t.Errorf("unexpected diagnostic: %s", err)
	}
}
