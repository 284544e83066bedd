package semantics

import (
	"strings"
	"testing"

	"github.com/kamilsan/lazy-interpreted-language/lexer"
	"github.com/kamilsan/lazy-interpreted-language/parser"
)

func analyse(t *testing.T, source string) error {
	t.Helper()
	p := parser.New(lexer.New(source))
	program, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return NewAnalyser().Analyse(program)
}

func wantOK(t *testing.T, source string) {
	t.Helper()
	if err := analyse(t, source); err != nil {
		t.Errorf("unexpected semantic error: %v", err)
	}
}

func wantError(t *testing.T, source string) {
	t.Helper()
	err := analyse(t, source)
	if err == nil {
		t.Error("expected semantic error, got none")
		return
	}
	if !strings.HasPrefix(err.Error(), "ERROR (Ln ") {
		t.Errorf("unexpected diagnostic format %q", err.Error())
	}
}

func TestVariableRedefinition(t *testing.T) {
	wantError(t, `
	fn main(): f32 {
		let x: f32 = 2;
		let x: f32 = 5;
		ret 0;
	}`)
}

func TestFunctionRedefinition(t *testing.T) {
	wantError(t, `
	fn f(x: f32): f32 { ret 1; }
	fn f(x: f32): f32 { ret x; }

	fn main(): f32 { ret 0; }`)
}

func TestShadowingIsPermitted(t *testing.T) {
	wantOK(t, `
	let x: f32 = 1;

	fn main(): f32 {
		let x: f32 = 2;
		ret x;
	}`)
}

func TestBuiltInPrint(t *testing.T) {
	wantOK(t, `
	fn main(): f32 {
		print("test");
		ret 0;
	}`)
}

func TestBuiltInIf(t *testing.T) {
	wantOK(t, `
	fn main(): f32 {
		let x: f32 = if(1 == 1, 1, 0);
		ret 0;
	}`)
}

func TestUndeclaredNames(t *testing.T) {
	tests := []string{
		// in a declaration initializer
		`fn main(): f32 { let x: f32 = 2*y; ret 0; }`,
		// assignment to an undeclared variable
		`fn main(): f32 { x = 2; ret 0; }`,
		// in an assignment value
		`fn main(): f32 { let x: f32 = 42; x = 2*y; ret 0; }`,
		// in a call argument
		`fn test(x: f32, y: f32): void { print("x = " : x : " y = " : y); }
		 fn main(): f32 { let x: f32 = 12; test(x, y); ret 0; }`,
		// in a return value
		`fn test(): f32 { ret x; }
		 fn main(): f32 { ret 0; }`,
		// undeclared function call
		`fn main(): f32 { let x: f32 = 12; test(x); ret 0; }`,
		// undeclared call in an argument
		`fn f(x: f32): f32 { ret 5; }
		 fn main(): f32 { let x: f32 = 12; f(test(x)); ret 0; }`,
		// undeclared call in a return value
		`fn f(): f32 { ret test(); }
		 fn main(): f32 { ret 0; }`,
		// undeclared call in a declaration
		`fn main(): f32 { let x: f32 = test(12); ret 0; }`,
		// undeclared call in an assignment
		`fn main(): f32 { let x: f32 = 42; x = test(12); ret 0; }`,
	}
	for _, src := range tests {
		wantError(t, src)
	}
}

func TestDeclarationOrderMatters(t *testing.T) {
	// g is declared after x uses it at the top level.
	wantError(t, `
	let x: f32 = g;
	let g: f32 = 1;

	fn main(): f32 { ret 0; }`)
}

func TestArityMismatch(t *testing.T) {
	wantError(t, `
	fn test(x: f32, y: f32): f32 { ret x + y; }
	fn main(): f32 { let x: f32 = 12; test(x); ret 0; }`)

	wantError(t, `
	fn test(x: f32, y: f32): f32 { ret x + y; }
	fn main(): f32 { test(1, 2, 3); ret 0; }`)
}

func TestCallArgumentTypeMismatch(t *testing.T) {
	wantError(t, `
	fn callTwice(f: function): void {
		f();
		f();
	}
	fn main(): f32 { callTwice(12); ret 0; }`)

	wantError(t, `
	fn addOne(x: f32): f32 { ret x+1; }
	fn main(): f32 { addOne(\(x: f32): f32 = { ret x; }); ret 0; }`)
}

func TestFunctionVariableCallsAreUnchecked(t *testing.T) {
	// Calling through a function variable: the signature is unknown, so
	// any argument list is accepted.
	wantOK(t, `
	fn callTwice(f: function): void {
		f();
		f(1, 2, 3);
	}
	fn main(): f32 {
		callTwice(\(x: f32): void = { });
		ret 0;
	}`)
}

func TestReturnPathChecks(t *testing.T) {
	// value returned from a void function
	wantError(t, `
	fn func(): void { ret 12; }
	fn main(): f32 { ret 0; }`)

	// missing return in a non-void function
	wantError(t, `
	fn func(): f32 { }
	fn main(): f32 { ret 0; }`)

	// missing return in main itself
	wantError(t, `fn main(): f32 { print("no return"); }`)

	// return type mismatch
	wantError(t, `
	fn func(): f32 { ret \(x: f32): void = { }; }
	fn main(): f32 { ret 0; }`)
}

func TestShallowReturnAnalysis(t *testing.T) {
	// Only the last return observed matters; both returns are allowed.
	wantOK(t, `
	fn f(): f32 {
		ret 1;
		ret 2;
	}
	fn main(): f32 { ret f(); }`)
}

func TestDeclarationTypeMismatch(t *testing.T) {
	tests := []string{
		`fn main(): f32 { let x: f32 = \(x: f32): void = { }; ret 0; }`,
		`fn main(): f32 { let x: function = 12; ret 0; }`,
		`fn f(): function { ret \(x: f32): void = { }; }
		 fn main(): f32 { let x: f32 = f(); ret 0; }`,
		`fn f(): f32 { ret 12; }
		 fn main(): f32 { let x: function = f(); ret 0; }`,
	}
	for _, src := range tests {
		wantError(t, src)
	}
}

func TestAssignmentTypeMismatch(t *testing.T) {
	tests := []string{
		`fn main(): f32 { let x: f32 = 42; x = \(x: f32): void = { }; ret 0; }`,
		`fn main(): f32 { let x: function = \(x: f32): void = { }; x = 12; ret 0; }`,
		`fn f(): function { ret \(x: f32): void = { }; }
		 fn main(): f32 { let x: f32 = 12; x = f(); ret 0; }`,
		`fn f(): f32 { ret 12; }
		 fn main(): f32 { let x: function = \(x: f32): void = { }; x = f(); ret 0; }`,
	}
	for _, src := range tests {
		wantError(t, src)
	}
}

func TestCompoundAssignmentOnFunctionVariable(t *testing.T) {
	wantError(t, `
	fn main(): f32 {
		let f: function = \(x: f32): void = { };
		f += 1;
		ret 0;
	}`)
}

func TestIndeterminateTypesAreAccepted(t *testing.T) {
	// g() goes through a function variable, so its result type is
	// unknown and the declaration is accepted.
	wantOK(t, `
	fn main(): f32 {
		let g: function = \(): f32 = { ret 1; };
		let x: f32 = g();
		ret x;
	}`)
}

func TestFunctionResultCall(t *testing.T) {
	wantOK(t, `
	fn make(): function { ret \(x: f32): f32 = { ret x; }; }
	fn main(): f32 { let x: f32 = 1; make()(x); ret 0; }`)

	// calling the result of a function returning f32
	wantError(t, `
	fn f(): f32 { ret 1; }
	fn main(): f32 { f()(2); ret 0; }`)
}

func TestDuplicateParameterNames(t *testing.T) {
	wantError(t, `
	fn f(x: f32, x: f32): f32 { ret x; }
	fn main(): f32 { ret 0; }`)
}

func TestPrintArgumentMustBeString(t *testing.T) {
	wantError(t, `fn main(): f32 { print(12); ret 0; }`)
}

func TestMainChecks(t *testing.T) {
	// missing main
	wantError(t, `fn test(): void { print("Test"); }`)

	// main is not a function
	wantError(t, `let main: f32 = 1;`)

	// main has the wrong return type
	wantError(t, `fn main(): void { print("test"); }`)
}

func TestNamedFunctionAsValue(t *testing.T) {
	wantOK(t, `
	fn test(): void { print("test"); }
	fn main(): f32 {
		let f: function = test;
		f();
		ret 0;
	}`)
}

func TestSymbolTableDepthLimit(t *testing.T) {
	st := NewSymbolTable()
	st.AddSymbol("x", &VariableSymbol{Name: "x"})
	st.EnterScope()

	if _, ok := st.Lookup("x", 0); !ok {
		t.Error("unlimited lookup should reach the outer scope")
	}
	if _, ok := st.Lookup("x", 1); ok {
		t.Error("depth-1 lookup should not reach the outer scope")
	}

	st.AddSymbol("x", &VariableSymbol{Name: "x"})
	if _, ok := st.Lookup("x", 1); !ok {
		t.Error("depth-1 lookup should find the shadowing symbol")
	}

	st.LeaveScope()
	if _, ok := st.Lookup("x", 1); !ok {
		t.Error("lookup should find the symbol again after leaving the scope")
	}
}
