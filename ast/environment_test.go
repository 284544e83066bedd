package ast

import "testing"

func TestContextLookupWalksOutward(t *testing.T) {
	c := NewContext()
	c.AddSymbol("x", &VariableSymbol{Name: "x", Type: F32})
	c.EnterScope()

	if _, ok := c.Lookup("x", 0); !ok {
		t.Error("unlimited lookup should reach the outer scope")
	}
	if _, ok := c.Lookup("x", 1); ok {
		t.Error("depth-1 lookup should stop at the current scope")
	}

	c.AddSymbol("x", &VariableSymbol{Name: "x", Type: Function})
	symbol, ok := c.Lookup("x", 0)
	if !ok {
		t.Fatal("lookup failed after shadowing")
	}
	if symbol.(*VariableSymbol).Type != Function {
		t.Error("lookup should find the innermost symbol first")
	}

	c.LeaveScope()
	symbol, _ = c.Lookup("x", 0)
	if symbol.(*VariableSymbol).Type != F32 {
		t.Error("leaving the scope should expose the outer symbol again")
	}
}

func TestContextCloneIsolation(t *testing.T) {
	c := NewContext()
	c.AddSymbol("x", &VariableSymbol{
		Name:    "x",
		Type:    F32,
		Value:   &NumericLiteral{Value: 1},
		Context: NewContext(),
	})

	clone := c.Clone()

	original, _ := c.Lookup("x", 0)
	original.(*VariableSymbol).Value = &NumericLiteral{Value: 2}

	cloned, ok := clone.Lookup("x", 0)
	if !ok {
		t.Fatal("clone lost symbol x")
	}
	value := cloned.(*VariableSymbol).Value.(*NumericLiteral).Value
	if value != 1 {
		t.Errorf("clone observed a later mutation: got %v", value)
	}
}

func TestContextCloneSharesFunctionSymbols(t *testing.T) {
	c := NewContext()
	fs := &FunctionSymbol{Name: "f", ReturnType: Void}
	c.AddSymbol("f", fs)

	clone := c.Clone()
	symbol, ok := clone.Lookup("f", 0)
	if !ok {
		t.Fatal("clone lost symbol f")
	}
	if symbol.(*FunctionSymbol) != fs {
		t.Error("function symbols should be shared between clones")
	}
}

func TestContextCloneCopiesAllScopes(t *testing.T) {
	c := NewContext()
	c.AddSymbol("a", &VariableSymbol{Name: "a", Context: NewContext()})
	c.EnterScope()
	c.AddSymbol("b", &VariableSymbol{Name: "b", Context: NewContext()})

	clone := c.Clone()
	if _, ok := clone.Lookup("a", 0); !ok {
		t.Error("clone lost outer-scope symbol")
	}
	if _, ok := clone.Lookup("b", 0); !ok {
		t.Error("clone lost inner-scope symbol")
	}
	if _, ok := clone.Lookup("b", 1); !ok {
		t.Error("clone should preserve scope nesting")
	}
}

func TestValueClone(t *testing.T) {
	n := &Number{Value: 3}
	if clone := n.Clone().(*Number); clone == n || clone.Value != 3 {
		t.Error("number clone should be an independent copy")
	}

	s := &Str{Value: "abc"}
	if clone := s.Clone().(*Str); clone == s || clone.Value != "abc" {
		t.Error("string clone should be an independent copy")
	}
}

func TestNumberInspect(t *testing.T) {
	n := &Number{Value: 24}
	if n.Inspect() != "24.000000" {
		t.Errorf("expected 24.000000, got %s", n.Inspect())
	}
}
