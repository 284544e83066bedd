package semantics

import "github.com/kamilsan/lazy-interpreted-language/ast"

// Symbol is an analysis-time descriptor of a declared name.
type Symbol interface {
	symbol()
}

type VariableSymbol struct {
	Name string
	Type ast.Type
}

func (vs *VariableSymbol) symbol() {}

type FunctionSymbol struct {
	Name       string
	ReturnType ast.Type
	Parameters []ast.Type
}

func (fs *FunctionSymbol) symbol() {}

// SymbolTable is a stack of lexical scopes.
type SymbolTable struct {
	scopes []map[string]Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: []map[string]Symbol{{}}}
}

func (st *SymbolTable) EnterScope() {
	st.scopes = append(st.scopes, map[string]Symbol{})
}

func (st *SymbolTable) LeaveScope() {
	st.scopes = st.scopes[:len(st.scopes)-1]
}

func (st *SymbolTable) AddSymbol(name string, symbol Symbol) {
	st.scopes[len(st.scopes)-1][name] = symbol
}

// Lookup walks from the innermost scope outward. maxDepth 0 means
// unlimited; maxDepth 1 restricts the lookup to the current scope, which
// is how redefinitions are detected while still permitting shadowing.
func (st *SymbolTable) Lookup(name string, maxDepth int) (Symbol, bool) {
	depth := 1
	for i := len(st.scopes) - 1; i >= 0; i, depth = i-1, depth+1 {
		if symbol, ok := st.scopes[i][name]; ok {
			return symbol, true
		}
		if maxDepth != 0 && depth == maxDepth {
			break
		}
	}
	return nil, false
}

// probeVariable reports whether the symbol can be read as a variable,
// and its declared type when it can.
func probeVariable(symbol Symbol) (ast.Type, bool) {
	if vs, ok := symbol.(*VariableSymbol); ok {
		return vs.Type, true
	}
	return 0, false
}

// functionInfo is what a callable probe learns about a symbol. A
// variable of type function is callable, but its signature is unknown:
// SignatureKnown is false and nothing else is populated.
type functionInfo struct {
	ReturnType     ast.Type
	Parameters     []ast.Type
	SignatureKnown bool
}

// probeFunction reports whether the symbol is callable: a declared
// function, or a variable holding a function value.
func probeFunction(symbol Symbol) (functionInfo, bool) {
	switch symbol := symbol.(type) {
	case *FunctionSymbol:
		return functionInfo{
			ReturnType:     symbol.ReturnType,
			Parameters:     symbol.Parameters,
			SignatureKnown: true,
		}, true
	case *VariableSymbol:
		if symbol.Type == ast.Function {
			return functionInfo{}, true
		}
	}
	return functionInfo{}, false
}
