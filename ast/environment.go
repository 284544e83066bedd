package ast

// RuntimeSymbol is an entry of a Context scope: either a lazy variable
// cell or a declared function.
type RuntimeSymbol interface {
	runtimeSymbol()
}

// VariableSymbol stores the declared initializer expression together
// with the context it was captured in. Reads re-evaluate the expression
// against that context; no value is ever cached.
type VariableSymbol struct {
	Name    string
	Type    Type
	Value   Expression
	Context *Context
}

func (vs *VariableSymbol) runtimeSymbol() {}

// FunctionSymbol is a top-level function binding. It carries no captured
// context since it is only reachable through the global scope.
type FunctionSymbol struct {
	Name       string
	ReturnType Type
	Parameters []Parameter
	Body       *Block
}

func (fs *FunctionSymbol) runtimeSymbol() {}

// Context is the runtime scope stack.
type Context struct {
	scopes []map[string]RuntimeSymbol
}

func NewContext() *Context {
	return &Context{scopes: []map[string]RuntimeSymbol{{}}}
}

func (c *Context) EnterScope() {
	c.scopes = append(c.scopes, map[string]RuntimeSymbol{})
}

func (c *Context) LeaveScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Context) AddSymbol(name string, symbol RuntimeSymbol) {
	c.scopes[len(c.scopes)-1][name] = symbol
}

// Lookup walks from the innermost scope outward. maxDepth 0 means
// unlimited; maxDepth 1 restricts the search to the current scope.
func (c *Context) Lookup(name string, maxDepth int) (RuntimeSymbol, bool) {
	depth := 1
	for i := len(c.scopes) - 1; i >= 0; i, depth = i-1, depth+1 {
		if symbol, ok := c.scopes[i][name]; ok {
			return symbol, true
		}
		if maxDepth != 0 && depth == maxDepth {
			break
		}
	}
	return nil, false
}

// Clone deep-copies the scope chain. Variable cells are duplicated with
// freshly cloned captured contexts, so a clone never observes later
// mutations of the original. Function symbols are immutable and shared.
func (c *Context) Clone() *Context {
	clone := &Context{scopes: make([]map[string]RuntimeSymbol, 0, len(c.scopes))}
	for _, scope := range c.scopes {
		newScope := make(map[string]RuntimeSymbol, len(scope))
		for name, symbol := range scope {
			switch symbol := symbol.(type) {
			case *VariableSymbol:
				newScope[name] = &VariableSymbol{
					Name:    symbol.Name,
					Type:    symbol.Type,
					Value:   symbol.Value,
					Context: symbol.Context.Clone(),
				}
			default:
				newScope[name] = symbol
			}
		}
		clone.scopes = append(clone.scopes, newScope)
	}
	return clone
}
