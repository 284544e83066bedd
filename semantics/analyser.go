package semantics

import (
	"fmt"

	"github.com/kamilsan/lazy-interpreted-language/ast"
	"github.com/kamilsan/lazy-interpreted-language/token"
)

// Error is a fatal, positioned semantic failure.
type Error struct {
	Mark    token.Mark
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ERROR (%s): %s", e.Mark, e.Message)
}

func newError(mark token.Mark, format string, args ...interface{}) *Error {
	return &Error{Mark: mark, Message: fmt.Sprintf(format, args...)}
}

// returnInfo tracks whether the frame being analysed produced a return
// and what type the last return yielded. Only the most recent return
// statement updates the frame's info.
type returnInfo struct {
	hasReturn bool
	typ       ast.Type
	typeKnown bool
}

// Analyser walks a parsed program, resolving names against a scoped
// symbol table and checking arities, types and return paths.
type Analyser struct {
	symbols     *SymbolTable
	returnInfos []returnInfo
}

func NewAnalyser() *Analyser {
	a := &Analyser{symbols: NewSymbolTable()}
	a.addBuiltInSymbols()
	return a
}

func (a *Analyser) addBuiltInSymbols() {
	a.symbols.AddSymbol("if", &FunctionSymbol{
		Name:       "if",
		ReturnType: ast.F32,
		Parameters: []ast.Type{ast.F32, ast.F32, ast.F32},
	})
	a.symbols.AddSymbol("print", &FunctionSymbol{
		Name:       "print",
		ReturnType: ast.Void,
		Parameters: []ast.Type{ast.String},
	})
}

func (a *Analyser) Analyse(program *ast.Program) error {
	return a.analyse(program)
}

func (a *Analyser) analyse(node ast.Node) error {
	switch node := node.(type) {

	case *ast.Program:
		return a.analyseProgram(node)

	case *ast.NumericLiteral, *ast.StringLiteral:
		return nil

	case *ast.Variable:
		if _, ok := a.symbols.Lookup(node.Name, 0); !ok {
			return newError(node.Mark(), "usage of undeclared symbol %s", node.Name)
		}
		return nil

	case *ast.UnaryExpression:
		return a.analyse(node.Term)

	case *ast.BinaryExpression:
		if err := a.analyse(node.Left); err != nil {
			return err
		}
		return a.analyse(node.Right)

	case *ast.FunctionCall:
		return a.analyseFunctionCall(node)

	case *ast.FunctionResultCall:
		return a.analyseFunctionResultCall(node)

	case *ast.Lambda:
		return a.analyseLambda(node)

	case *ast.LambdaCall:
		return a.analyseLambdaCall(node)

	case *ast.VariableDeclaration:
		return a.analyseVariableDeclaration(node)

	case *ast.Assignment:
		return a.analyseAssignment(node)

	case *ast.ReturnStatement:
		return a.analyseReturn(node)

	case *ast.Block:
		for _, stmt := range node.Statements {
			if err := a.analyse(stmt); err != nil {
				return err
			}
		}
		return nil

	case *ast.FunctionDeclaration:
		return a.analyseFunctionDeclaration(node)

	case *ast.FunctionCallStatement:
		return a.analyse(node.Call)
	}

	return nil
}

func (a *Analyser) analyseProgram(program *ast.Program) error {
	for _, decl := range program.Variables {
		if err := a.analyse(decl); err != nil {
			return err
		}
	}
	for _, decl := range program.Functions {
		if err := a.analyse(decl); err != nil {
			return err
		}
	}

	symbol, ok := a.symbols.Lookup("main", 0)
	if !ok {
		return newError(program.Mark(), "main function was not found")
	}
	info, ok := probeFunction(symbol)
	if !ok {
		return newError(program.Mark(), "symbol main does not name a function")
	}
	if !info.SignatureKnown || info.ReturnType != ast.F32 {
		return newError(program.Mark(), "main should return f32")
	}
	return nil
}

func (a *Analyser) analyseVariableDeclaration(node *ast.VariableDeclaration) error {
	if _, ok := a.symbols.Lookup(node.Name, 1); ok {
		return newError(node.Mark(), "redefinition of variable %s", node.Name)
	}

	if err := a.analyse(node.Value); err != nil {
		return err
	}

	// The type checker cannot deduce the expression's type when a
	// function-valued variable was called; such declarations are
	// accepted as-is.
	valueType, known, err := deduceType(node.Value, a.symbols)
	if err != nil {
		return err
	}
	if known && valueType != node.Type {
		return newError(node.Mark(),
			"cannot assign value of type %s to variable %s", valueType, node.Name)
	}

	a.symbols.AddSymbol(node.Name, &VariableSymbol{Name: node.Name, Type: node.Type})
	return nil
}

func (a *Analyser) analyseAssignment(node *ast.Assignment) error {
	symbol, ok := a.symbols.Lookup(node.Name, 0)
	if !ok {
		return newError(node.Mark(), "assignment to undeclared variable %s", node.Name)
	}
	targetType, ok := probeVariable(symbol)
	if !ok {
		return newError(node.Mark(), "assignment to a non-variable symbol %s", node.Name)
	}
	if targetType == ast.Function && node.Operator != ast.Assign {
		return newError(node.Mark(),
			"cannot perform arithmetic operation on function variable %s", node.Name)
	}

	if err := a.analyse(node.Value); err != nil {
		return err
	}

	valueType, known, err := deduceType(node.Value, a.symbols)
	if err != nil {
		return err
	}
	if known && valueType != targetType {
		return newError(node.Mark(),
			"cannot assign value of type %s to variable %s", valueType, node.Name)
	}
	return nil
}

func (a *Analyser) analyseFunctionDeclaration(node *ast.FunctionDeclaration) error {
	if _, ok := a.symbols.Lookup(node.Name, 1); ok {
		return newError(node.Mark(), "redefinition of function %s", node.Name)
	}

	symbol := &FunctionSymbol{Name: node.Name, ReturnType: node.ReturnType}
	for _, param := range node.Parameters {
		symbol.Parameters = append(symbol.Parameters, param.Type)
	}
	// The symbol is registered before the body is analysed so the
	// function can recurse into itself.
	a.symbols.AddSymbol(node.Name, symbol)

	info, err := a.analyseFunctionBody(node.Mark(), node.Parameters, node.Body)
	if err != nil {
		return err
	}
	return a.checkReturnInfo(node.Mark(), "function "+node.Name, node.ReturnType, info)
}

func (a *Analyser) analyseLambda(node *ast.Lambda) error {
	info, err := a.analyseFunctionBody(node.Mark(), node.Parameters, node.Body)
	if err != nil {
		return err
	}
	return a.checkReturnInfo(node.Mark(), "lambda", node.ReturnType, info)
}

func (a *Analyser) analyseFunctionBody(
	mark token.Mark,
	params []ast.Parameter,
	body *ast.Block,
) (returnInfo, error) {
	a.returnInfos = append(a.returnInfos, returnInfo{})
	a.symbols.EnterScope()

	for _, param := range params {
		if _, ok := a.symbols.Lookup(param.Name, 1); ok {
			return returnInfo{}, newError(mark, "duplicate parameter name %s", param.Name)
		}
		a.symbols.AddSymbol(param.Name, &VariableSymbol{Name: param.Name, Type: param.Type})
	}

	err := a.analyse(body)

	a.symbols.LeaveScope()
	info := a.returnInfos[len(a.returnInfos)-1]
	a.returnInfos = a.returnInfos[:len(a.returnInfos)-1]

	return info, err
}

func (a *Analyser) checkReturnInfo(
	mark token.Mark,
	what string,
	returnType ast.Type,
	info returnInfo,
) error {
	switch {
	case returnType != ast.Void && !info.hasReturn:
		return newError(mark, "%s does not return any value", what)
	case returnType == ast.Void && info.hasReturn:
		return newError(mark, "void %s does return", what)
	case returnType != ast.Void && info.typeKnown && info.typ != returnType:
		return newError(mark, "%s should return %s, but returns %s",
			what, returnType, info.typ)
	}
	return nil
}

func (a *Analyser) analyseReturn(node *ast.ReturnStatement) error {
	if err := a.analyse(node.Value); err != nil {
		return err
	}
	valueType, known, err := deduceType(node.Value, a.symbols)
	if err != nil {
		return err
	}

	if len(a.returnInfos) == 0 {
		return newError(node.Mark(), "unexpected return statement")
	}
	a.returnInfos[len(a.returnInfos)-1] = returnInfo{
		hasReturn: true,
		typ:       valueType,
		typeKnown: known,
	}
	return nil
}

func (a *Analyser) analyseFunctionCall(node *ast.FunctionCall) error {
	symbol, ok := a.symbols.Lookup(node.Name, 0)
	if !ok {
		return newError(node.Mark(), "calling undefined function named %s", node.Name)
	}
	info, ok := probeFunction(symbol)
	if !ok {
		return newError(node.Mark(), "symbol %s does not name a function", node.Name)
	}

	// Calling a variable of type function: nothing is known about its
	// return type or arguments, so the call is accepted as-is.
	if !info.SignatureKnown {
		for _, arg := range node.Arguments {
			if err := a.analyse(arg); err != nil {
				return err
			}
		}
		return nil
	}

	if len(info.Parameters) != len(node.Arguments) {
		return newError(node.Mark(), "function %s expected %d, but got %d arguments",
			node.Name, len(info.Parameters), len(node.Arguments))
	}

	for i, arg := range node.Arguments {
		if err := a.analyse(arg); err != nil {
			return err
		}
		argType, known, err := deduceType(arg, a.symbols)
		if err != nil {
			return err
		}
		if known && argType != info.Parameters[i] {
			return newError(arg.Mark(),
				"function %s expected argument of type %s, but got %s",
				node.Name, info.Parameters[i], argType)
		}
	}
	return nil
}

func (a *Analyser) analyseFunctionResultCall(node *ast.FunctionResultCall) error {
	if err := a.analyse(node.Callee); err != nil {
		return err
	}

	calleeType, known, err := deduceType(node.Callee, a.symbols)
	if err != nil {
		return err
	}
	if known && calleeType != ast.Function {
		return newError(node.Mark(),
			"cannot call result of function returning %s", calleeType)
	}

	for _, arg := range node.Arguments {
		if err := a.analyse(arg); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyser) analyseLambdaCall(node *ast.LambdaCall) error {
	if err := a.analyse(node.Lambda); err != nil {
		return err
	}

	expected := node.Lambda.Parameters
	if len(expected) != len(node.Arguments) {
		return newError(node.Mark(), "lambda expected %d, but got %d arguments",
			len(expected), len(node.Arguments))
	}

	for i, arg := range node.Arguments {
		if err := a.analyse(arg); err != nil {
			return err
		}
		argType, known, err := deduceType(arg, a.symbols)
		if err != nil {
			return err
		}
		if known && argType != expected[i].Type {
			return newError(arg.Mark(),
				"lambda expected argument of type %s, but got %s",
				expected[i].Type, argType)
		}
	}
	return nil
}
