package evaluator

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/kamilsan/lazy-interpreted-language/ast"
	"github.com/kamilsan/lazy-interpreted-language/token"
)

// Error is a fatal, positioned runtime failure.
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

// conditionThreshold decides truth for the built-in if: a condition is
// true iff its magnitude exceeds this value.
const conditionThreshold = 1e-4

// Executor walks a validated AST against a runtime context. Program
// output accumulates in an in-memory buffer; the integer returned by
// main becomes the exit code.
type Executor struct {
	context  *ast.Context
	value    ast.Value
	returns  []ast.Value
	stdout   *bytes.Buffer
	exitCode int
}

func New() *Executor {
	return &Executor{
		context: ast.NewContext(),
		stdout:  &bytes.Buffer{},
	}
}

// newSub builds the evaluator a lazy variable read runs in: it executes
// against the variable's captured context and shares the output buffer.
func newSub(context *ast.Context, stdout *bytes.Buffer) *Executor {
	return &Executor{context: context, stdout: stdout}
}

func (e *Executor) StandardOut() string {
	return e.stdout.String()
}

func (e *Executor) ExitCode() int {
	return e.exitCode
}

// Execute runs a validated program: top-level variables become lazy
// cells, functions are registered, then main runs.
func (e *Executor) Execute(program *ast.Program) error {
	return e.execute(program)
}

// EvalExpression evaluates a standalone expression against the current
// context.
func (e *Executor) EvalExpression(expr ast.Expression) (ast.Value, error) {
	if err := e.execute(expr); err != nil {
		return nil, err
	}
	return e.value, nil
}

func (e *Executor) execute(node ast.Node) error {
	switch node := node.(type) {

	case *ast.Program:
		return e.executeProgram(node)

	case *ast.NumericLiteral:
		e.value = &ast.Number{Value: node.Value}
		return nil

	case *ast.StringLiteral:
		e.value = &ast.Str{Value: node.Value}
		return nil

	case *ast.Variable:
		return e.executeVariable(node)

	case *ast.UnaryExpression:
		return e.executeUnary(node)

	case *ast.BinaryExpression:
		return e.executeBinary(node)

	case *ast.FunctionCall:
		return e.executeFunctionCall(node)

	case *ast.FunctionResultCall:
		return e.executeFunctionResultCall(node)

	case *ast.Lambda:
		e.value = &ast.Func{
			ReturnType: node.ReturnType,
			Parameters: node.Parameters,
			Body:       node.Body,
			Context:    e.context.Clone(),
		}
		return nil

	case *ast.LambdaCall:
		return e.executeLambdaCall(node)

	case *ast.VariableDeclaration:
		// No evaluation happens here: the initializer is stored as-is
		// with a snapshot of the current context and re-evaluated on
		// every read.
		e.context.AddSymbol(node.Name, &ast.VariableSymbol{
			Name:    node.Name,
			Type:    node.Type,
			Value:   node.Value,
			Context: e.context.Clone(),
		})
		return nil

	case *ast.Assignment:
		return e.executeAssignment(node)

	case *ast.ReturnStatement:
		return e.executeReturn(node)

	case *ast.Block:
		for _, stmt := range node.Statements {
			if err := e.execute(stmt); err != nil {
				return err
			}
		}
		return nil

	case *ast.FunctionDeclaration:
		e.context.AddSymbol(node.Name, &ast.FunctionSymbol{
			Name:       node.Name,
			ReturnType: node.ReturnType,
			Parameters: node.Parameters,
			Body:       node.Body,
		})
		return nil

	case *ast.FunctionCallStatement:
		return e.execute(node.Call)
	}

	return newError(node.Mark(), "cannot execute node %q", node.TokenLiteral())
}

func (e *Executor) executeProgram(program *ast.Program) error {
	for _, decl := range program.Variables {
		if err := e.execute(decl); err != nil {
			return err
		}
	}
	for _, decl := range program.Functions {
		if err := e.execute(decl); err != nil {
			return err
		}
	}

	symbol, ok := e.context.Lookup("main", 0)
	if !ok {
		return newError(program.Mark(), "main function was not found")
	}
	fs, ok := symbol.(*ast.FunctionSymbol)
	if !ok {
		return newError(program.Mark(), "symbol main does not name a function")
	}

	if err := e.callFunctionSymbol(fs, nil, program.Mark()); err != nil {
		return err
	}

	result, ok := e.value.(*ast.Number)
	if !ok {
		return newError(program.Mark(), "main did not return a number")
	}
	e.exitCode = exitCodeFromNumber(result.Value)
	return nil
}

func exitCodeFromNumber(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

func (e *Executor) executeVariable(node *ast.Variable) error {
	symbol, ok := e.context.Lookup(node.Name, 0)
	if !ok {
		return newError(node.Mark(), "usage of undeclared symbol %s", node.Name)
	}

	switch symbol := symbol.(type) {
	case *ast.VariableSymbol:
		// The lazy read: the stored initializer runs against its
		// captured context, every time.
		sub := newSub(symbol.Context, e.stdout)
		if err := sub.execute(symbol.Value); err != nil {
			return err
		}
		if sub.value == nil {
			return newError(node.Mark(), "variable %s has no value", node.Name)
		}
		e.value = sub.value.Clone()
		return nil
	case *ast.FunctionSymbol:
		e.value = &ast.Func{
			ReturnType: symbol.ReturnType,
			Parameters: symbol.Parameters,
			Body:       symbol.Body,
			Context:    e.context.Clone(),
		}
		return nil
	}
	return newError(node.Mark(), "invalid symbol reference %s", node.Name)
}

func (e *Executor) executeUnary(node *ast.UnaryExpression) error {
	if err := e.execute(node.Term); err != nil {
		return err
	}
	term, ok := e.value.(*ast.Number)
	if !ok {
		return newError(node.Mark(),
			"invalid operation on value of type %s", typeName(e.value))
	}

	switch node.Operator {
	case ast.Minus:
		e.value = &ast.Number{Value: -term.Value}
	case ast.BitwiseNot:
		e.value = &ast.Number{Value: float64(^toBits(term.Value))}
	case ast.LogicalNot:
		e.value = boolNumber(term.Value == 0)
	}
	return nil
}

func (e *Executor) executeBinary(node *ast.BinaryExpression) error {
	if err := e.execute(node.Left); err != nil {
		return err
	}
	left := e.value
	if err := e.execute(node.Right); err != nil {
		return err
	}
	right := e.value

	if node.Operator == ast.Add {
		return e.add(node, left, right)
	}

	l, ok := left.(*ast.Number)
	if !ok {
		return newError(node.Mark(),
			"invalid operation on value of type %s", typeName(left))
	}
	r, ok := right.(*ast.Number)
	if !ok {
		return newError(node.Mark(),
			"invalid operation on value of type %s", typeName(right))
	}

	var result float64
	switch node.Operator {
	case ast.Sub:
		result = l.Value - r.Value
	case ast.Mul:
		result = l.Value * r.Value
	case ast.Div:
		result = l.Value / r.Value
	case ast.Mod:
		result = math.Mod(l.Value, r.Value)
	case ast.LogicalAnd:
		return e.setBool(l.Value != 0 && r.Value != 0)
	case ast.LogicalOr:
		return e.setBool(l.Value != 0 || r.Value != 0)
	case ast.BitAnd:
		result = float64(toBits(l.Value) & toBits(r.Value))
	case ast.BitOr:
		result = float64(toBits(l.Value) | toBits(r.Value))
	case ast.BitXor:
		result = float64(toBits(l.Value) ^ toBits(r.Value))
	case ast.ShiftLeft:
		result = float64(toBits(l.Value) << toBits(r.Value))
	case ast.ShiftRight:
		result = float64(toBits(l.Value) >> toBits(r.Value))
	case ast.Eq:
		return e.setBool(l.Value == r.Value)
	case ast.NotEq:
		return e.setBool(l.Value != r.Value)
	case ast.Less:
		return e.setBool(l.Value < r.Value)
	case ast.LessEq:
		return e.setBool(l.Value <= r.Value)
	case ast.Greater:
		return e.setBool(l.Value > r.Value)
	case ast.GreaterEq:
		return e.setBool(l.Value >= r.Value)
	default:
		return newError(node.Mark(), "unknown operator %s", node.Operator)
	}
	e.value = &ast.Number{Value: result}
	return nil
}

// add handles the one overloaded operator: numeric addition and string
// concatenation, with numbers rendered using six fractional digits.
func (e *Executor) add(node *ast.BinaryExpression, left, right ast.Value) error {
	switch left := left.(type) {
	case *ast.Number:
		switch right := right.(type) {
		case *ast.Number:
			e.value = &ast.Number{Value: left.Value + right.Value}
			return nil
		case *ast.Str:
			e.value = &ast.Str{Value: formatNumber(left.Value) + right.Value}
			return nil
		}
	case *ast.Str:
		switch right := right.(type) {
		case *ast.Number:
			e.value = &ast.Str{Value: left.Value + formatNumber(right.Value)}
			return nil
		case *ast.Str:
			e.value = &ast.Str{Value: left.Value + right.Value}
			return nil
		}
	}
	return newError(node.Mark(),
		"invalid operation on value of type %s", typeName(left))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// typeName names a value's type for diagnostics; a missing value reads
// as void (a call through a function variable may produce nothing).
func typeName(v ast.Value) string {
	if v == nil {
		return ast.Void.String()
	}
	return v.Type().String()
}

func toBits(v float64) uint32 {
	return uint32(int64(v))
}

func boolNumber(b bool) *ast.Number {
	if b {
		return &ast.Number{Value: 1}
	}
	return &ast.Number{Value: 0}
}

func (e *Executor) setBool(b bool) error {
	e.value = boolNumber(b)
	return nil
}

func (e *Executor) executeFunctionCall(node *ast.FunctionCall) error {
	switch node.Name {
	case "print":
		return e.executePrint(node)
	case "if":
		return e.executeIf(node)
	}

	symbol, ok := e.context.Lookup(node.Name, 0)
	if !ok {
		return newError(node.Mark(), "calling undefined function named %s", node.Name)
	}

	switch symbol := symbol.(type) {
	case *ast.FunctionSymbol:
		return e.callFunctionSymbol(symbol, node.Arguments, node.Mark())
	case *ast.VariableSymbol:
		if err := e.executeVariable(&ast.Variable{Token: node.Token, Name: node.Name}); err != nil {
			return err
		}
		fn, ok := e.value.(*ast.Func)
		if !ok {
			return newError(node.Mark(), "calling a non-function value %s", node.Name)
		}
		return e.callFunc(fn, node.Arguments, node.Mark())
	}
	return newError(node.Mark(), "symbol %s does not name a function", node.Name)
}

func (e *Executor) executePrint(node *ast.FunctionCall) error {
	if len(node.Arguments) != 1 {
		return newError(node.Mark(), "function print expected 1, but got %d arguments",
			len(node.Arguments))
	}
	if err := e.execute(node.Arguments[0]); err != nil {
		return err
	}
	str, ok := e.value.(*ast.Str)
	if !ok {
		return newError(node.Mark(), "print argument is not a string")
	}
	e.stdout.WriteString(str.Value)
	e.stdout.WriteString("\n")
	e.value = nil
	return nil
}

// executeIf evaluates the condition and then exactly one branch. The
// unselected branch is never evaluated; combined with lazy parameters
// this is what lets recursive definitions terminate.
func (e *Executor) executeIf(node *ast.FunctionCall) error {
	if len(node.Arguments) != 3 {
		return newError(node.Mark(), "function if expected 3, but got %d arguments",
			len(node.Arguments))
	}
	if err := e.execute(node.Arguments[0]); err != nil {
		return err
	}
	condition, ok := e.value.(*ast.Number)
	if !ok {
		return newError(node.Mark(), "conditional argument is not a number")
	}

	branch := node.Arguments[2]
	if math.Abs(condition.Value) > conditionThreshold {
		branch = node.Arguments[1]
	}
	return e.execute(branch)
}

// callFunctionSymbol runs a declared function: a new scope on the
// current context, parameters bound lazily to the argument expressions.
func (e *Executor) callFunctionSymbol(
	fs *ast.FunctionSymbol,
	args []ast.Expression,
	mark token.Mark,
) error {
	if len(args) != len(fs.Parameters) {
		return newError(mark, "function %s expected %d, but got %d arguments",
			fs.Name, len(fs.Parameters), len(args))
	}

	e.bindParameters(fs.Parameters, args, e.context)
	err := e.execute(fs.Body)
	e.context.LeaveScope()
	if err != nil {
		return err
	}

	if fs.ReturnType != ast.Void {
		return e.popReturn(mark)
	}
	return nil
}

// callFunc runs a first-class function value: a new scope on a clone of
// the captured context, parameters bound against the caller's context.
func (e *Executor) callFunc(fn *ast.Func, args []ast.Expression, mark token.Mark) error {
	if len(args) != len(fn.Parameters) {
		return newError(mark, "function expected %d, but got %d arguments",
			len(fn.Parameters), len(args))
	}

	caller := e.context
	e.context = fn.Context.Clone()
	e.bindParameters(fn.Parameters, args, caller)
	err := e.execute(fn.Body)
	e.context.LeaveScope()
	e.context = caller
	if err != nil {
		return err
	}

	if fn.ReturnType != ast.Void {
		return e.popReturn(mark)
	}
	return nil
}

// bindParameters enters a new scope and inserts one lazy cell per
// parameter. Arguments are not evaluated: each cell stores the argument
// expression with a snapshot of the given context, so parameters behave
// exactly like variables.
func (e *Executor) bindParameters(
	params []ast.Parameter,
	args []ast.Expression,
	argContext *ast.Context,
) {
	captured := make([]*ast.Context, len(params))
	for i := range params {
		captured[i] = argContext.Clone()
	}

	e.context.EnterScope()
	for i, param := range params {
		e.context.AddSymbol(param.Name, &ast.VariableSymbol{
			Name:    param.Name,
			Type:    param.Type,
			Value:   args[i],
			Context: captured[i],
		})
	}
}

func (e *Executor) executeLambdaCall(node *ast.LambdaCall) error {
	lambda := node.Lambda
	if len(node.Arguments) != len(lambda.Parameters) {
		return newError(node.Mark(), "lambda expected %d, but got %d arguments",
			len(lambda.Parameters), len(node.Arguments))
	}

	// The fused path: no function value is materialized, the body runs
	// directly in a new scope of the current context.
	e.bindParameters(lambda.Parameters, node.Arguments, e.context)
	err := e.execute(lambda.Body)
	e.context.LeaveScope()
	if err != nil {
		return err
	}

	if lambda.ReturnType != ast.Void {
		return e.popReturn(node.Mark())
	}
	return nil
}

func (e *Executor) executeFunctionResultCall(node *ast.FunctionResultCall) error {
	if err := e.execute(node.Callee); err != nil {
		return err
	}
	fn, ok := e.value.(*ast.Func)
	if !ok {
		return newError(node.Mark(), "calling a non-function value")
	}
	return e.callFunc(fn, node.Arguments, node.Mark())
}

func (e *Executor) executeAssignment(node *ast.Assignment) error {
	symbol, ok := e.context.Lookup(node.Name, 0)
	if !ok {
		return newError(node.Mark(), "assignment to undeclared variable %s", node.Name)
	}
	vs, ok := symbol.(*ast.VariableSymbol)
	if !ok {
		return newError(node.Mark(), "assignment to a non-variable symbol %s", node.Name)
	}

	if node.Operator == ast.Assign {
		// Rebind, do not evaluate: the cell stays lazy with the new
		// expression and a snapshot of the assignment site.
		vs.Value = node.Value
		vs.Context = e.context.Clone()
		return nil
	}

	// Compound assignment reads the variable strictly and snaps the
	// cell to the computed literal.
	if err := e.executeVariable(&ast.Variable{Token: node.Token, Name: node.Name}); err != nil {
		return err
	}
	current, ok := e.value.(*ast.Number)
	if !ok {
		return newError(node.Mark(),
			"invalid operation on value of type %s", typeName(e.value))
	}
	if err := e.execute(node.Value); err != nil {
		return err
	}
	operand, ok := e.value.(*ast.Number)
	if !ok {
		return newError(node.Mark(),
			"invalid operation on value of type %s", typeName(e.value))
	}

	var result float64
	switch node.Operator {
	case ast.PlusEq:
		result = current.Value + operand.Value
	case ast.MinusEq:
		result = current.Value - operand.Value
	case ast.MulEq:
		result = current.Value * operand.Value
	case ast.DivEq:
		result = current.Value / operand.Value
	case ast.AndEq:
		result = float64(toBits(current.Value) & toBits(operand.Value))
	case ast.OrEq:
		result = float64(toBits(current.Value) | toBits(operand.Value))
	case ast.XorEq:
		result = float64(toBits(current.Value) ^ toBits(operand.Value))
	case ast.ShiftLeftEq:
		result = float64(toBits(current.Value) << toBits(operand.Value))
	case ast.ShiftRightEq:
		result = float64(toBits(current.Value) >> toBits(operand.Value))
	}

	vs.Value = &ast.NumericLiteral{Value: result}
	vs.Context = e.context.Clone()
	return nil
}

// executeReturn evaluates strictly and records the value; it does not
// short-circuit the enclosing block. The value is consumed when the
// enclosing call unwinds.
func (e *Executor) executeReturn(node *ast.ReturnStatement) error {
	if err := e.execute(node.Value); err != nil {
		return err
	}
	if e.value == nil {
		return newError(node.Mark(), "return expression has no value")
	}
	e.returns = append(e.returns, e.value.Clone())
	return nil
}

func (e *Executor) popReturn(mark token.Mark) error {
	if len(e.returns) == 0 {
		return newError(mark, "function did not return a value")
	}
	e.value = e.returns[len(e.returns)-1]
	e.returns = e.returns[:len(e.returns)-1]
	return nil
}
