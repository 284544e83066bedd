package semantics

import "github.com/kamilsan/lazy-interpreted-language/ast"

// deduceType returns the static type of an expression, when one can be
// determined. known is false when the expression's type cannot be
// deduced, which happens for calls through function-valued variables:
// variables' values are not tracked, so nothing is known about what
// such a call produces.
func deduceType(expr ast.Expression, symbols *SymbolTable) (typ ast.Type, known bool, err error) {
	switch expr := expr.(type) {
	case *ast.NumericLiteral:
		return ast.F32, true, nil

	case *ast.StringLiteral:
		return ast.String, true, nil

	case *ast.Variable:
		symbol, ok := symbols.Lookup(expr.Name, 0)
		if !ok {
			return 0, false, newError(expr.Mark(), "usage of undeclared symbol %s", expr.Name)
		}
		if varType, ok := probeVariable(symbol); ok {
			return varType, true, nil
		}
		return ast.Function, true, nil

	case *ast.UnaryExpression:
		termType, termKnown, err := deduceType(expr.Term, symbols)
		if err != nil {
			return 0, false, err
		}
		if termKnown && termType != ast.F32 {
			return 0, false, newError(expr.Mark(),
				"invalid operation on value of type %s", termType)
		}
		return ast.F32, true, nil

	case *ast.BinaryExpression:
		leftType, leftKnown, err := deduceType(expr.Left, symbols)
		if err != nil {
			return 0, false, err
		}
		if !leftKnown {
			return 0, false, nil
		}
		if leftType == ast.String {
			if expr.Operator != ast.Add {
				return 0, false, newError(expr.Mark(),
					"invalid operation on value of type %s", leftType)
			}
			return ast.String, true, nil
		}
		rightType, rightKnown, err := deduceType(expr.Right, symbols)
		if err != nil {
			return 0, false, err
		}
		if leftType != ast.F32 || (rightKnown && rightType != ast.F32) {
			return 0, false, newError(expr.Mark(),
				"invalid operation on value of type %s", leftType)
		}
		return ast.F32, true, nil

	case *ast.FunctionCall:
		symbol, ok := symbols.Lookup(expr.Name, 0)
		if !ok {
			return 0, false, newError(expr.Mark(),
				"calling undefined function named %s", expr.Name)
		}
		info, ok := probeFunction(symbol)
		if !ok || !info.SignatureKnown {
			return 0, false, nil
		}
		return info.ReturnType, true, nil

	case *ast.FunctionResultCall:
		return deduceType(expr.Callee, symbols)

	case *ast.LambdaCall:
		return expr.Lambda.ReturnType, true, nil

	case *ast.Lambda:
		return ast.Function, true, nil
	}

	return 0, false, nil
}
