package parser

import (
	"fmt"

	"github.com/kamilsan/lazy-interpreted-language/ast"
	"github.com/kamilsan/lazy-interpreted-language/lexer"
	"github.com/kamilsan/lazy-interpreted-language/token"
)

// Error is a fatal, positioned parse (or lex) failure.
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

// Parser is a recursive-descent, single-token-lookahead parser. Every
// parse method is entered with curToken on the first token of its
// production and leaves curToken on the first token after it.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// AtEnd reports whether the whole token stream has been consumed.
func (p *Parser) AtEnd() bool {
	return p.curTokenIs(token.EOT)
}

func (p *Parser) expect(t token.TokenType, what string) (token.Token, error) {
	if err := p.lexError(); err != nil {
		return token.Token{}, err
	}
	if !p.curTokenIs(t) {
		return token.Token{}, newError(p.curToken.Mark,
			"expected %s, got %q", what, p.curToken.Literal)
	}
	tok := p.curToken
	p.nextToken()
	return tok, nil
}

func (p *Parser) lexError() error {
	if p.curTokenIs(token.ILLEGAL) {
		return newError(p.curToken.Mark, "%s", p.curToken.Literal)
	}
	return nil
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}

	for !p.AtEnd() {
		if err := p.lexError(); err != nil {
			return nil, err
		}
		switch p.curToken.Type {
		case token.LET:
			decl, err := p.parseVariableDeclaration()
			if err != nil {
				return nil, err
			}
			program.Variables = append(program.Variables, decl)
		case token.FN:
			decl, err := p.parseFunctionDeclaration()
			if err != nil {
				return nil, err
			}
			program.Functions = append(program.Functions, decl)
		default:
			return nil, newError(p.curToken.Mark,
				"expected declaration, got %q", p.curToken.Literal)
		}
	}

	return program, nil
}

// ParseExpression parses a standalone logical expression; used by tests.
func (p *Parser) ParseExpression() (ast.Expression, error) {
	return p.parseLogicalExpression()
}

// ParseCallArgument parses what may appear as a call argument: a string
// expression, a lambda or a logical expression; used by tests and the
// REPL.
func (p *Parser) ParseCallArgument() (ast.Expression, error) {
	return p.parseCallArgument()
}

func (p *Parser) parseVariableDeclaration() (*ast.VariableDeclaration, error) {
	tok, err := p.expect(token.LET, "\"let\"")
	if err != nil {
		return nil, err
	}

	name, err := p.expect(token.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON, "\":\""); err != nil {
		return nil, err
	}
	declType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN, "\"=\""); err != nil {
		return nil, err
	}

	value, err := p.parseLambdaOr(p.parseLogicalExpression)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "\";\""); err != nil {
		return nil, err
	}

	return &ast.VariableDeclaration{
		Token: tok,
		Name:  name.Literal,
		Type:  declType,
		Value: value,
	}, nil
}

func (p *Parser) parseFunctionDeclaration() (*ast.FunctionDeclaration, error) {
	tok, err := p.expect(token.FN, "\"fn\"")
	if err != nil {
		return nil, err
	}

	name, err := p.expect(token.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	params, returnType, err := p.parseSignature()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDeclaration{
		Token:      tok,
		Name:       name.Literal,
		ReturnType: returnType,
		Parameters: params,
		Body:       body,
	}, nil
}

// parseSignature parses "(" [param_list] ")" ":" type.
func (p *Parser) parseSignature() ([]ast.Parameter, ast.Type, error) {
	if _, err := p.expect(token.LPAREN, "\"(\""); err != nil {
		return nil, 0, err
	}

	var params []ast.Parameter
	if !p.curTokenIs(token.RPAREN) {
		var err error
		params, err = p.parseParameterList()
		if err != nil {
			return nil, 0, err
		}
	}

	if _, err := p.expect(token.RPAREN, "\")\""); err != nil {
		return nil, 0, err
	}
	if _, err := p.expect(token.COLON, "\":\""); err != nil {
		return nil, 0, err
	}
	returnType, err := p.parseType()
	if err != nil {
		return nil, 0, err
	}

	return params, returnType, nil
}

func (p *Parser) parseParameterList() ([]ast.Parameter, error) {
	params := []ast.Parameter{}

	for {
		name, err := p.expect(token.IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON, "\":\""); err != nil {
			return nil, err
		}
		paramType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Parameter{Name: name.Literal, Type: paramType})

		if !p.curTokenIs(token.COMMA) {
			return params, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseType() (ast.Type, error) {
	var t ast.Type
	switch p.curToken.Type {
	case token.F32:
		t = ast.F32
	case token.FUNCTION:
		t = ast.Function
	case token.VOID:
		t = ast.Void
	default:
		return 0, newError(p.curToken.Mark,
			"expected type name, got %q", p.curToken.Literal)
	}
	p.nextToken()
	return t, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	tok, err := p.expect(token.LBRACE, "\"{\"")
	if err != nil {
		return nil, err
	}

	block := &ast.Block{Token: tok}
	for !p.curTokenIs(token.RBRACE) {
		if p.AtEnd() {
			return nil, newError(p.curToken.Mark, "expected \"}\"")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.nextToken()

	return block, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	if err := p.lexError(); err != nil {
		return nil, err
	}

	switch p.curToken.Type {
	case token.RET:
		return p.parseReturnStatement()
	case token.LET:
		return p.parseVariableDeclaration()
	case token.LPAREN:
		return p.parseLambdaCallStatement()
	case token.IDENT:
		if token.IsAssignmentOperator(p.peekToken.Type) {
			return p.parseAssignment()
		}
		if p.peekTokenIs(token.LPAREN) {
			return p.parseFunctionCallStatement()
		}
	case token.PRINT, token.IF:
		if p.peekTokenIs(token.LPAREN) {
			return p.parseFunctionCallStatement()
		}
	}
	return nil, newError(p.curToken.Mark,
		"expected statement, got %q", p.curToken.Literal)
}

func (p *Parser) parseReturnStatement() (*ast.ReturnStatement, error) {
	tok, err := p.expect(token.RET, "\"ret\"")
	if err != nil {
		return nil, err
	}

	value, err := p.parseLambdaOr(p.parseArithmeticExpression)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "\";\""); err != nil {
		return nil, err
	}

	return &ast.ReturnStatement{Token: tok, Value: value}, nil
}

func (p *Parser) parseAssignment() (*ast.Assignment, error) {
	name, err := p.expect(token.IDENT, "identifier")
	if err != nil {
		return nil, err
	}

	op, err := p.assignmentOperator()
	if err != nil {
		return nil, err
	}
	p.nextToken()

	value, err := p.parseLambdaOr(p.parseArithmeticExpression)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "\";\""); err != nil {
		return nil, err
	}

	return &ast.Assignment{
		Token:    name,
		Name:     name.Literal,
		Operator: op,
		Value:    value,
	}, nil
}

func (p *Parser) parseFunctionCallStatement() (*ast.FunctionCallStatement, error) {
	call, err := p.parseFunctionCall()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "\";\""); err != nil {
		return nil, err
	}
	return &ast.FunctionCallStatement{Token: callToken(call), Call: call}, nil
}

func (p *Parser) parseLambdaCallStatement() (*ast.FunctionCallStatement, error) {
	call, err := p.parseLambdaCall()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "\";\""); err != nil {
		return nil, err
	}
	return &ast.FunctionCallStatement{Token: callToken(call), Call: call}, nil
}

func callToken(call ast.Expression) token.Token {
	switch call := call.(type) {
	case *ast.FunctionCall:
		return call.Token
	case *ast.FunctionResultCall:
		return call.Token
	case *ast.LambdaCall:
		return call.Token
	}
	return token.Token{}
}

// parseLambdaOr parses a lambda when one starts here, otherwise defers
// to the given production. Initializers, assignments and returns all
// accept either form.
func (p *Parser) parseLambdaOr(parse func() (ast.Expression, error)) (ast.Expression, error) {
	if p.curTokenIs(token.BACKSLASH) {
		return p.parseLambda()
	}
	return parse()
}

func (p *Parser) parseLambda() (*ast.Lambda, error) {
	tok, err := p.expect(token.BACKSLASH, "\"\\\"")
	if err != nil {
		return nil, err
	}

	params, returnType, err := p.parseSignature()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN, "\"=\""); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.Lambda{
		Token:      tok,
		ReturnType: returnType,
		Parameters: params,
		Body:       body,
	}, nil
}

// parseLambdaCall parses "(" lambda ")" "(" call_args ")" and any
// further call chaining.
func (p *Parser) parseLambdaCall() (ast.Expression, error) {
	tok, err := p.expect(token.LPAREN, "\"(\"")
	if err != nil {
		return nil, err
	}

	lambda, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "\")\""); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, "\"(\""); err != nil {
		return nil, err
	}
	args, err := p.parseCallArguments()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "\")\""); err != nil {
		return nil, err
	}

	var call ast.Expression = &ast.LambdaCall{Token: tok, Lambda: lambda, Arguments: args}
	return p.parseCallChain(call)
}

func (p *Parser) parseFunctionCall() (ast.Expression, error) {
	name := p.curToken
	if !p.callableName(name.Type) {
		return nil, newError(name.Mark, "expected function name, got %q", name.Literal)
	}
	p.nextToken()

	if _, err := p.expect(token.LPAREN, "\"(\""); err != nil {
		return nil, err
	}
	args, err := p.parseCallArguments()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "\")\""); err != nil {
		return nil, err
	}

	var call ast.Expression = &ast.FunctionCall{Token: name, Name: name.Literal, Arguments: args}
	return p.parseCallChain(call)
}

// parseCallChain builds left-associative FunctionResultCall nodes for
// every further "(args)" group: f(a)(b)(c).
func (p *Parser) parseCallChain(call ast.Expression) (ast.Expression, error) {
	for p.curTokenIs(token.LPAREN) {
		tok := p.curToken
		p.nextToken()
		args, err := p.parseCallArguments()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "\")\""); err != nil {
			return nil, err
		}
		call = &ast.FunctionResultCall{Token: tok, Callee: call, Arguments: args}
	}
	return call, nil
}

func (p *Parser) callableName(t token.TokenType) bool {
	return t == token.IDENT || t == token.PRINT || t == token.IF
}

func (p *Parser) parseCallArguments() ([]ast.Expression, error) {
	args := []ast.Expression{}
	if p.curTokenIs(token.RPAREN) {
		return args, nil
	}

	arg, err := p.parseCallArgument()
	if err != nil {
		return nil, err
	}
	args = append(args, arg)

	for p.curTokenIs(token.COMMA) {
		p.nextToken()
		arg, err := p.parseCallArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	return args, nil
}

func (p *Parser) parseCallArgument() (ast.Expression, error) {
	switch p.curToken.Type {
	case token.STRING:
		return p.parseStringExpression()
	case token.BACKSLASH:
		return p.parseLambda()
	default:
		return p.parseLogicalExpression()
	}
}

// parseStringExpression parses STRING { ":" (STRING | arith_expr) }.
// The colon concatenates; numbers are rendered at evaluation time.
func (p *Parser) parseStringExpression() (ast.Expression, error) {
	tok, err := p.expect(token.STRING, "string literal")
	if err != nil {
		return nil, err
	}

	var node ast.Expression = &ast.StringLiteral{Token: tok, Value: tok.Literal}
	for p.curTokenIs(token.COLON) {
		opToken := p.curToken
		p.nextToken()

		var right ast.Expression
		if p.curTokenIs(token.STRING) {
			strTok := p.curToken
			p.nextToken()
			right = &ast.StringLiteral{Token: strTok, Value: strTok.Literal}
		} else {
			right, err = p.parseArithmeticExpression()
			if err != nil {
				return nil, err
			}
		}

		node = &ast.BinaryExpression{
			Token:    opToken,
			Left:     node,
			Operator: ast.Add,
			Right:    right,
		}
	}

	return node, nil
}

// parseBinaryChain parses operand { op operand } for every operator the
// predicate accepts, producing a left-associative tree.
func (p *Parser) parseBinaryChain(
	parseOperand func() (ast.Expression, error),
	operatorPredicate func(token.TokenType) bool,
) (ast.Expression, error) {
	left, err := parseOperand()
	if err != nil {
		return nil, err
	}

	for operatorPredicate(p.curToken.Type) {
		opToken := p.curToken
		op, err := p.binaryOperator()
		if err != nil {
			return nil, err
		}
		p.nextToken()

		right, err := parseOperand()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{
			Token:    opToken,
			Left:     left,
			Operator: op,
			Right:    right,
		}
	}

	return left, nil
}

func (p *Parser) parseLogicalExpression() (ast.Expression, error) {
	return p.parseBinaryChain(p.parseUnaryLogical, func(t token.TokenType) bool {
		return t == token.LOGICAL_AND || t == token.LOGICAL_OR
	})
}

func (p *Parser) parseUnaryLogical() (ast.Expression, error) {
	if p.curTokenIs(token.BANG) {
		tok := p.curToken
		p.nextToken()
		term, err := p.parseComparisonExpression()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Token: tok, Operator: ast.LogicalNot, Term: term}, nil
	}
	return p.parseComparisonExpression()
}

func (p *Parser) parseComparisonExpression() (ast.Expression, error) {
	return p.parseBinaryChain(p.parseArithmeticExpression, token.IsComparisonOperator)
}

func (p *Parser) parseArithmeticExpression() (ast.Expression, error) {
	return p.parseBinaryChain(p.parseAddExpression, func(t token.TokenType) bool {
		switch t {
		case token.AND, token.OR, token.XOR, token.SHIFT_LEFT, token.SHIFT_RIGHT:
			return true
		}
		return false
	})
}

func (p *Parser) parseAddExpression() (ast.Expression, error) {
	return p.parseBinaryChain(p.parseFactor, func(t token.TokenType) bool {
		return t == token.PLUS || t == token.MINUS || t == token.PERCENT
	})
}

func (p *Parser) parseFactor() (ast.Expression, error) {
	return p.parseBinaryChain(p.parseUnary, func(t token.TokenType) bool {
		return t == token.ASTERISK || t == token.SLASH
	})
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	switch p.curToken.Type {
	case token.MINUS, token.TILDE:
		tok := p.curToken
		op := ast.Minus
		if tok.Type == token.TILDE {
			op = ast.BitwiseNot
		}
		p.nextToken()
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Token: tok, Operator: op, Term: term}, nil
	}
	return p.parseTerm()
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	if err := p.lexError(); err != nil {
		return nil, err
	}

	switch p.curToken.Type {
	case token.NUMBER:
		tok := p.curToken
		p.nextToken()
		return &ast.NumericLiteral{Token: tok, Value: tok.Number}, nil
	case token.IDENT, token.PRINT, token.IF:
		if p.peekTokenIs(token.LPAREN) {
			return p.parseFunctionCall()
		}
		tok := p.curToken
		p.nextToken()
		return &ast.Variable{Token: tok, Name: tok.Literal}, nil
	case token.LPAREN:
		if p.peekTokenIs(token.BACKSLASH) {
			return p.parseLambdaCall()
		}
		p.nextToken()
		expr, err := p.parseLogicalExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "\")\""); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, newError(p.curToken.Mark,
		"expected expression term, got %q", p.curToken.Literal)
}

var binaryOperators = map[token.TokenType]ast.BinaryOperator{
	token.PLUS:        ast.Add,
	token.MINUS:       ast.Sub,
	token.ASTERISK:    ast.Mul,
	token.SLASH:       ast.Div,
	token.PERCENT:     ast.Mod,
	token.LOGICAL_AND: ast.LogicalAnd,
	token.LOGICAL_OR:  ast.LogicalOr,
	token.AND:         ast.BitAnd,
	token.OR:          ast.BitOr,
	token.XOR:         ast.BitXor,
	token.SHIFT_LEFT:  ast.ShiftLeft,
	token.SHIFT_RIGHT: ast.ShiftRight,
	token.EQ:          ast.Eq,
	token.NOT_EQ:      ast.NotEq,
	token.LT:          ast.Less,
	token.LT_EQ:       ast.LessEq,
	token.GT:          ast.Greater,
	token.GT_EQ:       ast.GreaterEq,
}

func (p *Parser) binaryOperator() (ast.BinaryOperator, error) {
	op, ok := binaryOperators[p.curToken.Type]
	if !ok {
		return 0, newError(p.curToken.Mark,
			"expected operator, got %q", p.curToken.Literal)
	}
	return op, nil
}

var assignmentOperators = map[token.TokenType]ast.AssignmentOperator{
	token.ASSIGN:         ast.Assign,
	token.PLUS_EQ:        ast.PlusEq,
	token.MINUS_EQ:       ast.MinusEq,
	token.ASTERISK_EQ:    ast.MulEq,
	token.SLASH_EQ:       ast.DivEq,
	token.AND_EQ:         ast.AndEq,
	token.OR_EQ:          ast.OrEq,
	token.XOR_EQ:         ast.XorEq,
	token.SHIFT_LEFT_EQ:  ast.ShiftLeftEq,
	token.SHIFT_RIGHT_EQ: ast.ShiftRightEq,
}

func (p *Parser) assignmentOperator() (ast.AssignmentOperator, error) {
	op, ok := assignmentOperators[p.curToken.Type]
	if !ok {
		return 0, newError(p.curToken.Mark,
			"expected assignment operator, got %q", p.curToken.Literal)
	}
	return op, nil
}
