package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/kamilsan/lazy-interpreted-language/token"
)

type NumericLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumericLiteral) expressionNode()      {}
func (nl *NumericLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumericLiteral) Mark() token.Mark     { return nl.Token.Mark }
func (nl *NumericLiteral) String() string {
	if nl.Token.Literal != "" {
		return nl.Token.Literal
	}
	return strconv.FormatFloat(nl.Value, 'g', -1, 64)
}

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Mark() token.Mark     { return sl.Token.Mark }
func (sl *StringLiteral) String() string {
	var out bytes.Buffer

	out.WriteByte('"')
	out.WriteString(escapeString(sl.Value))
	out.WriteByte('"')

	return out.String()
}

var stringEscapes = map[byte]string{
	'"':  `\"`,
	'\\': `\\`,
	'\a': `\a`,
	'\b': `\b`,
	'\t': `\t`,
	'\v': `\v`,
	'\n': `\n`,
	'\r': `\r`,
	'\f': `\f`,
}

func escapeString(s string) string {
	var out bytes.Buffer
	for i := 0; i < len(s); i++ {
		if escape, ok := stringEscapes[s[i]]; ok {
			out.WriteString(escape)
		} else {
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

type Variable struct {
	Token token.Token
	Name  string
}

func (v *Variable) expressionNode()      {}
func (v *Variable) TokenLiteral() string { return v.Token.Literal }
func (v *Variable) Mark() token.Mark     { return v.Token.Mark }
func (v *Variable) String() string       { return v.Name }

type UnaryExpression struct {
	Token    token.Token
	Operator UnaryOperator
	Term     Expression
}

func (ue *UnaryExpression) expressionNode()      {}
func (ue *UnaryExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UnaryExpression) Mark() token.Mark     { return ue.Token.Mark }
func (ue *UnaryExpression) String() string {
	return ue.Operator.String() + ue.Term.String()
}

type BinaryExpression struct {
	Token    token.Token
	Left     Expression
	Operator BinaryOperator
	Right    Expression
}

func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) Mark() token.Mark     { return be.Token.Mark }
func (be *BinaryExpression) String() string {
	// Concatenation chains print back in the ":" form they were parsed
	// from, since strings only occur in call arguments.
	if be.Operator == Add && startsWithString(be.Left) {
		return be.Left.String() + " : " + be.Right.String()
	}

	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(be.Left.String())
	out.WriteString(" ")
	out.WriteString(be.Operator.String())
	out.WriteString(" ")
	out.WriteString(be.Right.String())
	out.WriteString(")")

	return out.String()
}

func startsWithString(e Expression) bool {
	switch e := e.(type) {
	case *StringLiteral:
		return true
	case *BinaryExpression:
		return e.Operator == Add && startsWithString(e.Left)
	}
	return false
}

type FunctionCall struct {
	Token     token.Token
	Name      string
	Arguments []Expression
}

func (fc *FunctionCall) expressionNode()      {}
func (fc *FunctionCall) TokenLiteral() string { return fc.Token.Literal }
func (fc *FunctionCall) Mark() token.Mark     { return fc.Token.Mark }
func (fc *FunctionCall) String() string {
	return fc.Name + "(" + joinExpressions(fc.Arguments) + ")"
}

// FunctionResultCall is a call applied to the value produced by another
// call, as in f(a)(b).
type FunctionResultCall struct {
	Token     token.Token
	Callee    Expression
	Arguments []Expression
}

func (frc *FunctionResultCall) expressionNode()      {}
func (frc *FunctionResultCall) TokenLiteral() string { return frc.Token.Literal }
func (frc *FunctionResultCall) Mark() token.Mark     { return frc.Token.Mark }
func (frc *FunctionResultCall) String() string {
	return frc.Callee.String() + "(" + joinExpressions(frc.Arguments) + ")"
}

type Lambda struct {
	Token      token.Token
	ReturnType Type
	Parameters []Parameter
	Body       *Block
}

func (l *Lambda) expressionNode()      {}
func (l *Lambda) TokenLiteral() string { return l.Token.Literal }
func (l *Lambda) Mark() token.Mark     { return l.Token.Mark }
func (l *Lambda) String() string {
	var out bytes.Buffer

	out.WriteString("\\(")
	out.WriteString(joinParameters(l.Parameters))
	out.WriteString("): ")
	out.WriteString(l.ReturnType.String())
	out.WriteString(" = ")
	out.WriteString(l.Body.String())

	return out.String()
}

type LambdaCall struct {
	Token     token.Token
	Lambda    *Lambda
	Arguments []Expression
}

func (lc *LambdaCall) expressionNode()      {}
func (lc *LambdaCall) TokenLiteral() string { return lc.Token.Literal }
func (lc *LambdaCall) Mark() token.Mark     { return lc.Token.Mark }
func (lc *LambdaCall) String() string {
	return "(" + lc.Lambda.String() + ")(" + joinExpressions(lc.Arguments) + ")"
}

func joinExpressions(exprs []Expression) string {
	parts := []string{}
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func joinParameters(params []Parameter) string {
	parts := []string{}
	for _, p := range params {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ", ")
}
