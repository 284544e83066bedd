package ast

import (
	"bytes"
	"strings"

	"github.com/kamilsan/lazy-interpreted-language/token"
)

type VariableDeclaration struct {
	Token token.Token
	Name  string
	Type  Type
	Value Expression
}

func (vd *VariableDeclaration) statementNode()       {}
func (vd *VariableDeclaration) TokenLiteral() string { return vd.Token.Literal }
func (vd *VariableDeclaration) Mark() token.Mark     { return vd.Token.Mark }
func (vd *VariableDeclaration) String() string {
	var out bytes.Buffer

	out.WriteString("let ")
	out.WriteString(vd.Name)
	out.WriteString(": ")
	out.WriteString(vd.Type.String())
	out.WriteString(" = ")
	out.WriteString(vd.Value.String())
	out.WriteString(";")

	return out.String()
}

type Assignment struct {
	Token    token.Token
	Name     string
	Operator AssignmentOperator
	Value    Expression
}

func (a *Assignment) statementNode()       {}
func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) Mark() token.Mark     { return a.Token.Mark }
func (a *Assignment) String() string {
	var out bytes.Buffer

	out.WriteString(a.Name)
	out.WriteString(" ")
	out.WriteString(a.Operator.String())
	out.WriteString(" ")
	out.WriteString(a.Value.String())
	out.WriteString(";")

	return out.String()
}

type ReturnStatement struct {
	Token token.Token
	Value Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Mark() token.Mark     { return rs.Token.Mark }
func (rs *ReturnStatement) String() string {
	return "ret " + rs.Value.String() + ";"
}

type Block struct {
	Token      token.Token
	Statements []Statement
}

func (b *Block) statementNode()       {}
func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) Mark() token.Mark     { return b.Token.Mark }
func (b *Block) String() string {
	var out bytes.Buffer

	stmts := []string{}
	for _, stmt := range b.Statements {
		stmts = append(stmts, "    "+stmt.String())
	}

	out.WriteString("{\n")
	out.WriteString(strings.Join(stmts, "\n"))
	out.WriteString("\n}")

	return out.String()
}

type FunctionDeclaration struct {
	Token      token.Token
	Name       string
	ReturnType Type
	Parameters []Parameter
	Body       *Block
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclaration) Mark() token.Mark     { return fd.Token.Mark }
func (fd *FunctionDeclaration) String() string {
	var out bytes.Buffer

	out.WriteString("fn ")
	out.WriteString(fd.Name)
	out.WriteString("(")
	out.WriteString(joinParameters(fd.Parameters))
	out.WriteString("): ")
	out.WriteString(fd.ReturnType.String())
	out.WriteString(" ")
	out.WriteString(fd.Body.String())

	return out.String()
}

// FunctionCallStatement wraps a call expression so a call may appear in
// statement position.
type FunctionCallStatement struct {
	Token token.Token
	Call  Expression
}

func (fcs *FunctionCallStatement) statementNode()       {}
func (fcs *FunctionCallStatement) TokenLiteral() string { return fcs.Token.Literal }
func (fcs *FunctionCallStatement) Mark() token.Mark     { return fcs.Token.Mark }
func (fcs *FunctionCallStatement) String() string {
	return fcs.Call.String() + ";"
}
