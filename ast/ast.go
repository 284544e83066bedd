package ast

import (
	"bytes"

	"github.com/kamilsan/lazy-interpreted-language/token"
)

type Node interface {
	TokenLiteral() string
	Mark() token.Mark
	String() string
}

type Expression interface {
	Node
	expressionNode()
}

type Statement interface {
	Node
	statementNode()
}

// Program owns the top-level declarations in the source order they
// appeared, variables and functions tracked separately.
type Program struct {
	Variables []*VariableDeclaration
	Functions []*FunctionDeclaration
}

func (p *Program) TokenLiteral() string {
	if len(p.Variables) > 0 {
		return p.Variables[0].TokenLiteral()
	}
	if len(p.Functions) > 0 {
		return p.Functions[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Mark() token.Mark {
	if len(p.Variables) > 0 {
		return p.Variables[0].Mark()
	}
	if len(p.Functions) > 0 {
		return p.Functions[0].Mark()
	}
	return token.Mark{Line: 1, Column: 0}
}

func (p *Program) String() string {
	var out bytes.Buffer

	for _, v := range p.Variables {
		out.WriteString(v.String())
		out.WriteString("\n")
	}
	for _, f := range p.Functions {
		out.WriteString(f.String())
		out.WriteString("\n")
	}

	return out.String()
}

// Parameter is a (name, type) pair of a function or lambda parameter.
type Parameter struct {
	Name string
	Type Type
}

func (p Parameter) String() string {
	return p.Name + ": " + p.Type.String()
}
