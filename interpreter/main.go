package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/kamilsan/lazy-interpreted-language/evaluator"
	"github.com/kamilsan/lazy-interpreted-language/lexer"
	"github.com/kamilsan/lazy-interpreted-language/parser"
	"github.com/kamilsan/lazy-interpreted-language/semantics"
)

// Start reads and runs a source file, streaming its standard output to
// out, and returns the exit code produced by the program's main.
func Start(filepath string, out io.Writer) int {
	content, err := os.ReadFile(filepath)
	if err != nil {
		fmt.Fprintf(out, "error reading file: %v\n", err)
		return 1
	}
	return Run(string(content), out)
}

// Run executes source text: lex, parse, analyse, evaluate. Any phase
// failure is written to out and yields exit code 1.
func Run(source string, out io.Writer) int {
	l := lexer.New(source)
	p := parser.New(l)

	program, err := p.ParseProgram()
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	if err := semantics.NewAnalyser().Analyse(program); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	e := evaluator.New()
	if err := e.Execute(program); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	io.WriteString(out, e.StandardOut())
	return e.ExitCode()
}
