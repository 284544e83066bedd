package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/kamilsan/lazy-interpreted-language/evaluator"
	"github.com/kamilsan/lazy-interpreted-language/lexer"
	"github.com/kamilsan/lazy-interpreted-language/parser"
)

const (
	prompt      = ">> "
	historyFile = ".lil_history"
)

// Start runs an expression REPL: each line is parsed as a call-argument
// expression (so string concatenation with ":" works) and evaluated
// against a fresh context.
func Start(out io.Writer) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	historyPath := historyPath()
	if f, err := os.Open(historyPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			saveHistory(ln, historyPath)
			return
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		evalLine(line, out)
	}
}

func evalLine(line string, out io.Writer) {
	l := lexer.New(line)
	p := parser.New(l)

	expr, err := p.ParseCallArgument()
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if !p.AtEnd() {
		fmt.Fprintln(out, "ERROR: unexpected trailing input")
		return
	}

	value, err := evaluator.New().EvalExpression(expr)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if value != nil {
		fmt.Fprintln(out, value.Inspect())
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

func saveHistory(ln *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	ln.WriteHistory(f)
}
