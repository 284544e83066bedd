package main

import (
	"fmt"
	"os"

	"github.com/kamilsan/lazy-interpreted-language/interpreter"
	"github.com/kamilsan/lazy-interpreted-language/repl"
)

func main() {
	switch len(os.Args) {
	case 1:
		repl.Start(os.Stdout)
	case 2:
		os.Exit(interpreter.Start(os.Args[1], os.Stdout))
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [source_file]\n", os.Args[0])
		os.Exit(1)
	}
}
