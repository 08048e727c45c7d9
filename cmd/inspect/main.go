package main

import (
	"fmt"
	"os"

	"embryon/pkg/compiler"
	"embryon/pkg/utils"
)

const testSource = `const answer = 6 * 7;

fn main() {
	let mut x = 0;
	loop { x = x + answer; break };
	x
}
`

func main() {
	src := testSource
	moduleName := "inspect"
	if len(os.Args) > 1 {
		fullPath, name, err := utils.GetPathInfo(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "path error:", err)
			os.Exit(1)
		}
		data, err := os.ReadFile(fullPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
		moduleName = name
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	mod, err := compiler.Parse(src, moduleName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("AST")
	for _, d := range mod.Definitions {
		fmt.Println(" ", d)
	}
	fmt.Println()

	// code Generation
	syms := compiler.NewSymbolTable()
	m, err := compiler.Generate(mod, syms)
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Println("Generated IR")
	fmt.Print(m)
	fmt.Println()
	fmt.Print(syms)
}
