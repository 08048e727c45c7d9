package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"

	"embryon/pkg/compiler"
	"embryon/pkg/interp"
	"embryon/pkg/utils"

	"github.com/llir/llvm/ir"
	"github.com/pkg/errors"
)

func main() {
	inPath := flag.String("in", "", "input source file path")
	outPath := flag.String("out", "", "output LLVM IR file path (default: input with .ll extension)")
	target := flag.String("target", "", "target triple recorded in the IR module")
	runLLC := flag.Bool("llc", false, "run llc on the generated IR to produce an assembly file")
	runProgram := flag.Bool("run", false, "run the entry function with the IR interpreter")
	entry := flag.String("entry", "main", "function to run with -run")
	maxSteps := flag.Int("max-steps", interp.DefaultMaxSteps, "instruction budget for -run")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <file>")
		flag.Usage()
		os.Exit(2)
	}

	fullPath, moduleName, err := utils.GetPathInfo(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad input path %q: %v\n", *inPath, err)
		os.Exit(2)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	m, err := compiler.Compile(string(source), moduleName)
	if err != nil {
		// errors.Cause drops the stage prefix so the position follows the file name.
		fmt.Fprintf(os.Stderr, "%s:%v\n", *inPath, errors.Cause(err))
		os.Exit(1)
	}
	if *target != "" {
		m.TargetTriple = *target
	}

	output := *outPath
	if output == "" {
		output = utils.ReplaceExt(*inPath, ".ll")
	}
	if err := writeIR(output, m); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write IR file %q: %v\n", output, err)
		os.Exit(1)
	}
	fmt.Printf("compiled %d functions, %d constants -> %s\n", len(m.Funcs), len(m.Globals), output)

	if *runLLC {
		asmPath := utils.ReplaceExt(output, ".s")
		if err := llc(output, asmPath); err != nil {
			fmt.Fprintf(os.Stderr, "llc failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("llc -> %s\n", asmPath)
	}

	if *runProgram {
		result, err := interp.Run(m, *entry, interp.WithMaxSteps(*maxSteps))
		if err != nil {
			fmt.Fprintf(os.Stderr, "run failed for @%s: %v\n", *entry, err)
			os.Exit(1)
		}
		fmt.Printf("run complete (%s): @%s returned %d\n", output, *entry, result)
	}
}

func writeIR(path string, m *ir.Module) error {
	return os.WriteFile(path, []byte(m.String()), 0o644)
}

// llc hands the IR to the system LLVM static compiler.
func llc(irPath, asmPath string) error {
	cmd := exec.Command("llc", irPath, "-o", asmPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return errors.Wrap(cmd.Run(), "llc")
}
