package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"embryon/pkg/interp"
	"embryon/pkg/utils"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
)

const (
	historyFile = ".embryon_history"
	promptMain  = "embryon> "
	promptCont  = "     ... "
)

const help = `Enter fn/const definitions, or an expression to evaluate.
  :ir     print the IR of the current definitions
  :reset  forget all definitions
  :quit   exit`

func main() {
	maxSteps := flag.Int("max-steps", interp.DefaultMaxSteps, "instruction budget per evaluation")
	flag.Parse()

	s := newSession(*maxSteps)
	if flag.NArg() > 0 {
		fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			log.Fatalf("Bad path: %v", err)
		}
		src, err := os.ReadFile(fullPath)
		if err != nil {
			log.Fatalf("Failed to read source file: %v", err)
		}
		out, err := s.eval(string(src))
		if err != nil {
			log.Fatalf("Loading %s failed: %v", fullPath, errors.Cause(err))
		}
		fmt.Println(out)
	}

	os.Exit(repl(s))
}

func repl(s *session) int {
	fmt.Println("embryon console. Type :help for commands.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		if strings.HasPrefix(input, ":") {
			switch strings.ToLower(input) {
			case ":quit", ":q":
				return 0
			case ":help":
				fmt.Println(help)
			case ":reset":
				s.reset()
				fmt.Println("definitions cleared")
			case ":ir":
				text, err := s.ir()
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", errors.Cause(err))
					continue
				}
				fmt.Print(text)
			default:
				fmt.Println("unknown command. Type :help for commands.")
			}
			continue
		}

		out, err := s.eval(input)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", errors.Cause(err))
			continue
		}
		fmt.Println(out)
	}
}

// readInput collects lines until they form a complete input. ok is false
// once the user ends the session with Ctrl+D.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl+C drops the pending input.
			return "", true
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(src) == "" || strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if !incomplete(src) {
			return src, true
		}
	}
}
