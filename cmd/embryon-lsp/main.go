package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"embryon/pkg/lsp"
)

func main() {
	version := flag.Bool("version", false, "print the server version and exit")
	quiet := flag.Bool("quiet", false, "do not trace messages to stderr")
	flag.Parse()

	if *version {
		fmt.Println("embryon-lsp", lsp.Version)
		return
	}

	// stdout carries the protocol; everything else goes to stderr.
	var logOut io.Writer = os.Stderr
	if *quiet {
		logOut = io.Discard
	}
	logger := log.New(logOut, "embryon-lsp: ", log.LstdFlags)

	if err := lsp.NewServer(os.Stdout, logger).Serve(os.Stdin); err != nil {
		log.Fatalf("language server stopped: %v", err)
	}
}
