// Package main is the entry point for qlctl, the operator CLI for the
// quantum-learning server.
package main

import (
	"fmt"
	"os"

	"github.com/adarsh-anand15/quantum-learning/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
