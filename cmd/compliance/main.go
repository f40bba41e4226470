package main

import (
	"os"

	"github.com/bryanwahyu/automaton-compliance/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
