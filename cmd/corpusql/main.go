// Package main is the entry point for the corpusql CLI.
package main

import (
	"os"

	"github.com/roach88/corpusql/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
