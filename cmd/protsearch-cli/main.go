// Package main is the entry point for the protsearch command line client.
package main

import (
	"fmt"
	"os"

	"github.com/kailas-cloud/protsearch/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
