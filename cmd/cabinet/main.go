// Package main is the cabinet command-line entry point.
package main

import (
	"os"

	"github.com/mesh-intelligence/cabinet/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
