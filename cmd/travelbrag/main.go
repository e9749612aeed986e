// Package main provides the travelbrag CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/travelbrag/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
