package main

import (
	"os"

	"github.com/harun/sequent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
