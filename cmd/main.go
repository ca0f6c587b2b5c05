package main

import (
	"os"

	"mpt-command-center/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
