package main

import (
	"os"

	"ledger/internal/cli"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()

	rootCmd := cli.NewRootCommand()
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
