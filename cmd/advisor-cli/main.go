// Package main provides the advisor CLI entrypoint.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/phonepilot/advisor-engine/cmd/advisor-cli/commands"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
