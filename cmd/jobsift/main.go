package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Secrets (API keys, sink tokens) may live in a local .env file; a missing
	// file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
