package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/askdoc/askdoc/internal/adapters/driving/cli"
)

func main() {
	// API keys and connection strings may live in a local .env file.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
