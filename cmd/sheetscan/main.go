package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/sheetscan/sheetscan/cmd/sheetscan/commands"
)

func main() {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
