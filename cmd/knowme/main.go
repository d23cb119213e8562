package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/kailas-cloud/knowme/internal/cli"
)

func main() {
	// Optional .env with API keys for local runs.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
