package main

import (
	"os"

	"anggaran/internal/cli"
	"anggaran/internal/commands"
	"anggaran/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Info-level chatter from the sync path would interleave with table
	// output, so the CLI defaults to warnings unless told otherwise.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	log.Setup(level, os.Getenv("LOG_FORMAT"))

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
