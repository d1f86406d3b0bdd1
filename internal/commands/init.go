package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"anggaran/internal/backend"
	"anggaran/internal/config"
)

func newInitCommand() *cobra.Command {
	var backendName string
	var folder string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter anggaran.yaml and create the data directories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, backendName, folder)
		},
	}

	cmd.Flags().StringVar(&backendName, "backend", "folder", "document source backend (memory, folder, drive)")
	cmd.Flags().StringVar(&folder, "folder", "./sheets", "local sheet directory for the folder backend")

	return cmd
}

func runInit(cmd *cobra.Command, dir, backendName, folder string) error {
	if !backend.Type(backendName).IsValid() {
		return fmt.Errorf("invalid backend %q: must be one of %v", backendName, backend.Types())
	}

	configPath := filepath.Join(dir, "anggaran.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	f := config.DefaultFile()
	f.Source.Backend = backendName
	if backendName == "folder" {
		f.Source.Folder = folder
	} else {
		f.Source.Folder = ""
	}

	dirs := []string{filepath.Dir(f.Database.Path), f.Export.Dir}
	if backendName == "folder" {
		dirs = append(dirs, folder)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.SaveFile(configPath, f); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized anggaran project at %s\n", dir)
	return nil
}
