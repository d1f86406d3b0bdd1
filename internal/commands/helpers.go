package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"anggaran/internal/config"
	"anggaran/internal/core"
	"anggaran/internal/storage"
)

const defaultConfigPath = "anggaran.yaml"

// loadConfig resolves the CLI configuration: the anggaran.yaml at path
// when it exists, the environment otherwise. A missing file is only an
// error when the caller asked for a non-default path.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return f.Config(), nil
	}
	if path != defaultConfigPath {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	return config.Load(), nil
}

// openRepo opens the SQLite repository, creating the parent directory
// on first use.
func openRepo(cfg *config.Config) (*storage.SQLiteRepository, error) {
	return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
}

// findDocument resolves a stored document from a numeric id or its name.
func findDocument(ctx context.Context, repo *storage.SQLiteRepository, arg string) (core.Document, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return repo.GetDocument(ctx, id)
	}

	docs, _, err := repo.ListDocuments(ctx, storage.ListFilter{Search: arg, PerPage: 500})
	if err != nil {
		return core.Document{}, err
	}
	for _, doc := range docs {
		if doc.Name == arg {
			return doc, nil
		}
	}
	return core.Document{}, fmt.Errorf("document %q: %w", arg, core.ErrDocumentNotFound)
}
