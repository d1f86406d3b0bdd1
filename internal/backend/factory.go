package backend

import (
	"context"
	"fmt"
	"log/slog"

	"anggaran/internal/config"
	"anggaran/internal/sheets"
	"anggaran/internal/sheets/drive"
	"anggaran/internal/sheets/memory"
	"anggaran/internal/sheets/xlsx"
)

// New constructs the source cfg.SourceBackend names. All current sources
// are connectionless, so there is nothing to close; callers own the
// lifecycle of everything else they wire the source into.
func New(ctx context.Context, cfg *config.Config) (sheets.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	switch Type(cfg.SourceBackend) {
	case MemoryBackend:
		slog.InfoContext(ctx, "Initialized memory source")
		return memory.Sample(), nil

	case FolderBackend:
		slog.InfoContext(ctx, "Initialized folder source", "path", cfg.LocalFolderPath)
		return xlsx.New(cfg.LocalFolderPath), nil

	case DriveBackend:
		client, err := drive.New(ctx, drive.Config{
			FolderID:           cfg.GoogleDriveFolder,
			Range:              cfg.SheetsRange,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			OAuthClientFile:    cfg.GoogleOAuthClientFile,
			OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Drive source: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("invalid source backend %q: must be one of %v", cfg.SourceBackend, Types())
	}
}
