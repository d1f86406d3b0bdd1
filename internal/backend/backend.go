// Package backend constructs the document source named by configuration.
package backend

import "anggaran/internal/config"

// Type names a document source implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	FolderBackend Type = "folder"
	DriveBackend  Type = "drive"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t names a known source implementation.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, FolderBackend, DriveBackend:
		return true
	default:
		return false
	}
}

// Types returns every valid backend type, for error messages and CLI help.
func Types() []Type {
	return []Type{MemoryBackend, FolderBackend, DriveBackend}
}

// Reference returns the source identifier stamped on sync records:
// the folder path or Drive folder id, empty for the memory backend.
func Reference(cfg *config.Config) string {
	switch Type(cfg.SourceBackend) {
	case FolderBackend:
		return cfg.LocalFolderPath
	case DriveBackend:
		return cfg.GoogleDriveFolder
	default:
		return ""
	}
}
