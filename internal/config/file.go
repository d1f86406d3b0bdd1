package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the anggaran.yaml configuration the CLI reads. The server and
// worker are configured through environment variables instead; the file
// keeps repeated CLI runs from needing a wall of flags.
type File struct {
	Database DatabaseSection `yaml:"database"`
	Export   ExportSection   `yaml:"export"`
	Source   SourceSection   `yaml:"source"`
}

// DatabaseSection locates the SQLite database.
type DatabaseSection struct {
	Path string `yaml:"path"`
}

// ExportSection controls where CSV artifacts land.
type ExportSection struct {
	Dir string `yaml:"dir"`
}

// SourceSection selects and parameterizes the document source.
type SourceSection struct {
	Backend string       `yaml:"backend"`
	Folder  string       `yaml:"folder,omitempty"` // local .xlsx directory for the folder backend
	Drive   DriveSection `yaml:"drive,omitempty"`
}

// DriveSection holds Google Drive access details.
type DriveSection struct {
	FolderID           string `yaml:"folder_id,omitempty"`
	Range              string `yaml:"range,omitempty"`
	ServiceAccountFile string `yaml:"service_account_file,omitempty"`
	OAuthClientFile    string `yaml:"oauth_client_file,omitempty"`
	OAuthTokenFile     string `yaml:"oauth_token_file,omitempty"`
}

// LoadFile reads an anggaran.yaml from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &f, nil
}

// SaveFile writes a File as YAML.
func SaveFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling config file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// DefaultFile returns the configuration a fresh checkout starts from.
func DefaultFile() *File {
	return &File{
		Database: DatabaseSection{Path: "./data/anggaran.db"},
		Export:   ExportSection{Dir: "./data/exports"},
		Source:   SourceSection{Backend: "folder", Folder: "./sheets"},
	}
}

// Config lowers the file onto the environment-style Config so the CLI can
// share the backend factory and validation with the server. File values
// take precedence over environment variables; fields the file leaves empty
// keep whatever Load resolved.
func (f *File) Config() *Config {
	cfg := Load()
	if f.Database.Path != "" {
		cfg.SQLiteDBPath = f.Database.Path
	}
	if f.Export.Dir != "" {
		cfg.ExportDir = f.Export.Dir
	}
	if f.Source.Backend != "" {
		cfg.SourceBackend = f.Source.Backend
	}
	if f.Source.Folder != "" {
		cfg.LocalFolderPath = f.Source.Folder
	}
	if f.Source.Drive.FolderID != "" {
		cfg.GoogleDriveFolder = f.Source.Drive.FolderID
	}
	if f.Source.Drive.Range != "" {
		cfg.SheetsRange = f.Source.Drive.Range
	}
	if f.Source.Drive.ServiceAccountFile != "" {
		cfg.GoogleServiceAccountFile = f.Source.Drive.ServiceAccountFile
	}
	if f.Source.Drive.OAuthClientFile != "" {
		cfg.GoogleOAuthClientFile = f.Source.Drive.OAuthClientFile
	}
	if f.Source.Drive.OAuthTokenFile != "" {
		cfg.GoogleOAuthTokenFile = f.Source.Drive.OAuthTokenFile
	}
	return cfg
}
