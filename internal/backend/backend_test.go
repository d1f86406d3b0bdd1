package backend

import (
	"context"
	"testing"

	"anggaran/internal/config"
)

func TestTypeIsValid(t *testing.T) {
	cases := []struct {
		in   Type
		want bool
	}{
		{MemoryBackend, true},
		{FolderBackend, true},
		{DriveBackend, true},
		{Type("sqlite"), false},
		{Type(""), false},
	}
	for _, tc := range cases {
		if got := tc.in.IsValid(); got != tc.want {
			t.Errorf("Type(%q).IsValid() = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewMemorySource(t *testing.T) {
	src, err := New(context.Background(), &config.Config{SourceBackend: "memory"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	files, err := src.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(files) == 0 {
		t.Fatal("memory source should come seeded with sample documents")
	}
}

func TestNewFolderSource(t *testing.T) {
	src, err := New(context.Background(), &config.Config{
		SourceBackend:   "folder",
		LocalFolderPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	files, err := src.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("empty folder listed %d documents", len(files))
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), &config.Config{SourceBackend: "sqlite"}); err == nil {
		t.Fatal("New() accepted an unknown backend")
	}
	if _, err := New(context.Background(), nil); err == nil {
		t.Fatal("New() accepted a nil config")
	}
}
