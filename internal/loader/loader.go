// Package loader reads persisted text and PDF artifacts into documents.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"muetbot/internal/domain"
)

// Config points the loader at the prospectus artifact.
type Config struct {
	// MainDumpName is the filename of the bulk site dump. Loading it
	// also pulls in the prospectus PDF.
	MainDumpName string

	// ProspectusPath is where the prospectus PDF lives on disk.
	ProspectusPath string

	// ProspectusFallbackURL is fetched when the local PDF is missing or
	// unreadable. If the download also fails, the error propagates: a
	// missing core artifact makes the pipeline non-functional.
	ProspectusFallbackURL string
}

// Loader turns artifact files into documents.
type Loader struct {
	cfg Config
}

// New creates a document loader.
func New(cfg Config) *Loader {
	if cfg.MainDumpName == "" {
		cfg.MainDumpName = "muet_data.txt"
	}
	return &Loader{cfg: cfg}
}

// Load reads a UTF-8 text file into exactly one document. When the path
// is the main site dump, the prospectus PDF is loaded as well, one
// document per page.
func (l *Loader) Load(path string) ([]domain.Document, error) {
	slog.Info("loading document", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	docs := []domain.Document{{
		ID:      hashID(path),
		Source:  path,
		Content: string(data),
		Metadata: map[string]string{
			"source": path,
		},
	}}

	if filepath.Base(path) == l.cfg.MainDumpName && l.cfg.ProspectusPath != "" {
		pdfDocs, err := l.loadProspectus()
		if err != nil {
			return nil, err
		}
		docs = append(docs, pdfDocs...)
	}
	return docs, nil
}

// LoadAll loads every existing path, skipping missing files with a
// warning. It errors when nothing could be loaded at all.
func (l *Loader) LoadAll(paths []string) ([]domain.Document, error) {
	var docs []domain.Document
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			slog.Warn("artifact not found, skipping", "path", path)
			continue
		}
		loaded, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents were loaded from %s", strings.Join(paths, ", "))
	}
	return docs, nil
}

func hashID(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
