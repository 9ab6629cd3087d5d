package loader

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ledongthuc/pdf"

	"muetbot/internal/domain"
)

// loadProspectus reads the prospectus PDF, downloading it from the
// fallback URL when the local copy is missing or unreadable.
func (l *Loader) loadProspectus() ([]domain.Document, error) {
	slog.Info("loading prospectus PDF", "path", l.cfg.ProspectusPath)
	docs, err := loadPDF(l.cfg.ProspectusPath)
	if err == nil {
		return docs, nil
	}
	if l.cfg.ProspectusFallbackURL == "" {
		return nil, fmt.Errorf("load prospectus: %w", err)
	}

	slog.Warn("local prospectus unreadable, fetching fallback", "err", err, "url", l.cfg.ProspectusFallbackURL)
	if dlErr := downloadFile(l.cfg.ProspectusFallbackURL, l.cfg.ProspectusPath); dlErr != nil {
		return nil, fmt.Errorf("load prospectus: %w (fallback download: %v)", err, dlErr)
	}
	return loadPDF(l.cfg.ProspectusPath)
}

// loadPDF extracts one document per page.
func loadPDF(path string) ([]domain.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	var docs []domain.Document
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages fail to parse; keep the rest.
			slog.Debug("PDF page extraction failed", "path", path, "page", i, "err", err)
			continue
		}
		if text == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:      hashID(path + ":" + strconv.Itoa(i)),
			Source:  path,
			Content: text,
			Metadata: map[string]string{
				"source": path,
				"page":   strconv.Itoa(i),
			},
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no text extracted from %s (%d pages)", path, numPages)
	}
	return docs, nil
}

// downloadFile fetches url into path atomically.
func downloadFile(url, path string) error {
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
