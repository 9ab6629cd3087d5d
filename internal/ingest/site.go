// Package ingest fetches university content and persists it as local
// text artifacts for the document loader.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"
)

// pageDelimiter separates page texts in the site dump file.
const pageDelimiter = "\n\n\n"

// PageFetcher is the crawl capability the ingestors depend on.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (text, finalURL string, ok bool)
	FetchRaw(ctx context.Context, url string) (markdown string, ok bool)
}

// SiteConfig controls seed filtering and crawl politeness.
type SiteConfig struct {
	// AllowedDomain must appear in a seed URL for it to be crawled.
	AllowedDomain string

	// ExcludeSubstrings drops seed URLs containing any of these, such
	// as social media links.
	ExcludeSubstrings []string

	// RequestsPerSecond bounds the crawl rate. The delay between
	// requests is a politeness requirement toward the target site, not
	// an optimization.
	RequestsPerSecond float64
}

// SiteIngestor crawls every seed URL and writes the concatenated
// cleaned text to a dump file.
type SiteIngestor struct {
	fetcher PageFetcher
	cfg     SiteConfig
	limiter *rate.Limiter
}

// NewSiteIngestor creates a bulk site ingestor.
func NewSiteIngestor(fetcher PageFetcher, cfg SiteConfig) *SiteIngestor {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &SiteIngestor{
		fetcher: fetcher,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Run reads newline-delimited seed URLs from seedPath, crawls the ones
// that survive filtering, and writes all collected texts to outputPath,
// overwriting prior content. Partial failures are non-fatal: whatever
// succeeded is saved.
func (s *SiteIngestor) Run(ctx context.Context, seedPath, outputPath string) (texts []string, urls []string, err error) {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read seed list: %w", err)
	}

	seeds := s.filterSeeds(string(data))
	slog.Info("site ingestion started", "seeds", len(seeds))

	for i, seed := range seeds {
		if err := s.limiter.Wait(ctx); err != nil {
			return texts, urls, err
		}
		slog.Info("crawling", "n", i+1, "total", len(seeds), "url", seed)
		text, finalURL, ok := s.fetcher.Fetch(ctx, seed)
		if !ok {
			continue
		}
		texts = append(texts, text)
		urls = append(urls, finalURL)
	}

	var sb strings.Builder
	for _, text := range texts {
		sb.WriteString(text)
		sb.WriteString(pageDelimiter)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return texts, urls, err
	}
	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o644); err != nil {
		return texts, urls, fmt.Errorf("write site dump: %w", err)
	}

	slog.Info("site ingestion finished", "pages", len(texts), "failed", len(seeds)-len(texts), "output", outputPath)
	return texts, urls, nil
}

// filterSeeds keeps URLs in input order that look like URLs, belong to
// the allowed domain, and match no exclusion substring.
func (s *SiteIngestor) filterSeeds(content string) []string {
	var seeds []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
			continue
		}
		if s.cfg.AllowedDomain != "" && !strings.Contains(line, s.cfg.AllowedDomain) {
			continue
		}
		if s.excluded(line) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		seeds = append(seeds, line)
	}
	return seeds
}

func (s *SiteIngestor) excluded(url string) bool {
	for _, sub := range s.cfg.ExcludeSubstrings {
		if sub != "" && strings.Contains(url, sub) {
			return true
		}
	}
	return false
}
