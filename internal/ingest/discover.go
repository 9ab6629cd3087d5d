package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// HTMLFetcher retrieves a page as raw HTML.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, url string) (htmlContent, finalURL string, err error)
}

// DiscoverConfig controls the seed link discovery walk.
type DiscoverConfig struct {
	// Roots are the entry points of the walk.
	Roots []string

	// AllowedDomain must be a suffix of a link's hostname for the link
	// to count as internal.
	AllowedDomain string

	// MaxPages bounds how many pages are visited.
	MaxPages int

	// RequestsPerSecond bounds the walk rate.
	RequestsPerSecond float64
}

// LinkDiscoverer walks the site breadth-first and records every
// internal link it sees. The result seeds the full site crawl.
type LinkDiscoverer struct {
	fetcher HTMLFetcher
	cfg     DiscoverConfig
	limiter *rate.Limiter
}

// NewLinkDiscoverer creates a discoverer over an HTML fetcher.
func NewLinkDiscoverer(fetcher HTMLFetcher, cfg DiscoverConfig) *LinkDiscoverer {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 2000
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &LinkDiscoverer{
		fetcher: fetcher,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Run walks the site from the configured roots and writes the sorted
// link list to outputPath, one URL per line. Pages that fail to fetch
// are skipped.
func (d *LinkDiscoverer) Run(ctx context.Context, outputPath string) ([]string, error) {
	visited := make(map[string]bool)
	found := make(map[string]bool)
	queue := append([]string(nil), d.cfg.Roots...)

	for len(queue) > 0 && len(visited) < d.cfg.MaxPages {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		htmlContent, finalURL, err := d.fetcher.FetchHTML(ctx, current)
		if err != nil {
			slog.Warn("discovery fetch failed", "url", current, "err", err)
			continue
		}

		base, err := url.Parse(finalURL)
		if err != nil {
			continue
		}
		for _, link := range extractLinks(htmlContent, base) {
			if !d.internal(link) {
				continue
			}
			found[link] = true
			if !visited[link] {
				queue = append(queue, link)
			}
		}
	}

	links := make([]string, 0, len(found))
	for link := range found {
		links = append(links, link)
	}
	sort.Strings(links)

	if err := d.save(links, outputPath); err != nil {
		return nil, err
	}
	slog.Info("link discovery complete", "visited", len(visited), "links", len(links))
	return links, nil
}

func (d *LinkDiscoverer) internal(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), d.cfg.AllowedDomain)
}

func (d *LinkDiscoverer) save(links []string, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Total Links: %d\n", len(links))
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	for _, link := range links {
		b.WriteString(link + "\n")
	}
	return os.WriteFile(outputPath, []byte(b.String()), 0o644)
}

// extractLinks pulls every anchor href out of the page, resolved
// against base with fragments stripped.
func extractLinks(htmlContent string, base *url.URL) []string {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				resolved := base.ResolveReference(ref)
				if resolved.Scheme != "http" && resolved.Scheme != "https" {
					continue
				}
				resolved.Fragment = ""
				links = append(links, resolved.String())
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links
}
