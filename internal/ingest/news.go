package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"muetbot/internal/domain"
)

// recordSeparator ends each persisted article record.
const recordSeparator = "\n\n" + "================================================================================" + "\n\n"

// noResultsMarker appears on a listing page past the last page of
// articles.
const noResultsMarker = "No results"

// NewsConfig controls the paginated news walk.
type NewsConfig struct {
	// BaseURL is the site root, e.g. "https://www.muet.edu.pk".
	BaseURL string

	// ListingPath is the paginated listing endpoint; the page number is
	// appended as a query parameter.
	ListingPath string

	// ArticlePrefix is the URL prefix an extracted link must carry to
	// count as an article.
	ArticlePrefix string

	// MaxPages bounds the listing walk. Termination is normally driven
	// by an empty page, this is a safety valve against unexpected
	// listing formats.
	MaxPages int

	// RequestsPerSecond bounds the fetch rate, same politeness rule as
	// the site crawl.
	RequestsPerSecond float64
}

func (c *NewsConfig) applyDefaults() {
	if c.ListingPath == "" {
		c.ListingPath = "/about/news-events"
	}
	if c.ArticlePrefix == "" {
		c.ArticlePrefix = c.BaseURL + "/news-events/"
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 100
	}
}

// NewsIngestor walks the paginated news listing, fetches every
// discovered article, and persists the records.
type NewsIngestor struct {
	fetcher PageFetcher
	cfg     NewsConfig

	linkRe   *regexp.Regexp
	windowRe *regexp.Regexp
	limiter  *rate.Limiter
}

// NewNewsIngestor creates a paginated news ingestor.
func NewNewsIngestor(fetcher PageFetcher, cfg NewsConfig) *NewsIngestor {
	cfg.applyDefaults()
	// Article links appear in markdown as (<prefix>...), the content
	// window sits between the Search link and the Explore link.
	linkRe := regexp.MustCompile(`\((` + regexp.QuoteMeta(cfg.ArticlePrefix) + `[^\s)]+)\)`)
	windowRe := regexp.MustCompile(
		`\[ Search\s+\]\(` + regexp.QuoteMeta(cfg.BaseURL) + `/search\)([\s\S]*?)\[ Explore \]\(` + regexp.QuoteMeta(cfg.BaseURL) + `/about "Explore"\)`)
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &NewsIngestor{
		fetcher:  fetcher,
		cfg:      cfg,
		linkRe:   linkRe,
		windowRe: windowRe,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Run discovers and fetches all articles, then persists them to
// outputPath. Articles whose content window could not be located are
// recorded with empty content rather than dropped.
func (n *NewsIngestor) Run(ctx context.Context, outputPath string) ([]domain.Article, error) {
	links, err := n.discoverLinks(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("article links discovered", "count", len(links))

	var articles []domain.Article
	for i, link := range links {
		if err := n.limiter.Wait(ctx); err != nil {
			return articles, err
		}
		slog.Info("fetching article", "n", i+1, "total", len(links), "url", link)
		markdown, ok := n.fetcher.FetchRaw(ctx, link)
		if !ok {
			continue
		}
		articles = append(articles, domain.Article{
			URL:     link,
			Content: n.extractWindow(markdown),
		})
	}

	if err := n.save(articles, outputPath); err != nil {
		return articles, err
	}
	slog.Info("news ingestion finished", "articles", len(articles), "output", outputPath)
	return articles, nil
}

// discoverLinks walks listing pages from page 0 until a page yields no
// links or contains the no-results marker.
func (n *NewsIngestor) discoverLinks(ctx context.Context) ([]string, error) {
	all := make(map[string]struct{})
	for page := 0; page < n.cfg.MaxPages; page++ {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		url := fmt.Sprintf("%s%s?page=%d", n.cfg.BaseURL, n.cfg.ListingPath, page)
		slog.Info("crawling listing page", "page", page)

		markdown, ok := n.fetcher.FetchRaw(ctx, url)
		if !ok || strings.Contains(markdown, noResultsMarker) {
			break
		}
		links := n.extractArticleLinks(markdown)
		if len(links) == 0 {
			break
		}
		for _, link := range links {
			all[link] = struct{}{}
		}
	}

	links := make([]string, 0, len(all))
	for link := range all {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

// extractArticleLinks pulls article URLs out of listing markdown,
// deduplicated with URL fragments stripped.
func (n *NewsIngestor) extractArticleLinks(markdown string) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, m := range n.linkRe.FindAllStringSubmatch(markdown, -1) {
		link, _, _ := strings.Cut(m[1], "#")
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// extractWindow returns the article body between the Search and Explore
// structural markers, or "" when both markers are not present.
func (n *NewsIngestor) extractWindow(markdown string) string {
	m := n.windowRe.FindStringSubmatch(markdown)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// save writes one delimited block per article: the URL line, the
// content, and a separator line.
func (n *NewsIngestor) save(articles []domain.Article, outputPath string) error {
	var sb strings.Builder
	for _, a := range articles {
		sb.WriteString("URL: " + a.URL + "\n")
		sb.WriteString(a.Content)
		sb.WriteString(recordSeparator)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write news dump: %w", err)
	}
	return nil
}
