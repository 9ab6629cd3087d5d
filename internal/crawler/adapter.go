package crawler

import (
	"context"
	"log/slog"
	"time"

	"muetbot/internal/cleaner"
)

// Adapter fetches a URL's rendered content as markdown. Failures are
// logged and reported through the ok flag rather than an error, so a
// single bad page never aborts an ingestion batch.
type Adapter struct {
	fetcher   *Fetcher
	converter *Converter
	cleaner   *cleaner.Cleaner
}

// NewAdapter wires a fetcher, converter, and cleaner together.
func NewAdapter(timeout time.Duration, userAgent string, cl *cleaner.Cleaner) *Adapter {
	return &Adapter{
		fetcher:   NewFetcher(timeout, userAgent, 0),
		converter: NewConverter(),
		cleaner:   cl,
	}
}

// Fetch retrieves url, converts it to markdown, and runs the cleaner.
// On any failure it returns ("", url, false).
func (a *Adapter) Fetch(ctx context.Context, url string) (text, finalURL string, ok bool) {
	markdown, finalURL, ok := a.fetchMarkdown(ctx, url)
	if !ok {
		return "", url, false
	}
	cleaned := a.cleaner.Clean(markdown)
	if cleaned == "" {
		slog.Warn("page produced no content after cleaning", "url", url)
		return "", finalURL, false
	}
	return cleaned, finalURL, true
}

// FetchRaw retrieves url as markdown without cleaning. Listing pages go
// through here: the cleaner's header patterns would strip the article
// links the news ingestor needs.
func (a *Adapter) FetchRaw(ctx context.Context, url string) (markdown string, ok bool) {
	markdown, _, ok = a.fetchMarkdown(ctx, url)
	return markdown, ok
}

// FetchHTML retrieves url as raw HTML. Link discovery walks pages this
// way, markdown conversion would lose anchors dropped by the excluded
// tag list.
func (a *Adapter) FetchHTML(ctx context.Context, url string) (htmlContent, finalURL string, err error) {
	res, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", url, err
	}
	return string(res.Body), res.FinalURL, nil
}

func (a *Adapter) fetchMarkdown(ctx context.Context, url string) (markdown, finalURL string, ok bool) {
	res, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		slog.Warn("fetch failed", "url", url, "err", err)
		return "", url, false
	}
	markdown, err = a.converter.Convert(res.Body, res.FinalURL)
	if err != nil {
		slog.Warn("markdown conversion failed", "url", url, "err", err)
		return "", url, false
	}
	if markdown == "" {
		slog.Debug("empty page", "url", url)
		return "", res.FinalURL, false
	}
	return markdown, res.FinalURL, true
}
