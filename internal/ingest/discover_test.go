package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHTMLFetcher struct {
	pages   map[string]string
	fetched []string
}

func (s *stubHTMLFetcher) FetchHTML(_ context.Context, url string) (string, string, error) {
	s.fetched = append(s.fetched, url)
	body, ok := s.pages[url]
	if !ok {
		return "", url, errors.New("not found")
	}
	return body, url, nil
}

func TestDiscoverCollectsInternalLinks(t *testing.T) {
	fetcher := &stubHTMLFetcher{pages: map[string]string{
		"https://www.example.edu.pk/": `<html><body>
			<a href="/admissions">Admissions</a>
			<a href="https://www.example.edu.pk/fees#structure">Fees</a>
			<a href="https://facebook.com/example">Social</a>
			<a href="mailto:info@example.edu.pk">Mail</a>
		</body></html>`,
		"https://www.example.edu.pk/admissions": `<a href="/admissions/apply">Apply</a>`,
	}}
	d := NewLinkDiscoverer(fetcher, DiscoverConfig{
		Roots:             []string{"https://www.example.edu.pk/"},
		AllowedDomain:     "example.edu.pk",
		RequestsPerSecond: 1000,
	})
	out := filepath.Join(t.TempDir(), "links.txt")

	links, err := d.Run(context.Background(), out)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.example.edu.pk/admissions",
		"https://www.example.edu.pk/admissions/apply",
		"https://www.example.edu.pk/fees",
	}, links)
}

func TestDiscoverOutputFeedsSeedFilter(t *testing.T) {
	fetcher := &stubHTMLFetcher{pages: map[string]string{
		"https://www.example.edu.pk/": `<a href="/a">a</a><a href="/b">b</a>`,
	}}
	d := NewLinkDiscoverer(fetcher, DiscoverConfig{
		Roots:             []string{"https://www.example.edu.pk/"},
		AllowedDomain:     "example.edu.pk",
		RequestsPerSecond: 1000,
	})
	out := filepath.Join(t.TempDir(), "links.txt")
	_, err := d.Run(context.Background(), out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Total Links: 2\n"))

	site := NewSiteIngestor(nil, SiteConfig{AllowedDomain: "example.edu.pk"})
	seeds := site.filterSeeds(string(data))
	assert.Equal(t, []string{
		"https://www.example.edu.pk/a",
		"https://www.example.edu.pk/b",
	}, seeds)
}

func TestDiscoverMaxPagesValve(t *testing.T) {
	pages := map[string]string{}
	for _, p := range []string{"a", "b", "c", "d"} {
		pages["https://www.example.edu.pk/"+p] = `<a href="/a">a</a><a href="/b">b</a><a href="/c">c</a><a href="/d">d</a>`
	}
	fetcher := &stubHTMLFetcher{pages: pages}
	d := NewLinkDiscoverer(fetcher, DiscoverConfig{
		Roots:             []string{"https://www.example.edu.pk/a"},
		AllowedDomain:     "example.edu.pk",
		MaxPages:          2,
		RequestsPerSecond: 1000,
	})

	_, err := d.Run(context.Background(), filepath.Join(t.TempDir(), "links.txt"))

	require.NoError(t, err)
	assert.Len(t, fetcher.fetched, 2)
}

func TestDiscoverSkipsFailedPages(t *testing.T) {
	fetcher := &stubHTMLFetcher{pages: map[string]string{
		"https://www.example.edu.pk/": `<a href="/gone">gone</a><a href="/ok">ok</a>`,
		"https://www.example.edu.pk/ok": `<html></html>`,
	}}
	d := NewLinkDiscoverer(fetcher, DiscoverConfig{
		Roots:             []string{"https://www.example.edu.pk/"},
		AllowedDomain:     "example.edu.pk",
		RequestsPerSecond: 1000,
	})

	links, err := d.Run(context.Background(), filepath.Join(t.TempDir(), "links.txt"))

	require.NoError(t, err)
	assert.Contains(t, links, "https://www.example.edu.pk/gone")
	assert.Contains(t, links, "https://www.example.edu.pk/ok")
}
