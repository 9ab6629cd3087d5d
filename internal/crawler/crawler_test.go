package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muetbot/internal/cleaner"
)

const samplePage = `<html>
<head><title>Admissions</title></head>
<body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<header>University header</header>
<main>
<h1>Admissions 2026</h1>
<p>Applications close on <strong>June 30</strong>.</p>
<p>See the <a href="/admissions/fees">fee schedule</a> or our
<a href="https://facebook.com/example">Facebook page</a>.</p>
</main>
<footer>Copyright footer</footer>
</body>
</html>`

func TestConverter_DropsExcludedRegions(t *testing.T) {
	c := NewConverter()
	got, err := c.Convert([]byte(samplePage), "https://www.example.edu.pk/admissions")
	require.NoError(t, err)

	assert.Contains(t, got, "Admissions 2026")
	assert.Contains(t, got, "June 30")
	assert.NotContains(t, got, "University header")
	assert.NotContains(t, got, "Copyright footer")
	assert.NotContains(t, got, "About")
}

func TestConverter_UnwrapsExternalLinks(t *testing.T) {
	c := NewConverter()
	got, err := c.Convert([]byte(samplePage), "https://www.example.edu.pk/admissions")
	require.NoError(t, err)

	// Internal link survives as a link, external one keeps only its text.
	assert.Contains(t, got, "fee schedule")
	assert.Contains(t, got, "Facebook page")
	assert.NotContains(t, got, "facebook.com")
}

func TestAdapter_FetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	a := NewAdapter(5*time.Second, "", cleaner.New())
	text, finalURL, ok := a.Fetch(context.Background(), srv.URL)
	require.True(t, ok)
	assert.Equal(t, srv.URL, finalURL)
	assert.Contains(t, text, "Admissions 2026")
}

func TestAdapter_FetchFailureReturnsOriginalURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAdapter(time.Second, "", cleaner.New())
	text, finalURL, ok := a.Fetch(context.Background(), srv.URL)
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Equal(t, srv.URL, finalURL)
}

func TestAdapter_FetchUnreachable(t *testing.T) {
	a := NewAdapter(500*time.Millisecond, "", cleaner.New())
	_, _, ok := a.Fetch(context.Background(), "http://127.0.0.1:1/none")
	assert.False(t, ok)
}

func TestAdapter_FetchHTMLReturnsRawPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	a := NewAdapter(5*time.Second, "", cleaner.New())
	htmlContent, finalURL, err := a.FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, finalURL)

	// Raw HTML, untouched by conversion: nav anchors and tags survive.
	assert.Contains(t, htmlContent, `<a href="/about">About</a>`)
	assert.Contains(t, htmlContent, "<nav>")
}

func TestAdapter_FetchHTMLError(t *testing.T) {
	a := NewAdapter(500*time.Millisecond, "", cleaner.New())
	_, finalURL, err := a.FetchHTML(context.Background(), "http://127.0.0.1:1/none")
	require.Error(t, err)
	assert.Equal(t, "http://127.0.0.1:1/none", finalURL)
}

func TestFetcher_FollowsRedirects(t *testing.T) {
	var final *httptest.Server
	final = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		w.Write([]byte("<html><body><p>moved content</p></body></html>"))
	}))
	defer final.Close()

	f := NewFetcher(5*time.Second, "", 0)
	res, err := f.Fetch(context.Background(), final.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, final.URL+"/new", res.FinalURL)
}
