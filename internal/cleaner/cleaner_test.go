package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_EmptyInput(t *testing.T) {
	c := New()
	assert.Equal(t, "", c.Clean(""))
}

func TestClean_SkipLinkBanner(t *testing.T) {
	c := New()
	in := "[Skip to Main Content] stuff here\n\n# Admissions\n\nApply before June."
	got := c.Clean(in)
	assert.NotContains(t, got, "Skip to Main Content")
	assert.Contains(t, got, "Apply before June.")
}

func TestClean_TrailingLogoBlock(t *testing.T) {
	c := New()
	in := "Department of Software Engineering offers BE and ME programs.\n![Mehran University official Logo](https://www.muet.edu.pk/logo.png)\nfooter junk\nmore footer"
	got := c.Clean(in)
	assert.Contains(t, got, "Software Engineering")
	assert.NotContains(t, got, "official Logo")
	assert.NotContains(t, got, "footer junk")
}

func TestClean_CaseInsensitive(t *testing.T) {
	c := New()
	in := "[ skip to main content ] nav nav nav\n####heading\nbody text"
	got := c.Clean(in)
	assert.NotContains(t, got, "nav nav nav")
	assert.Contains(t, got, "body text")
}

func TestClean_Idempotent(t *testing.T) {
	c := New()
	inputs := []string{
		"[Skip to Main Content] banner\n\n# Page\n\nContent body.",
		"plain text with no noise at all",
		"tail\n![Mehran University official Logo](x.png)\njunk",
		"",
	}
	for _, in := range inputs {
		once := c.Clean(in)
		twice := c.Clean(once)
		assert.Equal(t, once, twice, "clean must be idempotent for %q", in)
	}
}

func TestClean_OrderIsCumulative(t *testing.T) {
	// The second pattern must see the output of the first, not the
	// original input.
	c := NewWithPatterns([]string{`a+`, `bb`})
	assert.Equal(t, "c", c.Clean("abab c"))
}
