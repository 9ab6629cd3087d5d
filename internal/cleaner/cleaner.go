// Package cleaner strips navigation and boilerplate noise from crawled
// markdown before it is persisted for indexing.
package cleaner

import (
	"regexp"
	"strings"
)

// Cleaner removes boilerplate spans from markdown using an ordered list
// of patterns. Later patterns operate on the output of earlier ones, so
// removal is cumulative.
type Cleaner struct {
	patterns []*regexp.Regexp
}

// defaultPatterns match the noise the university site emits around page
// content: skip links, repeated markdown headers, and the trailing logo
// image block.
var defaultPatterns = []string{
	`(?is)\[Skip to Main Content\].*?\n{2,}#`,
	`(?is)\[ Skip to main content \].*?\n####`,
	`(?is)\[ Skip to main content \].*?\[ Return focus to the top of the page \]`,
	`(?is)#.*?\n{2,}#`,
	`(?is)!\[Mehran University official Logo\][\s\S]*$`,
}

// New returns a Cleaner with the default removal patterns.
func New() *Cleaner {
	return NewWithPatterns(defaultPatterns)
}

// NewWithPatterns compiles the given patterns in order. Invalid patterns
// panic; the pattern set is static configuration, not user input.
func NewWithPatterns(patterns []string) *Cleaner {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return &Cleaner{patterns: compiled}
}

// Clean applies every removal pattern in order and trims the result.
// Empty input yields an empty string.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}
	cleaned := text
	for _, re := range c.patterns {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}
