package crawler

import (
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// excludedTags are the page regions dropped before markdown conversion.
var excludedTags = []string{
	"header", "footer", "nav", "aside",
	"script", "style", "noscript", "iframe",
}

// Converter turns fetched HTML into markdown, dropping navigational
// regions and links that point off the page's own domain.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates an HTML to markdown converter.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Convert transforms HTML into markdown. baseURL determines which links
// count as external; external anchors are unwrapped so their text
// survives but the link does not.
func (c *Converter) Convert(htmlContent []byte, baseURL string) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(htmlContent)))
	if err != nil {
		return "", err
	}

	removeElements(doc, excludedTags)
	if host := hostOf(baseURL); host != "" {
		unwrapExternalLinks(doc, host)
	}

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return "", err
	}

	markdown, err := c.converter.ConvertString(sb.String())
	if err != nil {
		return "", err
	}
	return cleanMarkdown(markdown), nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// removeElements removes all elements with the given tag names.
func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && tagSet[node.Data] {
			toRemove = append(toRemove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// unwrapExternalLinks replaces anchors pointing outside host with their
// child nodes, keeping the anchor text in the output.
func unwrapExternalLinks(n *html.Node, host string) {
	var toUnwrap []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			for _, a := range node.Attr {
				if a.Key != "href" {
					continue
				}
				target, err := url.Parse(a.Val)
				if err == nil && target.Hostname() != "" && !strings.EqualFold(target.Hostname(), host) {
					toUnwrap = append(toUnwrap, node)
				}
				break
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toUnwrap {
		parent := node.Parent
		if parent == nil {
			continue
		}
		for child := node.FirstChild; child != nil; {
			next := child.NextSibling
			node.RemoveChild(child)
			parent.InsertBefore(child, node)
			child = next
		}
		parent.RemoveChild(node)
	}
}

// cleanMarkdown collapses excessive blank lines and trims trailing
// whitespace from every line.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
