package content

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// htmlTagPattern detects common HTML tags such as <p>, <br> or <em>.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// htmlToMarkdown converts an HTML description to Markdown.
// Plain text, and anything the converter rejects, is returned unchanged.
func htmlToMarkdown(s string) string {
	if s == "" || !containsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
