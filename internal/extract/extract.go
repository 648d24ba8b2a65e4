// Package extract turns uploaded documents into plain text for the
// enrichment pipeline.
package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// htmlTagPattern matches common HTML tags to detect markup in files that
// arrive without a useful extension.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote|html|body)[\s>/]`)

// Text extracts readable text from an uploaded document. Dispatch is by file
// extension: .txt and .md are returned as-is, .html and .htm are converted
// to markdown, anything else falls back to a lossy UTF-8 read with HTML
// conversion when the content looks like markup.
func Text(key string, data []byte) (string, error) {
	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}

	switch strings.ToLower(filepath.Ext(key)) {
	case ".txt", ".md":
		return strings.TrimSpace(content), nil
	case ".html", ".htm":
		return htmlToText(content)
	default:
		if containsHTML(content) {
			return htmlToText(content)
		}
		return strings.TrimSpace(content), nil
	}
}

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

func htmlToText(s string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
