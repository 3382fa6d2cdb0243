package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote),
	goldmark.WithRendererOptions(
		// Raw HTML passes through goldmark and is cleaned by the sanitizer
		html.WithUnsafe(),
	),
)

// UGC policy keeps code blocks and links but strips scripts and event handlers
var sanitizer = bluemonday.UGCPolicy()

// Markdown converts a Markdown document body to sanitized HTML
func Markdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown conversion error: %w", err)
	}
	return sanitizer.Sanitize(buf.String()), nil
}
