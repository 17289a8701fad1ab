// Package markdown converts unit bodies to HTML and provides link-level
// analysis of markdown sources for lint rules.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown bodies to HTML.
//
// Rendering is a pure function of the input bytes: the same body always
// produces the same HTML. Malformed markdown never fails a unit; CommonMark
// degrades gracefully (an unterminated code fence simply runs to end of
// input as literal code text).
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds the converter used for every unit in a run.
//
// Raw HTML passthrough is enabled: content units are authored by the site
// owner, and bodies routinely embed HTML the way blog posts do.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}
}

// Render converts one markdown body to HTML.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
