package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBasics(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("# Hello World\n\nSome *text* and `code`.\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h1 id="hello-world">Hello World</h1>`)
	assert.Contains(t, html, "<em>text</em>")
	assert.Contains(t, html, "<code>code</code>")
}

func TestRenderRawHTMLPassthrough(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("<div class=\"embed\">kept as-is</div>\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `<div class="embed">kept as-is</div>`)
}

func TestRenderUnterminatedFenceRunsToEnd(t *testing.T) {
	r := NewRenderer()

	body := "Intro paragraph.\n\n```go\nfmt.Println(\"hi\")\n\nStill inside the fence.\n"
	out, err := r.Render([]byte(body))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<pre><code class="language-go">`)
	assert.Contains(t, html, "fmt.Println(&quot;hi&quot;)")
	// Everything after the opening fence stays literal code text.
	assert.Contains(t, html, "Still inside the fence.")
	assert.NotContains(t, html, "<p>Still inside the fence.</p>")
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer()
	body := []byte("# Title\n\n- one\n- two\n\n[link](/about/) and ~~gone~~.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")

	first, err := r.Render(body)
	require.NoError(t, err)
	second, err := r.Render(body)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractLinks(t *testing.T) {
	r := NewRenderer()

	body := []byte(`See [the about page](/about/) and ![logo](/img/logo.png).

Visit <https://example.com/> too.

Also [the docs][ref].

[ref]: /docs/
`)

	links := r.ExtractLinks(body)

	byKind := make(map[LinkKind][]string)
	for _, l := range links {
		byKind[l.Kind] = append(byKind[l.Kind], l.Destination)
	}

	assert.Contains(t, byKind[LinkKindInline], "/about/")
	assert.Contains(t, byKind[LinkKindImage], "/img/logo.png")
	assert.Contains(t, byKind[LinkKindAuto], "https://example.com/")
	// Reference usage resolves to a destination-bearing link; the definition
	// itself is reported separately.
	assert.Contains(t, byKind[LinkKindInline], "/docs/")
	assert.Contains(t, byKind[LinkKindReferenceDefinition], "/docs/")
}

func TestExtractLinksEmptyBody(t *testing.T) {
	r := NewRenderer()
	assert.Empty(t, r.ExtractLinks([]byte("Just prose, no links.\n")))
}
